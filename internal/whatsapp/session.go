package whatsapp

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/pkg/logger"
	"github.com/i-snrdra/SWAG/pkg/prom"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const inboundBuffer = 256

var ErrNotInitialized = errors.New("whatsapp session not initialized")

type Config struct {
	// SessionPath is the sqlite file holding whatsmeow's credential and
	// device state. The gateway never reads it directly.
	SessionPath string

	// QRToTerminal renders pairing codes on stdout for the operator.
	QRToTerminal bool
}

// Manager owns the single WhatsApp session of the process: the live
// whatsmeow client, the connection state machine and the inbound event
// channel. Construct with NewManager, then Initialize, then consume
// Events; Shutdown disconnects.
type Manager struct {
	cfg    Config
	client *whatsmeow.Client

	mu    sync.RWMutex
	state State
	qr    string

	events chan Inbound
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		state:  StateUninitialized,
		events: make(chan Inbound, inboundBuffer),
	}
}

// Initialize restores or creates credentials at the configured path and
// connects. When no device is stored yet the session enters
// PairingRequired and the QR payload becomes available via Status until
// the operator scans it. whatsmeow reconnects on its own after network
// drops; an explicit logout is terminal.
func (m *Manager) Initialize(ctx context.Context) error {
	m.setState(StateInitializing)

	if err := os.MkdirAll(filepath.Dir(m.cfg.SessionPath), 0o755); err != nil {
		return errors.Wrap(err, "create session dir")
	}

	dbLog := waLog.Stdout("Database", "WARN", false)
	container, err := sqlstore.New(ctx, "sqlite3", "file:"+m.cfg.SessionPath+"?_foreign_keys=on", dbLog)
	if err != nil {
		return errors.Wrap(err, "open session store")
	}

	device, err := container.GetFirstDevice(ctx)
	if err == sql.ErrNoRows {
		device = container.NewDevice()
	} else if err != nil {
		return errors.Wrap(err, "load device")
	}

	m.client = whatsmeow.NewClient(device, waLog.Stdout("Client", "WARN", false))
	m.client.EnableAutoReconnect = true
	m.client.AddEventHandler(m.handleEvent)

	if m.client.Store.ID == nil {
		qrChan, err := m.client.GetQRChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "qr channel")
		}
		if err := m.client.Connect(); err != nil {
			return errors.Wrap(err, "connect")
		}
		go m.consumeQR(qrChan)
		return nil
	}

	if err := m.client.Connect(); err != nil {
		return errors.Wrap(err, "connect")
	}
	return nil
}

func (m *Manager) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			m.mu.Lock()
			m.qr = evt.Code
			m.state = StatePairingRequired
			m.mu.Unlock()
			logger.Info("pairing code issued, scan with WhatsApp")
			if m.cfg.QRToTerminal {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
		case "success":
			m.mu.Lock()
			m.qr = ""
			m.mu.Unlock()
			return
		}
	}
}

func (m *Manager) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		m.mu.Lock()
		m.state = StateConnected
		m.qr = ""
		m.mu.Unlock()
		prom.SetSessionConnected(true)
		logger.Info("whatsapp connected")

	case *events.Disconnected:
		// whatsmeow retries on its own unless we were logged out
		m.mu.Lock()
		if m.state != StateLoggedOut {
			m.state = StateDisconnected
		}
		m.mu.Unlock()
		prom.SetSessionConnected(false)
		logger.Warn("whatsapp disconnected, client will reconnect")

	case *events.LoggedOut:
		m.setState(StateLoggedOut)
		prom.SetSessionConnected(false)
		logger.Error("whatsapp logged out, new pairing required", "reason", v.Reason.String())

	case *events.Message:
		in := Inbound{
			Chat:     v.Info.Chat.String(),
			Sender:   v.Info.Sender.String(),
			IsGroup:  v.Info.IsGroup,
			IsFromMe: v.Info.IsFromMe,
			Text:     textOf(v.Message),
		}
		select {
		case m.events <- in:
		default:
			logger.Warn("inbound buffer full, dropping message", "chat", in.Chat)
		}
	}
}

// textOf pulls the reply-relevant text out of a message: plain
// conversation, extended text, or a media caption.
func textOf(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage().GetText() != "":
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage().GetCaption() != "":
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage().GetCaption() != "":
		return msg.GetVideoMessage().GetCaption()
	}
	return ""
}

// Events is the inbound message stream consumed by the orchestration
// service's worker pool.
func (m *Manager) Events() <-chan Inbound {
	return m.events
}

func (m *Manager) Status() model.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.ConnectionStatus{
		IsConnected: m.state == StateConnected,
		QR:          m.qr,
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) Shutdown() {
	if m.client != nil {
		m.client.Disconnect()
	}
	prom.SetSessionConnected(false)
}

/* ------------------------------- senders -------------------------------- */

func (m *Manager) send(ctx context.Context, to string, isGroup bool, msg *waE2E.Message) (string, error) {
	if m.client == nil {
		return "", ErrNotInitialized
	}
	target, err := ResolveTarget(to, isGroup)
	if err != nil {
		return "", err
	}
	resp, err := m.client.SendMessage(ctx, target, msg)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (m *Manager) SendText(ctx context.Context, to string, isGroup bool, text string) (string, error) {
	return m.send(ctx, to, isGroup, &waE2E.Message{Conversation: proto.String(text)})
}

func (m *Manager) SendImage(ctx context.Context, to string, isGroup bool, data []byte, mimetype, caption string) (string, error) {
	if m.client == nil {
		return "", ErrNotInitialized
	}
	up, err := m.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	return m.send(ctx, to, isGroup, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

func (m *Manager) SendVideo(ctx context.Context, to string, isGroup bool, data []byte, mimetype, caption string) (string, error) {
	if m.client == nil {
		return "", ErrNotInitialized
	}
	up, err := m.client.Upload(ctx, data, whatsmeow.MediaVideo)
	if err != nil {
		return "", errors.Wrap(err, "upload video")
	}
	return m.send(ctx, to, isGroup, &waE2E.Message{
		VideoMessage: &waE2E.VideoMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

func (m *Manager) SendDocument(ctx context.Context, to string, isGroup bool, data []byte, mimetype, filename, caption string) (string, error) {
	if m.client == nil {
		return "", ErrNotInitialized
	}
	up, err := m.client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return "", errors.Wrap(err, "upload document")
	}
	return m.send(ctx, to, isGroup, &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Title:         proto.String(filename),
			FileName:      proto.String(filename),
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		},
	})
}

func (m *Manager) SendContact(ctx context.Context, to string, isGroup bool, displayName, vcard string) (string, error) {
	return m.send(ctx, to, isGroup, &waE2E.Message{
		ContactMessage: &waE2E.ContactMessage{
			DisplayName: proto.String(displayName),
			Vcard:       proto.String(vcard),
		},
	})
}

// JoinedGroups maps whatsmeow's group records into the API shape.
func (m *Manager) JoinedGroups(ctx context.Context) ([]model.Group, error) {
	if m.client == nil {
		return nil, ErrNotInitialized
	}
	groups, err := m.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		grp := model.Group{
			ID:           g.JID.String(),
			Name:         g.Name,
			Participants: len(g.Participants),
			Description:  g.Topic,
		}
		if !g.GroupCreated.IsZero() {
			created := g.GroupCreated.UTC().Truncate(time.Second)
			grp.Creation = &created
		}
		out = append(out, grp)
	}
	return out, nil
}
