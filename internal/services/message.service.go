package services

import (
	"context"
	"fmt"
	"os"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/internal/whatsapp"
	"github.com/i-snrdra/SWAG/pkg/logger"
	"github.com/i-snrdra/SWAG/pkg/prom"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
	List(ctx context.Context) ([]*model.Message, error)
}

// WhatsAppClient is what the orchestration service needs from the
// session manager. Tests inject a fake.
type WhatsAppClient interface {
	SendText(ctx context.Context, to string, isGroup bool, text string) (string, error)
	SendImage(ctx context.Context, to string, isGroup bool, data []byte, mimetype, caption string) (string, error)
	SendVideo(ctx context.Context, to string, isGroup bool, data []byte, mimetype, caption string) (string, error)
	SendDocument(ctx context.Context, to string, isGroup bool, data []byte, mimetype, filename, caption string) (string, error)
	SendContact(ctx context.Context, to string, isGroup bool, displayName, vcard string) (string, error)
	JoinedGroups(ctx context.Context) ([]model.Group, error)
	Status() model.ConnectionStatus
}

type Matcher interface {
	Match(ctx context.Context, text string) (*model.AutoReply, error)
}

// MessageService orchestrates outbound sends and the inbound auto-reply
// path. Every send attempt, manual or auto-reply, successful or not,
// leaves exactly one row in the message log.
type MessageService struct {
	messageRepo MessageRepository
	client      WhatsAppClient
	matcher     Matcher
}

func NewMessageService(messageRepo MessageRepository, client WhatsAppClient, matcher Matcher) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		client:      client,
		matcher:     matcher,
	}
}

// SendResult pairs the persisted log row with the provider's message
// handle.
type SendResult struct {
	Record     *model.Message
	ProviderID string
}

// Send validates, dispatches by attachment type, and logs the outcome.
// A provider failure is recorded best-effort as a failed row and
// surfaced as ErrDelivery; there is at most one delivery attempt.
func (s *MessageService) Send(ctx context.Context, req model.SendRequest) (*SendResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}

	providerID, sendErr := s.dispatch(ctx, req)
	if sendErr != nil {
		s.logOutcome(ctx, req, model.MessageStatusFailed)
		prom.IncMessageSent(string(model.MessageStatusFailed), prom.KindManual)
		return nil, fmt.Errorf("%v: %w", sendErr, ErrDelivery)
	}

	record, err := s.messageRepo.Create(ctx, newLogRow(req, model.MessageStatusSent))
	if err != nil {
		// Message is already on the wire: report the persistence failure
		// but never retry the send.
		return nil, fmt.Errorf("record sent message: %v: %w", err, ErrPersistence)
	}

	prom.IncMessageSent(string(model.MessageStatusSent), prom.KindManual)
	return &SendResult{Record: record, ProviderID: providerID}, nil
}

func (s *MessageService) dispatch(ctx context.Context, req model.SendRequest) (string, error) {
	att := req.Attachment
	if att == nil {
		return s.client.SendText(ctx, req.Receiver, req.IsGroup, req.Message)
	}

	data, err := os.ReadFile(att.Path)
	if err != nil {
		return "", fmt.Errorf("read staged attachment: %w", err)
	}

	switch att.Type {
	case model.AttachmentImage:
		return s.client.SendImage(ctx, req.Receiver, req.IsGroup, data, att.Mimetype, req.Message)
	case model.AttachmentVideo:
		return s.client.SendVideo(ctx, req.Receiver, req.IsGroup, data, att.Mimetype, req.Message)
	case model.AttachmentVCard:
		return s.client.SendContact(ctx, req.Receiver, req.IsGroup, att.Filename, string(data))
	default:
		return s.client.SendDocument(ctx, req.Receiver, req.IsGroup, data, att.Mimetype, att.Filename, req.Message)
	}
}

// logOutcome writes the failure row. A secondary failure here is logged
// and swallowed so the original delivery error reaches the caller.
func (s *MessageService) logOutcome(ctx context.Context, req model.SendRequest, status model.MessageStatus) {
	if _, err := s.messageRepo.Create(ctx, newLogRow(req, status)); err != nil {
		logger.Error("failed to record message outcome", "receiver", req.Receiver, "status", status, "error", err)
	}
}

func newLogRow(req model.SendRequest, status model.MessageStatus) *model.Message {
	row := &model.Message{
		Receiver: req.Receiver,
		Status:   status,
	}
	if req.Message != "" {
		msg := req.Message
		row.Message = &msg
	}
	if req.Attachment != nil {
		at := string(req.Attachment.Type)
		row.AttachmentType = &at
		if req.Attachment.Filename != "" {
			name := req.Attachment.Filename
			row.AttachmentName = &name
		}
	}
	return row
}

// List returns the outbound log, newest first.
func (s *MessageService) List(ctx context.Context) ([]*model.Message, error) {
	messages, err := s.messageRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %v: %w", err, ErrPersistence)
	}
	return messages, nil
}

// HandleInbound is driven by the session's event stream, never by HTTP.
// Self-originated echoes are ignored; a keyword hit sends the rule's
// response back to the originating chat and logs it like a manual send.
// Repeated matching messages each produce a reply: there is
// intentionally no de-duplication here.
func (s *MessageService) HandleInbound(ctx context.Context, in whatsapp.Inbound) error {
	if in.IsFromMe {
		return nil
	}
	prom.IncInbound()

	rule, err := s.matcher.Match(ctx, in.Text)
	if err != nil {
		return err
	}
	if rule == nil {
		return nil
	}

	req := model.SendRequest{
		Receiver: in.Chat,
		Message:  rule.Response,
		IsGroup:  in.IsGroup,
	}

	if _, err := s.client.SendText(ctx, in.Chat, in.IsGroup, rule.Response); err != nil {
		s.logOutcome(ctx, req, model.MessageStatusFailed)
		prom.IncMessageSent(string(model.MessageStatusFailed), prom.KindAutoReply)
		return fmt.Errorf("%v: %w", err, ErrDelivery)
	}

	s.logOutcome(ctx, req, model.MessageStatusSent)
	prom.IncMessageSent(string(model.MessageStatusSent), prom.KindAutoReply)
	prom.IncAutoReply()
	logger.Info("auto-reply sent", "chat", in.Chat, "keyword", rule.Keyword)
	return nil
}

// Status is a pure read of in-memory session state.
func (s *MessageService) Status() model.ConnectionStatus {
	return s.client.Status()
}

func (s *MessageService) Groups(ctx context.Context) ([]model.Group, error) {
	groups, err := s.client.JoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %v: %w", err, ErrSession)
	}
	return groups, nil
}
