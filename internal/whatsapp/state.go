package whatsapp

// State tracks the session lifecycle. LoggedOut is terminal: the
// provider invalidated the credentials and only a fresh pairing (new QR
// scan) brings the session back.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StatePairingRequired
	StateConnected
	StateDisconnected
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StatePairingRequired:
		return "pairing_required"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Inbound is one received message, decoupled from whatsmeow's event
// types so the orchestration service can be tested with fakes.
type Inbound struct {
	Chat     string
	Sender   string
	IsGroup  bool
	IsFromMe bool
	Text     string
}
