package core

// SessionState is the lifecycle stage of a session.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateActive
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Session is one live connection as seen by the core layer.
// ID and Username never change; state is owned by the hub goroutine and the
// current room is tracked by the hub's Directory.
type Session struct {
	ID       string
	Username string
	Outbox   *Outbox

	state SessionState
}

// NewSession constructs a session in the Connecting state.
func NewSession(id, username string, queueSize int, policy OverflowPolicy) *Session {
	if username == "" {
		username = id
	}
	return &Session{
		ID:       id,
		Username: username,
		Outbox:   NewOutbox(queueSize, policy),
		state:    StateConnecting,
	}
}

// Alive reports whether the transport behind the session is still open.
func (s *Session) Alive() bool {
	return !s.Outbox.Closed()
}

// Close marks the session's transport as gone. Safe to call repeatedly.
func (s *Session) Close(reason error) {
	s.Outbox.Close(reason)
}

func (s *Session) send(ev *Event) {
	s.Outbox.Push(ev)
}
