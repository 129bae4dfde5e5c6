package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSend routes a room or private message.
	CommandSend CommandKind = iota
	// CommandJoin switches the session to a room.
	CommandJoin
	// CommandLeave removes the session from a room.
	CommandLeave
)

func (k CommandKind) String() string {
	switch k {
	case CommandSend:
		return "send"
	case CommandJoin:
		return "join"
	case CommandLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a session.
type Command struct {
	Kind CommandKind
	Room string
	Send SendIntent
}
