package core

import "time"

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventRoomMessage delivers a room-scoped chat message.
	EventRoomMessage EventKind = iota
	// EventPrivateMessage delivers a private message to sender and recipient.
	EventPrivateMessage
	// EventStatus carries a system notice: errors, join/leave announcements.
	EventStatus
	// EventHistory replays a room's recent messages to a session that just joined it.
	EventHistory
	// EventOnlineUsers carries the global presence snapshot.
	EventOnlineUsers
)

func (k EventKind) String() string {
	switch k {
	case EventRoomMessage:
		return "message"
	case EventPrivateMessage:
		return "private_message"
	case EventStatus:
		return "status"
	case EventHistory:
		return "chat_history"
	case EventOnlineUsers:
		return "online_users"
	default:
		return "unknown"
	}
}

// StatusType classifies status notices.
type StatusType string

const (
	StatusJoin  StatusType = "join"
	StatusLeave StatusType = "leave"
	StatusError StatusType = "error"
)

// Status is a system notice shown to users.
type Status struct {
	Text      string
	Type      StatusType
	Code      string // set for StatusError
	CreatedAt time.Time
}

// Event is sent to sessions to describe what happened in the system.
// Events are shared between recipients and must not be modified after creation.
type Event struct {
	Kind     EventKind
	Room     string
	User     string    // recipient username for EventHistory
	Message  Message   // EventRoomMessage, EventPrivateMessage
	Messages []Message // EventHistory
	Users    []string  // EventOnlineUsers
	Status   *Status   // EventStatus
}

func errorEvent(err *CoreError, now time.Time) *Event {
	return &Event{
		Kind: EventStatus,
		Status: &Status{
			Text:      err.Message,
			Type:      StatusError,
			Code:      err.Code,
			CreatedAt: now,
		},
	}
}
