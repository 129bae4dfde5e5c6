package core

import "time"

// ScopeKind tells whether a message belongs to a room or to a private conversation.
type ScopeKind int

const (
	// ScopeRoom messages are broadcast to a room and kept in its history.
	ScopeRoom ScopeKind = iota
	// ScopePrivate messages go to exactly one recipient and are never stored.
	ScopePrivate
)

// Scope is the delivery target of a message.
type Scope struct {
	Kind   ScopeKind
	Target string // room name or recipient username
}

// RoomScope targets a room.
func RoomScope(room string) Scope { return Scope{Kind: ScopeRoom, Target: room} }

// PrivateScope targets a single user.
func PrivateScope(recipient string) Scope { return Scope{Kind: ScopePrivate, Target: recipient} }

func (s Scope) String() string {
	if s.Kind == ScopePrivate {
		return "private:" + s.Target
	}
	return "room:" + s.Target
}

// Message is the domain model for a chat message. Values are never mutated
// after the router creates them.
type Message struct {
	From      string
	Text      string
	Scope     Scope
	CreatedAt time.Time
}

// Room returns the room name for room-scoped messages.
func (m Message) Room() string {
	if m.Scope.Kind != ScopeRoom {
		return ""
	}
	return m.Scope.Target
}

// Recipient returns the target username for private messages.
func (m Message) Recipient() string {
	if m.Scope.Kind != ScopePrivate {
		return ""
	}
	return m.Scope.Target
}

// Timestamp is the creation time in seconds since the epoch.
func (m Message) Timestamp() float64 {
	return float64(m.CreatedAt.UnixMicro()) / 1e6
}
