package core

import (
	"unicode/utf8"

	"github.com/gammazero/deque"
)

// MaxRoomNameLength bounds room names in characters.
const MaxRoomNameLength = 64

// ValidRoomName reports whether name, already trimmed, is an acceptable room name.
func ValidRoomName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= MaxRoomNameLength
}

// DefaultHistoryLimit bounds room history when no limit is configured.
const DefaultHistoryLimit = 50

// Room groups sessions subscribed to the same channel and keeps its recent messages.
type Room struct {
	Name    string
	members map[*Session]struct{}
	history deque.Deque[Message]
	limit   int
}

// NewRoom constructs a room with no members and an empty history.
func NewRoom(name string, historyLimit int) *Room {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Room{
		Name:    name,
		members: make(map[*Session]struct{}),
		limit:   historyLimit,
	}
}

// AddMember inserts a session into the room. Returns true if newly added.
func (r *Room) AddMember(s *Session) bool {
	if _, exists := r.members[s]; exists {
		return false
	}
	r.members[s] = struct{}{}
	return true
}

// RemoveMember deletes a session from the room. Returns true if removed.
func (r *Room) RemoveMember(s *Session) bool {
	if _, exists := r.members[s]; !exists {
		return false
	}
	delete(r.members, s)
	return true
}

// Members returns the current member sessions.
func (r *Room) Members() []*Session {
	out := make([]*Session, 0, len(r.members))
	for s := range r.members {
		out = append(out, s)
	}
	return out
}

// Append records a message, evicting the oldest one at capacity.
func (r *Room) Append(msg Message) {
	for r.history.Len() >= r.limit {
		r.history.PopFront()
	}
	r.history.PushBack(msg)
}

// History returns a copy of the retained messages, oldest first.
func (r *Room) History() []Message {
	out := make([]Message, r.history.Len())
	for i := range out {
		out[i] = r.history.At(i)
	}
	return out
}

// Broadcast queues an event for every member.
func (r *Room) Broadcast(event *Event) {
	for s := range r.members {
		s.send(event)
	}
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.members)
}

// Empty returns true if no sessions are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}
