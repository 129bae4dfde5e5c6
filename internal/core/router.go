package core

import (
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// SendIntent is what a session asks the router to deliver.
type SendIntent struct {
	Text      string
	Room      string // empty means the sender's current room
	Recipient string
	Private   bool
}

// Router validates send intents, records room messages and fans them out.
// It runs inside the hub goroutine, so acceptance order is delivery order.
type Router struct {
	registry    *Registry
	rooms       *Directory
	clock       clock.Clock
	defaultRoom string
	log         *zerolog.Logger
}

// NewRouter builds a router over the given registry and directory.
func NewRouter(registry *Registry, rooms *Directory, clk clock.Clock, defaultRoom string, logger *zerolog.Logger) *Router {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{
		registry:    registry,
		rooms:       rooms,
		clock:       clk,
		defaultRoom: defaultRoom,
		log:         logger,
	}
}

// Route delivers one intent from sender. Validation failures are returned as
// *CoreError and nothing is delivered or recorded.
func (r *Router) Route(sender *Session, in SendIntent) (Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	if in.Private {
		return r.routePrivate(sender, text, strings.TrimSpace(in.Recipient))
	}
	room := r.resolveRoom(sender, in.Room)
	if !ValidRoomName(room) {
		return Message{}, ErrInvalidRoomName
	}
	return r.routeRoom(sender, text, room), nil
}

func (r *Router) resolveRoom(sender *Session, room string) string {
	room = strings.TrimSpace(room)
	if room != "" {
		return room
	}
	if current := r.rooms.CurrentRoom(sender); current != "" {
		return current
	}
	return r.defaultRoom
}

func (r *Router) routeRoom(sender *Session, text, room string) Message {
	msg := Message{
		From:      sender.Username,
		Text:      text,
		Scope:     RoomScope(room),
		CreatedAt: r.clock.Now(),
	}

	r.rooms.Append(room, msg)

	ev := &Event{Kind: EventRoomMessage, Room: room, Message: msg}
	r.rooms.Broadcast(room, ev)
	// Senders outside the target room still get their echo.
	if r.rooms.CurrentRoom(sender) != room {
		sender.send(ev)
	}

	r.log.Debug().
		Str("room", room).
		Str("username", sender.Username).
		Msg("room message routed")
	return msg
}

func (r *Router) routePrivate(sender *Session, text, recipient string) (Message, error) {
	if recipient == "" {
		return Message{}, ErrMissingRecipient
	}
	target, ok := r.registry.Lookup(recipient)
	if !ok {
		r.log.Debug().
			Str("username", sender.Username).
			Str("recipient", recipient).
			Msg("private message to unknown recipient")
		return Message{}, ErrUnknownRecipient
	}

	msg := Message{
		From:      sender.Username,
		Text:      text,
		Scope:     PrivateScope(recipient),
		CreatedAt: r.clock.Now(),
	}
	ev := &Event{Kind: EventPrivateMessage, Message: msg}
	target.send(ev)
	if target != sender {
		sender.send(ev)
	}

	r.log.Debug().
		Str("username", sender.Username).
		Str("recipient", recipient).
		Msg("private message routed")
	return msg, nil
}
