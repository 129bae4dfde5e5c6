package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// DefaultRoom is joined automatically by every new session unless configured otherwise.
const DefaultRoom = "General"

const defaultInboxSize = 256

// Options configures a Hub.
type Options struct {
	DefaultRoom         string
	Rooms               []string // created up front, in addition to DefaultRoom
	HistoryLimit        int
	DuplicatePolicy     DuplicatePolicy
	AnnounceRoomChanges bool
	InboxSize           int
	Clock               clock.Clock
}

// Stats is a point-in-time summary of hub state.
type Stats struct {
	Sessions int
	Rooms    int
}

// Hub owns the registry, the room directory and presence. Every mutation runs
// on the goroutine started by Run, one closure at a time, so no locks guard
// shared state and delivery order equals acceptance order.
type Hub struct {
	opts     Options
	registry *Registry
	rooms    *Directory
	presence *Presence
	router   *Router
	clock    clock.Clock

	inbox chan func()
	done  chan struct{}
	log   *zerolog.Logger
}

// NewHub creates a new chat hub instance.
func NewHub(opts Options, logger *zerolog.Logger) *Hub {
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = DefaultRoom
	}
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = Supersede
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry()
	rooms := NewDirectory(opts.HistoryLimit, append([]string{opts.DefaultRoom}, opts.Rooms...)...)

	return &Hub{
		opts:     opts,
		registry: registry,
		rooms:    rooms,
		presence: NewPresence(registry),
		router:   NewRouter(registry, rooms, opts.Clock, opts.DefaultRoom, logger),
		clock:    opts.Clock,
		inbox:    make(chan func(), opts.InboxSize),
		done:     make(chan struct{}),
		log:      logger,
	}
}

// Run processes submitted work until ctx is cancelled, then terminates every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	h.log.Info().Str("default_room", h.opts.DefaultRoom).Msg("hub started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			h.log.Info().Msg("hub stopped")
			return
		case fn := <-h.inbox:
			fn()
		}
	}
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} { return h.done }

// do runs fn on the hub goroutine and waits for it to finish.
func (h *Hub) do(ctx context.Context, fn func()) error {
	executed := make(chan struct{})
	select {
	case h.inbox <- func() { fn(); close(executed) }:
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-executed:
		return nil
	case <-h.done:
		select {
		case <-executed:
			return nil
		default:
			return ErrHubClosed
		}
	}
}

// Connect registers s, joins it to the default room and announces presence.
// The default room's history is queued for s before s becomes a live member.
func (h *Hub) Connect(ctx context.Context, s *Session) error {
	var connErr error
	if err := h.do(ctx, func() { connErr = h.connect(s) }); err != nil {
		return err
	}
	return connErr
}

// Submit queues a client command. It returns once the command is accepted
// by the hub, not once it has been processed.
func (h *Hub) Submit(ctx context.Context, s *Session, cmd Command) error {
	select {
	case h.inbox <- func() { h.handle(s, cmd) }:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect terminates s and releases its registry and room entries before
// returning. Calling it more than once is harmless.
func (h *Hub) Disconnect(ctx context.Context, s *Session) error {
	return h.do(ctx, func() { h.disconnect(s) })
}

// Reject reports err to s only, as an error status.
func (h *Hub) Reject(s *Session, err error) {
	var ce *CoreError
	if !errors.As(err, &ce) {
		ce = coreError(ErrCodeBadRequest, err.Error())
	}
	s.send(errorEvent(ce, h.clock.Now()))
}

// Online returns the current presence snapshot.
func (h *Hub) Online(ctx context.Context) ([]string, error) {
	var users []string
	err := h.do(ctx, func() { users = h.presence.Snapshot() })
	return users, err
}

// Rooms summarises every known room.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	var rooms []RoomInfo
	err := h.do(ctx, func() { rooms = h.rooms.Rooms() })
	return rooms, err
}

// History returns the retained messages of a room and whether the room exists.
func (h *Hub) History(ctx context.Context, room string) ([]Message, bool, error) {
	var (
		msgs []Message
		ok   bool
	)
	err := h.do(ctx, func() {
		ok = h.rooms.Has(room)
		msgs = h.rooms.History(room)
	})
	return msgs, ok, err
}

// Lookup returns the session currently bound to username.
func (h *Hub) Lookup(ctx context.Context, username string) (*Session, bool, error) {
	var (
		s  *Session
		ok bool
	)
	err := h.do(ctx, func() { s, ok = h.registry.Lookup(username) })
	return s, ok, err
}

// Stats returns session and room counts.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := h.do(ctx, func() {
		st = Stats{Sessions: h.registry.Len(), Rooms: len(h.rooms.rooms)}
	})
	return st, err
}

func (h *Hub) connect(s *Session) error {
	if s.state != StateConnecting {
		return fmt.Errorf("connect session %s: state %s", s.ID, s.state)
	}

	replaced, err := h.registry.Register(s, h.opts.DuplicatePolicy)
	if err != nil {
		h.log.Info().Str("username", s.Username).Str("session_id", s.ID).Msg("duplicate username rejected")
		return err
	}
	if replaced != nil {
		h.log.Info().
			Str("username", s.Username).
			Str("session_id", replaced.ID).
			Bool("stale", !replaced.Alive()).
			Msg("session superseded")
		h.terminate(replaced, ErrSuperseded)
	}

	s.state = StateActive
	h.join(s, h.opts.DefaultRoom)
	h.presence.Broadcast()

	h.log.Info().Str("username", s.Username).Str("session_id", s.ID).Int("online", h.registry.Len()).Msg("session connected")
	return nil
}

func (h *Hub) handle(s *Session, cmd Command) {
	if s.state != StateActive {
		h.log.Debug().Str("session_id", s.ID).Stringer("command", cmd.Kind).Msg("command for inactive session dropped")
		return
	}

	switch cmd.Kind {
	case CommandJoin:
		if !ValidRoomName(cmd.Room) {
			h.Reject(s, ErrInvalidRoomName)
			return
		}
		h.join(s, cmd.Room)
	case CommandLeave:
		h.leave(s, cmd.Room)
	case CommandSend:
		if _, err := h.router.Route(s, cmd.Send); err != nil {
			h.Reject(s, err)
		}
	default:
		h.Reject(s, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) join(s *Session, room string) {
	prev := h.rooms.CurrentRoom(s)
	if prev == room {
		return
	}

	// History goes out before s is a live member so nothing is replayed twice.
	s.send(&Event{
		Kind:     EventHistory,
		Room:     room,
		User:     s.Username,
		Messages: h.rooms.History(room),
	})
	h.rooms.Join(room, s)

	if h.opts.AnnounceRoomChanges {
		if prev != "" {
			h.announce(prev, s.Username+" has left the room.", StatusLeave)
		}
		h.announce(room, s.Username+" has joined the room.", StatusJoin)
	}
	h.log.Debug().Str("username", s.Username).Str("room", room).Str("from", prev).Msg("joined room")
}

func (h *Hub) leave(s *Session, room string) {
	if !h.rooms.Leave(room, s) {
		return
	}
	if h.opts.AnnounceRoomChanges {
		h.announce(room, s.Username+" has left the room.", StatusLeave)
	}
	h.log.Debug().Str("username", s.Username).Str("room", room).Msg("left room")
}

func (h *Hub) announce(room, text string, typ StatusType) {
	h.rooms.Broadcast(room, &Event{
		Kind:   EventStatus,
		Room:   room,
		Status: &Status{Text: text, Type: typ, CreatedAt: h.clock.Now()},
	})
}

// terminate ends a session the hub decided to drop; its registry entry has
// already been replaced or is about to be removed by the caller.
func (h *Hub) terminate(s *Session, reason error) {
	if s.state == StateTerminated {
		return
	}
	s.state = StateTerminated
	if room := h.rooms.Remove(s); room != "" && h.opts.AnnounceRoomChanges {
		h.announce(room, s.Username+" has left the room.", StatusLeave)
	}
	s.Close(reason)
}

func (h *Hub) disconnect(s *Session) {
	if s.state == StateTerminated {
		return
	}
	h.terminate(s, nil)
	if h.registry.Unregister(s) {
		h.presence.Broadcast()
	}
	h.log.Info().Str("username", s.Username).Str("session_id", s.ID).Int("online", h.registry.Len()).Msg("session disconnected")
}

func (h *Hub) shutdown() {
	sessions := h.registry.Sessions()
	for _, s := range sessions {
		h.terminate(s, ErrHubClosed)
		h.registry.Unregister(s)
	}
	h.log.Info().Int("sessions", len(sessions)).Msg("closed all sessions")
}
