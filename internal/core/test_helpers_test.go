package core

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

// watcher reads events queued for one session, keeping whatever it has not
// consumed yet between calls.
type watcher struct {
	s       *Session
	pending []*Event
}

func newProbe(s *Session) *watcher {
	return &watcher{s: s}
}

func (p *watcher) next(t *testing.T) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for len(p.pending) == 0 {
		p.pending = append(p.pending, p.s.Outbox.Drain()...)
		if len(p.pending) > 0 {
			break
		}
		select {
		case <-p.s.Outbox.Ready():
		case <-deadline:
			t.Fatalf("no event for %s", p.s.Username)
		}
	}
	ev := p.pending[0]
	p.pending = p.pending[1:]
	return ev
}

// mustEvent skips events until one of kind arrives.
func (p *watcher) mustEvent(t *testing.T, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev := p.next(t)
		if ev.Kind == kind {
			return ev
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// expectNone asserts nothing is queued after the hub has settled.
func (p *watcher) expectNone(t *testing.T) {
	t.Helper()

	p.pending = append(p.pending, p.s.Outbox.Drain()...)
	if len(p.pending) > 0 {
		t.Fatalf("unexpected events for %s: first is %v", p.s.Username, p.pending[0].Kind)
	}
}

func newTestSession(name string) *Session {
	return NewSession("id-"+name, name, 64, DropOldest)
}

func startTestHub(t *testing.T, opts Options) (*Hub, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))
	opts.Clock = mock

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts, nil)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub, mock
}

func connect(t *testing.T, hub *Hub, name string) (*Session, *watcher) {
	t.Helper()

	s := newTestSession(name)
	require.NoError(t, hub.Connect(context.Background(), s))
	return s, newProbe(s)
}

// settle waits until everything submitted so far has been processed.
func settle(t *testing.T, hub *Hub) {
	t.Helper()

	_, err := hub.Stats(context.Background())
	require.NoError(t, err)
}
