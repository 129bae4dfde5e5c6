package client

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

func startRelay(t *testing.T) string {
	t.Helper()

	cfg := config.Default()
	cfg.PingInterval = 0
	hub := core.NewHub(cfg.HubOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := transporthttp.NewServer(hub, auth.NewService(nil, utils.GuestName), &cfg, nil)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-hub.Done()
	})
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func TestSmoke(t *testing.T) {
	addr := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := Smoke(ctx, SmokeOptions{Addr: addr, User: "tester", Room: "Engineering", Text: "ping"}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "tester: ping")
	require.Contains(t, out.String(), "* online: tester")
}

func TestSmokeRefused(t *testing.T) {
	addr := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Smoke(ctx, SmokeOptions{Addr: addr, User: "has space", Text: "ping"}, &bytes.Buffer{})
	require.ErrorContains(t, err, core.ErrCodeInvalidUsername)
}

func TestWhisperRoundTrip(t *testing.T) {
	addr := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, err := Dial(ctx, addr, proto.HelloData{User: "alice"})
	require.NoError(t, err)
	defer alice.Close()
	drain(t, ctx, alice, proto.OutboundTypeOnlineUsers)

	bob, err := Dial(ctx, addr, proto.HelloData{User: "bob"})
	require.NoError(t, err)
	defer bob.Close()
	drain(t, ctx, bob, proto.OutboundTypeOnlineUsers)

	require.NoError(t, alice.Whisper(ctx, "bob", "psst"))
	f := drain(t, ctx, bob, proto.OutboundTypePrivateMessage)
	require.Contains(t, Format(f), "alice -> bob: psst")
}

// drain reads frames until one of type typ arrives.
func drain(t *testing.T, ctx context.Context, c *Client, typ string) Frame {
	t.Helper()
	for {
		f, err := c.Next(ctx)
		require.NoError(t, err)
		if f.Type == typ {
			return f
		}
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "* online: a, b", Format(Frame{Type: "online_users", Data: []byte(`{"users":["a","b"]}`)}))
	require.Equal(t, "* recipient is not online (unknown_recipient)",
		Format(Frame{Type: "status", Data: []byte(`{"text":"recipient is not online","type":"error","code":"unknown_recipient"}`)}))
	require.Equal(t, "type=weird data={}", Format(Frame{Type: "weird", Data: []byte(`{}`)}))
}
