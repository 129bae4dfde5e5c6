package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

type testServer struct {
	*httptest.Server
	hub *core.Hub
	cfg config.Config
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.HandshakeTimeout = 2 * time.Second
	cfg.PingInterval = 0
	cfg.RateLimitPerSecond = 0
	return cfg
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	hub := core.NewHub(cfg.HubOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	identities := auth.NewService(cfg.JWTConfig(), utils.GuestName)
	server := NewServer(hub, identities, &cfg, nil)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-hub.Done()
	})

	return &testServer{Server: ts, hub: hub, cfg: cfg}
}

func (ts *testServer) wsURL() string {
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

type rawOutbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	ctx  context.Context
}

func dial(t *testing.T, ts *testServer) *testClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, ts.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	return &testClient{t: t, conn: conn, ctx: ctx}
}

func (c *testClient) send(typ string, data any) {
	c.t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(c.ctx, c.conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		c.t.Fatalf("send %s: %v", typ, err)
	}
}

func (c *testClient) hello(hello proto.HelloData) {
	c.t.Helper()
	c.send(proto.InboundTypeHello, hello)
}

func (c *testClient) read() rawOutbound {
	c.t.Helper()

	var out rawOutbound
	if err := wsjson.Read(c.ctx, c.conn, &out); err != nil {
		c.t.Fatalf("read outbound: %v", err)
	}
	return out
}

// expect reads the next frame, requires its type and decodes its data into v.
func (c *testClient) expect(typ string, v any) {
	c.t.Helper()

	out := c.read()
	if out.Type != typ {
		c.t.Fatalf("expected %s, got %s: %s", typ, out.Type, out.Data)
	}
	if v == nil {
		return
	}
	if err := json.Unmarshal(out.Data, v); err != nil {
		c.t.Fatalf("decode %s: %v", typ, err)
	}
}

func (c *testClient) expectStatus(code string) proto.EventStatus {
	c.t.Helper()

	var st proto.EventStatus
	c.expect(proto.OutboundTypeStatus, &st)
	if st.Code != code {
		c.t.Fatalf("expected status code %q, got %+v", code, st)
	}
	return st
}

// expectClose reads until the server closes the connection and returns the close code.
func (c *testClient) expectClose() websocket.StatusCode {
	c.t.Helper()

	for {
		_, _, err := c.conn.Read(c.ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

// join performs the handshake as user and consumes the initial history and presence frames.
func join(t *testing.T, ts *testServer, user string) (*testClient, []string) {
	t.Helper()

	c := dial(t, ts)
	c.hello(proto.HelloData{User: user, Protocol: proto.ProtocolVersion})

	var hist proto.EventChatHistory
	c.expect(proto.OutboundTypeChatHistory, &hist)
	if hist.CurrentUser != user {
		t.Fatalf("history current_user: expected %q, got %q", user, hist.CurrentUser)
	}

	var online proto.EventOnlineUsers
	c.expect(proto.OutboundTypeOnlineUsers, &online)
	return c, online.Users
}
