package http

import (
	"testing"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func TestProtocolVersionMismatch(t *testing.T) {
	ts := startTestServer(t, nil)

	c := dial(t, ts)
	c.hello(proto.HelloData{User: "alice", Protocol: proto.ProtocolVersion + 1})

	c.expectStatus(core.ErrCodeUnsupportedVersion)
	if code := c.expectClose(); code != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v", code)
	}
}

func TestProtocolVersionOmitted(t *testing.T) {
	ts := startTestServer(t, nil)

	c := dial(t, ts)
	c.hello(proto.HelloData{User: "alice"})
	c.expect(proto.OutboundTypeChatHistory, nil)
}
