// Package client is a minimal WebSocket client for the relay, used by the
// smoke command and the interactive scripts.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// Frame is one outbound frame with its data left undecoded.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the frame data into v.
func (f Frame) Decode(v any) error {
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.Type, err)
	}
	return nil
}

// Client is a connected relay session.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to addr and sends hello.
func Dial(ctx context.Context, addr string, hello proto.HelloData) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	c := &Client{conn: conn}
	if hello.Protocol == 0 {
		hello.Protocol = proto.ProtocolVersion
	}
	if err := c.send(ctx, proto.InboundTypeHello, hello); err != nil {
		conn.CloseNow()
		return nil, err
	}
	return c, nil
}

func (c *Client) send(ctx context.Context, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// Join switches to room.
func (c *Client) Join(ctx context.Context, room string) error {
	return c.send(ctx, proto.InboundTypeJoin, proto.RoomData{Room: room})
}

// Leave leaves room.
func (c *Client) Leave(ctx context.Context, room string) error {
	return c.send(ctx, proto.InboundTypeLeave, proto.RoomData{Room: room})
}

// Say sends text to room, or to the current room when room is empty.
func (c *Client) Say(ctx context.Context, room, text string) error {
	return c.send(ctx, proto.InboundTypeMessage, proto.MessageData{Text: text, Room: room})
}

// Whisper sends a private message to receiver.
func (c *Client) Whisper(ctx context.Context, receiver, text string) error {
	return c.send(ctx, proto.InboundTypeMessage, proto.MessageData{
		Text:     text,
		Receiver: receiver,
		Type:     proto.MessageTypePrivate,
	})
}

// Next blocks for the next frame from the server.
func (c *Client) Next(ctx context.Context) (Frame, error) {
	var f Frame
	if err := wsjson.Read(ctx, c.conn, &f); err != nil {
		return f, err
	}
	return f, nil
}

// Close ends the session with a normal closure.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Format renders a frame as one human-readable line.
func Format(f Frame) string {
	switch f.Type {
	case proto.OutboundTypeMessage:
		var m proto.EventMessage
		if err := f.Decode(&m); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("[%s %s] %s: %s", m.Room, clock(m.Timestamp), m.Username, m.Text)
	case proto.OutboundTypePrivateMessage:
		var m proto.EventPrivateMessage
		if err := f.Decode(&m); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("[private %s] %s -> %s: %s", clock(m.Timestamp), m.Sender, m.Receiver, m.Text)
	case proto.OutboundTypeStatus:
		var s proto.EventStatus
		if err := f.Decode(&s); err != nil {
			return err.Error()
		}
		if s.Code != "" {
			return fmt.Sprintf("* %s (%s)", s.Text, s.Code)
		}
		return "* " + s.Text
	case proto.OutboundTypeChatHistory:
		var h proto.EventChatHistory
		if err := f.Decode(&h); err != nil {
			return err.Error()
		}
		lines := []string{fmt.Sprintf("* %s joined %s (%d earlier messages)", h.CurrentUser, h.Room, len(h.Messages))}
		for _, m := range h.Messages {
			lines = append(lines, fmt.Sprintf("  [%s %s] %s: %s", m.Room, clock(m.Timestamp), m.Username, m.Text))
		}
		return strings.Join(lines, "\n")
	case proto.OutboundTypeOnlineUsers:
		var o proto.EventOnlineUsers
		if err := f.Decode(&o); err != nil {
			return err.Error()
		}
		return "* online: " + strings.Join(o.Users, ", ")
	default:
		return fmt.Sprintf("type=%s data=%s", f.Type, f.Data)
	}
}

func clock(ts float64) string {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Format("15:04:05")
}
