package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello   = "hello"
	InboundTypeJoin    = "join"
	InboundTypeLeave   = "leave"
	InboundTypeMessage = "message"

	OutboundTypeMessage        = "message"
	OutboundTypePrivateMessage = "private_message"
	OutboundTypeStatus         = "status"
	OutboundTypeChatHistory    = "chat_history"
	OutboundTypeOnlineUsers    = "online_users"

	MessageTypePrivate = "private"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user,omitempty"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// RoomData names the room for join and leave.
type RoomData struct {
	Room string `json:"room"`
}

// MessageData is a send intent: a room message when Type is empty,
// a private message when Type is "private".
type MessageData struct {
	Text     string `json:"text"`
	Room     string `json:"room,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventMessage is a room message delivery.
type EventMessage struct {
	Username  string  `json:"username"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
	Room      string  `json:"room,omitempty"`
}

// EventPrivateMessage is a private message delivery.
type EventPrivateMessage struct {
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// EventStatus is a system notice.
type EventStatus struct {
	Text      string  `json:"text"`
	Type      string  `json:"type,omitempty"`
	Code      string  `json:"code,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// EventChatHistory replays a room's recent messages after a join.
type EventChatHistory struct {
	CurrentUser string         `json:"current_user"`
	Room        string         `json:"room"`
	Messages    []EventMessage `json:"messages"`
}

// EventOnlineUsers lists every connected username.
type EventOnlineUsers struct {
	Users []string `json:"users"`
}
