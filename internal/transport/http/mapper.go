package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

var (
	errInvalidFrame = core.NewError(core.ErrCodeBadRequest, "invalid message format")
	errUnknownType  = core.NewError(core.ErrCodeBadRequest, "unknown message type")
	errRoomRequired = core.NewError(core.ErrCodeBadRequest, "room is required")
	errRateLimited  = core.NewError(core.ErrCodeRateLimited, "too many messages, slow down")
)

func decodeInbound(data []byte) (proto.Inbound, error) {
	var inbound proto.Inbound
	if err := json.Unmarshal(data, &inbound); err != nil {
		return inbound, errInvalidFrame
	}
	return inbound, nil
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidFrame
	}
	return nil
}

func inboundToCommand(inbound proto.Inbound) (core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin, proto.InboundTypeLeave:
		var data proto.RoomData
		if err := decodeData(inbound.Data, &data); err != nil {
			return core.Command{}, err
		}
		room := strings.TrimSpace(data.Room)
		if room == "" {
			return core.Command{}, errRoomRequired
		}
		if !core.ValidRoomName(room) {
			return core.Command{}, core.ErrInvalidRoomName
		}
		kind := core.CommandJoin
		if inbound.Type == proto.InboundTypeLeave {
			kind = core.CommandLeave
		}
		return core.Command{Kind: kind, Room: room}, nil
	case proto.InboundTypeMessage:
		var data proto.MessageData
		if err := decodeData(inbound.Data, &data); err != nil {
			return core.Command{}, err
		}
		intent := core.SendIntent{Text: data.Text}
		if data.Type == proto.MessageTypePrivate {
			intent.Private = true
			intent.Recipient = strings.TrimSpace(data.Receiver)
		} else {
			intent.Room = strings.TrimSpace(data.Room)
			if intent.Room != "" && !core.ValidRoomName(intent.Room) {
				return core.Command{}, core.ErrInvalidRoomName
			}
		}
		return core.Command{Kind: core.CommandSend, Send: intent}, nil
	default:
		return core.Command{}, errUnknownType
	}
}

func messageFromCore(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		Username:  msg.From,
		Text:      msg.Text,
		Timestamp: msg.Timestamp(),
		Room:      msg.Room(),
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: messageFromCore(event.Message),
		}
	case core.EventPrivateMessage:
		return proto.Outbound{
			Type: proto.OutboundTypePrivateMessage,
			Data: proto.EventPrivateMessage{
				Sender:    event.Message.From,
				Receiver:  event.Message.Recipient(),
				Text:      event.Message.Text,
				Timestamp: event.Message.Timestamp(),
			},
		}
	case core.EventHistory:
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageFromCore(msg))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeChatHistory,
			Data: proto.EventChatHistory{
				CurrentUser: event.User,
				Room:        event.Room,
				Messages:    messages,
			},
		}
	case core.EventOnlineUsers:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeOnlineUsers,
			Data: proto.EventOnlineUsers{Users: users},
		}
	case core.EventStatus:
		if event.Status == nil {
			return proto.Outbound{Type: proto.OutboundTypeStatus, Data: proto.EventStatus{Text: "unknown status"}}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeStatus,
			Data: statusFromCore(event.Status),
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeStatus}
	}
}

func statusFromCore(st *core.Status) proto.EventStatus {
	out := proto.EventStatus{
		Text: st.Text,
		Type: string(st.Type),
		Code: st.Code,
	}
	if !st.CreatedAt.IsZero() {
		out.Timestamp = float64(st.CreatedAt.UnixMicro()) / 1e6
	}
	return out
}
