package http

import (
	"encoding/json"

	"github.com/vovakirdan/labconnect/internal/core"
	"github.com/vovakirdan/labconnect/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *core.CoreError, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			User: join.User,
		}, nil, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: msg.Room,
			Message: core.Message{
				// ID and missing sender fields are filled by the hub
				Room:       msg.Room,
				SenderID:   msg.SenderID,
				SenderName: msg.SenderName,
				Text:       msg.Text,
				Timestamp:  msg.Timestamp,
			},
		}, nil, nil
	default:
		return nil, &core.CoreError{Code: core.ErrCodeBadRequest, Message: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage, core.EventUserJoined, core.EventUserLeft:
		// Join and leave notices reach the UI as system-authored messages.
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  receiveMessage(event.Message),
		}
	case core.EventMessageSent:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageSent,
			Data: proto.MessageSent{
				ID:        event.Message.ID,
				Room:      event.Message.Room,
				Timestamp: event.Message.Timestamp,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func receiveMessage(msg core.Message) proto.ReceiveMessage {
	return proto.ReceiveMessage{
		ID:         msg.ID,
		Room:       msg.Room,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       msg.Text,
		Timestamp:  msg.Timestamp,
	}
}
