package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "join_room"
	InboundTypeSend  = "send_message"
	InboundTypeLeave = "leave_room"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
)

// JoinData requests to join the room of a session code.
type JoinData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// SendData is a chat message from the client.
type SendData struct {
	Room       string `json:"room"`
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ReceiveMessage is what room members get for a relayed message or a system notice.
type ReceiveMessage struct {
	ID         string `json:"id"`
	Room       string `json:"room"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
}

// MessageSent confirms to the sender that its message was relayed.
type MessageSent struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	Timestamp string `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
