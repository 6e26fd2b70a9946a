package core

import "time"

// System sender identity used for room notices.
const (
	SystemSenderID   = "system"
	SystemSenderName = "System"
)

// Message is a transient chat message relayed within one room.
type Message struct {
	ID         string
	Room       string
	SenderID   string
	SenderName string
	Text       string
	Timestamp  string // as supplied by the sender, RFC 3339 when filled by the server
	CreatedAt  time.Time
}
