package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage carries a message from another room member.
	EventRoomMessage EventKind = iota
	// EventMessageSent confirms to the sender that its message was relayed.
	EventMessageSent
	// EventUserJoined announces a newcomer to the existing room members.
	EventUserJoined
	// EventUserLeft announces a departure to the remaining room members.
	EventUserLeft
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Join and leave events carry a system Message with the notice text.
type Event struct {
	Kind    EventKind
	Room    string
	User    string
	Message Message
	Error   *CoreError
}
