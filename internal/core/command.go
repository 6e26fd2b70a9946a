package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendRoomMessage delivers a chat message to the other room members.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom moves the client into a room.
	CommandJoinRoom
	// CommandLeaveRoom takes the client out of its room.
	CommandLeaveRoom
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	User    string // display name announced on join
	Message Message
}
