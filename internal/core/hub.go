package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/metrics"
	"github.com/vovakirdan/labconnect/internal/session"
	"github.com/vovakirdan/labconnect/internal/utils"
)

// Options tunes the relay.
type Options struct {
	// EventBuffer is the per-client outbound queue length.
	EventBuffer int
	// MaxMessageBytes caps message text; 0 disables the check.
	MaxMessageBytes int
}

// Hub relays join, send and disconnect events between clients of the same room.
type Hub struct {
	registry *Registry
	opts     Options
	log      *zerolog.Logger
	now      func() time.Time
}

// NewHub creates a relay with its own registry.
func NewHub(logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 32
	}
	return &Hub{
		registry: NewRegistry(),
		opts:     opts,
		log:      logger,
		now:      time.Now,
	}
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect registers a new client in the CONNECTED state.
func (h *Hub) Connect(id string) (*Client, error) {
	c := NewClient(id, "", h.opts.EventBuffer)
	if err := h.registry.Add(c); err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}
	metrics.ConnectionsActive.Inc()
	h.log.Debug().Str("client_id", id).Msg("client connected")
	return c, nil
}

// Serve is the per-client dispatcher. It handles commands in arrival order
// until the command channel is closed, the client disconnects or ctx ends,
// and always leaves the client disconnected.
func (h *Hub) Serve(ctx context.Context, c *Client) {
	defer h.Disconnect(c)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.Handle(c, cmd)
		}
	}
}

// Handle applies a single command and reports domain errors back to the client.
func (h *Hub) Handle(c *Client, cmd *Command) {
	if cmd == nil {
		return
	}

	var err error
	switch cmd.Kind {
	case CommandJoinRoom:
		err = h.Join(c, cmd.Room, cmd.User)
	case CommandSendRoomMessage:
		msg := cmd.Message
		if msg.Room == "" {
			msg.Room = cmd.Room
		}
		_, err = h.Send(c, msg)
	case CommandLeaveRoom:
		h.Leave(c)
	default:
		err = coreError(ErrCodeBadRequest, "unknown command")
	}

	if err != nil {
		h.ReplyError(c, err)
	}
}

// ReplyError sends err to the client alone.
func (h *Hub) ReplyError(c *Client, err error) {
	var ce *CoreError
	if !errors.As(err, &ce) {
		h.log.Error().Err(err).Str("client_id", c.ID).Msg("command failed")
		ce = coreError(ErrCodeInternal, "internal error")
	}
	if !c.deliver(&Event{Kind: EventError, Error: ce}) {
		h.log.Debug().Str("client_id", c.ID).Str("code", ce.Code).Msg("dropped error event")
	}
}

// Join moves the client into roomName, which is expected to be a session code
// already verified by the gateway. Other members are told about the newcomer,
// and the previous room, if any, about the departure.
func (h *Hub) Join(c *Client, roomName, name string) error {
	roomName = session.Canonical(roomName)
	if roomName == "" {
		return coreError(ErrCodeBadRequest, "room is required")
	}
	if c.State() == StateDisconnected {
		return coreError(ErrCodeBadRequest, "client is disconnected")
	}
	if name = strings.TrimSpace(name); name != "" {
		c.setName(name)
	}

	previous, err := h.registry.Join(c.ID, roomName)
	if errors.Is(err, ErrUnknownClient) {
		// Disconnected while the join was queued.
		h.log.Debug().Str("client_id", c.ID).Str("room", roomName).Msg("join after disconnect ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("join %s: %w", roomName, err)
	}
	c.advance(StateInRoom)
	if previous == roomName {
		return nil
	}

	if previous != "" {
		h.announce(previous, c, EventUserLeft, "%s has left the lab.")
	}
	h.announce(roomName, c, EventUserJoined, "%s has joined the lab.")

	h.log.Info().
		Str("client_id", c.ID).
		Str("user", c.Name()).
		Str("room", roomName).
		Str("previous_room", previous).
		Msg("client joined room")
	return nil
}

// Send relays msg to every other member of the client's room and confirms
// the relay to the sender. The message never comes back to the sender
// through the room broadcast.
func (h *Hub) Send(c *Client, msg Message) (Message, error) {
	roomName, ok := h.registry.RoomOf(c.ID)
	if !ok {
		return Message{}, coreError(ErrCodeNotInRoom, "join a room before sending")
	}
	if msg.Room != "" && session.Canonical(msg.Room) != roomName {
		return Message{}, coreError(ErrCodeNotInRoom, "not a member of room "+msg.Room)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return Message{}, coreError(ErrCodeBadRequest, "text is required")
	}
	if h.opts.MaxMessageBytes > 0 && len(msg.Text) > h.opts.MaxMessageBytes {
		return Message{}, coreError(ErrCodeBadRequest, "message too large")
	}

	msg.ID = utils.NewMessageID()
	msg.Room = roomName
	msg.CreatedAt = h.now()
	if msg.SenderID == "" {
		msg.SenderID = c.ID
	}
	if msg.SenderName == "" {
		msg.SenderName = c.Name()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = msg.CreatedAt.Format(time.RFC3339)
	}

	delivered, dropped := h.registry.Broadcast(roomName, c.ID, &Event{
		Kind:    EventRoomMessage,
		Room:    roomName,
		User:    msg.SenderName,
		Message: msg,
	})
	h.recordFanOut(delivered, dropped)
	metrics.MessagesRelayed.Inc()

	if dropped > 0 {
		h.log.Debug().
			Str("room", roomName).
			Str("message_id", msg.ID).
			Int("dropped", dropped).
			Msg("message not delivered to every member")
	}

	c.deliver(&Event{Kind: EventMessageSent, Room: roomName, Message: msg})
	return msg, nil
}

// Leave takes the client out of its room, back to CONNECTED.
func (h *Hub) Leave(c *Client) {
	previous := h.registry.Leave(c.ID)
	if previous == "" {
		return
	}
	c.advance(StateConnected)
	h.announce(previous, c, EventUserLeft, "%s has left the lab.")
	h.log.Info().Str("client_id", c.ID).Str("room", previous).Msg("client left room")
}

// Disconnect removes the client from the registry and stops further
// deliveries to it. Only the first call has any effect.
func (h *Hub) Disconnect(c *Client) {
	c.closeOnce.Do(func() {
		previous := h.registry.Remove(c.ID)
		c.setState(StateDisconnected)
		close(c.done)
		metrics.ConnectionsActive.Dec()

		if previous != "" {
			h.announce(previous, c, EventUserLeft, "%s has left the lab.")
		}
		h.log.Debug().Str("client_id", c.ID).Str("room", previous).Msg("client disconnected")
	})
}

// Close disconnects every client, used on shutdown.
func (h *Hub) Close() {
	for _, c := range h.registry.Clients() {
		h.Disconnect(c)
	}
}

// announce broadcasts a system notice about c to the other members of roomName.
func (h *Hub) announce(roomName string, c *Client, kind EventKind, format string) {
	now := h.now()
	name := c.Name()
	delivered, dropped := h.registry.Broadcast(roomName, c.ID, &Event{
		Kind: kind,
		Room: roomName,
		User: name,
		Message: Message{
			ID:         utils.NewMessageID(),
			Room:       roomName,
			SenderID:   SystemSenderID,
			SenderName: SystemSenderName,
			Text:       fmt.Sprintf(format, name),
			Timestamp:  now.Format(time.RFC3339),
			CreatedAt:  now,
		},
	})
	h.recordFanOut(delivered, dropped)
}

func (h *Hub) recordFanOut(delivered, dropped int) {
	if delivered > 0 {
		metrics.Deliveries.WithLabelValues("delivered").Add(float64(delivered))
	}
	if dropped > 0 {
		metrics.Deliveries.WithLabelValues("dropped").Add(float64(dropped))
	}
}
