package core

import (
	"sync"
	"sync/atomic"
)

// DefaultName is used until a client announces a display name.
const DefaultName = "Guest"

// ConnState is the lifecycle state of a client connection.
type ConnState int32

const (
	// StateConnected means the transport is open and no room is joined.
	StateConnected ConnState = iota
	// StateInRoom means the client is a member of exactly one room.
	StateInRoom
	// StateDisconnected is terminal.
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateInRoom:
		return "in_room"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Client is a chat participant as seen by the core layer.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	mu    sync.Mutex
	name  string
	state atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string, buffer int) *Client {
	if name == "" {
		name = DefaultName
	}
	if buffer <= 0 {
		buffer = 8
	}
	return &Client{
		ID:       id,
		name:     name,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Name returns the current display name.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// State returns the connection state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// advance moves to s unless the client has already disconnected.
func (c *Client) advance(s ConnState) bool {
	for {
		cur := c.state.Load()
		if ConnState(cur) == StateDisconnected {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return true
		}
	}
}

// Done is closed once the client has disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// deliver enqueues ev without blocking. It fails when the client is gone
// or its buffer is full.
func (c *Client) deliver(ev *Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
