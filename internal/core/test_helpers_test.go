package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns everything currently queued on ch without waiting.
func drain(ch <-chan *Event) []*Event {
	var events []*Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()
	c, err := hub.Connect(id)
	if err != nil {
		t.Fatalf("connect %s: %v", id, err)
	}
	return c
}

func join(t *testing.T, hub *Hub, c *Client, room, name string) {
	t.Helper()
	if err := hub.Join(c, room, name); err != nil {
		t.Fatalf("join %s: %v", c.ID, err)
	}
}
