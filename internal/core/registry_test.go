package core

import (
	"errors"
	"reflect"
	"testing"
)

func newRegistryWith(t *testing.T, ids ...string) (*Registry, map[string]*Client) {
	t.Helper()
	r := NewRegistry()
	clients := make(map[string]*Client, len(ids))
	for _, id := range ids {
		c := NewClient(id, id, 4)
		if err := r.Add(c); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
		clients[id] = c
	}
	return r, clients
}

func TestRegistryJoinAndMembers(t *testing.T) {
	r, _ := newRegistryWith(t, "b", "a", "c")

	for _, id := range []string{"b", "a", "c"} {
		if _, err := r.Join(id, "ROOM"); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	if got := r.MembersOf("ROOM"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected members: %v", got)
	}
	if got := r.MembersOf("EMPTY"); len(got) != 0 {
		t.Fatalf("unknown room has members: %v", got)
	}
}

func TestRegistryJoinReplacesRoom(t *testing.T) {
	r, _ := newRegistryWith(t, "a")

	if prev, _ := r.Join("a", "ONE"); prev != "" {
		t.Fatalf("unexpected previous room %q", prev)
	}
	if prev, _ := r.Join("a", "TWO"); prev != "ONE" {
		t.Fatalf("expected previous room ONE, got %q", prev)
	}
	if len(r.MembersOf("ONE")) != 0 {
		t.Fatal("client still listed in old room")
	}
	if r.RoomCount() != 1 {
		t.Fatalf("empty room not collected, rooms=%d", r.RoomCount())
	}
	if room, ok := r.RoomOf("a"); !ok || room != "TWO" {
		t.Fatalf("unexpected room %q", room)
	}
}

func TestRegistryLeaveAndRemove(t *testing.T) {
	r, _ := newRegistryWith(t, "a", "b")
	_, _ = r.Join("a", "ROOM")
	_, _ = r.Join("b", "ROOM")

	if prev := r.Leave("a"); prev != "ROOM" {
		t.Fatalf("unexpected previous room %q", prev)
	}
	if prev := r.Leave("a"); prev != "" {
		t.Fatalf("second leave returned %q", prev)
	}
	if prev := r.Remove("b"); prev != "ROOM" {
		t.Fatalf("remove returned %q", prev)
	}
	if r.RoomCount() != 0 || r.ClientCount() != 1 {
		t.Fatalf("rooms=%d clients=%d", r.RoomCount(), r.ClientCount())
	}
	if _, err := r.Join("b", "ROOM"); !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("expected unknown client, got %v", err)
	}
}

func TestRegistryAddDuplicate(t *testing.T) {
	r, _ := newRegistryWith(t, "a")
	if err := r.Add(NewClient("a", "", 1)); !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegistryBroadcastCounts(t *testing.T) {
	r, clients := newRegistryWith(t, "a", "b", "c")
	for id := range clients {
		_, _ = r.Join(id, "ROOM")
	}
	close(clients["c"].done)

	delivered, dropped := r.Broadcast("ROOM", "a", &Event{Kind: EventRoomMessage})
	if delivered != 1 || dropped != 1 {
		t.Fatalf("delivered=%d dropped=%d", delivered, dropped)
	}
	if len(clients["a"].Events) != 0 {
		t.Fatal("excluded client received the event")
	}

	if delivered, dropped := r.Broadcast("NOBODY", "", &Event{}); delivered != 0 || dropped != 0 {
		t.Fatal("broadcast to empty room delivered something")
	}
}
