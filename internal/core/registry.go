package core

import (
	"sort"
	"sync"
)

// room is the member set of one session code.
type room struct {
	mu      sync.Mutex
	members map[string]*Client
}

// Registry tracks live clients and the single room each belongs to.
//
// Lock order is registry then room. Membership changes hold the registry
// write lock plus the affected room locks; broadcasts hold the registry read
// lock only until they own the room lock, so unrelated rooms fan out in
// parallel while one room's sends are totally ordered.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	roomOf  map[string]string
	rooms   map[string]*room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		roomOf:  make(map[string]string),
		rooms:   make(map[string]*room),
	}
}

// Add registers a connected client with no room.
func (r *Registry) Add(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return ErrDuplicateClient
	}
	r.clients[c.ID] = c
	return nil
}

// Join moves the client into roomName and returns the room it was in before.
// Joining the current room is a no-op.
func (r *Registry) Join(clientID, roomName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return "", ErrUnknownClient
	}

	previous := r.roomOf[clientID]
	if previous == roomName {
		return previous, nil
	}
	if previous != "" {
		r.removeMemberLocked(previous, clientID)
	}

	rm, ok := r.rooms[roomName]
	if !ok {
		rm = &room{members: make(map[string]*Client)}
		r.rooms[roomName] = rm
	}
	rm.mu.Lock()
	rm.members[clientID] = c
	rm.mu.Unlock()

	r.roomOf[clientID] = roomName
	return previous, nil
}

// Leave removes the client from its room and returns that room.
// It is a no-op for clients without a room.
func (r *Registry) Leave(clientID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(clientID)
}

// Remove forgets the client entirely and returns the room it was in.
func (r *Registry) Remove(clientID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.leaveLocked(clientID)
	delete(r.clients, clientID)
	return previous
}

func (r *Registry) leaveLocked(clientID string) string {
	previous, ok := r.roomOf[clientID]
	if !ok {
		return ""
	}
	r.removeMemberLocked(previous, clientID)
	delete(r.roomOf, clientID)
	return previous
}

// removeMemberLocked requires r.mu held for writing. Empty rooms are dropped.
func (r *Registry) removeMemberLocked(roomName, clientID string) {
	rm, ok := r.rooms[roomName]
	if !ok {
		return
	}
	rm.mu.Lock()
	delete(rm.members, clientID)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty {
		delete(r.rooms, roomName)
	}
}

// RoomOf returns the room the client is in.
func (r *Registry) RoomOf(clientID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomName, ok := r.roomOf[clientID]
	return roomName, ok
}

// lockRoom returns the room with its lock held, or nil if it has no members.
func (r *Registry) lockRoom(roomName string) *room {
	r.mu.RLock()
	rm, ok := r.rooms[roomName]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	rm.mu.Lock()
	r.mu.RUnlock()
	return rm
}

// MembersOf returns a sorted point-in-time snapshot of the room's client IDs.
func (r *Registry) MembersOf(roomName string) []string {
	rm := r.lockRoom(roomName)
	if rm == nil {
		return nil
	}
	defer rm.mu.Unlock()

	ids := make([]string, 0, len(rm.members))
	for id := range rm.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast enqueues ev for every member of the room except exceptID.
// A member that cannot take the event is skipped and counted as dropped.
func (r *Registry) Broadcast(roomName, exceptID string, ev *Event) (delivered, dropped int) {
	rm := r.lockRoom(roomName)
	if rm == nil {
		return 0, 0
	}
	defer rm.mu.Unlock()

	for id, c := range rm.members {
		if id == exceptID {
			continue
		}
		if c.deliver(ev) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// Clients returns a snapshot of every registered client.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}

// ClientCount returns the number of registered clients.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
