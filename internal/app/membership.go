package app

import (
	"sync"

	"github.com/sastranest/nest/internal/domain"
)

// Membership maps a room name to the set of currently connected session ids.
// It is reconciled against, but independent from, the directory's persisted
// participant list: this table is the authority for who is live. Empty sets
// are dropped so dormant rooms hold no memory.
type Membership struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]map[SessionID]struct{}
}

func NewMembership() *Membership {
	return &Membership{rooms: make(map[domain.RoomName]map[SessionID]struct{})}
}

func (m *Membership) Add(room domain.RoomName, id SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.rooms[room]
	if !ok {
		set = make(map[SessionID]struct{})
		m.rooms[room] = set
	}
	set[id] = struct{}{}
}

// Remove deletes the session from the room's set and reports how many
// members remain. Removing an absent member is a no-op with removed=false.
func (m *Membership) Remove(room domain.RoomName, id SessionID) (remaining int, removed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.rooms[room]
	if !ok {
		return 0, false
	}
	if _, ok := set[id]; !ok {
		return len(set), false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m.rooms, room)
		return 0, true
	}
	return len(set), true
}

func (m *Membership) Has(room domain.RoomName, id SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[room][id]
	return ok
}

func (m *Membership) Count(room domain.RoomName) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

func (m *Membership) Members(room domain.RoomName) []SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SessionID, 0, len(m.rooms[room]))
	for id := range m.rooms[room] {
		out = append(out, id)
	}
	return out
}

// Drop removes the whole room set at once (room deletion) and returns the
// evicted members.
func (m *Membership) Drop(room domain.RoomName) []SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.rooms[room]
	delete(m.rooms, room)
	out := make([]SessionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
