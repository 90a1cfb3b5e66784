// Package app holds the in-memory registries shared across connection events:
// the connection registry, the live room membership table, the relay engine
// and the admission rate limiter. All of them are lock-guarded tables handed
// into constructors; there is no ambient singleton state.
package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/domain"
)

// Frame is a raw outbound payload.
type Frame []byte

type SessionID string

// Sender abstracts a session's transport endpoint. Owned by the adapter;
// TrySend must never block on a slow receiver.
type Sender interface {
	TrySend(Frame) error
	Close()
}

// Session is a read-only snapshot of a live connection. The session id is the
// sole unique key; the handle is a presence label with no uniqueness guarantee.
type Session struct {
	ID           SessionID
	Handle       string
	Room         domain.RoomName
	MicEnabled   bool
	VideoEnabled bool
}

type sessionEntry struct {
	handle string
	room   domain.RoomName
	mic    bool
	video  bool
	conn   Sender
}

func (e *sessionEntry) snapshot(id SessionID) Session {
	return Session{
		ID:           id,
		Handle:       e.handle,
		Room:         e.room,
		MicEnabled:   e.mic,
		VideoEnabled: e.video,
	}
}

// Registry is the single source of truth for who is online and what room
// each session currently occupies.
type Registry struct {
	mu       sync.RWMutex
	sessions map[SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[SessionID]*sessionEntry)}
}

// Open registers a fresh session: new uuid, random two-word handle, mic on,
// camera off. The caller owns sending the hello greeting.
func (r *Registry) Open(conn Sender) Session {
	id := SessionID(uuid.NewString())
	entry := &sessionEntry{handle: NewHandle(), mic: true, conn: conn}

	r.mu.Lock()
	r.sessions[id] = entry
	snap := entry.snapshot(id)
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("handle", snap.Handle).Msg("session opened")
	return snap
}

// Remove drops the session and returns its transport for the caller to close.
// Room membership must already be released via the leave path.
func (r *Registry) Remove(id SessionID) (Sender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("session removed")
	return entry.conn, true
}

func (r *Registry) Get(id SessionID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return entry.snapshot(id), true
}

// RoomOf returns the current room, or false when the session is in none.
func (r *Registry) RoomOf(id SessionID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok || entry.room == "" {
		return "", false
	}
	return entry.room, true
}

func (r *Registry) SetRoom(id SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return false
	}
	entry.room = room
	return true
}

func (r *Registry) ClearRoom(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[id]; ok {
		entry.room = ""
	}
}

// UpdateMedia mutates the mic/camera flags in place; nil means unchanged.
func (r *Registry) UpdateMedia(id SessionID, mic, video *bool) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	if mic != nil {
		entry.mic = *mic
	}
	if video != nil {
		entry.video = *video
	}
	return entry.snapshot(id), true
}

// conn is used by the relay engine within this package.
func (r *Registry) conn(id SessionID) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// eachConn snapshots all open transports for a global fan-out.
func (r *Registry) eachConn() map[SessionID]Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[SessionID]Sender, len(r.sessions))
	for id, e := range r.sessions {
		out[id] = e.conn
	}
	return out
}
