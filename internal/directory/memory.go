package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sastranest/nest/internal/domain"
)

// MemoryStore is a threadsafe in-process Store. It backs tests and
// deployments that run without redis.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[domain.RoomID]*domain.RoomRecord
	byName map[domain.RoomName]domain.RoomID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[domain.RoomID]*domain.RoomRecord),
		byName: make(map[domain.RoomName]domain.RoomID),
	}
}

func clone(r *domain.RoomRecord) *domain.RoomRecord {
	cp := *r
	cp.Participants = make([]domain.Participant, len(r.Participants))
	copy(cp.Participants, r.Participants)
	return &cp
}

func (s *MemoryStore) GetAll(_ context.Context) ([]domain.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomRecord, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, *clone(r))
	}
	return out, nil
}

func (s *MemoryStore) GetByName(_ context.Context, name domain.RoomName) (*domain.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id domain.RoomID) (*domain.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) Create(_ context.Context, p CreateParams) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[p.Name]; ok {
		return nil, domain.ErrDuplicateName
	}
	rec := newRecord(p)
	s.byID[rec.ID] = rec
	s.byName[rec.Name] = rec.ID
	return clone(rec), nil
}

func (s *MemoryStore) Update(_ context.Context, id domain.RoomID, patch domain.RoomPatch) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	applyPatch(r, patch)
	return clone(r), nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.RoomID, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Creator != requester {
		return domain.ErrForbidden
	}
	delete(s.byName, r.Name)
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) Join(_ context.Context, name domain.RoomName, sessionID, password string) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := s.byID[id]
	if r.IsPrivate && r.Password != password {
		return nil, domain.ErrInvalidPassword
	}
	if !r.HasParticipant(sessionID) {
		r.Participants = append(r.Participants, domain.Participant{
			ID:         sessionID,
			JoinedAt:   time.Now(),
			MicEnabled: true,
		})
	}
	return clone(r), nil
}

func (s *MemoryStore) Leave(_ context.Context, name domain.RoomName, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return nil
	}
	r := s.byID[id]
	r.Participants = removeParticipant(r.Participants, sessionID)
	return nil
}

func (s *MemoryStore) UpdateParticipant(_ context.Context, name domain.RoomName, sessionID string, mic, video *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[name]
	if !ok {
		return nil
	}
	patchParticipant(s.byID[id], sessionID, mic, video)
	return nil
}

// newRecord builds a fresh record from creation params. Shared by both stores
// so record shape never diverges between backends.
func newRecord(p CreateParams) *domain.RoomRecord {
	kind := p.Kind
	if kind == "" {
		kind = domain.RoomVideo
	}
	return &domain.RoomRecord{
		ID:           domain.RoomID(uuid.NewString()),
		Name:         p.Name,
		Kind:         kind,
		IsPrivate:    p.Password != "",
		Password:     p.Password,
		Creator:      p.Creator,
		CreatedAt:    time.Now(),
		Participants: []domain.Participant{},
		Settings:     domain.DefaultRoomSettings(),
	}
}

func applyPatch(r *domain.RoomRecord, patch domain.RoomPatch) {
	if patch.Password != nil {
		r.Password = *patch.Password
		r.IsPrivate = *patch.Password != ""
	}
	if patch.Settings != nil {
		r.Settings = *patch.Settings
	}
}

func removeParticipant(list []domain.Participant, id string) []domain.Participant {
	out := list[:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func patchParticipant(r *domain.RoomRecord, id string, mic, video *bool) {
	for i := range r.Participants {
		if r.Participants[i].ID != id {
			continue
		}
		if mic != nil {
			r.Participants[i].MicEnabled = *mic
		}
		if video != nil {
			r.Participants[i].VideoEnabled = *video
		}
		return
	}
}
