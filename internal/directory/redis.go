package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/domain"
)

const (
	roomKeyPrefix = "room:"
	nameKeyPrefix = "roomname:"
	roomIndexKey  = "rooms"
)

// RedisStore keeps room records as JSON values under room:<id>, a name index
// under roomname:<name> and the id set under rooms. Read-modify-write cycles
// are serialized with a local mutex; the store assumes a single writer process
// per directory, which matches the one-registry-per-server deployment.
type RedisStore struct {
	mu  sync.Mutex
	rdb *redis.Client
}

// NewRedisStore connects and pings the server so a misconfigured address
// fails at startup, not on first use.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) load(ctx context.Context, id domain.RoomID) (*domain.RoomRecord, error) {
	data, err := s.rdb.Get(ctx, roomKeyPrefix+string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec domain.RoomRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("corrupt room record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) save(ctx context.Context, rec *domain.RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, roomKeyPrefix+string(rec.ID), data, 0).Err()
}

func (s *RedisStore) resolve(ctx context.Context, name domain.RoomName) (domain.RoomID, error) {
	id, err := s.rdb.Get(ctx, nameKeyPrefix+string(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return domain.RoomID(id), nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]domain.RoomRecord, error) {
	ids, err := s.rdb.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.load(ctx, domain.RoomID(id))
		if errors.Is(err, domain.ErrNotFound) {
			// Stale index entry; drop it and move on.
			s.rdb.SRem(ctx, roomIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *RedisStore) GetByName(ctx context.Context, name domain.RoomName) (*domain.RoomRecord, error) {
	id, err := s.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *RedisStore) GetByID(ctx context.Context, id domain.RoomID) (*domain.RoomRecord, error) {
	return s.load(ctx, id)
}

func (s *RedisStore) Create(ctx context.Context, p CreateParams) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord(p)
	// Name uniqueness is enforced on the index key.
	ok, err := s.rdb.SetNX(ctx, nameKeyPrefix+string(rec.Name), string(rec.ID), 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrDuplicateName
	}
	if err := s.save(ctx, rec); err != nil {
		// Roll the index back so the name is not stranded.
		s.rdb.Del(ctx, nameKeyPrefix+string(rec.Name))
		return nil, err
	}
	if err := s.rdb.SAdd(ctx, roomIndexKey, string(rec.ID)).Err(); err != nil {
		log.Error().Err(err).Str("module", "directory").Str("room_id", string(rec.ID)).Msg("index add")
	}
	return rec, nil
}

func (s *RedisStore) Update(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(rec, patch)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id domain.RoomID, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.Creator != requester {
		return domain.ErrForbidden
	}
	s.rdb.Del(ctx, roomKeyPrefix+string(id), nameKeyPrefix+string(rec.Name))
	s.rdb.SRem(ctx, roomIndexKey, string(id))
	return nil
}

func (s *RedisStore) Join(ctx context.Context, name domain.RoomName, sessionID, password string) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsPrivate && rec.Password != password {
		return nil, domain.ErrInvalidPassword
	}
	if !rec.HasParticipant(sessionID) {
		rec.Participants = append(rec.Participants, domain.Participant{
			ID:         sessionID,
			JoinedAt:   time.Now(),
			MicEnabled: true,
		})
		if err := s.save(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (s *RedisStore) Leave(ctx context.Context, name domain.RoomName, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolve(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	rec.Participants = removeParticipant(rec.Participants, sessionID)
	return s.save(ctx, rec)
}

func (s *RedisStore) UpdateParticipant(ctx context.Context, name domain.RoomName, sessionID string, mic, video *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolve(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	patchParticipant(rec, sessionID, mic, video)
	return s.save(ctx, rec)
}
