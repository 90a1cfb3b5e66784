// Package directory is the durable room record store. It owns room metadata
// and the persisted participant list; it is NOT the authority for live
// presence, which belongs to the in-memory membership table. Implementations
// are swappable: redis-backed for deployments, memory-backed for tests and
// single-node runs.
package directory

import (
	"context"

	"github.com/sastranest/nest/internal/domain"
)

// CreateParams is the caller-supplied part of a new room record. The store
// assigns the identifier, creation time and default settings.
type CreateParams struct {
	Name     domain.RoomName
	Kind     domain.RoomKind
	Password string
	Creator  string
}

// Store is the boundary with the room directory collaborator.
type Store interface {
	GetAll(ctx context.Context) ([]domain.RoomRecord, error)
	GetByName(ctx context.Context, name domain.RoomName) (*domain.RoomRecord, error)
	GetByID(ctx context.Context, id domain.RoomID) (*domain.RoomRecord, error)

	// Create fails with domain.ErrDuplicateName when the name is taken.
	Create(ctx context.Context, p CreateParams) (*domain.RoomRecord, error)

	// Update patches an existing record, failing with domain.ErrNotFound.
	Update(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) (*domain.RoomRecord, error)

	// Delete removes a record. Only the creator may delete; others get
	// domain.ErrForbidden.
	Delete(ctx context.Context, id domain.RoomID, requester string) error

	// Join validates the password and appends the session to the persisted
	// participant list. Idempotent: a session already present is not
	// duplicated.
	Join(ctx context.Context, name domain.RoomName, sessionID, password string) (*domain.RoomRecord, error)

	// Leave removes the session from the persisted list. Unknown rooms and
	// absent sessions are a no-op.
	Leave(ctx context.Context, name domain.RoomName, sessionID string) error

	// UpdateParticipant patches the persisted mic/video flags.
	UpdateParticipant(ctx context.Context, name domain.RoomName, sessionID string, mic, video *bool) error
}
