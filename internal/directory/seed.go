package directory

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/domain"
)

// SeedRoomName is the system-owned room that always exists.
const SeedRoomName domain.RoomName = "General"

// Seed makes sure the default room is present. Safe to call on every startup.
func Seed(ctx context.Context, store Store) error {
	_, err := store.Create(ctx, CreateParams{
		Name:    SeedRoomName,
		Kind:    domain.RoomVideo,
		Creator: "system",
	})
	if errors.Is(err, domain.ErrDuplicateName) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("module", "directory").Str("room", string(SeedRoomName)).Msg("seeded default room")
	return nil
}
