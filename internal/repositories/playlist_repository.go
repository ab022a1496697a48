package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	// Update persists name, description, and the ordered video id set.
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
}
