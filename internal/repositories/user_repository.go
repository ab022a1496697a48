package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for users.
//
// Lookups by username, email, or login fold their argument case-insensitively;
// the stored uniqueness of usernames and emails is case-insensitive as well.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// FindByLogin matches either username or email.
	FindByLogin(ctx context.Context, login string) (models.User, error)
	// FindManyByID resolves a batch of user ids. Missing ids are absent from
	// the result, not an error.
	FindManyByID(ctx context.Context, ids []string) (map[string]models.User, error)
	Update(ctx context.Context, user models.User) error

	// AddWatchHistory records that the user watched the video. Re-watching
	// moves the entry to the front without duplicating it.
	AddWatchHistory(ctx context.Context, userID, videoID string) error
	// WatchHistory returns the user's watched video ids, most recent first.
	WatchHistory(ctx context.Context, userID string) ([]string, error)
}
