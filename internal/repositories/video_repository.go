package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// VideoFilter narrows a video listing before any join work happens.
type VideoFilter struct {
	// Query is a free-text match against title and description,
	// case-insensitive. Empty means no text filter.
	Query string
	// OwnerID restricts results to one uploader. Empty means all owners.
	OwnerID string
	// PublishedOnly excludes drafts when set.
	PublishedOnly bool
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	// ListByIDs resolves a batch of video ids. Missing ids are absent from
	// the result, not an error.
	ListByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	// Delete removes the video together with its comments, the likes on the
	// video, and the likes on those comments.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter VideoFilter) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}
