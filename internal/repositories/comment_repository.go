package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	// Delete removes the comment together with its likes.
	Delete(ctx context.Context, id string) error
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}
