package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// LikeRepository defines the data access contract for like edges.
//
// The store enforces at most one like per (target, actor) pair; Create
// returns ErrConflict when a concurrent request already created the edge.
type LikeRepository interface {
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
	FindByTargetAndActor(ctx context.Context, target models.LikeTarget, actorID string) (models.Like, error)
	ListByTarget(ctx context.Context, target models.LikeTarget) ([]models.Like, error)
	// ListByComments returns the likes on any of the provided comments.
	ListByComments(ctx context.Context, commentIDs []string) ([]models.Like, error)
	// ListByActor returns the likes placed by one user, newest first.
	ListByActor(ctx context.Context, actorID string) ([]models.Like, error)
}
