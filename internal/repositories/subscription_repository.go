package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// SubscriptionRepository defines the data access contract for subscription edges.
//
// The store enforces at most one subscription per (subscriber, channel) pair;
// Create returns ErrConflict when a concurrent request already created the edge.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, id string) error
	FindPair(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}
