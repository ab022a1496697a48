package app

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/uploads"
	"github.com/clipstream/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)

	signer, err := auth.NewTokenSigner(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.TokenIssuer)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure token signer: %w", err)
	}
	hasher := auth.BcryptHasher{}
	sessions := auth.NewManager(
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		users,
		repositories.NewPostgresSessionStore(pool),
		signer,
		hasher,
	)

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}
	prober := uploads.NewCachingProber(
		uploads.NewFFProbeProber(cfg.FFProbePath, cfg.FFProbeTimeout),
		cfg.ProbeCacheTTL,
	)

	svc := media.NewService(media.ServiceConfig{
		Users:         users,
		Videos:        videos,
		Comments:      comments,
		Likes:         likes,
		Subscriptions: subscriptions,
		Playlists:     playlists,
		Store:         store,
		Prober:        prober,
		Hasher:        hasher,
	})

	return handlers.Dependencies{
		Sessions:     sessions,
		Media:        svc,
		Views:        views.NewCompiler(users, videos, comments, likes, subscriptions, playlists),
		LoginLimiter: middleware.NewIPRateLimiter(cfg.LoginRatePerMin, time.Minute, cfg.LoginRateBurst, 10*time.Minute),
	}, nil
}
