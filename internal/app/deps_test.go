package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AccessTokenSecret:  "unit-access-secret",
		RefreshTokenSecret: "unit-refresh-secret",
		TokenIssuer:        "clipstream-test",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		FFProbePath:        "ffprobe",
		FFProbeTimeout:     time.Second,
		ProbeCacheTTL:      time.Minute,
		LoginRatePerMin:    10,
		LoginRateBurst:     5,
		ObjectStore: config.ObjectStoreConfig{
			Bucket:   "test-bucket",
			Endpoint: "http://localhost:9000",
			Region:   "us-east-1",
		},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media service to be configured")
	}
	if deps.Views == nil {
		t.Fatal("expected view compiler to be configured")
	}
	if deps.LoginLimiter == nil {
		t.Fatal("expected login rate limiter to be configured")
	}
}

func TestBuildDependenciesRejectsEmptySecrets(t *testing.T) {
	cfg := config.Config{
		TokenIssuer: "clipstream-test",
		ObjectStore: config.ObjectStoreConfig{Bucket: "test-bucket"},
	}

	if _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected error for missing signing secrets")
	}
}
