package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func newTestSigner(t *testing.T) *TokenSigner {
	t.Helper()
	signer, err := NewTokenSigner("access-secret", "refresh-secret", "clipstream-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func TestTokenSignerAccessRoundTrip(t *testing.T) {
	signer := newTestSigner(t)
	user := models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	token, expires, err := signer.MintAccess(user, time.Minute)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expires)
	}

	claims, err := signer.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != user.ID || claims.Username != user.Username || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenSignerRefreshRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	token, _, err := signer.MintRefresh("user-1", time.Hour)
	if err != nil {
		t.Fatalf("mint refresh: %v", err)
	}

	claims, err := signer.ParseRefresh(token)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.Subject != "user-1" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	second, _, err := signer.MintRefresh("user-1", time.Hour)
	if err != nil {
		t.Fatalf("mint second refresh: %v", err)
	}
	if second == token {
		t.Fatal("each minted refresh token must be unique")
	}
}

func TestTokenSignerRejectsCrossKind(t *testing.T) {
	signer := newTestSigner(t)

	access, _, err := signer.MintAccess(models.User{ID: "user-1"}, time.Minute)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}
	if _, err := signer.ParseRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid parsing access token as refresh, got %v", err)
	}

	refresh, _, err := signer.MintRefresh("user-1", time.Hour)
	if err != nil {
		t.Fatalf("mint refresh: %v", err)
	}
	if _, err := signer.ParseAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid parsing refresh token as access, got %v", err)
	}
}

func TestTokenSignerExpiry(t *testing.T) {
	signer := newTestSigner(t)

	token, _, err := signer.MintAccess(models.User{ID: "user-1"}, time.Minute)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}

	signer.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	if _, err := signer.ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestTokenSignerForeignSignature(t *testing.T) {
	signer := newTestSigner(t)
	other, err := NewTokenSigner("different-access", "different-refresh", "clipstream-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, _, err := other.MintAccess(models.User{ID: "user-1"}, time.Minute)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}
	if _, err := signer.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid for foreign signature, got %v", err)
	}
}
