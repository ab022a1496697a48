package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// Session is the single live refresh credential recorded for a user. Exactly
// one exists per principal at any time; rotating replaces it in place.
type Session struct {
	UserID       string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	Generation   int
}

// SessionStore persists session records keyed by user id.
type SessionStore interface {
	// Save creates or replaces the user's session record.
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, userID string) (Session, error)
	// Rotate replaces the record only if its current refresh token equals
	// current. It reports false when another rotation got there first.
	Rotate(ctx context.Context, userID, current string, next Session) (bool, error)
	// Delete removes the record. Deleting a missing record returns
	// ErrSessionNotFound.
	Delete(ctx context.Context, userID string) error
}

// UserSource is the subset of user persistence the session authority needs.
type UserSource interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Manager is the session authority: it issues, rotates, and revokes the
// paired access/refresh credentials for authenticated principals.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	users  UserSource
	store  SessionStore
	signer *TokenSigner
	hasher PasswordHasher

	nowFunc func() time.Time
}

// NewManager constructs a Manager that issues access and refresh tokens with
// the provided TTLs.
func NewManager(accessTTL, refreshTTL time.Duration, users UserSource, store SessionStore, signer *TokenSigner, hasher PasswordHasher) *Manager {
	if users == nil || store == nil || signer == nil || hasher == nil {
		panic("auth: manager dependencies must not be nil")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		store:      store,
		signer:     signer,
		hasher:     hasher,
		nowFunc:    func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies the principal's secret and, on success, opens a fresh
// session at generation zero, replacing any previous one.
func (m *Manager) Login(ctx context.Context, login, secret string) (models.SessionTokens, models.User, error) {
	if login == "" || secret == "" {
		return models.SessionTokens{}, models.User{}, ErrInvalidCredentials
	}

	user, err := m.users.FindByLogin(ctx, login)
	if err != nil {
		// Only a missing record is a bad principal; a store outage must not
		// present as a wrong password.
		if errors.Is(err, models.ErrNotFound) {
			return models.SessionTokens{}, models.User{}, ErrInvalidCredentials
		}
		return models.SessionTokens{}, models.User{}, fmt.Errorf("find user: %w", err)
	}

	if !m.hasher.Verify(secret, user.Password) {
		return models.SessionTokens{}, models.User{}, ErrInvalidCredentials
	}

	refreshToken, refreshExpires, err := m.signer.MintRefresh(user.ID, m.refreshTTL)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	session := Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		IssuedAt:     m.now(),
		ExpiresAt:    refreshExpires,
		Generation:   0,
	}
	if err := m.store.Save(ctx, session); err != nil {
		return models.SessionTokens{}, models.User{}, fmt.Errorf("save session: %w", err)
	}

	accessToken, accessExpires, err := m.signer.MintAccess(user, m.accessTTL)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	user.Password = ""
	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, user, nil
}

// Refresh exchanges the presented refresh token for a new token pair,
// advancing the session's generation by one.
//
// A token that passes signature and expiry checks but does not equal the
// currently recorded credential is a reuse of an already-rotated token: the
// session chain is destroyed and ErrSessionRevoked returned. Two concurrent
// refreshes with the same valid token race on the compare-and-swap; exactly
// one wins and the loser is treated the same as a reuse.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrTokenInvalid
	}

	claims, err := m.signer.ParseRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	session, err := m.store.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return models.SessionTokens{}, ErrSessionNotFound
		}
		return models.SessionTokens{}, fmt.Errorf("load session: %w", err)
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, session.UserID)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	if session.RefreshToken != refreshToken {
		return models.SessionTokens{}, m.revoke(ctx, session.UserID)
	}

	nextToken, nextExpires, err := m.signer.MintRefresh(session.UserID, m.refreshTTL)
	if err != nil {
		return models.SessionTokens{}, err
	}

	next := Session{
		UserID:       session.UserID,
		RefreshToken: nextToken,
		IssuedAt:     m.now(),
		ExpiresAt:    nextExpires,
		Generation:   session.Generation + 1,
	}

	rotated, err := m.store.Rotate(ctx, session.UserID, refreshToken, next)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("rotate session: %w", err)
	}
	if !rotated {
		// Lost the race against a concurrent rotation of the same token.
		return models.SessionTokens{}, m.revoke(ctx, session.UserID)
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("load session user: %w", err)
	}

	accessToken, accessExpires, err := m.signer.MintAccess(user, m.accessTTL)
	if err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     nextToken,
		RefreshExpiresAt: nextExpires,
	}, nil
}

// Logout destroys the principal's session record. Logging out twice is not
// an error.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, userID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate verifies a self-contained access token and returns the
// principal id it was issued to. No store round-trip is involved.
func (m *Manager) Authenticate(accessToken string) (string, error) {
	claims, err := m.signer.ParseAccess(accessToken)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (m *Manager) revoke(ctx context.Context, userID string) error {
	if err := m.store.Delete(ctx, userID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("destroy session: %w", err)
	}
	return ErrSessionRevoked
}

func (m *Manager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now().UTC()
}
