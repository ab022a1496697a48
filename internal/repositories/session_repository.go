package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/db"
)

// PostgresSessionStore persists the single live session per user to
// PostgreSQL. Rotation is a compare-and-swap on the stored refresh token, so
// concurrent refreshes of the same session produce exactly one winner.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save creates or replaces the user's session record.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (user_id, refresh_token, issued_at, expires_at, generation)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id)
        DO UPDATE SET refresh_token = EXCLUDED.refresh_token,
                      issued_at = EXCLUDED.issued_at,
                      expires_at = EXCLUDED.expires_at,
                      generation = EXCLUDED.generation
    `, session.UserID, session.RefreshToken, session.IssuedAt.UTC(), session.ExpiresAt.UTC(), session.Generation)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Find loads the user's session record.
func (s *PostgresSessionStore) Find(ctx context.Context, userID string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, refresh_token, issued_at, expires_at, generation
        FROM sessions
        WHERE user_id = $1
    `, userID)

	var session auth.Session
	if err := row.Scan(&session.UserID, &session.RefreshToken, &session.IssuedAt, &session.ExpiresAt, &session.Generation); err != nil {
		if err == pgx.ErrNoRows {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}

	session.IssuedAt = session.IssuedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}

// Rotate swaps the record in place, guarded by the current refresh token.
// A zero row count means another rotation won the race.
func (s *PostgresSessionStore) Rotate(ctx context.Context, userID, current string, next auth.Session) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE sessions
        SET refresh_token = $3, issued_at = $4, expires_at = $5, generation = $6
        WHERE user_id = $1 AND refresh_token = $2
    `, userID, current, next.RefreshToken, next.IssuedAt.UTC(), next.ExpiresAt.UTC(), next.Generation)
	if err != nil {
		return false, fmt.Errorf("rotate session: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Delete removes the user's session record.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM sessions
        WHERE user_id = $1
    `, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}

	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
