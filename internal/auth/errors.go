package auth

import "errors"

var (
	// ErrSessionNotFound indicates no live session exists for the principal.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrSessionRevoked indicates an already-rotated refresh token was
	// presented again. The whole session chain is destroyed and the
	// principal must log in from scratch.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrTokenInvalid indicates a token that fails signature or structural checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates a token whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidCredentials indicates an unknown principal or a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
