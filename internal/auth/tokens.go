package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

const refreshTokenType = "refresh"

// AccessClaims is the payload carried by a self-contained access token.
// Access tokens are verified by signature and expiry alone; no server-side
// record backs them.
type AccessClaims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload carried by a refresh token. Beyond signature
// and expiry, a refresh token is only honored while it equals the single
// recorded credential for its subject.
type RefreshClaims struct {
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies the two token kinds with separate HMAC secrets.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

// NewTokenSigner constructs a signer from the two shared secrets.
func NewTokenSigner(accessSecret, refreshSecret, issuer string) (*TokenSigner, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	return &TokenSigner{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// MintAccess issues a signed access token for the user.
func (s *TokenSigner) MintAccess(user models.User, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expires, nil
}

// MintRefresh issues a signed refresh token for the user id.
func (s *TokenSigner) MintRefresh(userID string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := RefreshClaims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, expires, nil
}

// ParseAccess verifies an access token and returns its claims.
func (s *TokenSigner) ParseAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(token, &claims, s.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.Subject == "" {
		return AccessClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token's signature and expiry and returns
// its claims. Matching against the recorded session credential is the
// Manager's job.
func (s *TokenSigner) ParseRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(token, &claims, s.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.Subject == "" || claims.TokenType != refreshTokenType {
		return RefreshClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenSigner) parse(token string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
