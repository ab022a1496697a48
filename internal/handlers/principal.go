package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
)

type principalKey struct{}

// PrincipalFromContext returns the authenticated user id, or an empty string
// for anonymous requests.
func PrincipalFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(principalKey{}).(string); ok {
		return id
	}
	return ""
}

// Authenticator resolves bearer tokens into request principals.
type Authenticator struct {
	Sessions SessionManager
}

// Require wraps a handler so it only runs with a valid access token.
func (a Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}

		userID, err := a.Sessions.Authenticate(token)
		if err != nil {
			logging.FromContext(ctx).Warn("access token rejected", "error", err)
			respondError(ctx, w, err)
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, principalKey{}, userID)))
	}
}

// Optional wraps a handler so it runs for anonymous viewers too, resolving
// the principal when a valid token is present. A token that is present but
// invalid is still rejected rather than downgraded to anonymous.
func (a Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}

		userID, err := a.Sessions.Authenticate(token)
		if err != nil {
			logging.FromContext(ctx).Warn("access token rejected", "error", err)
			respondError(ctx, w, err)
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, principalKey{}, userID)))
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
