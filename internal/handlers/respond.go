package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps core error kinds onto distinct HTTP statuses. Kinds are
// never collapsed: a revoked session is distinguishable from plain bad
// credentials, a malformed id from a missing entity.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		return http.StatusBadRequest, "invalid identifier"
	case errors.Is(err, media.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, media.ErrSelfSubscription):
		return http.StatusBadRequest, "cannot subscribe to own channel"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrSessionRevoked):
		return http.StatusUnauthorized, "session revoked"
	case errors.Is(err, auth.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "refresh token expired"
	case errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized, "no active session"
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, media.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, media.ErrUploadFailed):
		return http.StatusBadGateway, "upstream storage failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
