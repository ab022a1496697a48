package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/views"
)

type imageUpdateFunc func(ctx context.Context, userID string, upload media.Upload) (models.User, error)

// AccountHandler implements the signed-in account endpoints: profile
// updates, image uploads, watch history, and liked videos.
type AccountHandler struct {
	Media MediaService
	Views ViewCompiler
}

// Profile handles GET /api/v1/account, returning the principal's own
// account record.
func (h AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := PrincipalFromContext(ctx)
	user, err := h.Media.Account(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("load account failed", "userId", userID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{User: projectAccount(user)})
}

// Update handles PATCH /api/v1/account. Empty fields keep their current
// values.
func (h AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid account payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
			return
		}
	}

	userID := PrincipalFromContext(ctx)
	user, err := h.Media.UpdateAccount(ctx, userID, req.FullName, req.Email)
	if err != nil {
		logger.Warn("update account failed", "userId", userID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{User: projectAccount(user)})
}

// UpdateAvatar handles POST /api/v1/account/avatar with a multipart body.
func (h AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Media.UpdateAvatar)
}

// UpdateCover handles POST /api/v1/account/cover with a multipart body.
func (h AccountHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Media.UpdateCover)
}

func (h AccountHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, apply imageUpdateFunc) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid image payload", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "multipart form expected"})
		return
	}
	defer cleanupMultipart(r)

	upload, closeUpload, ok := formUpload(r, field)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": field + " file is required"})
		return
	}
	defer closeUpload()

	userID := PrincipalFromContext(ctx)
	user, err := apply(ctx, userID, upload)
	if err != nil {
		logger.Warn("update image failed", "field", field, "userId", userID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, accountResponse{User: projectAccount(user)})
}

// WatchHistory handles GET /api/v1/account/history, most recent first.
func (h AccountHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, err := h.Views.WatchHistory(ctx, PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit := pageParams(r)
	respondJSON(ctx, w, http.StatusOK, views.Paginate(history, page, limit))
}

// LikedVideos handles GET /api/v1/account/likes, most recently liked first.
func (h AccountHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	liked, err := h.Views.LikedVideos(ctx, PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit := pageParams(r)
	respondJSON(ctx, w, http.StatusOK, views.Paginate(liked, page, limit))
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
