package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// PlaylistHandler implements playlist CRUD and membership endpoints.
// Reading a playlist is open; every mutation requires the owner.
type PlaylistHandler struct {
	Media MediaService
	Views ViewCompiler
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	req, ok := decodePlaylistBody(ctx, w, r)
	if !ok {
		return
	}

	ownerID := PrincipalFromContext(ctx)
	playlist, err := h.Media.CreatePlaylist(ctx, ownerID, req.Name, req.Description)
	if err != nil {
		logger.Warn("create playlist failed", "ownerId", ownerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	view, err := h.Views.PlaylistView(ctx, playlist.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, view)
}

// Get handles GET /api/v1/playlists/{id}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.Views.PlaylistView(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, view)
}

// ListForUser handles GET /api/v1/users/{id}/playlists, newest first.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlists, err := h.Views.UserPlaylists(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlists)
}

// Update handles PATCH /api/v1/playlists/{id}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	req, ok := decodePlaylistBody(ctx, w, r)
	if !ok {
		return
	}

	playlistID := r.PathValue("id")
	playlist, err := h.Media.UpdatePlaylist(ctx, PrincipalFromContext(ctx), playlistID, req.Name, req.Description)
	if err != nil {
		logger.Warn("update playlist failed", "playlistId", playlistID, "error", err)
		respondError(ctx, w, err)
		return
	}

	view, err := h.Views.PlaylistView(ctx, playlist.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/playlists/{id}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID := r.PathValue("id")

	if err := h.Media.DeletePlaylist(ctx, PrincipalFromContext(ctx), playlistID); err != nil {
		logging.FromContext(ctx).Warn("delete playlist failed", "playlistId", playlistID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId}. Videos
// append to the end; adding one twice is a conflict.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Media.AddPlaylistVideo)
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Media.RemovePlaylistVideo)
}

func (h PlaylistHandler) changeMembership(w http.ResponseWriter, r *http.Request, apply membershipFunc) {
	ctx := r.Context()
	playlistID := r.PathValue("id")
	videoID := r.PathValue("videoId")

	playlist, err := apply(ctx, PrincipalFromContext(ctx), playlistID, videoID)
	if err != nil {
		logging.FromContext(ctx).Warn("change playlist membership failed", "playlistId", playlistID, "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	view, err := h.Views.PlaylistView(ctx, playlist.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, view)
}

type membershipFunc func(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func decodePlaylistBody(ctx context.Context, w http.ResponseWriter, r *http.Request) (playlistRequest, bool) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid playlist payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return playlistRequest{}, false
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return playlistRequest{}, false
	}
	return req, true
}
