package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// SocialHandler implements the like, subscription, and channel endpoints.
type SocialHandler struct {
	Media MediaService
	Views ViewCompiler
}

// LikeVideo handles POST /api/v1/videos/{id}/like, toggling the caller's
// like on the video.
func (h SocialHandler) LikeVideo(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.VideoTarget(r.PathValue("id")))
}

// LikeComment handles POST /api/v1/comments/{id}/like.
func (h SocialHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.CommentTarget(r.PathValue("id")))
}

func (h SocialHandler) toggleLike(w http.ResponseWriter, r *http.Request, target models.LikeTarget) {
	ctx := r.Context()

	liked, err := h.Media.ToggleLike(ctx, PrincipalFromContext(ctx), target)
	if err != nil {
		logging.FromContext(ctx).Warn("toggle like failed", "targetKind", target.Kind, "targetId", target.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked})
}

// Subscribe handles POST /api/v1/channels/{id}/subscribe, toggling the
// caller's subscription to the channel.
func (h SocialHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := r.PathValue("id")

	subscribed, err := h.Media.ToggleSubscription(ctx, PrincipalFromContext(ctx), channelID)
	if err != nil {
		logging.FromContext(ctx).Warn("toggle subscription failed", "channelId", channelID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed})
}

// Channel handles GET /api/v1/channels/{username}. The lookup is
// case-insensitive and the projection is viewer-relative.
func (h SocialHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Views.ChannelProfile(ctx, r.PathValue("username"), PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}
