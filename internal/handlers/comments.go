package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// CommentHandler implements the comment endpoints. Listing is
// viewer-relative and open to anonymous callers; mutation requires the
// comment owner.
type CommentHandler struct {
	Media MediaService
	Views ViewCompiler
}

// List handles GET /api/v1/videos/{id}/comments with page and limit query
// parameters. Comments come back newest first.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("id")

	page, limit := pageParams(r)
	comments, err := h.Views.CommentPage(ctx, videoID, PrincipalFromContext(ctx), page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, comments)
}

// Create handles POST /api/v1/videos/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	content, ok := decodeCommentBody(ctx, w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("id")
	comment, err := h.Media.AddComment(ctx, PrincipalFromContext(ctx), videoID, content)
	if err != nil {
		logger.Warn("add comment failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, projectComment(comment))
}

// Update handles PATCH /api/v1/comments/{id}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	content, ok := decodeCommentBody(ctx, w, r)
	if !ok {
		return
	}

	commentID := r.PathValue("id")
	comment, err := h.Media.UpdateComment(ctx, PrincipalFromContext(ctx), commentID, content)
	if err != nil {
		logger.Warn("update comment failed", "commentId", commentID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, projectComment(comment))
}

// Delete handles DELETE /api/v1/comments/{id}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID := r.PathValue("id")

	if err := h.Media.DeleteComment(ctx, PrincipalFromContext(ctx), commentID); err != nil {
		logging.FromContext(ctx).Warn("delete comment failed", "commentId", commentID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

type commentRequest struct {
	Content string `json:"content"`
}

func decodeCommentBody(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return "", false
	}
	return content, true
}

type commentProjection struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func projectComment(comment models.Comment) commentProjection {
	return commentProjection{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		OwnerID:   comment.OwnerID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}
