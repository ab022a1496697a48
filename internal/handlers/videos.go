package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/views"
)

// VideoHandler implements the video listing, publishing, and mutation
// endpoints. Reads are viewer-relative and work for anonymous callers.
type VideoHandler struct {
	Media MediaService
	Views ViewCompiler
}

// List handles GET /api/v1/videos. Supported query parameters: query,
// ownerId, sortBy (createdAt|views|duration), order (asc|desc), page, limit.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := views.ListingFilter{
		Query:     strings.TrimSpace(query.Get("query")),
		OwnerID:   strings.TrimSpace(query.Get("ownerId")),
		Ascending: strings.EqualFold(query.Get("order"), "asc"),
	}
	switch query.Get("sortBy") {
	case "", string(views.SortByCreatedAt):
		filter.SortBy = views.SortByCreatedAt
	case string(views.SortByViews):
		filter.SortBy = views.SortByViews
	case string(views.SortByDuration):
		filter.SortBy = views.SortByDuration
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown sortBy value"})
		return
	}

	summaries, err := h.Views.VideoListing(ctx, filter)
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondError(ctx, w, err)
		return
	}

	page, limit := pageParams(r)
	respondJSON(ctx, w, http.StatusOK, views.Paginate(summaries, page, limit))
}

// Publish handles POST /api/v1/videos for an authenticated owner. The body
// is multipart: title, description, publish flag, and the media and
// thumbnail files.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "multipart form expected"})
		return
	}
	defer cleanupMultipart(r)

	in := media.PublishVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Publish:     parseBool(r.FormValue("publish")),
	}

	mediaFile, closeMedia, ok := formUpload(r, "media")
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "media file is required"})
		return
	}
	defer closeMedia()
	in.Media = mediaFile

	thumb, closeThumb, ok := formUpload(r, "thumbnail")
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "thumbnail file is required"})
		return
	}
	defer closeThumb()
	in.Thumbnail = thumb

	ownerID := PrincipalFromContext(ctx)
	video, err := h.Media.PublishVideo(ctx, ownerID, in)
	if err != nil {
		logger.Warn("publish video failed", "ownerId", ownerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	view, err := h.Views.VideoView(ctx, video.ID, ownerID)
	if err != nil {
		logger.Error("project published video", "videoId", video.ID, "error", err)
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, view)
}

// Get handles GET /api/v1/videos/{id}. Fetching a video counts as a view
// and, for signed-in callers, lands in their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("id")
	viewerID := PrincipalFromContext(ctx)

	view, err := h.Views.VideoView(ctx, videoID, viewerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Media.RecordView(ctx, videoID, viewerID); err != nil {
		// The projection already succeeded; losing one view tick is
		// preferable to failing the read.
		logging.FromContext(ctx).Error("record view", "videoId", videoID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, view)
}

// Update handles PATCH /api/v1/videos/{id}. The body is multipart so the
// thumbnail can optionally be replaced alongside the text fields.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid video update payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "multipart form expected"})
		return
	}
	defer cleanupMultipart(r)

	in := media.UpdateVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if thumb, closeThumb, ok := formUpload(r, "thumbnail"); ok {
		defer closeThumb()
		in.Thumbnail = &thumb
	}

	actorID := PrincipalFromContext(ctx)
	videoID := r.PathValue("id")
	video, err := h.Media.UpdateVideo(ctx, actorID, videoID, in)
	if err != nil {
		logger.Warn("update video failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	view, err := h.Views.VideoView(ctx, video.ID, actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("id")

	if err := h.Media.DeleteVideo(ctx, PrincipalFromContext(ctx), videoID); err != nil {
		logging.FromContext(ctx).Warn("delete video failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TogglePublish handles POST /api/v1/videos/{id}/publish, flipping the
// video between draft and published.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("id")

	published, err := h.Media.TogglePublish(ctx, PrincipalFromContext(ctx), videoID)
	if err != nil {
		logging.FromContext(ctx).Warn("toggle publish failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"published": published})
}

// pageParams reads page and limit query parameters. Out-of-range values are
// left for the pagination layer to clamp.
func pageParams(r *http.Request) (page, limit int) {
	query := r.URL.Query()
	page, _ = strconv.Atoi(query.Get("page"))
	limit, _ = strconv.Atoi(query.Get("limit"))
	return page, limit
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}
