package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/views"
)

// SessionManager issues, rotates, and revokes the token pairs backing
// authenticated sessions.
type SessionManager interface {
	Login(ctx context.Context, login, secret string) (models.SessionTokens, models.User, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Authenticate(accessToken string) (string, error)
}

// ViewCompiler builds viewer-relative read projections.
type ViewCompiler interface {
	VideoView(ctx context.Context, videoID, viewerID string) (views.VideoView, error)
	CommentPage(ctx context.Context, videoID, viewerID string, page, limit int) (views.Page[views.CommentView], error)
	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelView, error)
	VideoListing(ctx context.Context, filter views.ListingFilter) ([]views.VideoSummary, error)
	LikedVideos(ctx context.Context, viewerID string) ([]views.VideoSummary, error)
	WatchHistory(ctx context.Context, userID string) ([]views.VideoSummary, error)
	PlaylistView(ctx context.Context, playlistID string) (views.PlaylistView, error)
	UserPlaylists(ctx context.Context, ownerID string) ([]views.PlaylistView, error)
}

// MediaService owns every graph mutation exposed over HTTP.
type MediaService interface {
	Register(ctx context.Context, in media.RegisterInput) (models.User, error)
	Account(ctx context.Context, userID string) (models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, avatar media.Upload) (models.User, error)
	UpdateCover(ctx context.Context, userID string, cover media.Upload) (models.User, error)

	PublishVideo(ctx context.Context, ownerID string, in media.PublishVideoInput) (models.Video, error)
	UpdateVideo(ctx context.Context, actorID, videoID string, in media.UpdateVideoInput) (models.Video, error)
	DeleteVideo(ctx context.Context, actorID, videoID string) error
	TogglePublish(ctx context.Context, actorID, videoID string) (bool, error)
	RecordView(ctx context.Context, videoID, viewerID string) error

	AddComment(ctx context.Context, actorID, videoID, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, actorID, commentID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) error

	ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	ToggleSubscription(ctx context.Context, actorID, channelID string) (bool, error)

	CreatePlaylist(ctx context.Context, ownerID, name, description string) (models.Playlist, error)
	UpdatePlaylist(ctx context.Context, actorID, playlistID, name, description string) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, actorID, playlistID string) error
	AddPlaylistVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
	RemovePlaylistVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
}
