// Package media owns every write path of the platform: account management,
// video publishing, comments, and the like/subscription toggle edges. Reads
// over the same graph live in the views package.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/uploads"
)

// Upload is one inbound blob, typically a multipart form file.
type Upload struct {
	Name    string
	Content io.Reader
}

// Service coordinates graph writes with blob uploads. Blobs always land in
// the store before any graph row is written, so a failed upload leaves the
// graph untouched.
type Service struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
	playlists     repositories.PlaylistRepository

	store  uploads.Store
	prober uploads.DurationProber
	hasher auth.PasswordHasher

	nowFunc func() time.Time
	newID   func() string
}

// ServiceConfig collects the collaborators a Service needs.
type ServiceConfig struct {
	Users         repositories.UserRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
	Playlists     repositories.PlaylistRepository
	Store         uploads.Store
	Prober        uploads.DurationProber
	Hasher        auth.PasswordHasher
}

// NewService constructs the write-side service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Users == nil || cfg.Videos == nil || cfg.Comments == nil ||
		cfg.Likes == nil || cfg.Subscriptions == nil || cfg.Playlists == nil ||
		cfg.Store == nil || cfg.Prober == nil || cfg.Hasher == nil {
		panic("media: service dependencies must not be nil")
	}
	return &Service{
		users:         cfg.Users,
		videos:        cfg.Videos,
		comments:      cfg.Comments,
		likes:         cfg.Likes,
		subscriptions: cfg.Subscriptions,
		playlists:     cfg.Playlists,
		store:         cfg.Store,
		prober:        cfg.Prober,
		hasher:        cfg.Hasher,
		nowFunc:       func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// RegisterInput carries a signup request. The avatar is mandatory, the cover
// image optional.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   Upload
	Cover    *Upload
}

// Register creates a new account. The username and email are stored as
// given but must be unique case-insensitively.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: username, email, full name, and password are required", ErrInvalidInput)
	}
	if in.Avatar.Content == nil {
		return models.User{}, fmt.Errorf("%w: avatar image is required", ErrInvalidInput)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	avatarURL, err := s.saveBlob(ctx, "avatars", in.Avatar)
	if err != nil {
		return models.User{}, err
	}

	var coverURL string
	if in.Cover != nil && in.Cover.Content != nil {
		coverURL, err = s.saveBlob(ctx, "covers", *in.Cover)
		if err != nil {
			return models.User{}, err
		}
	}

	now := s.nowFunc()
	user := models.User{
		ID:        s.newID(),
		Username:  username,
		Email:     email,
		FullName:  fullName,
		Password:  digest,
		AvatarURL: avatarURL,
		CoverURL:  coverURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// ChangePassword swaps the account secret after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := models.ValidateID(userID); err != nil {
		return err
	}
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(current, user.Password) {
		return auth.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.Password = digest
	user.UpdatedAt = s.nowFunc()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// Account loads the signed-in user's own profile.
func (s *Service) Account(ctx context.Context, userID string) (models.User, error) {
	if err := models.ValidateID(userID); err != nil {
		return models.User{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// UpdateAccount changes the mutable profile fields. Empty fields keep their
// current value.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error) {
	if err := models.ValidateID(userID); err != nil {
		return models.User{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if fullName = strings.TrimSpace(fullName); fullName != "" {
		user.FullName = fullName
	}
	if email = strings.TrimSpace(email); email != "" {
		user.Email = email
	}
	user.UpdatedAt = s.nowFunc()

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// UpdateAvatar replaces the account's avatar image.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, avatar Upload) (models.User, error) {
	return s.updateImage(ctx, userID, "avatars", avatar, func(user *models.User, url string) {
		user.AvatarURL = url
	})
}

// UpdateCover replaces the account's cover image.
func (s *Service) UpdateCover(ctx context.Context, userID string, cover Upload) (models.User, error) {
	return s.updateImage(ctx, userID, "covers", cover, func(user *models.User, url string) {
		user.CoverURL = url
	})
}

func (s *Service) updateImage(ctx context.Context, userID, prefix string, blob Upload, apply func(*models.User, string)) (models.User, error) {
	if err := models.ValidateID(userID); err != nil {
		return models.User{}, err
	}
	if blob.Content == nil {
		return models.User{}, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	url, err := s.saveBlob(ctx, prefix, blob)
	if err != nil {
		return models.User{}, err
	}

	apply(&user, url)
	user.UpdatedAt = s.nowFunc()
	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// PublishVideoInput carries a video upload request.
type PublishVideoInput struct {
	Title       string
	Description string
	Media       Upload
	Thumbnail   Upload
	Publish     bool
}

// PublishVideo uploads the media and thumbnail blobs, measures the media
// duration, and records the video. Any upload or probe failure aborts before
// the graph write.
func (s *Service) PublishVideo(ctx context.Context, ownerID string, in PublishVideoInput) (models.Video, error) {
	if err := models.ValidateID(ownerID); err != nil {
		return models.Video{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Video{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Media.Content == nil || in.Thumbnail.Content == nil {
		return models.Video{}, fmt.Errorf("%w: media and thumbnail files are required", ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return models.Video{}, fmt.Errorf("load owner: %w", err)
	}

	mediaURL, err := s.saveBlob(ctx, "videos", in.Media)
	if err != nil {
		return models.Video{}, err
	}
	thumbnailURL, err := s.saveBlob(ctx, "thumbnails", in.Thumbnail)
	if err != nil {
		return models.Video{}, err
	}

	seconds, err := s.prober.Probe(ctx, mediaURL)
	if err != nil {
		return models.Video{}, fmt.Errorf("%w: probe duration: %s", ErrUploadFailed, err)
	}

	now := s.nowFunc()
	video := models.Video{
		ID:              s.newID(),
		OwnerID:         ownerID,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		MediaURL:        mediaURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: seconds,
		Published:       in.Publish,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

// UpdateVideoInput carries the mutable video fields. Empty fields keep their
// current value; a nil thumbnail keeps the existing image.
type UpdateVideoInput struct {
	Title       string
	Description string
	Thumbnail   *Upload
}

// UpdateVideo changes a video's metadata. Only the owner may mutate it.
func (s *Service) UpdateVideo(ctx context.Context, actorID, videoID string, in UpdateVideoInput) (models.Video, error) {
	video, err := s.ownedVideo(ctx, actorID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		video.Title = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		video.Description = description
	}
	if in.Thumbnail != nil && in.Thumbnail.Content != nil {
		url, err := s.saveBlob(ctx, "thumbnails", *in.Thumbnail)
		if err != nil {
			return models.Video{}, err
		}
		video.ThumbnailURL = url
	}
	video.UpdatedAt = s.nowFunc()

	if err := s.videos.Update(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}

	return video, nil
}

// DeleteVideo removes a video and everything hanging off it. Only the owner
// may delete it.
func (s *Service) DeleteVideo(ctx context.Context, actorID, videoID string) error {
	if _, err := s.ownedVideo(ctx, actorID, videoID); err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	return nil
}

// TogglePublish flips a video between draft and published and reports the
// new state. Only the owner may toggle it.
func (s *Service) TogglePublish(ctx context.Context, actorID, videoID string) (bool, error) {
	video, err := s.ownedVideo(ctx, actorID, videoID)
	if err != nil {
		return false, err
	}

	video.Published = !video.Published
	video.UpdatedAt = s.nowFunc()
	if err := s.videos.Update(ctx, video); err != nil {
		return false, fmt.Errorf("update video: %w", err)
	}

	return video.Published, nil
}

// RecordView bumps the video's view counter. For signed-in viewers it also
// records the watch in their history.
func (s *Service) RecordView(ctx context.Context, videoID, viewerID string) error {
	if err := models.ValidateID(videoID); err != nil {
		return err
	}
	if viewerID != "" {
		if err := models.ValidateID(viewerID); err != nil {
			return err
		}
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	if viewerID != "" {
		if err := s.users.AddWatchHistory(ctx, viewerID, videoID); err != nil {
			return fmt.Errorf("record watch history: %w", err)
		}
	}

	return nil
}

// AddComment attaches a comment to a video.
func (s *Service) AddComment(ctx context.Context, actorID, videoID, content string) (models.Comment, error) {
	if err := models.ValidateID(actorID); err != nil {
		return models.Comment{}, err
	}
	if err := models.ValidateID(videoID); err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}

	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return models.Comment{}, fmt.Errorf("load video: %w", err)
	}

	now := s.nowFunc()
	comment := models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		OwnerID:   actorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	return comment, nil
}

// UpdateComment rewrites a comment's content. Only the author may mutate it.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}

	comment, err := s.ownedComment(ctx, actorID, commentID)
	if err != nil {
		return models.Comment{}, err
	}

	comment.Content = content
	comment.UpdatedAt = s.nowFunc()
	if err := s.comments.Update(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment and its likes. Only the author may delete it.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if _, err := s.ownedComment(ctx, actorID, commentID); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	return nil
}

// ToggleLike flips the actor's like edge on the target and reports whether
// the like is now active. When two requests race to create the same edge the
// store lets exactly one through; the loser surfaces ErrConflict.
func (s *Service) ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (bool, error) {
	if err := models.ValidateID(actorID); err != nil {
		return false, err
	}
	if err := models.ValidateID(target.ID); err != nil {
		return false, err
	}

	switch target.Kind {
	case models.TargetVideo:
		if _, err := s.videos.FindByID(ctx, target.ID); err != nil {
			return false, fmt.Errorf("load video: %w", err)
		}
	case models.TargetComment:
		if _, err := s.comments.FindByID(ctx, target.ID); err != nil {
			return false, fmt.Errorf("load comment: %w", err)
		}
	default:
		return false, fmt.Errorf("%w: unknown like target kind %q", ErrInvalidInput, target.Kind)
	}

	existing, err := s.likes.FindByTargetAndActor(ctx, target, actorID)
	switch {
	case err == nil:
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("remove like: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{
			ID:        s.newID(),
			Target:    target,
			LikedBy:   actorID,
			CreatedAt: s.nowFunc(),
		}
		if err := s.likes.Create(ctx, like); err != nil {
			return false, fmt.Errorf("create like: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("load like: %w", err)
	}
}

// ToggleSubscription flips the actor's subscription to the channel and
// reports whether it is now active. Subscribing to one's own channel is
// rejected.
func (s *Service) ToggleSubscription(ctx context.Context, actorID, channelID string) (bool, error) {
	if err := models.ValidateID(actorID); err != nil {
		return false, err
	}
	if err := models.ValidateID(channelID); err != nil {
		return false, err
	}
	if actorID == channelID {
		return false, ErrSelfSubscription
	}

	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return false, fmt.Errorf("load channel: %w", err)
	}

	existing, err := s.subscriptions.FindPair(ctx, actorID, channelID)
	switch {
	case err == nil:
		if err := s.subscriptions.Delete(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("remove subscription: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		sub := models.Subscription{
			ID:           s.newID(),
			SubscriberID: actorID,
			ChannelID:    channelID,
			CreatedAt:    s.nowFunc(),
		}
		if err := s.subscriptions.Create(ctx, sub); err != nil {
			return false, fmt.Errorf("create subscription: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("load subscription: %w", err)
	}
}

// CreatePlaylist opens a new, empty playlist for the owner.
func (s *Service) CreatePlaylist(ctx context.Context, ownerID, name, description string) (models.Playlist, error) {
	if err := models.ValidateID(ownerID); err != nil {
		return models.Playlist{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist name is required", ErrInvalidInput)
	}

	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return models.Playlist{}, fmt.Errorf("load owner: %w", err)
	}

	now := s.nowFunc()
	playlist := models.Playlist{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return models.Playlist{}, fmt.Errorf("create playlist: %w", err)
	}

	return playlist, nil
}

// UpdatePlaylist renames a playlist. Only the owner may mutate it.
func (s *Service) UpdatePlaylist(ctx context.Context, actorID, playlistID, name, description string) (models.Playlist, error) {
	playlist, err := s.ownedPlaylist(ctx, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	if name = strings.TrimSpace(name); name != "" {
		playlist.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		playlist.Description = description
	}
	playlist.UpdatedAt = s.nowFunc()

	if err := s.playlists.Update(ctx, playlist); err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}

	return playlist, nil
}

// DeletePlaylist removes a playlist. Only the owner may delete it.
func (s *Service) DeletePlaylist(ctx context.Context, actorID, playlistID string) error {
	if _, err := s.ownedPlaylist(ctx, actorID, playlistID); err != nil {
		return err
	}

	if err := s.playlists.Delete(ctx, playlistID); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	return nil
}

// AddPlaylistVideo appends a video to the playlist. Adding a video twice is
// a conflict.
func (s *Service) AddPlaylistVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	if err := models.ValidateID(videoID); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.ownedPlaylist(ctx, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return models.Playlist{}, fmt.Errorf("load video: %w", err)
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return models.Playlist{}, fmt.Errorf("playlist video: %w", repositories.ErrConflict)
		}
	}

	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	playlist.UpdatedAt = s.nowFunc()
	if err := s.playlists.Update(ctx, playlist); err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}

	return playlist, nil
}

// RemovePlaylistVideo drops a video from the playlist, keeping the order of
// the remaining entries.
func (s *Service) RemovePlaylistVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	if err := models.ValidateID(videoID); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.ownedPlaylist(ctx, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	kept := playlist.VideoIDs[:0]
	found := false
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return models.Playlist{}, fmt.Errorf("playlist video: %w", repositories.ErrNotFound)
	}

	playlist.VideoIDs = kept
	playlist.UpdatedAt = s.nowFunc()
	if err := s.playlists.Update(ctx, playlist); err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}

	return playlist, nil
}

func (s *Service) ownedVideo(ctx context.Context, actorID, videoID string) (models.Video, error) {
	if err := models.ValidateID(actorID); err != nil {
		return models.Video{}, err
	}
	if err := models.ValidateID(videoID); err != nil {
		return models.Video{}, err
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, fmt.Errorf("load video: %w", err)
	}
	if video.OwnerID != actorID {
		return models.Video{}, ErrForbidden
	}
	return video, nil
}

func (s *Service) ownedComment(ctx context.Context, actorID, commentID string) (models.Comment, error) {
	if err := models.ValidateID(actorID); err != nil {
		return models.Comment{}, err
	}
	if err := models.ValidateID(commentID); err != nil {
		return models.Comment{}, err
	}

	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("load comment: %w", err)
	}
	if comment.OwnerID != actorID {
		return models.Comment{}, ErrForbidden
	}
	return comment, nil
}

func (s *Service) ownedPlaylist(ctx context.Context, actorID, playlistID string) (models.Playlist, error) {
	if err := models.ValidateID(actorID); err != nil {
		return models.Playlist{}, err
	}
	if err := models.ValidateID(playlistID); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("load playlist: %w", err)
	}
	if playlist.OwnerID != actorID {
		return models.Playlist{}, ErrForbidden
	}
	return playlist, nil
}

// saveBlob streams an upload into the store under a collision-free key.
func (s *Service) saveBlob(ctx context.Context, prefix string, blob Upload) (string, error) {
	name := path.Base(strings.TrimSpace(blob.Name))
	if name == "" || name == "." || name == "/" {
		name = "blob"
	}

	key := fmt.Sprintf("%s/%s-%s", prefix, s.newID(), name)
	location, err := s.store.Save(ctx, key, blob.Content)
	if err != nil {
		return "", fmt.Errorf("%w: save %s: %s", ErrUploadFailed, prefix, err)
	}
	return location, nil
}
