package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/clipstream/backend/internal/models"
)

// MemoryGraph bundles in-memory implementations of every graph repository,
// for tests and local development. The repositories share one entity graph
// guarded by a single mutex, so cross-entity invariants (cascade deletes,
// toggle-edge uniqueness) hold under concurrent use just as the PostgreSQL
// schema enforces them.
type MemoryGraph struct {
	Users         *MemoryUserRepository
	Videos        *MemoryVideoRepository
	Comments      *MemoryCommentRepository
	Likes         *MemoryLikeRepository
	Subscriptions *MemorySubscriptionRepository
	Playlists     *MemoryPlaylistRepository
}

// NewMemoryGraph constructs an empty in-memory entity graph.
func NewMemoryGraph() *MemoryGraph {
	state := &memoryState{
		users:         make(map[string]models.User),
		videos:        make(map[string]models.Video),
		comments:      make(map[string]models.Comment),
		likes:         make(map[string]models.Like),
		subscriptions: make(map[string]models.Subscription),
		playlists:     make(map[string]models.Playlist),
		history:       make(map[string][]string),
	}
	return &MemoryGraph{
		Users:         &MemoryUserRepository{state: state},
		Videos:        &MemoryVideoRepository{state: state},
		Comments:      &MemoryCommentRepository{state: state},
		Likes:         &MemoryLikeRepository{state: state},
		Subscriptions: &MemorySubscriptionRepository{state: state},
		Playlists:     &MemoryPlaylistRepository{state: state},
	}
}

type memoryState struct {
	mu            sync.Mutex
	users         map[string]models.User
	videos        map[string]models.Video
	comments      map[string]models.Comment
	likes         map[string]models.Like
	subscriptions map[string]models.Subscription
	playlists     map[string]models.Playlist
	// history maps a user id to watched video ids, most recent first.
	history map[string][]string
}

var (
	_ UserRepository         = (*MemoryUserRepository)(nil)
	_ VideoRepository        = (*MemoryVideoRepository)(nil)
	_ CommentRepository      = (*MemoryCommentRepository)(nil)
	_ LikeRepository         = (*MemoryLikeRepository)(nil)
	_ SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
	_ PlaylistRepository     = (*MemoryPlaylistRepository)(nil)
)

// MemoryUserRepository implements UserRepository over the shared graph.
type MemoryUserRepository struct {
	state *memoryState
}

// Create persists a new user, rejecting duplicate usernames or emails.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, existing := range r.state.users {
		if models.FoldName(existing.Username) == models.FoldName(user.Username) ||
			models.FoldName(existing.Email) == models.FoldName(user.Email) {
			return ErrConflict
		}
	}
	r.state.users[user.ID] = user
	return nil
}

// FindByID fetches a user by id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	user, ok := r.state.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByUsername fetches a user by case-folded username.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	folded := models.FoldName(username)
	for _, user := range r.state.users {
		if models.FoldName(user.Username) == folded {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindByLogin fetches a user by case-folded username or email.
func (r *MemoryUserRepository) FindByLogin(_ context.Context, login string) (models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	folded := models.FoldName(login)
	for _, user := range r.state.users {
		if models.FoldName(user.Username) == folded || models.FoldName(user.Email) == folded {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindManyByID resolves a batch of user ids.
func (r *MemoryUserRepository) FindManyByID(_ context.Context, ids []string) (map[string]models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.state.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

// Update modifies an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, user models.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.users[user.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.state.users {
		if id == user.ID {
			continue
		}
		if models.FoldName(existing.Username) == models.FoldName(user.Username) ||
			models.FoldName(existing.Email) == models.FoldName(user.Email) {
			return ErrConflict
		}
	}
	r.state.users[user.ID] = user
	return nil
}

// AddWatchHistory records a watched video, moving re-watches to the front.
func (r *MemoryUserRepository) AddWatchHistory(_ context.Context, userID, videoID string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.users[userID]; !ok {
		return ErrNotFound
	}

	entries := r.state.history[userID]
	next := make([]string, 0, len(entries)+1)
	next = append(next, videoID)
	for _, id := range entries {
		if id != videoID {
			next = append(next, id)
		}
	}
	r.state.history[userID] = next
	return nil
}

// WatchHistory returns watched video ids, most recent first.
func (r *MemoryUserRepository) WatchHistory(_ context.Context, userID string) ([]string, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.users[userID]; !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), r.state.history[userID]...), nil
}

// MemoryVideoRepository implements VideoRepository over the shared graph.
type MemoryVideoRepository struct {
	state *memoryState
}

// Create persists a new video record.
func (r *MemoryVideoRepository) Create(_ context.Context, video models.Video) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.videos[video.ID] = video
	return nil
}

// FindByID fetches a video by id.
func (r *MemoryVideoRepository) FindByID(_ context.Context, id string) (models.Video, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	video, ok := r.state.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// ListByIDs resolves a batch of video ids.
func (r *MemoryVideoRepository) ListByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if video, ok := r.state.videos[id]; ok {
			out[id] = video
		}
	}
	return out, nil
}

// Update modifies an existing video.
func (r *MemoryVideoRepository) Update(_ context.Context, video models.Video) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.videos[video.ID]; !ok {
		return ErrNotFound
	}
	r.state.videos[video.ID] = video
	return nil
}

// Delete removes a video, its comments, and every like on either.
func (r *MemoryVideoRepository) Delete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.videos, id)

	doomed := make(map[string]bool)
	for commentID, comment := range r.state.comments {
		if comment.VideoID == id {
			doomed[commentID] = true
			delete(r.state.comments, commentID)
		}
	}
	for likeID, like := range r.state.likes {
		switch like.Target.Kind {
		case models.TargetVideo:
			if like.Target.ID == id {
				delete(r.state.likes, likeID)
			}
		case models.TargetComment:
			if doomed[like.Target.ID] {
				delete(r.state.likes, likeID)
			}
		}
	}
	return nil
}

// List returns the videos matching the filter, unordered.
func (r *MemoryVideoRepository) List(_ context.Context, filter VideoFilter) ([]models.Video, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var out []models.Video
	for _, video := range r.state.videos {
		if filter.PublishedOnly && !video.Published {
			continue
		}
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(video.Title), query) &&
			!strings.Contains(strings.ToLower(video.Description), query) {
			continue
		}
		out = append(out, video)
	}
	return out, nil
}

// IncrementViews bumps a video's view counter by one.
func (r *MemoryVideoRepository) IncrementViews(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	video, ok := r.state.videos[id]
	if !ok {
		return ErrNotFound
	}
	video.Views++
	r.state.videos[id] = video
	return nil
}

// MemoryCommentRepository implements CommentRepository over the shared graph.
type MemoryCommentRepository struct {
	state *memoryState
}

// Create persists a new comment record.
func (r *MemoryCommentRepository) Create(_ context.Context, comment models.Comment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.comments[comment.ID] = comment
	return nil
}

// FindByID fetches a comment by id.
func (r *MemoryCommentRepository) FindByID(_ context.Context, id string) (models.Comment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	comment, ok := r.state.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

// Update modifies an existing comment.
func (r *MemoryCommentRepository) Update(_ context.Context, comment models.Comment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.comments[comment.ID]; !ok {
		return ErrNotFound
	}
	r.state.comments[comment.ID] = comment
	return nil
}

// Delete removes a comment together with its likes.
func (r *MemoryCommentRepository) Delete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.comments, id)
	for likeID, like := range r.state.likes {
		if like.Target.Kind == models.TargetComment && like.Target.ID == id {
			delete(r.state.likes, likeID)
		}
	}
	return nil
}

// ListByVideo returns a video's comments, newest first with id tiebreak.
func (r *MemoryCommentRepository) ListByVideo(_ context.Context, videoID string) ([]models.Comment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Comment
	for _, comment := range r.state.comments {
		if comment.VideoID == videoID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MemoryLikeRepository implements LikeRepository over the shared graph.
type MemoryLikeRepository struct {
	state *memoryState
}

// Create persists a like edge, rejecting duplicate (target, actor) pairs.
func (r *MemoryLikeRepository) Create(_ context.Context, like models.Like) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, existing := range r.state.likes {
		if existing.Target == like.Target && existing.LikedBy == like.LikedBy {
			return ErrConflict
		}
	}
	r.state.likes[like.ID] = like
	return nil
}

// Delete removes a like edge by id.
func (r *MemoryLikeRepository) Delete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.likes[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.likes, id)
	return nil
}

// FindByTargetAndActor fetches the like edge for one (target, actor) pair.
func (r *MemoryLikeRepository) FindByTargetAndActor(_ context.Context, target models.LikeTarget, actorID string) (models.Like, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, like := range r.state.likes {
		if like.Target == target && like.LikedBy == actorID {
			return like, nil
		}
	}
	return models.Like{}, ErrNotFound
}

// ListByTarget returns the like edges pointing at one target.
func (r *MemoryLikeRepository) ListByTarget(_ context.Context, target models.LikeTarget) ([]models.Like, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Like
	for _, like := range r.state.likes {
		if like.Target == target {
			out = append(out, like)
		}
	}
	return out, nil
}

// ListByComments returns the likes on any of the provided comments.
func (r *MemoryLikeRepository) ListByComments(_ context.Context, commentIDs []string) ([]models.Like, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	wanted := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}

	var out []models.Like
	for _, like := range r.state.likes {
		if like.Target.Kind == models.TargetComment && wanted[like.Target.ID] {
			out = append(out, like)
		}
	}
	return out, nil
}

// ListByActor returns one user's like edges, newest first.
func (r *MemoryLikeRepository) ListByActor(_ context.Context, actorID string) ([]models.Like, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Like
	for _, like := range r.state.likes {
		if like.LikedBy == actorID {
			out = append(out, like)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MemorySubscriptionRepository implements SubscriptionRepository over the shared graph.
type MemorySubscriptionRepository struct {
	state *memoryState
}

// Create persists a subscription edge, rejecting duplicate pairs.
func (r *MemorySubscriptionRepository) Create(_ context.Context, sub models.Subscription) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, existing := range r.state.subscriptions {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			return ErrConflict
		}
	}
	r.state.subscriptions[sub.ID] = sub
	return nil
}

// Delete removes a subscription edge by id.
func (r *MemorySubscriptionRepository) Delete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.subscriptions, id)
	return nil
}

// FindPair fetches the subscription edge for one (subscriber, channel) pair.
func (r *MemorySubscriptionRepository) FindPair(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, sub := range r.state.subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, ErrNotFound
}

// ListByChannel returns the edges pointing at one channel.
func (r *MemorySubscriptionRepository) ListByChannel(_ context.Context, channelID string) ([]models.Subscription, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Subscription
	for _, sub := range r.state.subscriptions {
		if sub.ChannelID == channelID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// ListBySubscriber returns the edges originating from one subscriber.
func (r *MemorySubscriptionRepository) ListBySubscriber(_ context.Context, subscriberID string) ([]models.Subscription, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Subscription
	for _, sub := range r.state.subscriptions {
		if sub.SubscriberID == subscriberID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// MemoryPlaylistRepository implements PlaylistRepository over the shared graph.
type MemoryPlaylistRepository struct {
	state *memoryState
}

// Create persists a new playlist.
func (r *MemoryPlaylistRepository) Create(_ context.Context, playlist models.Playlist) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

// FindByID fetches a playlist by id.
func (r *MemoryPlaylistRepository) FindByID(_ context.Context, id string) (models.Playlist, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	playlist, ok := r.state.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return clonePlaylist(playlist), nil
}

// Update modifies an existing playlist.
func (r *MemoryPlaylistRepository) Update(_ context.Context, playlist models.Playlist) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.playlists[playlist.ID]; !ok {
		return ErrNotFound
	}
	r.state.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

// Delete removes a playlist by id.
func (r *MemoryPlaylistRepository) Delete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.playlists, id)
	return nil
}

// ListByOwner returns one user's playlists, unordered.
func (r *MemoryPlaylistRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var out []models.Playlist
	for _, playlist := range r.state.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, clonePlaylist(playlist))
		}
	}
	return out, nil
}

func clonePlaylist(playlist models.Playlist) models.Playlist {
	playlist.VideoIDs = append([]string(nil), playlist.VideoIDs...)
	return playlist
}
