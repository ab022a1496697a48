package views

import (
	"context"
	"fmt"
	"sort"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// SortField selects the ordering of a video listing.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByViews     SortField = "views"
	SortByDuration  SortField = "duration"
)

// ListingFilter describes a video listing request. Zero values mean "no
// constraint" except for publication: unpublished videos are never listed.
type ListingFilter struct {
	Query     string
	OwnerID   string
	SortBy    SortField
	Ascending bool
}

// Compiler builds viewer-relative projections over the entity graph. A zero
// viewer id means an anonymous viewer: every viewer-relative boolean
// compiles to false.
type Compiler struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
	playlists     repositories.PlaylistRepository
}

// NewCompiler constructs a Compiler over the provided stores.
func NewCompiler(
	users repositories.UserRepository,
	videos repositories.VideoRepository,
	comments repositories.CommentRepository,
	likes repositories.LikeRepository,
	subscriptions repositories.SubscriptionRepository,
	playlists repositories.PlaylistRepository,
) *Compiler {
	return &Compiler{
		users:         users,
		videos:        videos,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
		playlists:     playlists,
	}
}

// VideoView compiles the full projection of one video for the viewer:
// owner join, like-set join, and the owner's subscriber join, with the
// counts and booleans derived from those sets.
func (c *Compiler) VideoView(ctx context.Context, videoID, viewerID string) (VideoView, error) {
	if err := models.ValidateID(videoID); err != nil {
		return VideoView{}, err
	}
	if err := validateViewer(viewerID); err != nil {
		return VideoView{}, err
	}

	// Filter: the root entity.
	video, err := c.videos.FindByID(ctx, videoID)
	if err != nil {
		return VideoView{}, fmt.Errorf("load video: %w", err)
	}

	// Joins.
	owner, err := c.users.FindByID(ctx, video.OwnerID)
	if err != nil {
		return VideoView{}, fmt.Errorf("join video owner: %w", err)
	}
	likes, err := c.likes.ListByTarget(ctx, models.VideoTarget(video.ID))
	if err != nil {
		return VideoView{}, fmt.Errorf("join video likes: %w", err)
	}
	subscribers, err := c.subscriptions.ListByChannel(ctx, video.OwnerID)
	if err != nil {
		return VideoView{}, fmt.Errorf("join owner subscribers: %w", err)
	}

	// Derive, then shape.
	view := VideoView{
		ID:               video.ID,
		Title:            video.Title,
		Description:      video.Description,
		MediaURL:         video.MediaURL,
		ThumbnailURL:     video.ThumbnailURL,
		DurationSeconds:  video.DurationSeconds,
		Views:            video.Views,
		CreatedAt:        video.CreatedAt,
		Owner:            summarizeOwner(owner),
		LikesCount:       len(likes),
		SubscribersCount: len(subscribers),
	}
	if viewerID != "" {
		for _, like := range likes {
			if like.LikedBy == viewerID {
				view.IsLiked = true
				break
			}
		}
		for _, sub := range subscribers {
			if sub.SubscriberID == viewerID {
				view.IsSubscribed = true
				break
			}
		}
	}
	return view, nil
}

// CommentPage compiles the viewer-relative comment projections for a video
// and slices them into one page. Comments are ordered newest first with the
// id breaking ties, a total order required for stable pagination.
func (c *Compiler) CommentPage(ctx context.Context, videoID, viewerID string, page, limit int) (Page[CommentView], error) {
	if err := models.ValidateID(videoID); err != nil {
		return Page[CommentView]{}, err
	}
	if err := validateViewer(viewerID); err != nil {
		return Page[CommentView]{}, err
	}

	// The root video must exist even when it has no comments.
	if _, err := c.videos.FindByID(ctx, videoID); err != nil {
		return Page[CommentView]{}, fmt.Errorf("load video: %w", err)
	}

	comments, err := c.comments.ListByVideo(ctx, videoID)
	if err != nil {
		return Page[CommentView]{}, fmt.Errorf("list comments: %w", err)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})

	commentIDs := make([]string, 0, len(comments))
	ownerIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		commentIDs = append(commentIDs, comment.ID)
		ownerIDs = append(ownerIDs, comment.OwnerID)
	}

	owners, err := c.users.FindManyByID(ctx, ownerIDs)
	if err != nil {
		return Page[CommentView]{}, fmt.Errorf("join comment owners: %w", err)
	}
	likes, err := c.likes.ListByComments(ctx, commentIDs)
	if err != nil {
		return Page[CommentView]{}, fmt.Errorf("join comment likes: %w", err)
	}

	likesByComment := make(map[string][]models.Like, len(commentIDs))
	for _, like := range likes {
		likesByComment[like.Target.ID] = append(likesByComment[like.Target.ID], like)
	}

	projected := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		view := CommentView{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
			Owner:     summarizeOwner(owners[comment.OwnerID]),
		}
		set := likesByComment[comment.ID]
		view.LikesCount = len(set)
		if viewerID != "" {
			for _, like := range set {
				if like.LikedBy == viewerID {
					view.IsLiked = true
					break
				}
			}
		}
		projected = append(projected, view)
	}

	return Paginate(projected, page, limit), nil
}

// ChannelProfile compiles a user's public channel for the viewer. The
// username is case-folded before matching.
func (c *Compiler) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelView, error) {
	if err := validateViewer(viewerID); err != nil {
		return ChannelView{}, err
	}

	user, err := c.users.FindByUsername(ctx, models.FoldName(username))
	if err != nil {
		return ChannelView{}, fmt.Errorf("load channel user: %w", err)
	}

	subscribers, err := c.subscriptions.ListByChannel(ctx, user.ID)
	if err != nil {
		return ChannelView{}, fmt.Errorf("join channel subscribers: %w", err)
	}
	subscribedTo, err := c.subscriptions.ListBySubscriber(ctx, user.ID)
	if err != nil {
		return ChannelView{}, fmt.Errorf("join channel subscriptions: %w", err)
	}

	view := ChannelView{
		ID:                user.ID,
		Username:          user.Username,
		FullName:          user.FullName,
		Email:             user.Email,
		AvatarURL:         user.AvatarURL,
		CoverURL:          user.CoverURL,
		SubscribersCount:  len(subscribers),
		SubscribedToCount: len(subscribedTo),
	}
	if viewerID != "" {
		for _, sub := range subscribers {
			if sub.SubscriberID == viewerID {
				view.IsSubscribed = true
				break
			}
		}
	}
	return view, nil
}

// VideoListing compiles the public video listing: text and owner filters run
// in the store, drafts are always excluded, the result is put into a total
// order, and only then is the owner projection joined.
func (c *Compiler) VideoListing(ctx context.Context, filter ListingFilter) ([]VideoSummary, error) {
	if filter.OwnerID != "" {
		if err := models.ValidateID(filter.OwnerID); err != nil {
			return nil, err
		}
	}

	videos, err := c.videos.List(ctx, repositories.VideoFilter{
		Query:         filter.Query,
		OwnerID:       filter.OwnerID,
		PublishedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	sortVideos(videos, filter.SortBy, filter.Ascending)

	return c.summarize(ctx, videos)
}

// LikedVideos compiles the videos the viewer has liked, most recent like
// first.
func (c *Compiler) LikedVideos(ctx context.Context, viewerID string) ([]VideoSummary, error) {
	if err := models.ValidateID(viewerID); err != nil {
		return nil, err
	}

	likes, err := c.likes.ListByActor(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list actor likes: %w", err)
	}

	sort.SliceStable(likes, func(i, j int) bool {
		if !likes[i].CreatedAt.Equal(likes[j].CreatedAt) {
			return likes[i].CreatedAt.After(likes[j].CreatedAt)
		}
		return likes[i].ID < likes[j].ID
	})

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		if like.Target.Kind == models.TargetVideo {
			ids = append(ids, like.Target.ID)
		}
	}

	return c.resolveSummaries(ctx, ids)
}

// WatchHistory compiles the user's watch history, preserving its recency
// order. Videos that no longer exist are silently dropped.
func (c *Compiler) WatchHistory(ctx context.Context, userID string) ([]VideoSummary, error) {
	if err := models.ValidateID(userID); err != nil {
		return nil, err
	}

	ids, err := c.users.WatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load watch history: %w", err)
	}

	return c.resolveSummaries(ctx, ids)
}

// PlaylistView compiles one playlist with its video references resolved to
// owner-joined summaries in playlist order.
func (c *Compiler) PlaylistView(ctx context.Context, playlistID string) (PlaylistView, error) {
	if err := models.ValidateID(playlistID); err != nil {
		return PlaylistView{}, err
	}

	playlist, err := c.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return PlaylistView{}, fmt.Errorf("load playlist: %w", err)
	}

	return c.projectPlaylist(ctx, playlist)
}

// UserPlaylists compiles a user's playlists, newest first.
func (c *Compiler) UserPlaylists(ctx context.Context, ownerID string) ([]PlaylistView, error) {
	if err := models.ValidateID(ownerID); err != nil {
		return nil, err
	}

	playlists, err := c.playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		if !playlists[i].CreatedAt.Equal(playlists[j].CreatedAt) {
			return playlists[i].CreatedAt.After(playlists[j].CreatedAt)
		}
		return playlists[i].ID < playlists[j].ID
	})

	projected := make([]PlaylistView, 0, len(playlists))
	for _, playlist := range playlists {
		view, err := c.projectPlaylist(ctx, playlist)
		if err != nil {
			return nil, err
		}
		projected = append(projected, view)
	}
	return projected, nil
}

func (c *Compiler) projectPlaylist(ctx context.Context, playlist models.Playlist) (PlaylistView, error) {
	owner, err := c.users.FindByID(ctx, playlist.OwnerID)
	if err != nil {
		return PlaylistView{}, fmt.Errorf("join playlist owner: %w", err)
	}
	videos, err := c.resolveSummaries(ctx, playlist.VideoIDs)
	if err != nil {
		return PlaylistView{}, err
	}

	return PlaylistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       summarizeOwner(owner),
		Videos:      videos,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}, nil
}

// resolveSummaries maps an ordered id list to owner-joined summaries,
// keeping the input order and skipping ids with no backing video.
func (c *Compiler) resolveSummaries(ctx context.Context, ids []string) ([]VideoSummary, error) {
	byID, err := c.videos.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve videos: %w", err)
	}

	ordered := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if video, ok := byID[id]; ok {
			ordered = append(ordered, video)
		}
	}
	return c.summarize(ctx, ordered)
}

func (c *Compiler) summarize(ctx context.Context, videos []models.Video) ([]VideoSummary, error) {
	ownerIDs := make([]string, 0, len(videos))
	for _, video := range videos {
		ownerIDs = append(ownerIDs, video.OwnerID)
	}
	owners, err := c.users.FindManyByID(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("join video owners: %w", err)
	}

	summaries := make([]VideoSummary, 0, len(videos))
	for _, video := range videos {
		summaries = append(summaries, VideoSummary{
			ID:              video.ID,
			Title:           video.Title,
			Description:     video.Description,
			ThumbnailURL:    video.ThumbnailURL,
			DurationSeconds: video.DurationSeconds,
			Views:           video.Views,
			CreatedAt:       video.CreatedAt,
			Owner:           summarizeOwner(owners[video.OwnerID]),
		})
	}
	return summaries, nil
}

// sortVideos applies the requested order with the id as a final tiebreak so
// the result is a total order regardless of duplicate sort keys.
func sortVideos(videos []models.Video, field SortField, ascending bool) {
	less := func(i, j models.Video) int {
		switch field {
		case SortByViews:
			return compareInt64(i.Views, j.Views)
		case SortByDuration:
			return compareFloat64(i.DurationSeconds, j.DurationSeconds)
		default:
			return i.CreatedAt.Compare(j.CreatedAt)
		}
	}
	sort.SliceStable(videos, func(i, j int) bool {
		cmp := less(videos[i], videos[j])
		if cmp != 0 {
			if ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return videos[i].ID < videos[j].ID
	})
}

func summarizeOwner(user models.User) OwnerSummary {
	return OwnerSummary{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

// validateViewer accepts an absent viewer (anonymous) but rejects a
// malformed one.
func validateViewer(viewerID string) error {
	if viewerID == "" {
		return nil
	}
	return models.ValidateID(viewerID)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
