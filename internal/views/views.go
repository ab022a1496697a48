// Package views compiles viewer-relative projections over the normalized
// entity graph. Every projection is computed at read time: counts are the
// cardinality of the joined edge set and the isLiked/isSubscribed booleans
// depend on who is asking. Nothing in this package writes to the store.
//
// Each compiled view runs its stages in a fixed order: filter the root
// entities first, then perform the joins, then derive counts and booleans
// from the joined sets, then shape the output. Derived fields are never read
// back from storage.
package views

import "time"

// OwnerSummary is the public projection of a user attached to owned content.
// It never carries the password digest or email.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// VideoView is the full viewer-relative projection of a single video.
type VideoView struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	MediaURL        string       `json:"mediaUrl"`
	ThumbnailURL    string       `json:"thumbnailUrl"`
	DurationSeconds float64      `json:"durationSeconds"`
	Views           int64        `json:"views"`
	CreatedAt       time.Time    `json:"createdAt"`
	Owner           OwnerSummary `json:"owner"`

	LikesCount       int  `json:"likesCount"`
	IsLiked          bool `json:"isLiked"`
	SubscribersCount int  `json:"subscribersCount"`
	IsSubscribed     bool `json:"isSubscribed"`
}

// VideoSummary is the listing projection of a video with its owner joined.
type VideoSummary struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	ThumbnailURL    string       `json:"thumbnailUrl"`
	DurationSeconds float64      `json:"durationSeconds"`
	Views           int64        `json:"views"`
	CreatedAt       time.Time    `json:"createdAt"`
	Owner           OwnerSummary `json:"owner"`
}

// CommentView is the viewer-relative projection of a comment.
type CommentView struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	Owner      OwnerSummary `json:"owner"`
	LikesCount int          `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`
}

// PlaylistView is the projection of a playlist with its videos resolved.
type PlaylistView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       OwnerSummary   `json:"owner"`
	Videos      []VideoSummary `json:"videos"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ChannelView is the viewer-relative projection of a user's public channel.
type ChannelView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	CoverURL  string `json:"coverUrl"`

	SubscribersCount  int  `json:"subscribersCount"`
	SubscribedToCount int  `json:"subscribedToCount"`
	IsSubscribed      bool `json:"isSubscribed"`
}
