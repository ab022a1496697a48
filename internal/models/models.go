package models

import "time"

// User represents an account within the clipstream platform. The password
// field always holds a digest, never the plain secret, and must be stripped
// from any projection handed to callers.
type User struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	Password  string
	AvatarURL string
	CoverURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video is a published or draft upload owned by exactly one user. The owner
// is immutable after creation.
type Video struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	MediaURL        string
	ThumbnailURL    string
	DurationSeconds float64
	Views           int64
	Published       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Comment targets exactly one video and may only be mutated by its owner.
type Comment struct {
	ID        string
	VideoID   string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetKind names the kind of entity a Like points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// LikeTarget is a tagged reference to either a video or a comment. Construct
// values through VideoTarget or CommentTarget so exactly one kind is ever set.
type LikeTarget struct {
	Kind TargetKind
	ID   string
}

// VideoTarget returns a like target pointing at a video.
func VideoTarget(videoID string) LikeTarget {
	return LikeTarget{Kind: TargetVideo, ID: videoID}
}

// CommentTarget returns a like target pointing at a comment.
func CommentTarget(commentID string) LikeTarget {
	return LikeTarget{Kind: TargetComment, ID: commentID}
}

// Like is a toggle edge: its presence means the actor likes the target.
// At most one like exists per (target, actor) pair.
type Like struct {
	ID        string
	Target    LikeTarget
	LikedBy   string
	CreatedAt time.Time
}

// Subscription is a directed toggle edge from a subscriber to a channel.
// At most one subscription exists per (subscriber, channel) pair.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Playlist is an ordered, named collection of video references owned by one user.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
