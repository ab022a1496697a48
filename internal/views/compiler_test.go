package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var baseTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func testID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

type compilerFixture struct {
	graph    *repositories.MemoryGraph
	compiler *Compiler
}

func newCompilerFixture() *compilerFixture {
	graph := repositories.NewMemoryGraph()
	return &compilerFixture{
		graph:    graph,
		compiler: NewCompiler(graph.Users, graph.Videos, graph.Comments, graph.Likes, graph.Subscriptions, graph.Playlists),
	}
}

func (f *compilerFixture) addUser(t *testing.T, n int, username string) models.User {
	t.Helper()

	user := models.User{
		ID:        testID(n),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username + " example",
		Password:  "digest",
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	if err := f.graph.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func (f *compilerFixture) addVideo(t *testing.T, n int, ownerID, title string, published bool, createdAt time.Time) models.Video {
	t.Helper()

	video := models.Video{
		ID:              testID(n),
		OwnerID:         ownerID,
		Title:           title,
		Description:     "about " + title,
		MediaURL:        "https://cdn.example.com/" + title + ".mp4",
		ThumbnailURL:    "https://cdn.example.com/" + title + ".jpg",
		DurationSeconds: 90,
		Published:       published,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	if err := f.graph.Videos.Create(context.Background(), video); err != nil {
		t.Fatalf("seed video %s: %v", title, err)
	}
	return video
}

func (f *compilerFixture) addComment(t *testing.T, n int, videoID, ownerID, content string, createdAt time.Time) models.Comment {
	t.Helper()

	comment := models.Comment{
		ID:        testID(n),
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := f.graph.Comments.Create(context.Background(), comment); err != nil {
		t.Fatalf("seed comment %q: %v", content, err)
	}
	return comment
}

func (f *compilerFixture) addLike(t *testing.T, n int, target models.LikeTarget, actorID string, createdAt time.Time) {
	t.Helper()

	if err := f.graph.Likes.Create(context.Background(), models.Like{
		ID:        testID(n),
		Target:    target,
		LikedBy:   actorID,
		CreatedAt: createdAt,
	}); err != nil {
		t.Fatalf("seed like: %v", err)
	}
}

func (f *compilerFixture) addSubscription(t *testing.T, n int, subscriberID, channelID string) {
	t.Helper()

	if err := f.graph.Subscriptions.Create(context.Background(), models.Subscription{
		ID:           testID(n),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    baseTime,
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestCompilerVideoViewIsViewerRelative(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	alice := fx.addUser(t, 2, "alice")
	bob := fx.addUser(t, 3, "bob")
	video := fx.addVideo(t, 10, owner.ID, "launch", true, baseTime)

	fx.addLike(t, 20, models.VideoTarget(video.ID), alice.ID, baseTime)
	fx.addLike(t, 21, models.VideoTarget(video.ID), bob.ID, baseTime.Add(time.Minute))
	fx.addSubscription(t, 30, alice.ID, owner.ID)

	ctx := context.Background()

	forAlice, err := fx.compiler.VideoView(ctx, video.ID, alice.ID)
	if err != nil {
		t.Fatalf("compile for alice: %v", err)
	}
	if forAlice.LikesCount != 2 || !forAlice.IsLiked {
		t.Fatalf("alice: expected 2 likes with isLiked, got %d / %v", forAlice.LikesCount, forAlice.IsLiked)
	}
	if forAlice.SubscribersCount != 1 || !forAlice.IsSubscribed {
		t.Fatalf("alice: expected 1 subscriber with isSubscribed, got %d / %v", forAlice.SubscribersCount, forAlice.IsSubscribed)
	}
	if forAlice.Owner.ID != owner.ID || forAlice.Owner.Username != owner.Username {
		t.Fatalf("unexpected owner projection: %+v", forAlice.Owner)
	}

	forBob, err := fx.compiler.VideoView(ctx, video.ID, bob.ID)
	if err != nil {
		t.Fatalf("compile for bob: %v", err)
	}
	if forBob.LikesCount != 2 || !forBob.IsLiked {
		t.Fatalf("bob: expected 2 likes with isLiked, got %d / %v", forBob.LikesCount, forBob.IsLiked)
	}
	if forBob.IsSubscribed {
		t.Fatalf("bob is not subscribed to the channel")
	}

	anonymous, err := fx.compiler.VideoView(ctx, video.ID, "")
	if err != nil {
		t.Fatalf("compile for anonymous: %v", err)
	}
	if anonymous.LikesCount != 2 || anonymous.SubscribersCount != 1 {
		t.Fatalf("anonymous counts must match: %d likes, %d subscribers", anonymous.LikesCount, anonymous.SubscribersCount)
	}
	if anonymous.IsLiked || anonymous.IsSubscribed {
		t.Fatalf("anonymous viewer must compile every boolean to false")
	}
}

func TestCompilerVideoViewValidation(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	video := fx.addVideo(t, 10, owner.ID, "launch", true, baseTime)

	ctx := context.Background()

	if _, err := fx.compiler.VideoView(ctx, "not-an-id", ""); !errors.Is(err, models.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for malformed video id, got %v", err)
	}
	if _, err := fx.compiler.VideoView(ctx, testID(99), ""); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video id, got %v", err)
	}
	if _, err := fx.compiler.VideoView(ctx, video.ID, "not-an-id"); !errors.Is(err, models.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for malformed viewer id, got %v", err)
	}
}

func TestCompilerCommentPageOrderAndProjection(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	alice := fx.addUser(t, 2, "alice")
	video := fx.addVideo(t, 10, owner.ID, "launch", true, baseTime)

	oldest := fx.addComment(t, 20, video.ID, owner.ID, "first", baseTime)
	// Two comments share a timestamp; the id must break the tie.
	tieA := fx.addComment(t, 21, video.ID, alice.ID, "tie a", baseTime.Add(time.Hour))
	tieB := fx.addComment(t, 22, video.ID, alice.ID, "tie b", baseTime.Add(time.Hour))
	newest := fx.addComment(t, 23, video.ID, alice.ID, "latest", baseTime.Add(2*time.Hour))

	fx.addLike(t, 30, models.CommentTarget(newest.ID), alice.ID, baseTime)
	fx.addLike(t, 31, models.CommentTarget(newest.ID), owner.ID, baseTime)

	page, err := fx.compiler.CommentPage(context.Background(), video.ID, alice.ID, 1, 10)
	if err != nil {
		t.Fatalf("compile comment page: %v", err)
	}

	wantOrder := []string{newest.ID, tieA.ID, tieB.ID, oldest.ID}
	if len(page.Items) != len(wantOrder) {
		t.Fatalf("expected %d comments, got %d", len(wantOrder), len(page.Items))
	}
	for i, want := range wantOrder {
		if page.Items[i].ID != want {
			t.Fatalf("position %d: expected comment %s, got %s", i, want, page.Items[i].ID)
		}
	}
	if page.TotalItems != 4 || page.TotalPages != 1 {
		t.Fatalf("unexpected totals: %d items over %d pages", page.TotalItems, page.TotalPages)
	}

	top := page.Items[0]
	if top.LikesCount != 2 || !top.IsLiked {
		t.Fatalf("newest comment: expected 2 likes with isLiked, got %d / %v", top.LikesCount, top.IsLiked)
	}
	if top.Owner.Username != alice.Username {
		t.Fatalf("expected comment owner %q, got %q", alice.Username, top.Owner.Username)
	}
	if page.Items[3].LikesCount != 0 || page.Items[3].IsLiked {
		t.Fatalf("oldest comment must project zero likes")
	}
}

func TestCompilerCommentPageRequiresVideo(t *testing.T) {
	fx := newCompilerFixture()

	if _, err := fx.compiler.CommentPage(context.Background(), testID(99), "", 1, 10); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}
}

func TestCompilerChannelProfile(t *testing.T) {
	fx := newCompilerFixture()
	channel := fx.addUser(t, 1, "Creator")
	alice := fx.addUser(t, 2, "alice")
	other := fx.addUser(t, 3, "other")

	fx.addSubscription(t, 30, alice.ID, channel.ID)
	fx.addSubscription(t, 31, other.ID, channel.ID)
	fx.addSubscription(t, 32, channel.ID, other.ID)

	// Lookup folds case.
	view, err := fx.compiler.ChannelProfile(context.Background(), "  cReAtOr ", alice.ID)
	if err != nil {
		t.Fatalf("compile channel profile: %v", err)
	}

	if view.ID != channel.ID || view.Username != channel.Username {
		t.Fatalf("unexpected channel identity: %+v", view)
	}
	if view.SubscribersCount != 2 || view.SubscribedToCount != 1 {
		t.Fatalf("expected 2 subscribers and 1 subscription, got %d / %d", view.SubscribersCount, view.SubscribedToCount)
	}
	if !view.IsSubscribed {
		t.Fatalf("alice is subscribed to the channel")
	}

	anonymous, err := fx.compiler.ChannelProfile(context.Background(), "creator", "")
	if err != nil {
		t.Fatalf("compile anonymous channel profile: %v", err)
	}
	if anonymous.IsSubscribed {
		t.Fatalf("anonymous viewer must never appear subscribed")
	}
}

func TestCompilerVideoListingFiltersAndSorts(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	other := fx.addUser(t, 2, "other")

	a := fx.addVideo(t, 10, owner.ID, "gopher tips", true, baseTime)
	b := fx.addVideo(t, 11, owner.ID, "gopher tricks", true, baseTime.Add(time.Hour))
	fx.addVideo(t, 12, owner.ID, "secret draft", false, baseTime.Add(2*time.Hour))
	c := fx.addVideo(t, 13, other.ID, "unrelated", true, baseTime.Add(3*time.Hour))

	ctx := context.Background()

	listing, err := fx.compiler.VideoListing(ctx, ListingFilter{})
	if err != nil {
		t.Fatalf("compile listing: %v", err)
	}
	wantOrder := []string{c.ID, b.ID, a.ID}
	if len(listing) != len(wantOrder) {
		t.Fatalf("expected %d published videos, got %d", len(wantOrder), len(listing))
	}
	for i, want := range wantOrder {
		if listing[i].ID != want {
			t.Fatalf("position %d: expected video %s, got %s", i, want, listing[i].ID)
		}
	}

	// An owner filter still never surfaces drafts.
	mine, err := fx.compiler.VideoListing(ctx, ListingFilter{OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("compile owner listing: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 published videos for owner, got %d", len(mine))
	}
	for _, summary := range mine {
		if summary.Owner.ID != owner.ID {
			t.Fatalf("owner filter leaked video %s", summary.ID)
		}
	}

	matched, err := fx.compiler.VideoListing(ctx, ListingFilter{Query: "TRICKS"})
	if err != nil {
		t.Fatalf("compile text listing: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != b.ID {
		t.Fatalf("expected text filter to match only %s, got %+v", b.ID, matched)
	}

	ascending, err := fx.compiler.VideoListing(ctx, ListingFilter{SortBy: SortByCreatedAt, Ascending: true})
	if err != nil {
		t.Fatalf("compile ascending listing: %v", err)
	}
	if ascending[0].ID != a.ID || ascending[len(ascending)-1].ID != c.ID {
		t.Fatalf("unexpected ascending order: %+v", ascending)
	}
}

func TestCompilerLikedVideos(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	alice := fx.addUser(t, 2, "alice")

	first := fx.addVideo(t, 10, owner.ID, "first", true, baseTime)
	second := fx.addVideo(t, 11, owner.ID, "second", true, baseTime)
	comment := fx.addComment(t, 20, first.ID, owner.ID, "note", baseTime)

	fx.addLike(t, 30, models.VideoTarget(first.ID), alice.ID, baseTime)
	fx.addLike(t, 31, models.VideoTarget(second.ID), alice.ID, baseTime.Add(time.Hour))
	// A liked comment must not surface in the liked-video view.
	fx.addLike(t, 32, models.CommentTarget(comment.ID), alice.ID, baseTime.Add(2*time.Hour))

	liked, err := fx.compiler.LikedVideos(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("compile liked videos: %v", err)
	}

	wantOrder := []string{second.ID, first.ID}
	if len(liked) != len(wantOrder) {
		t.Fatalf("expected %d liked videos, got %d", len(wantOrder), len(liked))
	}
	for i, want := range wantOrder {
		if liked[i].ID != want {
			t.Fatalf("position %d: expected video %s, got %s", i, want, liked[i].ID)
		}
	}
}

func TestCompilerPlaylistView(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	first := fx.addVideo(t, 10, owner.ID, "first", true, baseTime)
	second := fx.addVideo(t, 11, owner.ID, "second", true, baseTime)

	ctx := context.Background()
	playlist := models.Playlist{
		ID:        testID(20),
		OwnerID:   owner.ID,
		Name:      "favourites",
		VideoIDs:  []string{second.ID, first.ID},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	if err := fx.graph.Playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("seed playlist: %v", err)
	}

	view, err := fx.compiler.PlaylistView(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("compile playlist: %v", err)
	}
	if view.Owner.ID != owner.ID {
		t.Fatalf("unexpected playlist owner %+v", view.Owner)
	}
	if len(view.Videos) != 2 || view.Videos[0].ID != second.ID || view.Videos[1].ID != first.ID {
		t.Fatalf("playlist order must be preserved, got %+v", view.Videos)
	}

	if _, err := fx.compiler.PlaylistView(ctx, testID(99)); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown playlist, got %v", err)
	}
}

func TestCompilerWatchHistoryKeepsRecencyOrder(t *testing.T) {
	fx := newCompilerFixture()
	owner := fx.addUser(t, 1, "creator")
	alice := fx.addUser(t, 2, "alice")

	first := fx.addVideo(t, 10, owner.ID, "first", true, baseTime)
	second := fx.addVideo(t, 11, owner.ID, "second", true, baseTime)
	third := fx.addVideo(t, 12, owner.ID, "third", true, baseTime)

	ctx := context.Background()
	for _, id := range []string{first.ID, second.ID, third.ID, first.ID} {
		if err := fx.graph.Users.AddWatchHistory(ctx, alice.ID, id); err != nil {
			t.Fatalf("record watch: %v", err)
		}
	}
	// A deleted video silently drops out of the projection.
	if err := fx.graph.Videos.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}

	history, err := fx.compiler.WatchHistory(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compile watch history: %v", err)
	}

	wantOrder := []string{first.ID, third.ID}
	if len(history) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(history))
	}
	for i, want := range wantOrder {
		if history[i].ID != want {
			t.Fatalf("position %d: expected video %s, got %s", i, want, history[i].ID)
		}
	}
}
