package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := testUser("Alice", "alice@example.com")

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := testUser("ALICE", "other@example.com")
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for case-folded username, got %v", err)
	}

	byName, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byName.ID != user.ID {
		t.Fatalf("expected %s got %s", user.ID, byName.ID)
	}

	byLogin, err := repo.FindByLogin(ctx, "ALICE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("find by login email: %v", err)
	}
	if byLogin.ID != user.ID {
		t.Fatalf("expected login lookup to be case-insensitive")
	}

	updated := user
	updated.FullName = "Alice Renamed"
	updated.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.FullName != "Alice Renamed" {
		t.Fatalf("expected updated full name, got %q", fetched.FullName)
	}

	missing := testUser("nobody", "nobody@example.com")
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	viewer := createUser(t, users, "viewer")
	owner := createUser(t, users, "owner")
	first := createVideo(t, videos, owner.ID, "first", true)
	second := createVideo(t, videos, owner.ID, "second", true)

	for _, id := range []string{first.ID, second.ID} {
		if err := users.AddWatchHistory(ctx, viewer.ID, id); err != nil {
			t.Fatalf("add watch history: %v", err)
		}
	}

	// Rewatching moves the entry to the front rather than duplicating it.
	if err := users.AddWatchHistory(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("rewatch: %v", err)
	}

	history, err := users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0] != first.ID {
		t.Fatalf("expected rewatched video first, got %v", history)
	}
}

func TestPostgresSessionStore_RotateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	user := createUser(t, users, "holder")

	store := NewPostgresSessionStore(testPool)
	now := time.Now().UTC().Truncate(time.Millisecond)
	session := auth.Session{
		UserID:       user.ID,
		RefreshToken: uuid.NewString(),
		IssuedAt:     now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, user.ID)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.RefreshToken != session.RefreshToken || loaded.Generation != 0 {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	next := session
	next.RefreshToken = uuid.NewString()
	next.Generation = 1
	rotated, err := store.Rotate(ctx, user.ID, session.RefreshToken, next)
	if err != nil {
		t.Fatalf("rotate session: %v", err)
	}
	if !rotated {
		t.Fatal("expected rotation guarded by the live token to win")
	}

	// The superseded token can no longer rotate the slot.
	stale := next
	stale.RefreshToken = uuid.NewString()
	rotated, err = store.Rotate(ctx, user.ID, session.RefreshToken, stale)
	if err != nil {
		t.Fatalf("rotate with stale token: %v", err)
	}
	if rotated {
		t.Fatal("expected stale rotation to lose")
	}

	if err := store.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, user.ID); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, user.ID); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresVideoRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	owner := createUser(t, users, "creator")
	other := createUser(t, users, "other")

	published := createVideo(t, videos, owner.ID, "Skate Tricks", true)
	createVideo(t, videos, owner.ID, "Hidden Draft", false)
	createVideo(t, videos, other.ID, "Cooking Basics", true)

	listed, err := videos.List(ctx, VideoFilter{PublishedOnly: true, OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != published.ID {
		t.Fatalf("expected only the published owner video, got %+v", listed)
	}

	matched, err := videos.List(ctx, VideoFilter{PublishedOnly: true, Query: "skate"})
	if err != nil {
		t.Fatalf("list with query: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != published.ID {
		t.Fatalf("expected case-insensitive title match, got %+v", matched)
	}

	discount := createVideo(t, videos, owner.ID, "100% Off Sale", true)
	literal, err := videos.List(ctx, VideoFilter{PublishedOnly: true, Query: "100%"})
	if err != nil {
		t.Fatalf("list with wildcard query: %v", err)
	}
	if len(literal) != 1 || literal[0].ID != discount.ID {
		t.Fatalf("expected %% to match literally, got %+v", literal)
	}
	if none, err := videos.List(ctx, VideoFilter{PublishedOnly: true, Query: "100_"}); err != nil || len(none) != 0 {
		t.Fatalf("expected _ to match literally and find nothing, err=%v got %+v", err, none)
	}

	if err := videos.IncrementViews(ctx, published.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	fetched, err := videos.FindByID(ctx, published.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.Views != 1 {
		t.Fatalf("expected 1 view, got %d", fetched.Views)
	}
}

func TestPostgresLikeRepository_TargetsAndCascades(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	comments := NewPostgresCommentRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)

	owner := createUser(t, users, "creator")
	fan := createUser(t, users, "fan")
	video := createVideo(t, videos, owner.ID, "likeable", true)

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		OwnerID:   fan.ID,
		Content:   "nice",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	videoLike := models.Like{
		ID:        uuid.NewString(),
		Target:    models.VideoTarget(video.ID),
		LikedBy:   fan.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := likes.Create(ctx, videoLike); err != nil {
		t.Fatalf("create video like: %v", err)
	}

	dup := videoLike
	dup.ID = uuid.NewString()
	if err := likes.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	commentLike := models.Like{
		ID:        uuid.NewString(),
		Target:    models.CommentTarget(comment.ID),
		LikedBy:   fan.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := likes.Create(ctx, commentLike); err != nil {
		t.Fatalf("create comment like: %v", err)
	}

	found, err := likes.FindByTargetAndActor(ctx, models.VideoTarget(video.ID), fan.ID)
	if err != nil {
		t.Fatalf("find like: %v", err)
	}
	if found.ID != videoLike.ID || found.Target.Kind != models.TargetVideo {
		t.Fatalf("unexpected like found: %+v", found)
	}

	byComments, err := likes.ListByComments(ctx, []string{comment.ID})
	if err != nil {
		t.Fatalf("list by comments: %v", err)
	}
	if len(byComments) != 1 || byComments[0].Target.ID != comment.ID {
		t.Fatalf("unexpected comment likes: %+v", byComments)
	}

	// Deleting the video removes the likes on it and on its comments.
	if err := videos.Delete(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	remaining, err := likes.ListByActor(ctx, fan.ID)
	if err != nil {
		t.Fatalf("list by actor: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected likes to cascade away, got %+v", remaining)
	}
}

func TestPostgresSubscriptionRepository_PairSemantics(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	subs := NewPostgresSubscriptionRepository(testPool)

	channel := createUser(t, users, "channel")
	fan := createUser(t, users, "fan")

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: fan.ID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := subs.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := subs.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	found, err := subs.FindPair(ctx, fan.ID, channel.ID)
	if err != nil {
		t.Fatalf("find pair: %v", err)
	}
	if found.ID != sub.ID {
		t.Fatalf("unexpected subscription: %+v", found)
	}

	byChannel, err := subs.ListByChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("list by channel: %v", err)
	}
	if len(byChannel) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(byChannel))
	}

	if err := subs.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if _, err := subs.FindPair(ctx, fan.ID, channel.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresPlaylistRepository_MembershipOrder(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	playlists := NewPostgresPlaylistRepository(testPool)

	owner := createUser(t, users, "curator")
	first := createVideo(t, videos, owner.ID, "first", true)
	second := createVideo(t, videos, owner.ID, "second", true)

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Name:      "favourites",
		VideoIDs:  []string{first.ID, second.ID},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	fetched, err := playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 2 || fetched.VideoIDs[0] != first.ID || fetched.VideoIDs[1] != second.ID {
		t.Fatalf("expected insertion order preserved, got %v", fetched.VideoIDs)
	}

	// Reordering is a full membership rewrite.
	fetched.VideoIDs = []string{second.ID, first.ID}
	fetched.UpdatedAt = time.Now().UTC()
	if err := playlists.Update(ctx, fetched); err != nil {
		t.Fatalf("update playlist: %v", err)
	}

	reordered, err := playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find reordered playlist: %v", err)
	}
	if reordered.VideoIDs[0] != second.ID {
		t.Fatalf("expected rewritten order, got %v", reordered.VideoIDs)
	}

	byOwner, err := playlists.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(byOwner) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(byOwner))
	}

	if err := playlists.Delete(ctx, playlist.ID); err != nil {
		t.Fatalf("delete playlist: %v", err)
	}
	if _, err := playlists.FindByID(ctx, playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE watch_history, playlist_videos, playlists, subscriptions, likes, comments, videos, sessions, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func testUser(username, email string) models.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  username + " Test",
		Password:  "password-hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func createUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := testUser(username, username+"@example.com")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, published bool) models.Video {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		MediaURL:     "https://cdn.test/" + title + ".mp4",
		ThumbnailURL: "https://cdn.test/" + title + ".jpg",
		Published:    published,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
