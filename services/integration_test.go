package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/activity"
	"sipReelAPI/internal/types/interaction"
	"sipReelAPI/internal/types/user"
)

// These tests run against a real database and skip when DATABASE_URL is
// not configured.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping database tests")
	}

	db, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func createTestUser(t *testing.T, db *pgxpool.Pool, users *UserService) *user.User {
	t.Helper()

	suffix := uuid.New().String()[:8]
	u, err := users.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  "test_clerk_" + suffix,
		Email:    fmt.Sprintf("test_%s@example.com", suffix),
		Username: "test_" + suffix,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(context.Background(), "DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

func newTestServices(t *testing.T) (*pgxpool.Pool, *UserService, *ActivityService, *FeedService, *InteractionService) {
	t.Helper()

	db := setupTestDB(t)
	notifications := NewNotificationService(db)
	t.Cleanup(notifications.Stop)

	users := NewUserService(db, notifications, nil)
	activities := NewActivityService(db)
	feed := NewFeedService(db)
	interactions := NewInteractionService(db, notifications)
	return db, users, activities, feed, interactions
}

func TestFollowLifecycle(t *testing.T) {
	db, users, _, _, _ := newTestServices(t)
	ctx := context.Background()

	alice := createTestUser(t, db, users)
	bob := createTestUser(t, db, users)

	if err := users.Follow(ctx, alice.ClerkID, bob.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	// Counters on both sides of the edge.
	refreshed, err := users.GetUserByClerkID(ctx, alice.ClerkID)
	if err != nil {
		t.Fatalf("failed to reload follower: %v", err)
	}
	if refreshed.FollowingCount != 1 {
		t.Errorf("follower following_count = %d, want 1", refreshed.FollowingCount)
	}
	refreshedBob, err := users.GetUserByClerkID(ctx, bob.ClerkID)
	if err != nil {
		t.Fatalf("failed to reload followed: %v", err)
	}
	if refreshedBob.FollowerCount != 1 {
		t.Errorf("followed follower_count = %d, want 1", refreshedBob.FollowerCount)
	}

	// Following twice must not double-count.
	if err := users.Follow(ctx, alice.ClerkID, bob.ID); err != nil {
		t.Fatalf("repeat follow failed: %v", err)
	}
	refreshed, _ = users.GetUserByClerkID(ctx, alice.ClerkID)
	if refreshed.FollowingCount != 1 {
		t.Errorf("repeat follow changed following_count to %d", refreshed.FollowingCount)
	}

	following, err := users.GetFollowing(ctx, alice.ClerkID)
	if err != nil {
		t.Fatalf("GetFollowing failed: %v", err)
	}
	if len(following) != 1 || following[0].ID != bob.ID {
		t.Errorf("following list = %v, want just bob", following)
	}

	if err := users.Unfollow(ctx, alice.ClerkID, bob.ID); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	refreshed, _ = users.GetUserByClerkID(ctx, alice.ClerkID)
	if refreshed.FollowingCount != 0 {
		t.Errorf("unfollow left following_count at %d", refreshed.FollowingCount)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	db, users, _, _, _ := newTestServices(t)

	alice := createTestUser(t, db, users)
	err := users.Follow(context.Background(), alice.ClerkID, alice.ID)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("self-follow returned %v, want validation error", err)
	}
}

func TestUsernameMustBeUnique(t *testing.T) {
	db, users, _, _, _ := newTestServices(t)
	ctx := context.Background()

	alice := createTestUser(t, db, users)

	_, err := users.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  "test_clerk_" + uuid.New().String()[:8],
		Email:    "dupe@example.com",
		Username: alice.Username,
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("duplicate username returned %v, want validation error", err)
	}
	if err == nil {
		db.Exec(ctx, "DELETE FROM users WHERE username = $1 AND id != $2", alice.Username, alice.ID)
	}
}

func TestAddBeerUpdatesCountersAndFeed(t *testing.T) {
	db, users, activities, feed, _ := newTestServices(t)
	ctx := context.Background()

	alice := createTestUser(t, db, users)

	act, err := activities.AddActivity(ctx, alice.ClerkID, &activity.AddActivityRequest{
		Type:   activity.TypeBeer,
		Name:   "Test Lager",
		Rating: intPtr(4),
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	if act.WeekNumber != 1 {
		t.Errorf("first beer of the week numbered %d, want 1", act.WeekNumber)
	}

	refreshed, err := users.GetUserByClerkID(ctx, alice.ClerkID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if refreshed.CurrentWeekBeers != 1 || refreshed.TotalBeers != 1 {
		t.Errorf("counters = week %d / total %d, want 1/1", refreshed.CurrentWeekBeers, refreshed.TotalBeers)
	}
	if refreshed.CurrentStreak != 1 {
		t.Errorf("first activity should start a streak, got %d", refreshed.CurrentStreak)
	}

	// Own posts show up in the author's feed without any follows.
	page, err := feed.GetFeed(ctx, alice.ClerkID, "", 10)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("feed has %d posts, want 1", len(page.Posts))
	}
	if page.Posts[0].ActivityID != act.ID {
		t.Error("feed post is not the logged activity")
	}
	if page.Posts[0].Title != "Test Lager" {
		t.Errorf("feed post title = %q", page.Posts[0].Title)
	}
	if page.HasMore {
		t.Error("single post should not page")
	}

	// Second beer in the same week advances the sequence number.
	act2, err := activities.AddActivity(ctx, alice.ClerkID, &activity.AddActivityRequest{
		Type: activity.TypeBeer,
		Name: "Test Stout",
	})
	if err != nil {
		t.Fatalf("second AddActivity failed: %v", err)
	}
	if act2.WeekNumber != 2 {
		t.Errorf("second beer of the week numbered %d, want 2", act2.WeekNumber)
	}
}

func TestFeedIncludesFollowedUsersAfterFollow(t *testing.T) {
	db, users, activities, feed, _ := newTestServices(t)
	ctx := context.Background()

	author := createTestUser(t, db, users)
	viewer := createTestUser(t, db, users)

	act, err := activities.AddActivity(ctx, author.ClerkID, &activity.AddActivityRequest{
		Type: activity.TypeBeer,
		Name: "Fanout Pils",
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	// Before following, the author's post is invisible to the viewer.
	page, err := feed.GetFeed(ctx, viewer.ClerkID, "", 10)
	if err != nil {
		t.Fatalf("GetFeed before follow failed: %v", err)
	}
	for _, p := range page.Posts {
		if p.ActivityID == act.ID {
			t.Fatal("post visible in feed before following the author")
		}
	}

	if err := users.Follow(ctx, viewer.ClerkID, author.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	page, err = feed.GetFeed(ctx, viewer.ClerkID, "", 10)
	if err != nil {
		t.Fatalf("GetFeed after follow failed: %v", err)
	}
	found := false
	for _, p := range page.Posts {
		if p.ActivityID == act.ID {
			found = true
			if p.Username != author.Username {
				t.Errorf("feed post author = %q, want %q", p.Username, author.Username)
			}
		}
	}
	if !found {
		t.Error("followed user's post missing from the feed")
	}
}

func TestRepublishIsIdempotent(t *testing.T) {
	db, users, activities, _, _ := newTestServices(t)
	ctx := context.Background()

	alice := createTestUser(t, db, users)

	act, err := activities.AddActivity(ctx, alice.ClerkID, &activity.AddActivityRequest{
		Type: activity.TypeMovie,
		Name: "Test Film",
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	// Republishing a fully published activity must not double-apply
	// counters or create a second post.
	if err := activities.RepublishActivity(ctx, alice.ClerkID, act.ID); err != nil {
		t.Fatalf("RepublishActivity failed: %v", err)
	}

	refreshed, _ := users.GetUserByClerkID(ctx, alice.ClerkID)
	if refreshed.TotalMovies != 1 {
		t.Errorf("republish double-counted: total_movies = %d", refreshed.TotalMovies)
	}

	var postCount int
	db.QueryRow(ctx, "SELECT COUNT(*) FROM posts WHERE activity_id = $1", act.ID).Scan(&postCount)
	if postCount != 1 {
		t.Errorf("republish created %d posts for one activity", postCount)
	}
}

func TestLikeIsIdempotentAndCounted(t *testing.T) {
	db, users, activities, feed, interactions := newTestServices(t)
	ctx := context.Background()

	author := createTestUser(t, db, users)
	viewer := createTestUser(t, db, users)

	_, err := activities.AddActivity(ctx, author.ClerkID, &activity.AddActivityRequest{
		Type: activity.TypeBeer,
		Name: "Likeable Ale",
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	page, err := feed.GetUserPosts(ctx, author.ID, "", 1)
	if err != nil || len(page.Posts) == 0 {
		t.Fatalf("failed to fetch author posts: %v", err)
	}
	postID := page.Posts[0].ID

	if err := interactions.Like(ctx, viewer.ClerkID, postID); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if err := interactions.Like(ctx, viewer.ClerkID, postID); err != nil {
		t.Fatalf("repeat like failed: %v", err)
	}

	got, err := interactions.GetInteractions(ctx, viewer.ClerkID, postID)
	if err != nil {
		t.Fatalf("GetInteractions failed: %v", err)
	}
	if got.LikeCount != 1 {
		t.Errorf("double like counted %d times", got.LikeCount)
	}
	if !got.LikedByViewer {
		t.Error("viewer's own like not reflected")
	}

	if err := interactions.Unlike(ctx, viewer.ClerkID, postID); err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	got, _ = interactions.GetInteractions(ctx, viewer.ClerkID, postID)
	if got.LikeCount != 0 || got.LikedByViewer {
		t.Errorf("unlike left state: count %d, liked %v", got.LikeCount, got.LikedByViewer)
	}

	// Unliking again stays a no-op.
	if err := interactions.Unlike(ctx, viewer.ClerkID, postID); err != nil {
		t.Errorf("repeat unlike errored: %v", err)
	}
}

func TestNotificationUnreadFlow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	notifications := NewNotificationService(db)
	t.Cleanup(notifications.Stop)
	users := NewUserService(db, notifications, nil)

	alice := createTestUser(t, db, users)
	bob := createTestUser(t, db, users)

	if err := users.Follow(ctx, bob.ClerkID, alice.ID); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	got, err := notifications.GetNotifications(ctx, alice.ClerkID, 50, false)
	if err != nil {
		t.Fatalf("GetNotifications failed: %v", err)
	}
	if len(got.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got.Notifications))
	}
	if got.Notifications[0].SenderUsername != bob.Username {
		t.Errorf("notification sender = %q, want %q", got.Notifications[0].SenderUsername, bob.Username)
	}
	// The unread count rides along with the list and must reflect the
	// unread follow notification.
	if got.UnreadCount != 1 {
		t.Errorf("unread count = %d, want 1", got.UnreadCount)
	}

	if err := notifications.MarkAllAsRead(ctx, alice.ClerkID); err != nil {
		t.Fatalf("MarkAllAsRead failed: %v", err)
	}
	count, err := notifications.GetUnreadCount(ctx, alice.ClerkID)
	if err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count after mark-all = %d, want 0", count)
	}
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	db, users, activities, feed, interactions := newTestServices(t)
	ctx := context.Background()

	author := createTestUser(t, db, users)

	_, err := activities.AddActivity(ctx, author.ClerkID, &activity.AddActivityRequest{
		Type: activity.TypeMovie,
		Name: "Commentary Track",
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	page, _ := feed.GetUserPosts(ctx, author.ID, "", 1)
	postID := page.Posts[0].ID

	for _, text := range []string{"first", "second", "third"} {
		if _, err := interactions.Comment(ctx, author.ClerkID, postID, &interaction.AddCommentRequest{Text: text}); err != nil {
			t.Fatalf("comment %q failed: %v", text, err)
		}
	}

	got, err := interactions.GetInteractions(ctx, author.ClerkID, postID)
	if err != nil {
		t.Fatalf("GetInteractions failed: %v", err)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(got.Comments))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Comments[i].Text != want {
			t.Errorf("comment %d = %q, want %q", i, got.Comments[i].Text, want)
		}
	}

	if _, err := interactions.Comment(ctx, author.ClerkID, postID, &interaction.AddCommentRequest{Text: "   "}); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("blank comment returned %v, want validation error", err)
	}

	// Commenting on your own post must not notify you.
	var selfNotifs int
	db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE recipient_id = $1", author.ID).Scan(&selfNotifs)
	if selfNotifs != 0 {
		t.Errorf("author received %d notifications for own comments", selfNotifs)
	}
}
