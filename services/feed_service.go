package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/post"
)

type FeedService struct {
	db *pgxpool.Pool
}

func NewFeedService(db *pgxpool.Pool) *FeedService {
	return &FeedService{db: db}
}

// encodeCursor packs a post's sort key (created_at, id) into an opaque
// token. Keyset pagination stays stable while new posts land at the top.
func encodeCursor(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d:%s", createdAt.UnixMicro(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	return time.UnixMicro(micros), id, nil
}

// GetFeed returns one page of the caller's feed: their own posts plus
// posts from everyone they follow, newest first.
func (s *FeedService) GetFeed(ctx context.Context, clerkID string, cursor string, limit int) (*post.FeedPage, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if limit < 1 || limit > 50 {
		limit = 20
	}

	query := `
	SELECT p.id, p.activity_id, p.user_id, p.username, p.activity_type, p.title, p.subtitle, p.rating, p.image_url, p.week_number, p.created_at
	FROM posts p
	WHERE (p.user_id = $1 OR p.user_id IN (
		SELECT followed_id FROM follows WHERE follower_id = $1
	))
	`
	args := []interface{}{userID}

	if cursor != "" {
		cursorTime, cursorID, err := decodeCursor(cursor)
		if err != nil {
			return nil, apperrors.Validation("invalid cursor")
		}
		query += " AND (p.created_at, p.id) < ($2, $3)"
		args = append(args, cursorTime, cursorID)
	}

	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	posts, err := s.scanPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return buildFeedPage(posts, limit), nil
}

// GetUserPosts returns one user's posts for their profile page, with the
// same cursor scheme as the main feed.
func (s *FeedService) GetUserPosts(ctx context.Context, profileID uuid.UUID, cursor string, limit int) (*post.FeedPage, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}

	query := `
	SELECT p.id, p.activity_id, p.user_id, p.username, p.activity_type, p.title, p.subtitle, p.rating, p.image_url, p.week_number, p.created_at
	FROM posts p
	WHERE p.user_id = $1
	`
	args := []interface{}{profileID}

	if cursor != "" {
		cursorTime, cursorID, err := decodeCursor(cursor)
		if err != nil {
			return nil, apperrors.Validation("invalid cursor")
		}
		query += " AND (p.created_at, p.id) < ($2, $3)"
		args = append(args, cursorTime, cursorID)
	}

	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	posts, err := s.scanPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return buildFeedPage(posts, limit), nil
}

// GetPost fetches a single post by id.
func (s *FeedService) GetPost(ctx context.Context, postID uuid.UUID) (*post.Post, error) {
	query := `
	SELECT id, activity_id, user_id, username, activity_type, title, subtitle, rating, image_url, week_number, created_at
	FROM posts
	WHERE id = $1
	`

	p := &post.Post{}
	err := s.db.QueryRow(ctx, query, postID).Scan(
		&p.ID, &p.ActivityID, &p.UserID, &p.Username, &p.ActivityType,
		&p.Title, &p.Subtitle, &p.Rating, &p.ImageURL, &p.WeekNumber, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("post")
		}
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to get post: %w", err))
	}
	return p, nil
}

func (s *FeedService) scanPosts(ctx context.Context, query string, args ...interface{}) ([]*post.Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to fetch posts: %w", err))
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p := &post.Post{}
		err := rows.Scan(
			&p.ID, &p.ActivityID, &p.UserID, &p.Username, &p.ActivityType,
			&p.Title, &p.Subtitle, &p.Rating, &p.ImageURL, &p.WeekNumber, &p.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	return posts, nil
}

func buildFeedPage(posts []*post.Post, limit int) *post.FeedPage {
	page := &post.FeedPage{Posts: posts}
	if page.Posts == nil {
		page.Posts = []*post.Post{}
	}

	// A full page means there may be more; an exact boundary costs one
	// empty extra fetch, which is fine.
	if len(posts) == limit {
		last := posts[len(posts)-1]
		cursor := encodeCursor(last.CreatedAt, last.ID)
		page.NextCursor = &cursor
		page.HasMore = true
	}
	return page
}
