package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/notification"
	"sipReelAPI/internal/types/user"
	"sipReelAPI/internal/types/weeklystats"
	"sipReelAPI/internal/workers"
)

type UserService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
	fanout        *workers.FanoutQueue
}

func NewUserService(db *pgxpool.Pool, notifications *NotificationService, fanout *workers.FanoutQueue) *UserService {
	return &UserService{
		db:            db,
		notifications: notifications,
		fanout:        fanout,
	}
}

// SetFanoutQueue wires the rename worker after construction. The queue
// needs this service as its store, so main.go builds them in two steps.
func (s *UserService) SetFanoutQueue(fanout *workers.FanoutQueue) {
	s.fanout = fanout
}

const usernameAllowed = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_."

// ValidateUsername enforces the username rules shared by signup, profile
// edits and the Clerk webhook sync.
func ValidateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return apperrors.Validation("username must be between 3 and 30 characters")
	}
	for _, r := range username {
		if !strings.ContainsRune(usernameAllowed, r) {
			return apperrors.Validation("username may only contain letters, digits, underscores and dots")
		}
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters in user input so a search
// for "%" matches a literal percent sign, not every row.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}

	u := &user.User{
		ID:        uuid.New(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, clerk_id, email, username, bio, image_url,
	          current_week_beers, current_week_movies, total_beers, total_movies,
	          current_streak, record_streak, follower_count, following_count,
	          created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.Bio,
		&u.ImageURL,
		&u.CurrentWeekBeers,
		&u.CurrentWeekMovies,
		&u.TotalBeers,
		&u.TotalMovies,
		&u.CurrentStreak,
		&u.RecordStreak,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Validation("username is already taken")
		}
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to create user: %w", err))
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, bio, image_url,
	       current_week_beers, current_week_movies, total_beers, total_movies,
	       current_streak, record_streak, follower_count, following_count,
	       created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.Bio,
		&u.ImageURL,
		&u.CurrentWeekBeers,
		&u.CurrentWeekMovies,
		&u.TotalBeers,
		&u.TotalMovies,
		&u.CurrentStreak,
		&u.RecordStreak,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to get user: %w", err))
	}

	return u, nil
}

// GetProfile returns another user's profile annotated with whether the
// viewer follows them.
func (s *UserService) GetProfile(ctx context.Context, clerkID string, profileID uuid.UUID) (*user.User, bool, error) {
	viewerID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, false, err
	}

	query := `
	SELECT u.id, u.clerk_id, u.email, u.username, u.bio, u.image_url,
	       u.current_week_beers, u.current_week_movies, u.total_beers, u.total_movies,
	       u.current_streak, u.record_streak, u.follower_count, u.following_count,
	       u.created_at, u.updated_at,
	       EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $2 AND f.followed_id = u.id)
	FROM users u
	WHERE u.id = $1
	`

	u := &user.User{}
	var isFollowing bool
	err = s.db.QueryRow(ctx, query, profileID, viewerID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.Bio,
		&u.ImageURL,
		&u.CurrentWeekBeers,
		&u.CurrentWeekMovies,
		&u.TotalBeers,
		&u.TotalMovies,
		&u.CurrentStreak,
		&u.RecordStreak,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
		&isFollowing,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, apperrors.NotFound("user")
		}
		return nil, false, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to get profile: %w", err))
	}

	return u, isFollowing, nil
}

// UpdateProfile applies the non-empty fields of req. A username change
// also kicks off the background rewrite of denormalized copies on posts
// and notifications.
func (s *UserService) UpdateProfile(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	usernameChanged := false
	if req.Username != "" {
		if err := ValidateUsername(req.Username); err != nil {
			return nil, err
		}
		usernameChanged = true
	}

	query := `
	UPDATE users
	SET username = COALESCE(NULLIF($2, ''), username),
	    email = COALESCE(NULLIF($3, ''), email),
	    bio = COALESCE(NULLIF($4, ''), bio),
	    image_url = COALESCE(NULLIF($5, ''), image_url),
	    updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, bio, image_url,
	          current_week_beers, current_week_movies, total_beers, total_movies,
	          current_streak, record_streak, follower_count, following_count,
	          created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID, req.Username, req.Email, req.Bio, req.ImageURL).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.Bio,
		&u.ImageURL,
		&u.CurrentWeekBeers,
		&u.CurrentWeekMovies,
		&u.TotalBeers,
		&u.TotalMovies,
		&u.CurrentStreak,
		&u.RecordStreak,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		if isUniqueViolation(err) {
			return nil, apperrors.Validation("username is already taken")
		}
		return nil, apperrors.Wrap(apperrors.ErrUpdateFailed, fmt.Errorf("failed to update profile: %w", err))
	}

	if usernameChanged && s.fanout != nil {
		s.fanout.EnqueueUsernameChange(u.ID, u.Username)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE clerk_id = $1", clerkID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, fmt.Errorf("failed to delete user: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

func (s *UserService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperrors.NotFound("user")
		}
		return uuid.Nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	return userID, nil
}

// Follow creates the follower -> followed edge. The edge table is the
// single source of truth; the counters on users are maintained in the
// same transaction so they never drift.
func (s *UserService) Follow(ctx context.Context, clerkID string, followedID uuid.UUID) error {
	followerID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	if followerID == followedID {
		return apperrors.Validation("cannot follow yourself")
	}

	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", followedID).Scan(&exists); err != nil {
		return apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	if !exists {
		return apperrors.NotFound("user")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSaveFailed, err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
	INSERT INTO follows (follower_id, followed_id, created_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, followerID, followedID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to follow: %w", err))
	}

	// Already following. Idempotent, nothing to count or notify.
	if result.RowsAffected() == 0 {
		return nil
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET following_count = following_count + 1 WHERE id = $1", followerID); err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}
	if _, err := tx.Exec(ctx, "UPDATE users SET follower_count = follower_count + 1 WHERE id = $1", followedID); err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrSaveFailed, err)
	}

	var followerUsername string
	if err := s.db.QueryRow(ctx, "SELECT username FROM users WHERE id = $1", followerID).Scan(&followerUsername); err != nil {
		log.Printf("Follow: failed to load follower username for notification: %v", err)
		return nil
	}

	if _, err := s.notifications.Notify(ctx, &notification.CreateNotificationRequest{
		RecipientID:    followedID,
		SenderID:       followerID,
		SenderUsername: followerUsername,
		Kind:           notification.KindFollow,
	}); err != nil {
		log.Printf("Follow: failed to create follow notification: %v", err)
	}

	return nil
}

// Unfollow removes the edge. Unfollowing someone you never followed is
// a no-op.
func (s *UserService) Unfollow(ctx context.Context, clerkID string, followedID uuid.UUID) error {
	followerID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2", followerID, followedID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, fmt.Errorf("failed to unfollow: %w", err))
	}
	if result.RowsAffected() == 0 {
		return nil
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1", followerID); err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}
	if _, err := tx.Exec(ctx, "UPDATE users SET follower_count = GREATEST(follower_count - 1, 0) WHERE id = $1", followedID); err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}

	return tx.Commit(ctx)
}

func (s *UserService) GetFollowers(ctx context.Context, clerkID string) ([]*user.SearchResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT u.id, u.username, u.image_url,
	       EXISTS (SELECT 1 FROM follows f2 WHERE f2.follower_id = $1 AND f2.followed_id = u.id)
	FROM follows f
	JOIN users u ON u.id = f.follower_id
	WHERE f.followed_id = $1
	ORDER BY f.created_at DESC
	`
	return s.scanUserList(ctx, query, userID)
}

func (s *UserService) GetFollowing(ctx context.Context, clerkID string) ([]*user.SearchResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT u.id, u.username, u.image_url, true
	FROM follows f
	JOIN users u ON u.id = f.followed_id
	WHERE f.follower_id = $1
	ORDER BY f.created_at DESC
	`
	return s.scanUserList(ctx, query, userID)
}

func (s *UserService) scanUserList(ctx context.Context, query string, args ...interface{}) ([]*user.SearchResult, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to list users: %w", err))
	}
	defer rows.Close()

	var results []*user.SearchResult
	for rows.Next() {
		r := &user.SearchResult{}
		if err := rows.Scan(&r.ID, &r.Username, &r.ImageURL, &r.IsFollowing); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if results == nil {
		results = []*user.SearchResult{}
	}
	return results, nil
}

// SearchUsers finds users whose username starts with the query, best
// matches first. The caller is excluded from their own results.
func (s *UserService) SearchUsers(ctx context.Context, clerkID string, search string, limit int) ([]*user.SearchResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return []*user.SearchResult{}, nil
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	query := `
	SELECT u.id, u.username, u.image_url,
	       EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followed_id = u.id)
	FROM users u
	WHERE u.id != $1 AND u.username LIKE $2
	ORDER BY
		CASE WHEN u.username = $3 THEN 0 ELSE 1 END,
		u.follower_count DESC,
		u.username ASC
	LIMIT $4
	`
	return s.scanUserList(ctx, query, userID, escapeLike(search)+"%", search, limit)
}

// GetWeeklyHistory returns the caller's archived weeks, newest first.
// The running week lives on the user row until rollover archives it.
func (s *UserService) GetWeeklyHistory(ctx context.Context, clerkID string, limit int) ([]*weeklystats.WeeklyStats, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > 104 {
		limit = 26
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, week_start_date, beers, movies, completed, created_at
	FROM weekly_stats
	WHERE user_id = $1
	ORDER BY week_start_date DESC
	LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to fetch weekly history: %w", err))
	}
	defer rows.Close()

	var weeks []*weeklystats.WeeklyStats
	for rows.Next() {
		ws := &weeklystats.WeeklyStats{}
		if err := rows.Scan(&ws.ID, &ws.UserID, &ws.WeekStartDate, &ws.Beers, &ws.Movies, &ws.Completed, &ws.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		weeks = append(weeks, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if weeks == nil {
		weeks = []*weeklystats.WeeklyStats{}
	}
	return weeks, nil
}

// RenamePostAuthors rewrites one bounded batch of denormalized author
// usernames on posts, returning the number of rows touched. The fan-out
// worker calls it in a loop until a short batch signals exhaustion.
func (s *UserService) RenamePostAuthors(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error) {
	result, err := s.db.Exec(ctx, `
	UPDATE posts SET username = $2
	WHERE id IN (
		SELECT id FROM posts
		WHERE user_id = $1 AND username != $2
		LIMIT $3
	)
	`, userID, username, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to rename post authors: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// RenameNotificationSenders is the notifications half of the username
// fan-out.
func (s *UserService) RenameNotificationSenders(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error) {
	result, err := s.db.Exec(ctx, `
	UPDATE notifications SET sender_username = $2
	WHERE id IN (
		SELECT id FROM notifications
		WHERE sender_id = $1 AND sender_username != $2
		LIMIT $3
	)
	`, userID, username, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to rename notification senders: %w", err)
	}
	return int(result.RowsAffected()), nil
}
