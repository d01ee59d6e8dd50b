package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/activity"
	"sipReelAPI/internal/week"
)

type ActivityService struct {
	db *pgxpool.Pool
}

func NewActivityService(db *pgxpool.Pool) *ActivityService {
	return &ActivityService{db: db}
}

func validateAddActivity(req *activity.AddActivityRequest) error {
	if !req.Type.Valid() {
		return apperrors.Validation("type must be beer or movie")
	}
	if req.Name == "" {
		return apperrors.Validation("name is required")
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return apperrors.Validation("rating must be between 1 and 5")
	}
	if req.Year != nil {
		if req.Type != activity.TypeMovie {
			return apperrors.Validation("year only applies to movies")
		}
		if *req.Year < 1880 || *req.Year > time.Now().Year()+1 {
			return apperrors.Validation("year is out of range")
		}
	}
	return nil
}

// AddActivity logs one beer or movie and publishes it to the feed. The
// activity insert commits on its own so a later failure in the publish
// step never loses the log itself. When publishing fails the activity
// is returned together with a partial-failure error; RepublishActivity
// retries the downstream half.
func (s *ActivityService) AddActivity(ctx context.Context, clerkID string, req *activity.AddActivityRequest) (*activity.Activity, error) {
	if err := validateAddActivity(req); err != nil {
		return nil, err
	}

	var userID uuid.UUID
	var username string
	err := s.db.QueryRow(ctx, "SELECT id, username FROM users WHERE clerk_id = $1", clerkID).Scan(&userID, &username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	now := time.Now()
	weekStart := week.StartOfWeek(now)

	act := &activity.Activity{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          req.Type,
		Name:          req.Name,
		Brewery:       req.Brewery,
		Style:         req.Style,
		Director:      req.Director,
		Year:          req.Year,
		Rating:        req.Rating,
		ImageURL:      req.ImageURL,
		CatalogID:     req.CatalogID,
		ConsumedAt:    now,
		WeekStartDate: weekStart,
		CreatedAt:     now,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, err)
	}
	defer tx.Rollback(ctx)

	// Per-type sequence number within the week. A display ordinal; a
	// concurrent duplicate is harmless.
	err = tx.QueryRow(ctx, `
	SELECT COUNT(*) + 1 FROM activities
	WHERE user_id = $1 AND type = $2 AND week_start_date = $3
	`, userID, act.Type, weekStart).Scan(&act.WeekNumber)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to compute week number: %w", err))
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO activities (id, user_id, type, name, brewery, style, director, year, rating, image_url, catalog_id, consumed_at, week_number, week_start_date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		act.ID, act.UserID, act.Type, act.Name,
		act.Brewery, act.Style, act.Director, act.Year,
		act.Rating, act.ImageURL, act.CatalogID,
		act.ConsumedAt, act.WeekNumber, act.WeekStartDate, act.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to save activity: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, err)
	}

	if err := s.publishActivity(ctx, act, username); err != nil {
		log.Printf("AddActivity: activity %s saved but publish failed: %v", act.ID, err)
		return act, apperrors.Wrap(apperrors.ErrPartialFailure, err)
	}

	return act, nil
}

// RepublishActivity retries the publish half for an activity whose
// original AddActivity reported a partial failure. Safe to call on a
// fully published activity.
func (s *ActivityService) RepublishActivity(ctx context.Context, clerkID string, activityID uuid.UUID) error {
	var userID uuid.UUID
	var username string
	err := s.db.QueryRow(ctx, "SELECT id, username FROM users WHERE clerk_id = $1", clerkID).Scan(&userID, &username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("user")
		}
		return apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	act := &activity.Activity{}
	err = s.db.QueryRow(ctx, `
	SELECT id, user_id, type, name, brewery, style, director, year, rating, image_url, catalog_id, consumed_at, week_number, week_start_date, created_at
	FROM activities
	WHERE id = $1 AND user_id = $2
	`, activityID, userID).Scan(
		&act.ID, &act.UserID, &act.Type, &act.Name,
		&act.Brewery, &act.Style, &act.Director, &act.Year,
		&act.Rating, &act.ImageURL, &act.CatalogID,
		&act.ConsumedAt, &act.WeekNumber, &act.WeekStartDate, &act.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("activity")
		}
		return apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if err := s.publishActivity(ctx, act, username); err != nil {
		return apperrors.Wrap(apperrors.ErrPartialFailure, err)
	}
	return nil
}

// publishActivity runs the downstream half of logging an activity in one
// transaction: feed post, week rollover, counters and streak. The post
// insert gates everything else, so retries after a partial failure apply
// the side effects exactly once per activity.
func (s *ActivityService) publishActivity(ctx context.Context, act *activity.Activity, username string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
	INSERT INTO posts (id, activity_id, user_id, username, activity_type, title, subtitle, rating, image_url, week_number, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (activity_id) DO NOTHING
	`,
		uuid.New(), act.ID, act.UserID, username, act.Type,
		act.Name, postSubtitle(act), act.Rating, act.ImageURL,
		act.WeekNumber, act.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Already published; counters and streak were applied with it.
		return tx.Commit(ctx)
	}

	var curBeers, curMovies, totalBeers, totalMovies, curStreak, recordStreak int
	var storedWeekStart time.Time
	var lastActivity *time.Time
	err = tx.QueryRow(ctx, `
	SELECT current_week_beers, current_week_movies, total_beers, total_movies,
	       current_streak, record_streak, week_start_date, last_activity_date
	FROM users
	WHERE id = $1
	FOR UPDATE
	`, act.UserID).Scan(
		&curBeers, &curMovies, &totalBeers, &totalMovies,
		&curStreak, &recordStreak, &storedWeekStart, &lastActivity,
	)
	if err != nil {
		return fmt.Errorf("failed to lock user counters: %w", err)
	}

	// A new week archives the previous one and zeroes the weekly counters.
	if !week.SameWeek(storedWeekStart, act.ConsumedAt) {
		if curBeers > 0 || curMovies > 0 {
			_, err = tx.Exec(ctx, `
			INSERT INTO weekly_stats (id, user_id, week_start_date, beers, movies, completed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (user_id, week_start_date) DO NOTHING
			`, uuid.New(), act.UserID, storedWeekStart, curBeers, curMovies, curBeers > 0 && curMovies > 0)
			if err != nil {
				return fmt.Errorf("failed to archive weekly stats: %w", err)
			}
		}
		curBeers, curMovies = 0, 0
		storedWeekStart = act.WeekStartDate
	}

	if act.Type == activity.TypeBeer {
		curBeers++
		totalBeers++
	} else {
		curMovies++
		totalMovies++
	}

	switch {
	case lastActivity == nil:
		curStreak = 1
	case week.DaysBetween(*lastActivity, act.ConsumedAt) == 0:
		// Same day, streak unchanged.
	case week.DaysBetween(*lastActivity, act.ConsumedAt) == 1:
		curStreak++
	default:
		curStreak = 1
	}
	if curStreak > recordStreak {
		recordStreak = curStreak
	}

	_, err = tx.Exec(ctx, `
	UPDATE users
	SET current_week_beers = $2,
	    current_week_movies = $3,
	    total_beers = $4,
	    total_movies = $5,
	    current_streak = $6,
	    record_streak = $7,
	    week_start_date = $8,
	    last_activity_date = $9,
	    updated_at = NOW()
	WHERE id = $1
	`, act.UserID, curBeers, curMovies, totalBeers, totalMovies,
		curStreak, recordStreak, storedWeekStart, act.ConsumedAt)
	if err != nil {
		return fmt.Errorf("failed to update user counters: %w", err)
	}

	return tx.Commit(ctx)
}

func postSubtitle(act *activity.Activity) *string {
	switch act.Type {
	case activity.TypeBeer:
		return act.Brewery
	case activity.TypeMovie:
		if act.Director != nil && act.Year != nil {
			s := fmt.Sprintf("%s (%d)", *act.Director, *act.Year)
			return &s
		}
		if act.Director != nil {
			return act.Director
		}
		if act.Year != nil {
			s := fmt.Sprintf("(%d)", *act.Year)
			return &s
		}
	}
	return nil
}

// ListActivities returns the caller's activity log, newest first,
// optionally filtered by type.
func (s *ActivityService) ListActivities(ctx context.Context, clerkID string, activityType *activity.ActivityType, limit int) ([]*activity.Activity, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if activityType != nil && !activityType.Valid() {
		return nil, apperrors.Validation("type must be beer or movie")
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT id, user_id, type, name, brewery, style, director, year, rating, image_url, catalog_id, consumed_at, week_number, week_start_date, created_at
	FROM activities
	WHERE user_id = $1
	`
	args := []interface{}{userID}
	if activityType != nil {
		query += " AND type = $2"
		args = append(args, *activityType)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to list activities: %w", err))
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		act := &activity.Activity{}
		err := rows.Scan(
			&act.ID, &act.UserID, &act.Type, &act.Name,
			&act.Brewery, &act.Style, &act.Director, &act.Year,
			&act.Rating, &act.ImageURL, &act.CatalogID,
			&act.ConsumedAt, &act.WeekNumber, &act.WeekStartDate, &act.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		activities = append(activities, act)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if activities == nil {
		activities = []*activity.Activity{}
	}
	return activities, nil
}
