package post

import (
	"time"

	"github.com/google/uuid"

	"sipReelAPI/internal/types/activity"
)

// Post is the feed-displayable projection of one Activity. Exactly one per
// activity (unique on ActivityID); the author's username is snapshotted at
// publish time and rewritten by the rename fan-out job.
type Post struct {
	ID           uuid.UUID             `json:"id"`
	ActivityID   uuid.UUID             `json:"activityId"`
	UserID       uuid.UUID             `json:"userId"`
	Username     string                `json:"username"`
	ActivityType activity.ActivityType `json:"activityType"`
	Title        string                `json:"title"`
	Subtitle     *string               `json:"subtitle,omitempty"`
	Rating       *int                  `json:"rating,omitempty"`
	ImageURL     *string               `json:"imageUrl,omitempty"`
	WeekNumber   int                   `json:"weekNumber"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// FeedPage is one keyset-paginated slice of the feed, newest first.
// HasMore is inferred from a full page; NextCursor is nil on the last page.
type FeedPage struct {
	Posts      []*Post `json:"posts"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}
