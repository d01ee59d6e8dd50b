package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id"`
	ClerkID           string    `json:"clerkId"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	Bio               string    `json:"bio,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	CurrentWeekBeers  int       `json:"currentWeekBeers"`
	CurrentWeekMovies int       `json:"currentWeekMovies"`
	TotalBeers        int       `json:"totalBeers"`
	TotalMovies       int       `json:"totalMovies"`
	CurrentStreak     int       `json:"currentStreak"`
	RecordStreak      int       `json:"recordStreak"`
	FollowerCount     int       `json:"followerCount"`
	FollowingCount    int       `json:"followingCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	ClerkID  string `json:"clerkId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

// UpdateProfileRequest carries the mutable profile fields. Empty strings
// mean "leave unchanged".
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl"`
}

// SearchResult is a user row annotated with the searcher's follow state.
type SearchResult struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	IsFollowing bool      `json:"isFollowing"`
}
