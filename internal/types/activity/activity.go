package activity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	TypeBeer  ActivityType = "beer"
	TypeMovie ActivityType = "movie"
)

func (t ActivityType) Valid() bool {
	return t == TypeBeer || t == TypeMovie
}

// Activity is one logged beer or movie. Immutable once written; the feed
// shows its denormalized Post projection instead.
type Activity struct {
	ID     uuid.UUID    `json:"id"`
	UserID uuid.UUID    `json:"userId"`
	Type   ActivityType `json:"type"`

	// Name is the beer name or movie title.
	Name     string  `json:"name"`
	Brewery  *string `json:"brewery,omitempty"`
	Style    *string `json:"style,omitempty"`
	Director *string `json:"director,omitempty"`
	Year     *int    `json:"year,omitempty"`

	Rating    *int       `json:"rating,omitempty"`
	ImageURL  *string    `json:"imageUrl,omitempty"`
	CatalogID *uuid.UUID `json:"catalogId,omitempty"`

	ConsumedAt time.Time `json:"consumedAt"`
	// WeekNumber is the 1-based ordinal of this activity within the owner's
	// week, per type. A display ordinal, not a uniqueness key.
	WeekNumber    int       `json:"weekNumber"`
	WeekStartDate time.Time `json:"weekStartDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AddActivityRequest struct {
	Type      ActivityType `json:"type"`
	Name      string       `json:"name"`
	Brewery   *string      `json:"brewery,omitempty"`
	Style     *string      `json:"style,omitempty"`
	Director  *string      `json:"director,omitempty"`
	Year      *int         `json:"year,omitempty"`
	Rating    *int         `json:"rating,omitempty"`
	ImageURL  *string      `json:"imageUrl,omitempty"`
	CatalogID *uuid.UUID   `json:"catalogId,omitempty"`
}
