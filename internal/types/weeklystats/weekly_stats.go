package weeklystats

import (
	"time"

	"github.com/google/uuid"
)

// WeeklyStats is the archived snapshot of one finished week's counters,
// written when the first activity of the next week rolls the user over.
type WeeklyStats struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	WeekStartDate time.Time `json:"weekStartDate"`
	Beers         int       `json:"beers"`
	Movies        int       `json:"movies"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
}
