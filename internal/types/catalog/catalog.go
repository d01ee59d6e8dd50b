package catalog

import "github.com/google/uuid"

// Catalog entries are standardized names users can attach to an activity.
// Lookup failures degrade gracefully: the client keeps its free text and
// the activity is saved without a catalog reference.

type Beer struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Brewery  string    `json:"brewery"`
	Style    string    `json:"style"`
	ABV      *float64  `json:"abv,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
}

type Movie struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Director string    `json:"director"`
	Year     int       `json:"year"`
	ImageURL *string   `json:"imageUrl,omitempty"`
}

type SearchResponse struct {
	Beers  []*Beer  `json:"beers,omitempty"`
	Movies []*Movie `json:"movies,omitempty"`
}
