package services

import (
	"errors"
	"testing"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/activity"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestValidateAddActivity(t *testing.T) {
	tests := []struct {
		name    string
		req     activity.AddActivityRequest
		wantErr bool
	}{
		{"valid beer", activity.AddActivityRequest{Type: activity.TypeBeer, Name: "Pliny"}, false},
		{"valid movie with rating", activity.AddActivityRequest{Type: activity.TypeMovie, Name: "Heat", Rating: intPtr(5)}, false},
		{"missing name", activity.AddActivityRequest{Type: activity.TypeBeer}, true},
		{"bad type", activity.AddActivityRequest{Type: "podcast", Name: "x"}, true},
		{"rating too low", activity.AddActivityRequest{Type: activity.TypeBeer, Name: "x", Rating: intPtr(0)}, true},
		{"rating too high", activity.AddActivityRequest{Type: activity.TypeBeer, Name: "x", Rating: intPtr(6)}, true},
		{"year on a beer", activity.AddActivityRequest{Type: activity.TypeBeer, Name: "x", Year: intPtr(2020)}, true},
		{"movie year before cinema", activity.AddActivityRequest{Type: activity.TypeMovie, Name: "x", Year: intPtr(1850)}, true},
		{"movie year plausible", activity.AddActivityRequest{Type: activity.TypeMovie, Name: "x", Year: intPtr(1995)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddActivity(&tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				if !errors.Is(err, apperrors.ErrValidation) {
					t.Errorf("error should be a validation error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPostSubtitle(t *testing.T) {
	beer := &activity.Activity{Type: activity.TypeBeer, Brewery: strPtr("Russian River")}
	if got := postSubtitle(beer); got == nil || *got != "Russian River" {
		t.Errorf("beer subtitle = %v, want brewery", got)
	}

	plainBeer := &activity.Activity{Type: activity.TypeBeer}
	if got := postSubtitle(plainBeer); got != nil {
		t.Errorf("beer without brewery should have no subtitle, got %q", *got)
	}

	movie := &activity.Activity{Type: activity.TypeMovie, Director: strPtr("Michael Mann"), Year: intPtr(1995)}
	if got := postSubtitle(movie); got == nil || *got != "Michael Mann (1995)" {
		t.Errorf("movie subtitle = %v, want director with year", got)
	}

	directorOnly := &activity.Activity{Type: activity.TypeMovie, Director: strPtr("Michael Mann")}
	if got := postSubtitle(directorOnly); got == nil || *got != "Michael Mann" {
		t.Errorf("movie subtitle = %v, want bare director", got)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"pliny", "pliny"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tc := range cases {
		if got := escapeLike(tc.in); got != tc.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"ana", "beer_lover.99", "ThreeOh", "a_b"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) rejected a valid name: %v", u, err)
		}
	}

	invalid := []string{"ab", "", "has space", "emoji🍺", "waytoolong_waytoolong_waytoolong"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) accepted an invalid name", u)
		}
	}
}
