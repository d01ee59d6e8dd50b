package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/catalog"
)

type CatalogService struct {
	db *pgxpool.Pool
}

func NewCatalogService(db *pgxpool.Pool) *CatalogService {
	return &CatalogService{db: db}
}

// SearchBeers looks up catalog beers by name, exact matches first, then
// prefix matches, then substring matches.
func (s *CatalogService) SearchBeers(ctx context.Context, search string, limit int) ([]*catalog.Beer, error) {
	cleanQuery := strings.TrimSpace(search)
	if cleanQuery == "" {
		return []*catalog.Beer{}, nil
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	searchPattern := "%" + escapeLike(cleanQuery) + "%"
	startsWithPattern := escapeLike(cleanQuery) + "%"

	query := `
	SELECT id, name, brewery, style, abv, image_url
	FROM catalog_beers
	WHERE LOWER(name) LIKE LOWER($1)
	ORDER BY
		CASE
			WHEN LOWER(name) = LOWER($2) THEN 100
			WHEN LOWER(name) LIKE LOWER($3) THEN 90
			WHEN LOWER(name) LIKE LOWER($1) THEN 80
			ELSE 0
		END DESC,
		name ASC
	LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, searchPattern, cleanQuery, startsWithPattern, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to search beers: %w", err))
	}
	defer rows.Close()

	var beers []*catalog.Beer
	for rows.Next() {
		b := &catalog.Beer{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Brewery, &b.Style, &b.ABV, &b.ImageURL); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		beers = append(beers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if beers == nil {
		beers = []*catalog.Beer{}
	}
	return beers, nil
}

// SearchMovies is the movie half of catalog lookup, ranked the same way.
func (s *CatalogService) SearchMovies(ctx context.Context, search string, limit int) ([]*catalog.Movie, error) {
	cleanQuery := strings.TrimSpace(search)
	if cleanQuery == "" {
		return []*catalog.Movie{}, nil
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	searchPattern := "%" + escapeLike(cleanQuery) + "%"
	startsWithPattern := escapeLike(cleanQuery) + "%"

	query := `
	SELECT id, title, director, year, image_url
	FROM catalog_movies
	WHERE LOWER(title) LIKE LOWER($1)
	ORDER BY
		CASE
			WHEN LOWER(title) = LOWER($2) THEN 100
			WHEN LOWER(title) LIKE LOWER($3) THEN 90
			WHEN LOWER(title) LIKE LOWER($1) THEN 80
			ELSE 0
		END DESC,
		year DESC
	LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, searchPattern, cleanQuery, startsWithPattern, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to search movies: %w", err))
	}
	defer rows.Close()

	var movies []*catalog.Movie
	for rows.Next() {
		m := &catalog.Movie{}
		if err := rows.Scan(&m.ID, &m.Title, &m.Director, &m.Year, &m.ImageURL); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if movies == nil {
		movies = []*catalog.Movie{}
	}
	return movies, nil
}
