// Package repository contains data access logic separated from HTTP handlers.
// This file holds the movie catalog queries.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/model"
)

// ErrMovieNotFound is returned when a movie cannot be found in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = `id, title, genre, release_year, poster_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*model.Movie, error) {
	var (
		m      model.Movie
		genre  sql.NullString
		year   sql.NullInt64
		poster sql.NullString
	)
	if err := s.Scan(&m.ID, &m.Title, &genre, &year, &poster, &m.CreatedAt); err != nil {
		return nil, err
	}
	if genre.Valid {
		m.Genre = &genre.String
	}
	if year.Valid {
		y := int(year.Int64)
		m.ReleaseYear = &y
	}
	if poster.Valid {
		m.PosterURL = &poster.String
	}
	return &m, nil
}

// Create inserts a new movie and returns the stored row.
func (r *MovieRepo) Create(ctx context.Context, in model.MovieInput) (*model.Movie, error) {
	m := &model.Movie{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Genre:       in.Genre,
		ReleaseYear: in.ReleaseYear,
		PosterURL:   in.PosterURL,
		CreatedAt:   time.Now().UTC(),
	}
	const q = `INSERT INTO movies (id, title, genre, release_year, poster_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, m.ID, m.Title, nullString(m.Genre), nullInt(m.ReleaseYear), nullString(m.PosterURL), m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID fetches a movie by its ID.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListAll returns every movie ordered by title ascending.  Titles compare
// case-insensitively so both drivers agree on the order.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY LOWER(title) ASC, title ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the writable columns of a movie.  Existence is checked
// inside the transaction because MySQL reports zero affected rows when the
// new values equal the old ones.
func (r *MovieRepo) Update(ctx context.Context, id string, in model.MovieInput) (m *model.Movie, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	const q = `UPDATE movies SET title = ?, genre = ?, release_year = ?, poster_url = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, q, in.Title, nullString(in.Genre), nullInt(in.ReleaseYear), nullString(in.PosterURL), id); err != nil {
		return nil, err
	}
	m, err = scanMovie(tx.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	return m, err
}

// Delete removes a movie.  Its reviews are removed by the reviews.movie_id
// foreign key (ON DELETE CASCADE).
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Count returns the number of movies in the catalog.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}
