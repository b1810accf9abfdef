package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/model"
)

// ErrReviewNotFound is returned when a review does not exist.
var ErrReviewNotFound = errors.New("review not found")

// ReviewRepo provides CRUD operations for reviews.  Reads join the author
// profile from 'users' (LEFT JOIN: reviews without an author or whose author
// was deleted still appear).  All timestamps are stored in UTC.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `SELECT r.id, r.movie_id, r.user_id, r.rating, r.comment, r.created_at, u.username, u.email, m.title
FROM reviews r
LEFT JOIN users u ON u.id = r.user_id
JOIN movies m ON m.id = r.movie_id`

func scanReview(s rowScanner, withTitle bool) (*model.Review, error) {
	var (
		rv       model.Review
		userID   sql.NullString
		username sql.NullString
		email    sql.NullString
		title    string
	)
	if err := s.Scan(&rv.ID, &rv.MovieID, &userID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &username, &email, &title); err != nil {
		return nil, err
	}
	if userID.Valid {
		rv.UserID = &userID.String
	}
	if username.Valid {
		rv.Author = &model.ReviewAuthor{Username: username.String, Email: email.String}
	}
	if withTitle {
		rv.MovieTitle = title
	}
	return &rv, nil
}

// Create inserts a review.  A missing movie or author surfaces as a
// foreign-key error from the driver; callers check the parents first.
func (r *ReviewRepo) Create(ctx context.Context, in model.ReviewInput) (*model.Review, error) {
	rv := &model.Review{
		ID:        uuid.NewString(),
		MovieID:   in.MovieID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: time.Now().UTC(),
	}
	const q = `INSERT INTO reviews (id, movie_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, rv.ID, rv.MovieID, nullString(rv.UserID), rv.Rating, rv.Comment, rv.CreatedAt); err != nil {
		return nil, err
	}
	return rv, nil
}

// GetByID returns a review with its author joined.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return rv, nil
}

// ListByMovie returns the reviews of one movie, newest first.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID string) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, reviewSelect+` WHERE r.movie_id = ? ORDER BY r.created_at DESC, r.id DESC`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recent review across all movies with the movie
// title joined.  ErrReviewNotFound means there are no reviews yet.
func (r *ReviewRepo) Latest(ctx context.Context) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+` ORDER BY r.created_at DESC, r.id DESC LIMIT 1`), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return rv, nil
}

// Update changes rating and comment.  The id, movie, author and creation
// time of the review are left untouched.
func (r *ReviewRepo) Update(ctx context.Context, id string, upd model.ReviewUpdate) (*model.Review, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	const q = `UPDATE reviews SET rating = ?, comment = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, upd.Rating, strings.TrimSpace(upd.Comment), id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// CountByMovie returns the number of reviews attached to a movie.
func (r *ReviewRepo) CountByMovie(ctx context.Context, movieID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE movie_id = ?`, movieID).Scan(&n)
	return n, err
}
