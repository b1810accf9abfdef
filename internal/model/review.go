package model

import "time"

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a row in the `reviews` table together with the
// read-side joins the listing endpoints perform.  Author is populated from
// the `users` table and MovieTitle from `movies`; both are absent on write
// responses.
//
// Fields:
//
//	ID         – opaque identifier.
//	MovieID    – parent movie; deleting the movie deletes the review.
//	UserID     – author profile, nil for reviews without an author.
//	Rating     – integer in [MinRating, MaxRating].
//	Comment    – non-empty text.
//	CreatedAt  – assigned by the backend on insert.
type Review struct {
	ID         string        `json:"review_id"`
	MovieID    string        `json:"movie_id"`
	UserID     *string       `json:"user_id"`
	Rating     int           `json:"rating"`
	Comment    string        `json:"comment"`
	CreatedAt  time.Time     `json:"created_at"`
	Author     *ReviewAuthor `json:"users,omitempty"`
	MovieTitle string        `json:"movie_title,omitempty"`
}

// ReviewAuthor is the subset of a profile joined onto a review.
type ReviewAuthor struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthorName returns the author's username or "Anonymous".
func (r Review) AuthorName() string {
	if r.Author == nil || r.Author.Username == "" {
		return "Anonymous"
	}
	return r.Author.Username
}

// ReviewInput is the insert payload for the `reviews` table.
type ReviewInput struct {
	MovieID string  `json:"movie_id"`
	UserID  *string `json:"user_id"`
	Rating  int     `json:"rating"`
	Comment string  `json:"comment"`
}

// ReviewUpdate is the update payload; only rating and comment change.
type ReviewUpdate struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
