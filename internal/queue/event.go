// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import "time"

// ReviewsQueue is the durable queue review events are published to.
const ReviewsQueue = "review.events"

// Review event types.
const (
	ReviewCreated = "review.created"
	ReviewUpdated = "review.updated"
	ReviewDeleted = "review.deleted"
)

// ReviewEvent is published after a review write commits.  It carries enough
// information for downstream consumers to log or aggregate without querying
// the primary database.
type ReviewEvent struct {
	Type       string  `json:"type"`
	ReviewID   string  `json:"review_id"`
	MovieID    string  `json:"movie_id"`
	MovieTitle string  `json:"movie_title,omitempty"`
	UserID     *string `json:"user_id"`
	Rating     int     `json:"rating,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

// NewReviewEvent stamps an event with the current UTC time.
func NewReviewEvent(typ, reviewID, movieID string, userID *string, rating int) ReviewEvent {
	return ReviewEvent{
		Type:       typ,
		ReviewID:   reviewID,
		MovieID:    movieID,
		UserID:     userID,
		Rating:     rating,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
