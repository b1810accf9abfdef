package model

import "time"

// Release year bounds accepted by the catalog.
const (
	MinReleaseYear = 1800
	MaxReleaseYear = 2100
)

// Movie represents a catalog entry as stored in the `movies` table.
// Optional columns are pointers so that "not set" survives the JSON
// round trip between the backend and the client.
//
// Fields:
//
//	ID          – opaque identifier (UUID assigned by the backend).
//	Title       – required, non-empty.
//	Genre       – free text, optional.
//	ReleaseYear – optional, within [MinReleaseYear, MaxReleaseYear].
//	PosterURL   – optional absolute URL of the poster image.
//	CreatedAt   – creation timestamp.
type Movie struct {
	ID          string    `json:"movie_id"`
	Title       string    `json:"title"`
	Genre       *string   `json:"genre"`
	ReleaseYear *int      `json:"release_year"`
	PosterURL   *string   `json:"poster_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovieInput is the writable part of a Movie (insert and update payload).
type MovieInput struct {
	Title       string  `json:"title"`
	Genre       *string `json:"genre"`
	ReleaseYear *int    `json:"release_year"`
	PosterURL   *string `json:"poster_url"`
}
