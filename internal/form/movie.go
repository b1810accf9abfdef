package form

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/ui"
)

const (
	MsgTitleRequired = "Title is required"
	MsgInvalidYear   = "Please enter a valid year"
	MsgInvalidPoster = "Poster URL must be an absolute URL"
)

type movieFields struct {
	Title       string  `form:"title" validate:"required"`
	ReleaseYear *int    `form:"release_year" validate:"omitempty,gte=1800,lte=2100"`
	PosterURL   *string `form:"poster_url" validate:"omitempty,url"`
}

var movieMessages = messages{
	"title":        MsgTitleRequired,
	"release_year": MsgInvalidYear,
	"poster_url":   MsgInvalidPoster,
}

// MovieForm adds a movie or, after Load, edits one.  ReleaseYear is kept as
// typed and parsed on submit.
type MovieForm struct {
	Title       string
	Genre       string
	ReleaseYear string
	PosterURL   string
	Submitting  bool

	// OnSuccess runs after a successful save, typically a catalog reload.
	OnSuccess func(ctx context.Context)

	movies    gateway.Movies
	notify    ui.Notifier
	editingID string
}

func NewMovieForm(movies gateway.Movies, notify ui.Notifier) *MovieForm {
	return &MovieForm{movies: movies, notify: notify}
}

// Load fills the buffers from m and switches the form to edit mode.
func (f *MovieForm) Load(m model.Movie) {
	f.editingID = m.ID
	f.Title = m.Title
	f.Genre, f.ReleaseYear, f.PosterURL = "", "", ""
	if m.Genre != nil {
		f.Genre = *m.Genre
	}
	if m.ReleaseYear != nil {
		f.ReleaseYear = strconv.Itoa(*m.ReleaseYear)
	}
	if m.PosterURL != nil {
		f.PosterURL = *m.PosterURL
	}
}

// Editing reports the id of the movie being edited, or "".
func (f *MovieForm) Editing() string { return f.editingID }

// Reset clears the buffers and leaves edit mode.
func (f *MovieForm) Reset() {
	f.Title, f.Genre, f.ReleaseYear, f.PosterURL = "", "", "", ""
	f.editingID = ""
}

// Input validates the buffers and returns the write payload.
func (f *MovieForm) Input() (model.MovieInput, error) {
	fields := movieFields{
		Title:     strings.TrimSpace(f.Title),
		PosterURL: optional(f.PosterURL),
	}
	if y := strings.TrimSpace(f.ReleaseYear); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return model.MovieInput{}, apperror.ValidationFailed("release_year", MsgInvalidYear)
		}
		fields.ReleaseYear = &n
	}
	if err := check(fields, movieMessages); err != nil {
		return model.MovieInput{}, err
	}
	return model.MovieInput{
		Title:       fields.Title,
		Genre:       optional(f.Genre),
		ReleaseYear: fields.ReleaseYear,
		PosterURL:   fields.PosterURL,
	}, nil
}

// Submit inserts or updates the movie.  On success the buffers are reset
// and OnSuccess runs; every failure produces one error notification.
func (f *MovieForm) Submit(ctx context.Context) (*model.Movie, error) {
	f.Submitting = true
	defer func() { f.Submitting = false }()

	in, err := f.Input()
	if err != nil {
		f.notify.Error(apperror.Message(err))
		return nil, err
	}

	var saved *model.Movie
	if f.editingID != "" {
		saved, err = f.movies.UpdateMovie(ctx, f.editingID, in)
	} else {
		saved, err = f.movies.InsertMovie(ctx, in)
	}
	if err != nil {
		ui.Report(f.notify, err, "Failed to save movie")
		return nil, err
	}

	if f.editingID != "" {
		f.notify.Success("Movie updated!")
	} else {
		f.notify.Success("Movie added!")
	}
	f.Reset()
	if f.OnSuccess != nil {
		f.OnSuccess(ctx)
	}
	return saved, nil
}
