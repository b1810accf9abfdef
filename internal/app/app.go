// Package app assembles the client: one session manager, the catalog and
// review view-models and the forms, all over a single gateway.
package app

import (
	"context"
	"log/slog"

	"github.com/iliyamo/cinereviews/internal/catalog"
	"github.com/iliyamo/cinereviews/internal/form"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/reviews"
	"github.com/iliyamo/cinereviews/internal/session"
	"github.com/iliyamo/cinereviews/internal/ui"
)

type App struct {
	Session    *session.Manager
	Catalog    *catalog.ViewModel
	Reviews    *reviews.ViewModel
	MovieForm  *form.MovieForm
	ReviewForm *form.ReviewForm
	AuthForm   *form.AuthForm

	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

// New wires the components.  Selecting a movie in the catalog is the only
// thing that reloads the movie-scoped reviews.
func New(gw gateway.Gateway, confirm ui.Confirmer, notify ui.Notifier, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel, log: log}

	a.Session = session.New(gw, gw, log.With("component", "session"))
	a.Catalog = catalog.New(gw, confirm, notify, log.With("component", "catalog"))
	a.Reviews = reviews.New(gw, a.Session, confirm, notify, log.With("component", "reviews"))

	a.MovieForm = form.NewMovieForm(gw, notify)
	a.MovieForm.OnSuccess = func(ctx context.Context) {
		if err := a.Catalog.FetchMovies(ctx); err != nil {
			a.log.Warn("reload catalog", "err", err)
		}
	}
	a.ReviewForm = form.NewReviewForm(a.Reviews)
	a.AuthForm = form.NewAuthForm(gw, notify)

	a.Catalog.OnSelect(a.movieSelected)
	return a
}

func (a *App) movieSelected(m *model.Movie) {
	id := ""
	if m != nil {
		id = m.ID
	}
	if err := a.Reviews.SetMovie(a.ctx, id); err != nil {
		a.log.Warn("load reviews", "movie_id", id, "err", err)
	}
}

// Start begins session tracking and loads the catalog and the latest
// review.  Load failures are logged; only a cancelled ctx is returned.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Start(ctx); err != nil {
		a.log.Warn("restore session", "err", err)
	}
	if err := a.Catalog.FetchMovies(ctx); err != nil {
		a.log.Warn("load catalog", "err", err)
	}
	if err := a.Reviews.FetchLatestReview(ctx); err != nil {
		a.log.Warn("load latest review", "err", err)
	}
	return ctx.Err()
}

// DeleteMovie deletes through the catalog and then refreshes the latest
// review, which may have belonged to the deleted movie.
func (a *App) DeleteMovie(ctx context.Context, id string) error {
	if err := a.Catalog.DeleteMovie(ctx, id); err != nil {
		return err
	}
	if err := a.Reviews.FetchLatestReview(ctx); err != nil {
		a.log.Warn("refresh latest review", "err", err)
	}
	return nil
}

// SignOut ends the session.  Local state is cleared even when the remote
// call fails.
func (a *App) SignOut(ctx context.Context) error {
	a.Reviews.CancelEdit()
	return a.Session.SignOut(ctx)
}

// Close stops session tracking and cancels background loads.
func (a *App) Close() {
	a.Session.Close()
	a.cancel()
}
