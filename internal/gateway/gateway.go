// Package gateway describes the remote data service the client talks to:
// table-style CRUD over movies, reviews and profiles plus the
// authentication API.  Implementations live in the rest and gatewaytest
// subpackages.
package gateway

import (
	"context"

	"github.com/iliyamo/cinereviews/internal/model"
)

// Movies is the catalog table.
type Movies interface {
	// ListMovies returns every movie ordered by title ascending.
	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id string) (*model.Movie, error)
	InsertMovie(ctx context.Context, in model.MovieInput) (*model.Movie, error)
	UpdateMovie(ctx context.Context, id string, in model.MovieInput) (*model.Movie, error)
	// DeleteMovie removes a movie and every review attached to it.
	DeleteMovie(ctx context.Context, id string) error
}

// Reviews is the reviews table.
type Reviews interface {
	// ListReviews returns the reviews of one movie, newest first, with
	// authors joined.
	ListReviews(ctx context.Context, movieID string) ([]model.Review, error)
	// LatestReview returns the newest review across all movies with author
	// and movie title joined, or nil when there are none.
	LatestReview(ctx context.Context) (*model.Review, error)
	InsertReview(ctx context.Context, in model.ReviewInput) (*model.Review, error)
	UpdateReview(ctx context.Context, id string, upd model.ReviewUpdate) (*model.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

// Users is the profiles table.  Lookups return nil, nil on a miss.
type Users interface {
	FindUserByUsername(ctx context.Context, username string) (*model.Profile, error)
	FindUserByEmail(ctx context.Context, email string) (*model.Profile, error)
	InsertUser(ctx context.Context, in model.ProfileInput) (*model.Profile, error)
}

// AuthListener receives authentication state changes.  session is nil after
// sign-out.
type AuthListener func(event model.AuthEvent, session *model.Session)

// Auth is the authentication API.
type Auth interface {
	SignUp(ctx context.Context, email, password, username string) error
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	// SignOut ends the session.  Local state is cleared even when the
	// remote call fails.
	SignOut(ctx context.Context) error
	// GetSession returns the current session, renewing it when the access
	// token has expired.  A nil session with a nil error means signed out.
	GetSession(ctx context.Context) (*model.Session, error)
	OnAuthStateChange(fn AuthListener) Subscription
}

// Subscription cancels a listener registration.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// Gateway bundles every table and the auth API.
type Gateway interface {
	Movies
	Reviews
	Users
	Auth
}
