package rest

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/config"
	"github.com/iliyamo/cinereviews/internal/database"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/router"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))

	srv := httptest.NewServer(router.New(router.Deps{
		Cfg: config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4},
		DB:  db,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type eventLog struct {
	mu     sync.Mutex
	events []model.AuthEvent
}

func (l *eventLog) record(ev model.AuthEvent, _ *model.Session) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []model.AuthEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.AuthEvent(nil), l.events...)
}

func signedIn(t *testing.T, c *Client, email, username string) *model.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SignUp(ctx, email, "hunter22", username))
	s, err := c.SignInWithPassword(ctx, email, "hunter22")
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func TestClient_MovieRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(newServer(t).URL)
	signedIn(t, c, "ann@example.com", "ann")

	created, err := c.InsertMovie(ctx, model.MovieInput{Title: "Nova", ReleaseYear: ptr(2031)})
	require.NoError(t, err)

	got, err := c.GetMovie(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Title)
	require.NotNil(t, got.ReleaseYear)
	assert.Equal(t, 2031, *got.ReleaseYear)

	list, err := c.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, err = c.GetMovie(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestClient_WritesNeedSession(t *testing.T) {
	c := New(newServer(t).URL)
	_, err := c.InsertMovie(context.Background(), model.MovieInput{Title: "Nova"})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestClient_DuplicateSignUp(t *testing.T) {
	ctx := context.Background()
	c := New(newServer(t).URL)
	require.NoError(t, c.SignUp(ctx, "ann@example.com", "hunter22", "ann"))

	err := c.SignUp(ctx, "ann@example.com", "hunter22", "ann")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "User already registered", err.Error())

	err = c.SignUp(ctx, "bob@example.com", "hunter22", "ann")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username already taken", err.Error())
}

func TestClient_AuthEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := New(newServer(t).URL, WithClock(func() time.Time { return now }))
	log := &eventLog{}
	sub := c.OnAuthStateChange(log.record)

	first := signedIn(t, c, "ann@example.com", "ann")
	assert.Equal(t, "ann@example.com", first.User.Email)

	s, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.AccessToken, s.AccessToken)

	now = now.Add(time.Hour)
	s, err = c.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NotEqual(t, first.RefreshToken, s.RefreshToken)

	require.NoError(t, c.SignOut(ctx))
	s, err = c.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	assert.Equal(t, []model.AuthEvent{model.EventSignedIn, model.EventTokenRefreshed, model.EventSignedOut}, log.all())

	sub.Unsubscribe()
	signedIn(t, c, "bob@example.com", "bob")
	assert.Len(t, log.all(), 3)
}

func TestClient_SignOutClearsWhenServerFails(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL)
	signedIn(t, c, "ann@example.com", "ann")
	srv.Close()

	err := c.SignOut(context.Background())
	assert.Error(t, err)
	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestClient_ReviewsAndCascade(t *testing.T) {
	ctx := context.Background()
	c := New(newServer(t).URL)
	signedIn(t, c, "ann@example.com", "ann")

	profile, err := c.FindUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)

	missing, err := c.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	movie, err := c.InsertMovie(ctx, model.MovieInput{Title: "Nova"})
	require.NoError(t, err)
	rv, err := c.InsertReview(ctx, model.ReviewInput{MovieID: movie.ID, UserID: &profile.ID, Rating: 3, Comment: "fine"})
	require.NoError(t, err)

	upd, err := c.UpdateReview(ctx, rv.ID, model.ReviewUpdate{Rating: 4, Comment: "better"})
	require.NoError(t, err)
	assert.Equal(t, rv.ID, upd.ID)

	list, err := c.ListReviews(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ann", list[0].AuthorName())
	assert.Equal(t, 4, list[0].Rating)

	latest, err := c.LatestReview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nova", latest.MovieTitle)

	require.NoError(t, c.DeleteMovie(ctx, movie.ID))
	_, err = c.ListReviews(ctx, movie.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	latest, err = c.LatestReview(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
