package gatewaytest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/model"
)

func TestFake_MoviesOrderedByTitle(t *testing.T) {
	f := New()
	f.AddMovie("zodiac")
	f.AddMovie("Alien")
	f.AddMovie("brazil")

	list, err := f.ListMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alien", list[0].Title)
	assert.Equal(t, "brazil", list[1].Title)
	assert.Equal(t, "zodiac", list[2].Title)
	assert.Equal(t, 1, f.Calls(OpListMovies))
}

func TestFake_DeleteMovieCascades(t *testing.T) {
	ctx := context.Background()
	f := New()
	m := f.AddMovie("Nova")
	f.AddReview(m.ID, nil, 4, "good")

	require.NoError(t, f.DeleteMovie(ctx, m.ID))
	assert.Zero(t, f.ReviewCount(m.ID))
	latest, err := f.LatestReview(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.ErrorIs(t, f.DeleteMovie(ctx, m.ID), apperror.ErrNotFound)
}

func TestFake_ReviewsJoinedNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := New()
	m := f.AddMovie("Nova")
	ann := f.AddProfile("ann", "ann@example.com")
	f.AddReview(m.ID, &ann.ID, 3, "old")
	f.AddReview(m.ID, nil, 5, "new")

	list, err := f.ListReviews(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Comment)
	assert.Equal(t, "Anonymous", list[0].AuthorName())
	assert.Equal(t, "ann", list[1].AuthorName())

	latest, err := f.LatestReview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nova", latest.MovieTitle)
}

func TestFake_FailNext(t *testing.T) {
	f := New()
	boom := errors.New("boom")
	f.FailNext(OpListMovies, boom)

	_, err := f.ListMovies(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = f.ListMovies(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, f.Calls(OpListMovies))
}

func TestFake_Auth(t *testing.T) {
	ctx := context.Background()
	f := New()
	var events []model.AuthEvent
	sub := f.OnAuthStateChange(func(ev model.AuthEvent, _ *model.Session) { events = append(events, ev) })

	require.NoError(t, f.SignUp(ctx, "ann@example.com", "hunter22", "ann"))
	err := f.SignUp(ctx, "ann@example.com", "hunter22", "ann")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	err = f.SignUp(ctx, "bob@example.com", "hunter22", "ann")
	assert.EqualError(t, err, "Username already taken")

	p, err := f.FindUserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.Username)

	_, err = f.SignInWithPassword(ctx, "ann@example.com", "nope")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	s, err := f.SignInWithPassword(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", s.User.Email)

	f.FailNext(OpSignOut, errors.New("network down"))
	assert.Error(t, f.SignOut(ctx))
	got, err := f.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, []model.AuthEvent{model.EventSignedIn, model.EventSignedOut}, events)
	sub.Unsubscribe()
	assert.Zero(t, f.Listeners())
}
