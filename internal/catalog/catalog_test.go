package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway/gatewaytest"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/ui"
)

func titles(ms []model.Movie) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Title
	}
	return out
}

func selectedIDs(vm *ViewModel) *[]string {
	var ids []string
	vm.OnSelect(func(m *model.Movie) {
		if m == nil {
			ids = append(ids, "")
			return
		}
		ids = append(ids, m.ID)
	})
	return &ids
}

func TestFetchMovies_SortedAndSelectsFirst(t *testing.T) {
	f := gatewaytest.New()
	f.AddMovie("Zodiac")
	alien := f.AddMovie("Alien")
	f.AddMovie("Memento")

	vm := New(f, ui.Always, &ui.Recorder{}, nil)
	seen := selectedIDs(vm)
	require.NoError(t, vm.FetchMovies(context.Background()))

	assert.Equal(t, []string{"Alien", "Memento", "Zodiac"}, titles(vm.Movies()))
	require.NotNil(t, vm.Selected())
	assert.Equal(t, alien.ID, vm.Selected().ID)
	assert.Equal(t, []string{alien.ID}, *seen)
	assert.False(t, vm.Loading())
}

func TestFetchMovies_KeepsSelectionAndRefreshesIt(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	f.AddMovie("Alien")
	heat := f.AddMovie("Heat")

	vm := New(f, ui.Always, &ui.Recorder{}, nil)
	require.NoError(t, vm.FetchMovies(ctx))
	require.NoError(t, vm.SelectByID(heat.ID))
	seen := selectedIDs(vm)

	year := 1995
	_, err := f.UpdateMovie(ctx, heat.ID, model.MovieInput{Title: "Heat", ReleaseYear: &year})
	require.NoError(t, err)
	require.NoError(t, vm.FetchMovies(ctx))

	sel := vm.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, heat.ID, sel.ID)
	require.NotNil(t, sel.ReleaseYear)
	assert.Equal(t, 1995, *sel.ReleaseYear)
	assert.Empty(t, *seen, "refreshing the selected movie is not a selection change")
}

func TestFetchMovies_FailureKeepsStateWithoutToast(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	f.AddMovie("Alien")
	rec := &ui.Recorder{}
	vm := New(f, ui.Always, rec, nil)
	require.NoError(t, vm.FetchMovies(ctx))

	f.AddMovie("Brazil")
	f.FailNext(gatewaytest.OpListMovies, errors.New("timeout"))
	assert.Error(t, vm.FetchMovies(ctx))

	assert.Equal(t, []string{"Alien"}, titles(vm.Movies()))
	assert.Empty(t, rec.All())
	assert.False(t, vm.Loading())
}

func TestSelect_NotifiesOnlyOnChange(t *testing.T) {
	f := gatewaytest.New()
	a := f.AddMovie("Alien")
	b := f.AddMovie("Brazil")
	vm := New(f, ui.Always, &ui.Recorder{}, nil)
	require.NoError(t, vm.FetchMovies(context.Background()))
	seen := selectedIDs(vm)

	vm.Select(&a)
	vm.Select(&b)
	vm.Select(&b)
	vm.Select(nil)

	assert.Equal(t, []string{b.ID, ""}, *seen)
	assert.Nil(t, vm.Selected())

	err := vm.SelectByID("missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteMovie_SelectedMovieClearsAndCascades(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	a := f.AddMovie("Alien")
	b := f.AddMovie("Brazil")
	f.AddReview(a.ID, nil, 4, "tense")
	f.AddReview(a.ID, nil, 5, "classic")

	rec := &ui.Recorder{}
	vm := New(f, ui.Always, rec, nil)
	require.NoError(t, vm.FetchMovies(ctx))
	require.Equal(t, a.ID, vm.Selected().ID)
	seen := selectedIDs(vm)

	require.NoError(t, vm.DeleteMovie(ctx, a.ID))

	assert.Equal(t, []string{"Brazil"}, titles(vm.Movies()))
	assert.Equal(t, []string{"", b.ID}, *seen)
	assert.Equal(t, b.ID, vm.Selected().ID)
	assert.Zero(t, f.ReviewCount(a.ID))
	assert.Equal(t, []string{"Movie deleted"}, rec.Successes())
}

func TestDeleteMovie_OtherMovieKeepsSelection(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	a := f.AddMovie("Alien")
	b := f.AddMovie("Brazil")
	vm := New(f, ui.Always, &ui.Recorder{}, nil)
	require.NoError(t, vm.FetchMovies(ctx))

	require.NoError(t, vm.DeleteMovie(ctx, b.ID))
	assert.Equal(t, a.ID, vm.Selected().ID)
	assert.Len(t, vm.Movies(), 1)
}

func TestDeleteMovie_Declined(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	a := f.AddMovie("Alien")
	vm := New(f, ui.Never, &ui.Recorder{}, nil)
	require.NoError(t, vm.FetchMovies(ctx))

	err := vm.DeleteMovie(ctx, a.ID)
	assert.ErrorIs(t, err, apperror.ErrCancelled)
	assert.Zero(t, f.Calls(gatewaytest.OpDeleteMovie))
	assert.Len(t, vm.Movies(), 1)
}

func TestDeleteMovie_FailureNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	a := f.AddMovie("Alien")
	rec := &ui.Recorder{}
	vm := New(f, ui.Always, rec, nil)
	require.NoError(t, vm.FetchMovies(ctx))

	f.FailNext(gatewaytest.OpDeleteMovie, errors.New("permission denied"))
	assert.Error(t, vm.DeleteMovie(ctx, a.ID))

	assert.Equal(t, []string{"permission denied"}, rec.Errors())
	assert.Equal(t, a.ID, vm.Selected().ID)
	assert.Len(t, vm.Movies(), 1)
}
