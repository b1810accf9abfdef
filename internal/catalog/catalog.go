// Package catalog holds the movie list and the current selection.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/ui"
)

// ViewModel is the catalog state: the movies ordered by title and at most
// one selected movie.  Selection observers registered with OnSelect run
// whenever the selected movie changes identity.
type ViewModel struct {
	movies  gateway.Movies
	confirm ui.Confirmer
	notify  ui.Notifier
	log     *slog.Logger

	mu        sync.Mutex
	list      []model.Movie
	selected  *model.Movie
	loading   bool
	observers []func(*model.Movie)
}

func New(movies gateway.Movies, confirm ui.Confirmer, notify ui.Notifier, log *slog.Logger) *ViewModel {
	if log == nil {
		log = slog.Default()
	}
	return &ViewModel{movies: movies, confirm: confirm, notify: notify, log: log}
}

// FetchMovies reloads the list.  The first movie is selected only when
// nothing is selected yet; a selected movie that is still listed has its
// data refreshed without notifying observers.  Failures are logged and
// leave the previous state in place.
func (vm *ViewModel) FetchMovies(ctx context.Context) error {
	vm.mu.Lock()
	vm.loading = true
	vm.mu.Unlock()

	list, err := vm.movies.ListMovies(ctx)

	vm.mu.Lock()
	vm.loading = false
	if err != nil {
		vm.mu.Unlock()
		vm.log.Error("fetch movies", "err", err)
		return fmt.Errorf("fetch movies: %w", err)
	}
	vm.list = list

	var changed *model.Movie
	switch {
	case vm.selected == nil && len(list) > 0:
		first := list[0]
		vm.selected = &first
		changed = &first
	case vm.selected != nil:
		for i := range list {
			if list[i].ID == vm.selected.ID {
				fresh := list[i]
				vm.selected = &fresh
				break
			}
		}
	}
	vm.mu.Unlock()

	if changed != nil {
		vm.emit(changed)
	}
	return nil
}

// Movies returns a copy of the current list.
func (vm *ViewModel) Movies() []model.Movie {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]model.Movie(nil), vm.list...)
}

func (vm *ViewModel) Loading() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.loading
}

// Selected returns a copy of the selected movie, or nil.
func (vm *ViewModel) Selected() *model.Movie {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.selected == nil {
		return nil
	}
	m := *vm.selected
	return &m
}

// Select makes m the selected movie.  A nil m clears the selection.
// Observers run only when the selected id changes.
func (vm *ViewModel) Select(m *model.Movie) {
	vm.mu.Lock()
	prev := ""
	if vm.selected != nil {
		prev = vm.selected.ID
	}
	var next *model.Movie
	if m != nil {
		c := *m
		next = &c
	}
	vm.selected = next
	vm.mu.Unlock()

	cur := ""
	if next != nil {
		cur = next.ID
	}
	if cur != prev {
		vm.emit(next)
	}
}

// SelectByID selects the listed movie with the given id.
func (vm *ViewModel) SelectByID(id string) error {
	vm.mu.Lock()
	var found *model.Movie
	for i := range vm.list {
		if vm.list[i].ID == id {
			m := vm.list[i]
			found = &m
			break
		}
	}
	vm.mu.Unlock()
	if found == nil {
		return apperror.NotFound("movie", id)
	}
	vm.Select(found)
	return nil
}

// OnSelect registers fn to run after the selection changes.  fn receives
// nil when the selection is cleared.
func (vm *ViewModel) OnSelect(fn func(*model.Movie)) {
	vm.mu.Lock()
	vm.observers = append(vm.observers, fn)
	vm.mu.Unlock()
}

func (vm *ViewModel) emit(m *model.Movie) {
	vm.mu.Lock()
	fns := append(([]func(*model.Movie))(nil), vm.observers...)
	vm.mu.Unlock()
	for _, fn := range fns {
		if m == nil {
			fn(nil)
			continue
		}
		c := *m
		fn(&c)
	}
}

// DeleteMovie removes a movie after confirmation.  The backend deletes its
// reviews along with it.  Declining returns an ErrCancelled error and
// changes nothing.
func (vm *ViewModel) DeleteMovie(ctx context.Context, id string) error {
	title := id
	vm.mu.Lock()
	for _, m := range vm.list {
		if m.ID == id {
			title = m.Title
			break
		}
	}
	vm.mu.Unlock()

	prompt := fmt.Sprintf("Delete %q and all of its reviews?", title)
	if !vm.confirm.Confirm(ctx, prompt) {
		return apperror.Cancelled("delete movie")
	}

	if err := vm.movies.DeleteMovie(ctx, id); err != nil {
		ui.Report(vm.notify, err, "Failed to delete movie")
		return err
	}
	vm.notify.Success("Movie deleted")

	vm.mu.Lock()
	cleared := vm.selected != nil && vm.selected.ID == id
	if cleared {
		vm.selected = nil
	}
	vm.mu.Unlock()
	if cleared {
		vm.emit(nil)
	}

	if err := vm.FetchMovies(ctx); err != nil {
		vm.log.Warn("reload after delete", "err", err)
	}
	return nil
}
