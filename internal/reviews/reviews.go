// Package reviews holds the reviews of the selected movie, the latest
// review across the catalog and the edit state of the review being
// changed.
//
// Every list request is tagged with a generation number.  Changing the
// movie or issuing a new request bumps the generation, and a response that
// arrives for an older generation is dropped, so a slow response for one
// movie can never replace the reviews of another.
package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/ui"
)

// Messages shown for rejected drafts.
const (
	MsgRatingRequired  = "Please select a rating"
	MsgCommentRequired = "Please write a review"
	MsgMovieRequired   = "Please select a movie"
	MsgSignInRequired  = "Please sign in to write a review"
)

// ProfileSource reports the profile of the signed-in user, or nil.
// *session.Manager satisfies it.
type ProfileSource interface {
	Profile() *model.Profile
}

// Draft is the editable part of a review.
type Draft struct {
	Rating  int
	Comment string
}

// Validate checks the draft without touching the network.
func (d Draft) Validate() error {
	if d.Rating < model.MinRating || d.Rating > model.MaxRating {
		return apperror.ValidationFailed("rating", MsgRatingRequired)
	}
	if strings.TrimSpace(d.Comment) == "" {
		return apperror.ValidationFailed("comment", MsgCommentRequired)
	}
	return nil
}

type ViewModel struct {
	reviews  gateway.Reviews
	profiles ProfileSource
	confirm  ui.Confirmer
	notify   ui.Notifier
	log      *slog.Logger

	mu        sync.Mutex
	movieID   string
	list      []model.Review
	loading   bool
	gen       uint64
	latest    *model.Review
	latestGen uint64
	editing   *model.Review
}

func New(reviews gateway.Reviews, profiles ProfileSource, confirm ui.Confirmer, notify ui.Notifier, log *slog.Logger) *ViewModel {
	if log == nil {
		log = slog.Default()
	}
	return &ViewModel{reviews: reviews, profiles: profiles, confirm: confirm, notify: notify, log: log}
}

// SetMovie switches to another movie: the list and edit state are cleared
// and in-flight responses for the previous movie are invalidated before
// the new list is fetched.  An empty id only clears.
func (vm *ViewModel) SetMovie(ctx context.Context, movieID string) error {
	vm.mu.Lock()
	vm.gen++
	vm.movieID = movieID
	vm.list = nil
	vm.editing = nil
	vm.loading = false
	vm.mu.Unlock()

	if movieID == "" {
		return nil
	}
	return vm.FetchReviews(ctx, movieID)
}

// FetchReviews loads the reviews of movieID, newest first.  It is a no-op
// for an empty id.  Failures are logged and keep the previous list.
func (vm *ViewModel) FetchReviews(ctx context.Context, movieID string) error {
	if movieID == "" {
		return nil
	}
	vm.mu.Lock()
	vm.gen++
	gen := vm.gen
	vm.movieID = movieID
	vm.loading = true
	vm.mu.Unlock()

	list, err := vm.reviews.ListReviews(ctx, movieID)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if gen != vm.gen {
		vm.log.Debug("dropping stale reviews", "movie_id", movieID)
		return nil
	}
	vm.loading = false
	if err != nil {
		vm.log.Error("fetch reviews", "movie_id", movieID, "err", err)
		return fmt.Errorf("fetch reviews: %w", err)
	}
	vm.list = list
	return nil
}

// FetchLatestReview loads the newest review across all movies.
func (vm *ViewModel) FetchLatestReview(ctx context.Context) error {
	vm.mu.Lock()
	vm.latestGen++
	gen := vm.latestGen
	vm.mu.Unlock()

	rv, err := vm.reviews.LatestReview(ctx)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if gen != vm.latestGen {
		return nil
	}
	if err != nil {
		vm.log.Error("fetch latest review", "err", err)
		return fmt.Errorf("fetch latest review: %w", err)
	}
	vm.latest = rv
	return nil
}

func (vm *ViewModel) MovieID() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.movieID
}

// Reviews returns a copy of the current list.
func (vm *ViewModel) Reviews() []model.Review {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]model.Review(nil), vm.list...)
}

func (vm *ViewModel) Loading() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.loading
}

// Latest returns the newest review across the catalog, or nil.
func (vm *ViewModel) Latest() *model.Review {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.latest == nil {
		return nil
	}
	rv := *vm.latest
	return &rv
}

// CanModify reports whether r belongs to the signed-in profile.
func (vm *ViewModel) CanModify(r model.Review) bool {
	p := vm.profiles.Profile()
	return p != nil && r.UserID != nil && *r.UserID == p.ID
}

// StartEdit puts r into edit mode.
func (vm *ViewModel) StartEdit(r model.Review) error {
	if !vm.CanModify(r) {
		return apperror.Forbidden("You can only edit your own reviews")
	}
	vm.mu.Lock()
	vm.editing = &r
	vm.mu.Unlock()
	return nil
}

func (vm *ViewModel) CancelEdit() {
	vm.mu.Lock()
	vm.editing = nil
	vm.mu.Unlock()
}

// Editing returns the review in edit mode, or nil.
func (vm *ViewModel) Editing() *model.Review {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.editing == nil {
		return nil
	}
	rv := *vm.editing
	return &rv
}

// SubmitReview validates d and then updates editing (when non-nil) or
// inserts a new review of the current movie authored by the signed-in
// profile.  Rejected drafts and missing profiles never reach the gateway.
// On success edit mode ends, both lists are refreshed and onDone runs.
// Every failure produces exactly one error notification.
func (vm *ViewModel) SubmitReview(ctx context.Context, d Draft, editing *model.Review, onDone func()) error {
	if err := d.Validate(); err != nil {
		vm.notify.Error(apperror.Message(err))
		return err
	}
	profile := vm.profiles.Profile()
	if profile == nil {
		err := apperror.Unauthenticated(MsgSignInRequired)
		vm.notify.Error(err.Message)
		return err
	}
	movieID := vm.MovieID()
	comment := strings.TrimSpace(d.Comment)

	var err error
	if editing != nil {
		_, err = vm.reviews.UpdateReview(ctx, editing.ID, model.ReviewUpdate{Rating: d.Rating, Comment: comment})
		movieID = editing.MovieID
	} else {
		if movieID == "" {
			err := apperror.ValidationFailed("movie_id", MsgMovieRequired)
			vm.notify.Error(err.Message)
			return err
		}
		uid := profile.ID
		_, err = vm.reviews.InsertReview(ctx, model.ReviewInput{MovieID: movieID, UserID: &uid, Rating: d.Rating, Comment: comment})
	}
	if err != nil {
		ui.Report(vm.notify, err, "Failed to submit review")
		return err
	}

	if editing != nil {
		vm.notify.Success("Review updated!")
	} else {
		vm.notify.Success("Review submitted successfully!")
	}
	vm.CancelEdit()
	vm.refresh(ctx, movieID)
	if onDone != nil {
		onDone()
	}
	return nil
}

// DeleteReview removes a review after confirmation and refreshes both
// lists.
func (vm *ViewModel) DeleteReview(ctx context.Context, id string) error {
	if !vm.confirm.Confirm(ctx, "Delete this review?") {
		return apperror.Cancelled("delete review")
	}
	if err := vm.reviews.DeleteReview(ctx, id); err != nil {
		ui.Report(vm.notify, err, "Failed to delete review")
		return err
	}
	vm.notify.Success("Review deleted")

	vm.mu.Lock()
	if vm.editing != nil && vm.editing.ID == id {
		vm.editing = nil
	}
	movieID := vm.movieID
	vm.mu.Unlock()

	vm.refresh(ctx, movieID)
	return nil
}

// refresh reloads the movie's reviews when it is still the current movie,
// then the latest review.
func (vm *ViewModel) refresh(ctx context.Context, movieID string) {
	if movieID != "" && movieID == vm.MovieID() {
		if err := vm.FetchReviews(ctx, movieID); err != nil {
			vm.log.Warn("refresh reviews", "err", err)
		}
	}
	if err := vm.FetchLatestReview(ctx); err != nil {
		vm.log.Warn("refresh latest review", "err", err)
	}
}
