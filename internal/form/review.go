package form

import (
	"context"

	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/reviews"
)

// ReviewForm collects a rating and comment for the selected movie and hands
// them to the reviews view-model, which validates and saves them.
type ReviewForm struct {
	Rating     int
	Comment    string
	Submitting bool

	// OnSuccess runs after the review is saved and the lists refreshed.
	OnSuccess func()

	vm *reviews.ViewModel
}

func NewReviewForm(vm *reviews.ViewModel) *ReviewForm {
	return &ReviewForm{vm: vm}
}

// Edit loads r into the buffers and puts the view-model in edit mode.
func (f *ReviewForm) Edit(r model.Review) error {
	if err := f.vm.StartEdit(r); err != nil {
		return err
	}
	f.Rating, f.Comment = r.Rating, r.Comment
	return nil
}

// Cancel leaves edit mode and clears the buffers.
func (f *ReviewForm) Cancel() {
	f.vm.CancelEdit()
	f.Reset()
}

func (f *ReviewForm) Reset() {
	f.Rating, f.Comment = 0, ""
}

func (f *ReviewForm) Submit(ctx context.Context) error {
	f.Submitting = true
	defer func() { f.Submitting = false }()

	draft := reviews.Draft{Rating: f.Rating, Comment: f.Comment}
	return f.vm.SubmitReview(ctx, draft, f.vm.Editing(), func() {
		f.Reset()
		if f.OnSuccess != nil {
			f.OnSuccess()
		}
	})
}
