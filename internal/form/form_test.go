package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway/gatewaytest"
	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/reviews"
	"github.com/iliyamo/cinereviews/internal/ui"
)

func TestMovieForm_Validation(t *testing.T) {
	tests := []struct {
		name   string
		form   MovieForm
		want   string
		wantOK bool
	}{
		{name: "title required", form: MovieForm{Title: "  "}, want: MsgTitleRequired},
		{name: "year not a number", form: MovieForm{Title: "Nova", ReleaseYear: "soon"}, want: MsgInvalidYear},
		{name: "year 1799", form: MovieForm{Title: "Nova", ReleaseYear: "1799"}, want: MsgInvalidYear},
		{name: "year 2101", form: MovieForm{Title: "Nova", ReleaseYear: "2101"}, want: MsgInvalidYear},
		{name: "relative poster", form: MovieForm{Title: "Nova", PosterURL: "poster.jpg"}, want: MsgInvalidPoster},
		{name: "bounds accepted", form: MovieForm{Title: "Nova", ReleaseYear: "1800"}, wantOK: true},
		{name: "upper bound accepted", form: MovieForm{Title: "Nova", ReleaseYear: "2100", PosterURL: "https://img.example.com/n.jpg"}, wantOK: true},
		{name: "year optional", form: MovieForm{Title: "Nova"}, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Input()
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.want, apperror.Message(err))
		})
	}
}

func TestMovieForm_InsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	rec := &ui.Recorder{}
	mf := NewMovieForm(f, rec)
	reloads := 0
	mf.OnSuccess = func(context.Context) { reloads++ }

	mf.Title, mf.Genre, mf.ReleaseYear = " Nova ", "Sci-Fi", "2031"
	saved, err := mf.Submit(ctx)
	require.NoError(t, err)

	got, err := f.GetMovie(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Title)
	require.NotNil(t, got.ReleaseYear)
	assert.Equal(t, 2031, *got.ReleaseYear)
	require.NotNil(t, got.Genre)
	assert.Equal(t, "Sci-Fi", *got.Genre)
	assert.Nil(t, got.PosterURL)

	assert.Equal(t, 1, reloads)
	assert.Equal(t, []string{"Movie added!"}, rec.Successes())
	assert.Empty(t, mf.Title)
	assert.False(t, mf.Submitting)
}

func TestMovieForm_EditUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	m := f.AddMovie("Alein")
	rec := &ui.Recorder{}
	mf := NewMovieForm(f, rec)

	mf.Load(m)
	assert.Equal(t, m.ID, mf.Editing())
	mf.Title = "Alien"
	_, err := mf.Submit(ctx)
	require.NoError(t, err)

	all, err := f.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alien", all[0].Title)
	assert.Equal(t, m.ID, all[0].ID)
	assert.Empty(t, mf.Editing())
	assert.Equal(t, []string{"Movie updated!"}, rec.Successes())
}

func TestMovieForm_FailuresNotifyOnce(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	rec := &ui.Recorder{}
	mf := NewMovieForm(f, rec)

	mf.ReleaseYear = "1799"
	_, err := mf.Submit(ctx)
	assert.Error(t, err)
	assert.Zero(t, f.Calls(gatewaytest.OpInsertMovie))

	mf.Title, mf.ReleaseYear = "Nova", ""
	f.FailNext(gatewaytest.OpInsertMovie, errors.New("JWT expired"))
	_, err = mf.Submit(ctx)
	assert.Error(t, err)

	assert.Equal(t, []string{MsgTitleRequired, "JWT expired"}, rec.Errors())
	assert.Equal(t, "Nova", mf.Title, "buffers survive a failed save")
	assert.False(t, mf.Submitting)
}

type profileOf struct{ p *model.Profile }

func (s profileOf) Profile() *model.Profile { return s.p }

func TestReviewForm_SubmitAndEdit(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	movie := f.AddMovie("Alien")
	ann := f.AddProfile("ann", "ann@example.com")
	rec := &ui.Recorder{}
	vm := reviews.New(f, profileOf{&ann}, ui.Always, rec, nil)
	require.NoError(t, vm.SetMovie(ctx, movie.ID))

	rf := NewReviewForm(vm)
	done := 0
	rf.OnSuccess = func() { done++ }

	require.Error(t, rf.Submit(ctx))
	assert.Zero(t, f.Calls(gatewaytest.OpInsertReview))

	rf.Rating, rf.Comment = 4, "tense"
	require.NoError(t, rf.Submit(ctx))
	assert.Equal(t, 1, done)
	assert.Zero(t, rf.Rating)
	assert.Empty(t, rf.Comment)

	posted := vm.Reviews()
	require.Len(t, posted, 1)
	require.NoError(t, rf.Edit(posted[0]))
	assert.Equal(t, 4, rf.Rating)
	rf.Rating = 5
	require.NoError(t, rf.Submit(ctx))

	after := vm.Reviews()
	require.Len(t, after, 1)
	assert.Equal(t, posted[0].ID, after[0].ID)
	assert.Equal(t, 5, after[0].Rating)
	assert.False(t, rf.Submitting)
}

func TestReviewForm_CancelLeavesEditMode(t *testing.T) {
	f := gatewaytest.New()
	movie := f.AddMovie("Alien")
	ann := f.AddProfile("ann", "ann@example.com")
	rv := f.AddReview(movie.ID, &ann.ID, 3, "ok")
	vm := reviews.New(f, profileOf{&ann}, ui.Always, &ui.Recorder{}, nil)

	rf := NewReviewForm(vm)
	require.NoError(t, rf.Edit(rv))
	rf.Cancel()
	assert.Nil(t, vm.Editing())
	assert.Zero(t, rf.Rating)
}

func TestAuthForm_Validation(t *testing.T) {
	tests := []struct {
		name string
		form AuthForm
		want string
	}{
		{"missing email", AuthForm{Password: "secret1"}, MsgCredentialsRequired},
		{"missing password", AuthForm{Email: "a@b.co"}, MsgCredentialsRequired},
		{"bad email", AuthForm{Email: "nope", Password: "secret1"}, MsgInvalidEmail},
		{"short password", AuthForm{Email: "a@b.co", Password: "12345"}, MsgPasswordTooShort},
		{"signup needs username", AuthForm{Mode: ModeSignUp, Email: "a@b.co", Password: "secret1"}, MsgUsernameRequired},
		{"blank password", AuthForm{Mode: ModeSignUp, Email: "a@b.co", Password: "      ", Username: "ann"}, MsgCredentialsRequired},
		{"blank password sign-in", AuthForm{Email: "a@b.co", Password: " \t  \n  "}, MsgCredentialsRequired},
		{"username before length", AuthForm{Mode: ModeSignUp, Email: "a@b.co", Password: "123"}, MsgUsernameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := gatewaytest.New()
			rec := &ui.Recorder{}
			form := tt.form
			form.auth, form.notify = f, rec

			_, err := form.Submit(context.Background())
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, []string{tt.want}, rec.Errors())
			assert.Zero(t, f.Calls(gatewaytest.OpSignIn)+f.Calls(gatewaytest.OpSignUp))
		})
	}

	signIn := AuthForm{Email: "a@b.co", Password: "secret1"}
	assert.NoError(t, signIn.validate(), "username is only needed for sign-up")
}

func TestAuthForm_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	rec := &ui.Recorder{}
	form := NewAuthForm(f, rec)

	form.Toggle()
	require.Equal(t, ModeSignUp, form.Mode)
	form.Email, form.Password, form.Username = "ann@example.com", "hunter22", "ann"
	s, err := form.Submit(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, ModeSignIn, form.Mode)

	form.Password = "hunter22"
	s, err = form.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ann@example.com", s.User.Email)
	assert.Equal(t, []string{"Account created! You can now log in.", "Welcome back!"}, rec.Successes())
	assert.False(t, form.Submitting)
}

func TestAuthForm_DuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	require.NoError(t, f.SignUp(ctx, "ann@example.com", "hunter22", "ann"))
	rec := &ui.Recorder{}

	form := NewAuthForm(f, rec)
	form.Mode = ModeSignUp
	form.Email, form.Password, form.Username = "ann@example.com", "another1", "ann2"
	_, err := form.Submit(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{MsgAlreadyRegistered}, rec.Errors())
	assert.Equal(t, ModeSignUp, form.Mode)
}

func TestAuthForm_TakenUsernameShownVerbatim(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	require.NoError(t, f.SignUp(ctx, "ann@example.com", "hunter22", "ann"))
	rec := &ui.Recorder{}

	form := NewAuthForm(f, rec)
	form.Mode = ModeSignUp
	form.Email, form.Password, form.Username = "bob@example.com", "hunter22", "ann"
	_, err := form.Submit(ctx)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, []string{"Username already taken"}, rec.Errors())
	assert.Equal(t, ModeSignUp, form.Mode)
}

func TestAuthForm_BadCredentialsVerbatim(t *testing.T) {
	ctx := context.Background()
	f := gatewaytest.New()
	rec := &ui.Recorder{}
	form := NewAuthForm(f, rec)
	form.Email, form.Password = "ghost@example.com", "whatever"

	_, err := form.Submit(ctx)
	assert.Error(t, err)
	assert.Equal(t, []string{"Invalid login credentials"}, rec.Errors())
}
