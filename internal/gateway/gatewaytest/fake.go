// Package gatewaytest provides an in-memory gateway.Gateway for tests and
// offline demos.  It keeps the same ordering, join and cascade rules as the
// real backend and lets tests inject failures, count calls and hold a call
// open to reproduce races.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
)

// Operation names accepted by Calls and FailNext.
const (
	OpListMovies   = "ListMovies"
	OpGetMovie     = "GetMovie"
	OpInsertMovie  = "InsertMovie"
	OpUpdateMovie  = "UpdateMovie"
	OpDeleteMovie  = "DeleteMovie"
	OpListReviews  = "ListReviews"
	OpLatestReview = "LatestReview"
	OpInsertReview = "InsertReview"
	OpUpdateReview = "UpdateReview"
	OpDeleteReview = "DeleteReview"
	OpFindUser     = "FindUser"
	OpInsertUser   = "InsertUser"
	OpSignUp       = "SignUp"
	OpSignIn       = "SignInWithPassword"
	OpSignOut      = "SignOut"
	OpGetSession   = "GetSession"
)

type account struct {
	identity model.Identity
	password string
}

// Fake is an in-memory gateway.  The zero value is not usable; call New.
type Fake struct {
	// BeforeListReviews, when set, runs at the start of ListReviews outside
	// the lock.  Blocking in it holds that call open.
	BeforeListReviews func(ctx context.Context, movieID string)

	mu        sync.Mutex
	movies    map[string]model.Movie
	reviews   map[string]model.Review
	users     map[string]model.Profile
	accounts  map[string]account
	session   *model.Session
	listeners map[int]gateway.AuthListener
	nextSub   int
	calls     map[string]int
	failures  map[string][]error
	clock     time.Time
}

var _ gateway.Gateway = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		movies:    map[string]model.Movie{},
		reviews:   map[string]model.Review{},
		users:     map[string]model.Profile{},
		accounts:  map[string]account{},
		listeners: map[int]gateway.AuthListener{},
		calls:     map[string]int{},
		failures:  map[string][]error{},
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Calls returns how many times op has been invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FailNext makes the next call of op return err.  Calls queue up.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	f.failures[op] = append(f.failures[op], err)
	f.mu.Unlock()
}

// enter counts a call and pops an injected failure.  f.mu must be held.
func (f *Fake) enter(op string) error {
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		f.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

// tick returns a strictly increasing timestamp.  f.mu must be held.
func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func notFound(what string) error {
	return &gateway.Error{Status: 404, Message: fmt.Sprintf("%s not found", what)}
}

// ----- seeding helpers -----

// AddMovie stores a movie directly, bypassing counters.
func (f *Fake) AddMovie(title string) model.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := model.Movie{ID: uuid.NewString(), Title: title, CreatedAt: f.tick()}
	f.movies[m.ID] = m
	return m
}

// AddProfile stores a profile directly.
func (f *Fake) AddProfile(username, email string) model.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := model.Profile{ID: uuid.NewString(), Username: username, Email: strings.ToLower(email)}
	f.users[p.ID] = p
	return p
}

// AddReview stores a review directly.
func (f *Fake) AddReview(movieID string, userID *string, rating int, comment string) model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv := model.Review{ID: uuid.NewString(), MovieID: movieID, UserID: userID, Rating: rating, Comment: comment, CreatedAt: f.tick()}
	f.reviews[rv.ID] = rv
	return rv
}

// ReviewCount returns the number of stored reviews of a movie.
func (f *Fake) ReviewCount(movieID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rv := range f.reviews {
		if rv.MovieID == movieID {
			n++
		}
	}
	return n
}

// ----- movies -----

func (f *Fake) ListMovies(context.Context) ([]model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListMovies); err != nil {
		return nil, err
	}
	out := make([]model.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *Fake) GetMovie(_ context.Context, id string) (*model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetMovie); err != nil {
		return nil, err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, notFound("movie")
	}
	return &m, nil
}

func (f *Fake) InsertMovie(_ context.Context, in model.MovieInput) (*model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpInsertMovie); err != nil {
		return nil, err
	}
	m := model.Movie{ID: uuid.NewString(), Title: in.Title, Genre: in.Genre, ReleaseYear: in.ReleaseYear, PosterURL: in.PosterURL, CreatedAt: f.tick()}
	f.movies[m.ID] = m
	return &m, nil
}

func (f *Fake) UpdateMovie(_ context.Context, id string, in model.MovieInput) (*model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpUpdateMovie); err != nil {
		return nil, err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, notFound("movie")
	}
	m.Title, m.Genre, m.ReleaseYear, m.PosterURL = in.Title, in.Genre, in.ReleaseYear, in.PosterURL
	f.movies[id] = m
	return &m, nil
}

// DeleteMovie removes the movie and its reviews.
func (f *Fake) DeleteMovie(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpDeleteMovie); err != nil {
		return err
	}
	if _, ok := f.movies[id]; !ok {
		return notFound("movie")
	}
	delete(f.movies, id)
	for rid, rv := range f.reviews {
		if rv.MovieID == id {
			delete(f.reviews, rid)
		}
	}
	return nil
}

// ----- reviews -----

// joined returns rv with author (and optionally movie title) filled in.
// f.mu must be held.
func (f *Fake) joined(rv model.Review, withTitle bool) model.Review {
	if rv.UserID != nil {
		if p, ok := f.users[*rv.UserID]; ok {
			rv.Author = &model.ReviewAuthor{Username: p.Username, Email: p.Email}
		}
	}
	if withTitle {
		rv.MovieTitle = f.movies[rv.MovieID].Title
	}
	return rv
}

func newestFirst(rs []model.Review) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
}

func (f *Fake) ListReviews(ctx context.Context, movieID string) ([]model.Review, error) {
	if hook := f.BeforeListReviews; hook != nil {
		hook(ctx, movieID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListReviews); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := f.movies[movieID]; !ok {
		return nil, notFound("movie")
	}
	out := []model.Review{}
	for _, rv := range f.reviews {
		if rv.MovieID == movieID {
			out = append(out, f.joined(rv, false))
		}
	}
	newestFirst(out)
	return out, nil
}

func (f *Fake) LatestReview(context.Context) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpLatestReview); err != nil {
		return nil, err
	}
	var latest *model.Review
	for _, rv := range f.reviews {
		if latest == nil || rv.CreatedAt.After(latest.CreatedAt) {
			j := f.joined(rv, true)
			latest = &j
		}
	}
	return latest, nil
}

func (f *Fake) InsertReview(_ context.Context, in model.ReviewInput) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpInsertReview); err != nil {
		return nil, err
	}
	if _, ok := f.movies[in.MovieID]; !ok {
		return nil, notFound("movie")
	}
	if in.UserID != nil {
		if _, ok := f.users[*in.UserID]; !ok {
			return nil, &gateway.Error{Status: 403, Message: "cannot write a review as another user"}
		}
	}
	rv := model.Review{ID: uuid.NewString(), MovieID: in.MovieID, UserID: in.UserID, Rating: in.Rating, Comment: in.Comment, CreatedAt: f.tick()}
	f.reviews[rv.ID] = rv
	return &rv, nil
}

func (f *Fake) UpdateReview(_ context.Context, id string, upd model.ReviewUpdate) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpUpdateReview); err != nil {
		return nil, err
	}
	rv, ok := f.reviews[id]
	if !ok {
		return nil, notFound("review")
	}
	rv.Rating, rv.Comment = upd.Rating, upd.Comment
	f.reviews[id] = rv
	j := f.joined(rv, false)
	return &j, nil
}

func (f *Fake) DeleteReview(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpDeleteReview); err != nil {
		return err
	}
	if _, ok := f.reviews[id]; !ok {
		return notFound("review")
	}
	delete(f.reviews, id)
	return nil
}

// ----- users -----

func (f *Fake) findUser(match func(model.Profile) bool) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpFindUser); err != nil {
		return nil, err
	}
	for _, p := range f.users {
		if match(p) {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *Fake) FindUserByUsername(_ context.Context, username string) (*model.Profile, error) {
	return f.findUser(func(p model.Profile) bool { return p.Username == username })
}

func (f *Fake) FindUserByEmail(_ context.Context, email string) (*model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return f.findUser(func(p model.Profile) bool { return p.Email == email })
}

func (f *Fake) InsertUser(_ context.Context, in model.ProfileInput) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpInsertUser); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	for _, p := range f.users {
		if p.Username == in.Username || p.Email == email {
			return nil, &gateway.Error{Status: 409, Message: "username or email already exists"}
		}
	}
	p := model.Profile{ID: uuid.NewString(), Username: in.Username, Email: email}
	f.users[p.ID] = p
	return &p, nil
}
