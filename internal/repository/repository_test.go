package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereviews/internal/database"
	"github.com/iliyamo/cinereviews/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return db
}

func ptr[T any](v T) *T { return &v }

func mustMovie(t *testing.T, repo *MovieRepo, title string) *model.Movie {
	t.Helper()
	m, err := repo.Create(context.Background(), model.MovieInput{Title: title})
	require.NoError(t, err)
	return m
}

func mustReview(t *testing.T, repo *ReviewRepo, movieID string, userID *string, rating int, comment string) *model.Review {
	t.Helper()
	// keep created_at strictly increasing between inserts
	time.Sleep(2 * time.Millisecond)
	rv, err := repo.Create(context.Background(), model.ReviewInput{MovieID: movieID, UserID: userID, Rating: rating, Comment: comment})
	require.NoError(t, err)
	return rv
}

func TestMovieRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMovieRepo(openTestDB(t))

	created, err := repo.Create(ctx, model.MovieInput{
		Title:       "Nova",
		Genre:       ptr("Sci-Fi"),
		ReleaseYear: ptr(2031),
		PosterURL:   ptr("https://example.com/nova.jpg"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Title)
	require.NotNil(t, got.ReleaseYear)
	assert.Equal(t, 2031, *got.ReleaseYear)
	assert.Equal(t, "Sci-Fi", *got.Genre)
	assert.Equal(t, "https://example.com/nova.jpg", *got.PosterURL)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepo_ListAllOrdersByTitle(t *testing.T) {
	ctx := context.Background()
	repo := NewMovieRepo(openTestDB(t))
	for _, title := range []string{"zodiac", "Alien", "Brazil"} {
		mustMovie(t, repo, title)
	}

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Alien", "Brazil", "zodiac"}, []string{list[0].Title, list[1].Title, list[2].Title})

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMovieRepo_ListAllEmpty(t *testing.T) {
	list, err := NewMovieRepo(openTestDB(t)).ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMovieRepo_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMovieRepo(openTestDB(t))
	m := mustMovie(t, repo, "Nova")

	upd, err := repo.Update(ctx, m.ID, model.MovieInput{Title: "Nova Prime", ReleaseYear: ptr(2032)})
	require.NoError(t, err)
	assert.Equal(t, m.ID, upd.ID)
	assert.Equal(t, "Nova Prime", upd.Title)
	assert.Equal(t, 2032, *upd.ReleaseYear)
	assert.Nil(t, upd.Genre)

	// unchanged values still succeed
	_, err = repo.Update(ctx, m.ID, model.MovieInput{Title: "Nova Prime", ReleaseYear: ptr(2032)})
	assert.NoError(t, err)

	_, err = repo.Update(ctx, "missing", model.MovieInput{Title: "x"})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieRepo_DeleteCascadesReviews(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	movies, reviews := NewMovieRepo(db), NewReviewRepo(db)

	m := mustMovie(t, movies, "Nova")
	other := mustMovie(t, movies, "Other")
	mustReview(t, reviews, m.ID, nil, 4, "good")
	mustReview(t, reviews, m.ID, nil, 2, "meh")
	mustReview(t, reviews, other.ID, nil, 5, "great")

	require.NoError(t, movies.Delete(ctx, m.ID))

	n, err := reviews.CountByMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = reviews.CountByMovie(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, movies.Delete(ctx, m.ID), ErrMovieNotFound)
}

func TestReviewRepo_ListByMovieNewestFirstWithAuthor(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	movies, reviews, users := NewMovieRepo(db), NewReviewRepo(db), NewUserRepo(db)

	m := mustMovie(t, movies, "Nova")
	ann, err := users.Create(ctx, model.ProfileInput{Username: "ann", Email: "ann@example.com"})
	require.NoError(t, err)

	first := mustReview(t, reviews, m.ID, &ann.ID, 3, "first")
	second := mustReview(t, reviews, m.ID, nil, 5, "second")

	list, err := reviews.ListByMovie(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "Anonymous", list[0].AuthorName())
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "ann", list[1].AuthorName())
	assert.Empty(t, list[1].MovieTitle)
}

func TestReviewRepo_Latest(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	movies, reviews := NewMovieRepo(db), NewReviewRepo(db)

	_, err := reviews.Latest(ctx)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	a := mustMovie(t, movies, "Alien")
	b := mustMovie(t, movies, "Brazil")
	mustReview(t, reviews, a.ID, nil, 4, "old")
	newest := mustReview(t, reviews, b.ID, nil, 2, "new")

	got, err := reviews.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)
	assert.Equal(t, "Brazil", got.MovieTitle)
}

func TestReviewRepo_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	movies, reviews := NewMovieRepo(db), NewReviewRepo(db)

	m := mustMovie(t, movies, "Nova")
	rv := mustReview(t, reviews, m.ID, nil, 2, "meh")

	upd, err := reviews.Update(ctx, rv.ID, model.ReviewUpdate{Rating: 5, Comment: " actually great "})
	require.NoError(t, err)
	assert.Equal(t, rv.ID, upd.ID)
	assert.Equal(t, 5, upd.Rating)
	assert.Equal(t, "actually great", upd.Comment)
	assert.True(t, rv.CreatedAt.Equal(upd.CreatedAt))

	n, err := reviews.CountByMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = reviews.Update(ctx, "missing", model.ReviewUpdate{Rating: 1, Comment: "x"})
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewRepo_Delete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	movies, reviews := NewMovieRepo(db), NewReviewRepo(db)
	m := mustMovie(t, movies, "Nova")
	rv := mustReview(t, reviews, m.ID, nil, 4, "ok")

	require.NoError(t, reviews.Delete(ctx, rv.ID))
	_, err := reviews.GetByID(ctx, rv.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	assert.ErrorIs(t, reviews.Delete(ctx, rv.ID), ErrReviewNotFound)
}

func TestUserRepo_Lookups(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(openTestDB(t))

	p, err := users.Create(ctx, model.ProfileInput{Username: "ann", Email: " Ann@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", p.Email)

	got, err := users.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = users.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = users.Create(ctx, model.ProfileInput{Username: "ann", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = users.Create(ctx, model.ProfileInput{Username: "ann2", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAccountRepo_Register(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts, users := NewAccountRepo(db), NewUserRepo(db)

	acc, err := accounts.Register(ctx, "Ann@Example.com", "ann", "hunter22", 4)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", acc.Email)
	assert.NotEqual(t, "hunter22", acc.PasswordHash)

	p, err := users.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.Username)

	_, err = accounts.Register(ctx, "ann@example.com", "ann", "hunter22", 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := accounts.GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	_, err = accounts.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepo_RegisterReusesProfile(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts, users := NewAccountRepo(db), NewUserRepo(db)

	existing, err := users.Create(ctx, model.ProfileInput{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = accounts.Register(ctx, "bob@example.com", "bobby", "hunter22", 4)
	require.NoError(t, err)

	p, err := users.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, p.ID)
	assert.Equal(t, "bob", p.Username)
}

func TestAccountRepo_RegisterRollsBackOnTakenUsername(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	accounts, users := NewAccountRepo(db), NewUserRepo(db)

	_, err := users.Create(ctx, model.ProfileInput{Username: "ann", Email: "first@example.com"})
	require.NoError(t, err)

	_, err = accounts.Register(ctx, "second@example.com", "ann", "hunter22", 4)
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = accounts.GetByEmail(ctx, "second@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestTokenRepo(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	acc, err := NewAccountRepo(db).Register(ctx, "ann@example.com", "ann", "hunter22", 4)
	require.NoError(t, err)
	tokens := NewTokenRepo(db)

	require.NoError(t, tokens.StoreRefresh(ctx, acc.ID, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, acc.ID, "h2", time.Now().Add(-time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, acc.ID, "h3", time.Now().Add(time.Hour)))

	id, err := tokens.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id)

	_, err = tokens.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, tokens.RevokeByHash(ctx, "h1"))
	_, err = tokens.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, tokens.RevokeAllForAccount(ctx, acc.ID))
	_, err = tokens.ValidateRefresh(ctx, "h3")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
