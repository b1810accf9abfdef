package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/model"
)

// UserRepo reads and writes profiles in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUserNotFound   = errors.New("user not found")
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a profile and returns it.
func (r *UserRepo) Create(ctx context.Context, in model.ProfileInput) (*model.Profile, error) {
	return insertProfile(ctx, r.DB, in)
}

func insertProfile(ctx context.Context, x execer, in model.ProfileInput) (*model.Profile, error) {
	p := &model.Profile{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(in.Username),
		Email:    normalizeEmail(in.Email),
	}
	_, err := x.ExecContext(ctx,
		"INSERT INTO users (id, username, email, created_at) VALUES (?,?,?,?)",
		p.ID, p.Username, p.Email, time.Now().UTC())
	if err != nil {
		switch {
		case duplicateOn(err, "email"):
			return nil, ErrEmailExists
		case duplicateOn(err, "username"):
			return nil, ErrUsernameExists
		case isDuplicate(err):
			return nil, ErrConflict
		}
		return nil, err
	}
	return p, nil
}

// GetByEmail fetches a profile by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.getBy(ctx, "email", normalizeEmail(email))
}

// GetByUsername fetches a profile by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return r.getBy(ctx, "username", username)
}

// GetByID fetches a profile by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.getBy(ctx, "id", id)
}

// getBy is only called with the fixed column names above.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, email FROM users WHERE "+column+"=? LIMIT 1",
		value).Scan(&p.ID, &p.Username, &p.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}
