package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/model"
	"github.com/iliyamo/cinereviews/internal/utils"
)

// AccountRepo manages sign-in credentials in the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

var ErrAccountNotFound = errors.New("account not found")

// Register creates an account and, in the same transaction, the matching
// profile.  A profile that already carries the email is reused so that
// profiles created through the users endpoint can later sign up.
func (r *AccountRepo) Register(ctx context.Context, email, username, password string, cost int) (acc *model.Account, err error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	acc = &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO accounts (id, email, username, password_hash, created_at) VALUES (?,?,?,?,?)",
		acc.ID, acc.Email, acc.Username, acc.PasswordHash, acc.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	var existing string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email=? LIMIT 1", email).Scan(&existing)
	switch {
	case err == nil:
		return acc, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	if _, err = insertProfile(ctx, tx, model.ProfileInput{Username: username, Email: email}); err != nil {
		return nil, err
	}
	return acc, nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getBy(ctx, "email", normalizeEmail(email))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *AccountRepo) getBy(ctx context.Context, column, value string) (*model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, username, password_hash, created_at FROM accounts WHERE "+column+"=? LIMIT 1",
		value).Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
