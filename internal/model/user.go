package model

import "time"

// Profile represents an application user record as stored in the `users`
// table.  It is distinct from the authentication Identity: reviews
// reference profiles, while sign-in operates on accounts.
//
// Fields:
//
//	ID       – primary key identifier.
//	Username – unique display name.
//	Email    – unique email address; matches the account email when the
//	           profile was created by sign-up.
type Profile struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfileInput is the insert payload for the `users` table.
type ProfileInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Account models a row in the `accounts` table: the credentials behind an
// Identity.  It never leaves the backend.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
