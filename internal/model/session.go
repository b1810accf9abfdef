package model

import "time"

// Identity is the raw authentication identity carried by a session.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Session is the result of a successful sign-in or refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Identity  `json:"user"`
}

// Expired reports whether the access token is expired at t, with a small
// margin so that a token is never sent moments before it lapses.
func (s *Session) Expired(t time.Time) bool {
	if s == nil {
		return true
	}
	return !t.Add(30 * time.Second).Before(s.ExpiresAt)
}

// AuthEvent names a change in authentication state.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)
