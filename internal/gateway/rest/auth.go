package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/cinereviews/internal/apperror"
	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
)

type signUpReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUp registers an account.  It does not sign in.
func (c *Client) SignUp(ctx context.Context, email, password, username string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/signup", "", signUpReq{Email: email, Password: password, Username: username}, nil)
}

// SignInWithPassword exchanges credentials for a session and notifies
// listeners with SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	var s model.Session
	if err := c.do(ctx, http.MethodPost, "/v1/auth/token", "", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, ErrNoResult
	}
	c.setSession(&s)
	c.emit(model.EventSignedIn, &s)
	return &s, nil
}

// SignOut revokes the refresh token on the server.  The local session is
// cleared and SIGNED_OUT emitted whatever the server answers.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	var err error
	if s != nil {
		err = c.do(ctx, http.MethodPost, "/v1/auth/logout", s.AccessToken, refreshReq{RefreshToken: s.RefreshToken}, nil)
	}
	c.emit(model.EventSignedOut, nil)
	return err
}

// GetSession returns the in-memory session, refreshing it first when the
// access token has expired.  A rejected refresh token signs the client out.
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.now()) {
		return s, nil
	}

	var fresh model.Session
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", "", refreshReq{RefreshToken: s.RefreshToken}, &fresh)
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		c.clearSession(s)
		c.emit(model.EventSignedOut, nil)
		return nil, nil
	case err != nil:
		return nil, err
	}
	// a concurrent sign-out or sign-in wins over this refresh
	if !c.replaceSession(s, &fresh) {
		return c.current(), nil
	}
	c.emit(model.EventTokenRefreshed, &fresh)
	return &fresh, nil
}

// OnAuthStateChange registers fn for every later auth event.
func (c *Client) OnAuthStateChange(fn gateway.AuthListener) gateway.Subscription {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return gateway.SubscriptionFunc(func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	})
}

func (c *Client) current() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s *model.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) clearSession(old *model.Session) {
	c.mu.Lock()
	if c.session == old {
		c.session = nil
	}
	c.mu.Unlock()
}

func (c *Client) replaceSession(old, fresh *model.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != old {
		return false
	}
	c.session = fresh
	return true
}

// emit calls listeners outside the lock so they may call back into c.
func (c *Client) emit(ev model.AuthEvent, s *model.Session) {
	c.mu.Lock()
	fns := make([]gateway.AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev, s)
	}
}
