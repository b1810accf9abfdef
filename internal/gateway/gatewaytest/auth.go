package gatewaytest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
)

// SignUp registers an account and creates its profile, like the backend.
func (f *Fake) SignUp(_ context.Context, email, password, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpSignUp); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := f.accounts[email]; ok {
		return &gateway.Error{Status: 409, Message: gateway.AlreadyRegistered}
	}
	for _, p := range f.users {
		if p.Username == username && p.Email != email {
			return &gateway.Error{Status: 409, Message: "Username already taken"}
		}
	}
	f.accounts[email] = account{
		identity: model.Identity{ID: uuid.NewString(), Email: email, Username: username},
		password: password,
	}
	for _, p := range f.users {
		if p.Email == email {
			return nil
		}
	}
	p := model.Profile{ID: uuid.NewString(), Username: username, Email: email}
	f.users[p.ID] = p
	return nil
}

// SignInWithPassword checks credentials and emits SIGNED_IN.
func (f *Fake) SignInWithPassword(_ context.Context, email, password string) (*model.Session, error) {
	f.mu.Lock()
	if err := f.enter(OpSignIn); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	acc, ok := f.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || acc.password != password {
		f.mu.Unlock()
		return nil, &gateway.Error{Status: 401, Message: "Invalid login credentials"}
	}
	s := &model.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         acc.identity,
	}
	f.session = s
	f.mu.Unlock()

	f.Emit(model.EventSignedIn, s)
	return s, nil
}

// SignOut clears the session and emits SIGNED_OUT even when a failure was
// injected.
func (f *Fake) SignOut(context.Context) error {
	f.mu.Lock()
	err := f.enter(OpSignOut)
	f.session = nil
	f.mu.Unlock()

	f.Emit(model.EventSignedOut, nil)
	return err
}

func (f *Fake) GetSession(context.Context) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetSession); err != nil {
		return nil, err
	}
	return f.session, nil
}

func (f *Fake) OnAuthStateChange(fn gateway.AuthListener) gateway.Subscription {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn
	f.mu.Unlock()
	return gateway.SubscriptionFunc(func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	})
}

// Listeners returns the number of registered auth listeners.
func (f *Fake) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// SetSession installs s without emitting an event, as if restored from a
// previous run.
func (f *Fake) SetSession(s *model.Session) {
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
}

// Emit delivers an auth event to every listener, outside the lock.
func (f *Fake) Emit(ev model.AuthEvent, s *model.Session) {
	f.mu.Lock()
	fns := make([]gateway.AuthListener, 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev, s)
	}
}
