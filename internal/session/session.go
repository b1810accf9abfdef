// Package session owns the authentication state of the client: the current
// session and identity, the loading flag, and the profile resolved for the
// identity's email.  Construct one Manager per application and pass it to
// whatever needs to know who is signed in.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iliyamo/cinereviews/internal/gateway"
	"github.com/iliyamo/cinereviews/internal/model"
)

// State is a snapshot of the manager.
type State struct {
	Session *model.Session
	User    *model.Identity
	Profile *model.Profile
	Loading bool
}

// Manager tracks the authentication state reported by a gateway.Auth.
type Manager struct {
	auth  gateway.Auth
	users gateway.Users
	log   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	notifyMu sync.Mutex // serializes deliveries so observers see states in order

	mu        sync.Mutex
	state     State
	gen       uint64 // bumped on every identity change; fences profile lookups
	sub       gateway.Subscription
	observers map[int]func(State)
	nextObs   int
	closed    bool
}

// New returns a Manager in the loading state.  Call Start to begin
// tracking.
func New(auth gateway.Auth, users gateway.Users, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		auth:      auth,
		users:     users,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		state:     State{Loading: true},
		observers: map[int]func(State){},
	}
}

// Start subscribes to auth state changes and then reads the current
// session.  Subscribing first means a change that lands between the two
// calls is not lost.  A failed snapshot still clears the loading flag.
func (m *Manager) Start(ctx context.Context) error {
	sub := m.auth.OnAuthStateChange(func(_ model.AuthEvent, s *model.Session) {
		m.apply(s)
	})
	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()

	s, err := m.auth.GetSession(ctx)
	if err != nil {
		m.log.Warn("session snapshot failed", "err", err)
		m.apply(nil)
		return err
	}
	m.apply(s)
	return nil
}

// apply installs s synchronously and schedules the profile lookup.
func (m *Manager) apply(s *model.Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.state.Session = s
	m.state.Loading = false

	var email string
	if s == nil {
		m.state.User = nil
		m.state.Profile = nil
	} else {
		u := s.User
		m.state.User = &u
		email = u.Email
		// keep a profile that still belongs to this identity so a token
		// refresh does not blank it while the lookup runs
		if p := m.state.Profile; p == nil || p.Email != email {
			m.state.Profile = nil
		}
	}
	if email != "" {
		m.wg.Add(1)
	}
	m.mu.Unlock()

	m.notify()
	if email != "" {
		go m.resolveProfile(gen, email)
	}
}

// resolveProfile looks the profile up by email.  Errors count as "no
// profile".  A result for a superseded identity is dropped.
func (m *Manager) resolveProfile(gen uint64, email string) {
	defer m.wg.Done()

	p, err := m.users.FindUserByEmail(m.ctx, email)
	if err != nil {
		m.log.Debug("profile lookup failed", "email", email, "err", err)
		p = nil
	}

	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.state.Profile = p
	m.mu.Unlock()

	m.notify()
}

// SignOut ends the remote session, then clears local state whatever the
// outcome.  The remote error, if any, is returned.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.auth.SignOut(ctx)
	if err != nil {
		m.log.Warn("remote sign-out failed", "err", err)
	}

	m.mu.Lock()
	m.gen++
	m.state = State{}
	m.mu.Unlock()

	m.notify()
	return err
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Profile() *model.Profile { return m.State().Profile }
func (m *Manager) User() *model.Identity   { return m.State().User }
func (m *Manager) Session() *model.Session { return m.State().Session }
func (m *Manager) Loading() bool           { return m.State().Loading }

// Subscribe registers fn to run after every state change.  Deliveries are
// serialized; fn must not sign out or otherwise change the state itself.
// The returned function removes it.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// notify delivers the current state, not a copy taken earlier, so a
// delivery that loses a race with a newer change still reports the newer
// state.
func (m *Manager) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	s := m.state
	fns := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Wait blocks until every pending profile lookup has finished.
func (m *Manager) Wait() { m.wg.Wait() }

// Close unsubscribes from the gateway and abandons pending lookups.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sub := m.sub
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	m.cancel()
	m.wg.Wait()
}
