// Package session owns the bearer credential lifecycle: login, signup,
// restore from durable storage, logout and forced expiry.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ayuushisaha/ai-twitter-bot/internal/core/domain"
	"github.com/ayuushisaha/ai-twitter-bot/internal/core/ports"
	"github.com/ayuushisaha/ai-twitter-bot/internal/gateway"
)

// ErrAuthRejected means the backend refused the credentials. The caller
// keeps its login form open; nothing else changes.
var ErrAuthRejected = errors.New("authentication rejected")

// Manager holds the current session. Token and username are set and
// cleared together; a partial pair is never observable, in memory or in
// the store.
type Manager struct {
	store ports.Store
	gw    *gateway.Client

	mu      sync.Mutex
	current domain.Session
	onReset []func()
}

func NewManager(store ports.Store, gw *gateway.Client) *Manager {
	return &Manager{store: store, gw: gw}
}

var _ gateway.TokenSource = (*Manager)(nil)

// OnReset registers a callback run after an explicit logout, so
// downstream consumers can drop per-user content.
func (m *Manager) OnReset(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReset = append(m.onReset, fn)
}

// Restore loads a persisted session at startup. A half-written pair is
// treated as absent and scrubbed.
func (m *Manager) Restore() error {
	sess, err := m.store.LoadSession()
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		if sess.Token != "" || sess.Username != "" {
			if err := m.store.ClearSession(); err != nil {
				return err
			}
		}
		return nil
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return nil
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Token
}

func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Username
}

func (m *Manager) Mode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Authenticated() {
		return domain.ModeAuthenticated
	}
	return domain.ModeAnonymous
}

func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.gw.Login(ctx, username, password)
	return m.adopt(domain.Session{Token: token, Username: username}, err)
}

func (m *Manager) Signup(ctx context.Context, username, password string) error {
	token, err := m.gw.Signup(ctx, username, password)
	return m.adopt(domain.Session{Token: token, Username: username}, err)
}

// adopt persists the new pair before exposing it in memory, so a failed
// write cannot leave memory and storage disagreeing.
func (m *Manager) adopt(sess domain.Session, err error) error {
	if err != nil {
		var remote *gateway.RemoteError
		if errors.Is(err, gateway.ErrUnauthorized) || errors.As(err, &remote) {
			return ErrAuthRejected
		}
		return err
	}
	if !sess.Authenticated() {
		return ErrAuthRejected
	}
	if err := m.store.SaveSession(sess); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return nil
}

// Logout clears the credential pair everywhere and resets downstream
// per-user state. Stale content must not survive a logout.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = domain.Session{}
	callbacks := make([]func(), len(m.onReset))
	copy(callbacks, m.onReset)
	m.mu.Unlock()

	if err := m.store.ClearSession(); err != nil {
		return err
	}
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// ForceAnonymous drops the credential after a 401 from any
// authenticated call. Idempotent, and unlike Logout it leaves draft
// content alone so nothing typed or generated is lost.
func (m *Manager) ForceAnonymous() {
	m.mu.Lock()
	wasAuthenticated := m.current.Authenticated()
	m.current = domain.Session{}
	m.mu.Unlock()

	if wasAuthenticated {
		// Best effort: an unclearable store still leaves memory anonymous.
		_ = m.store.ClearSession()
	}
}
