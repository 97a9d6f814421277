// Package session owns the dashboard login state: it shows the login
// window when a token is needed and keeps the stored token in step.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bubblecloud/bubblecloud-tray/internal/browser"
	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

// ErrNoURL is returned when a login is attempted before a dashboard URL
// has been configured.
var ErrNoURL = config.ErrMissingURL

// Authenticator shows a login page and returns the session token the
// dashboard issued. It returns browser.ErrWindowClosed when the user
// dismisses the page. ClearCookies forgets whatever the login page left
// behind.
type Authenticator interface {
	Login(ctx context.Context, loginURL string) (string, error)
	ClearCookies(ctx context.Context) error
}

// Store is the part of *config.Store the manager needs.
type Store interface {
	Snapshot() config.Config
	SetToken(token string) error
	ClearToken() error
}

// Manager serializes logins and publishes session changes.
type Manager struct {
	store  Store
	auth   Authenticator
	bus    *events.EventBus
	logger *logging.Logger

	loginMu sync.Mutex
}

// NewManager creates a session manager. bus may be nil.
func NewManager(store Store, auth Authenticator, bus *events.EventBus, logger *logging.Logger) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		bus:    bus,
		logger: logger,
	}
}

// Authenticated reports whether a session token is stored.
func (m *Manager) Authenticated() bool {
	return m.store.Snapshot().Authenticated()
}

// Snapshot returns the current URL and token.
func (m *Manager) Snapshot() config.Config {
	return m.store.Snapshot()
}

// Routes returns the dashboard routes for the configured URL.
func (m *Manager) Routes() (dashboard.Routes, error) {
	cfg := m.store.Snapshot()
	if cfg.URL == "" {
		return dashboard.Routes{}, ErrNoURL
	}
	return dashboard.Routes{Base: cfg.URL}, nil
}

// EnsureLoggedIn returns true when a token is stored, and otherwise shows
// the login window. A dismissed window yields false with no error.
func (m *Manager) EnsureLoggedIn(ctx context.Context) (bool, error) {
	if m.Authenticated() {
		return true, nil
	}
	return m.Login(ctx)
}

// Login shows the login window at {url}/login and stores the captured
// token. A dismissed window yields false with no error.
func (m *Manager) Login(ctx context.Context) (bool, error) {
	m.loginMu.Lock()
	defer m.loginMu.Unlock()

	routes, err := m.Routes()
	if err != nil {
		return false, err
	}

	token, err := m.auth.Login(ctx, routes.LoginURL())
	if errors.Is(err, browser.ErrWindowClosed) {
		m.logger.Info().Msg("Login cancelled")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login failed: %w", err)
	}
	if token == "" {
		return false, fmt.Errorf("login failed: dashboard issued an empty session token")
	}

	// A failed save is logged by the store; the in-memory token still
	// serves this run.
	_ = m.store.SetToken(token)
	m.logger.Info().Str("url", routes.Base).Msg("Authenticated")
	m.bus.PublishSession(true, routes.Base)
	return true, nil
}

// Relogin drops the stored token and shows the login window again.
func (m *Manager) Relogin(ctx context.Context) (bool, error) {
	m.logger.Info().Msg("Session expired, logging in again")
	m.clear()
	return m.Login(ctx)
}

// Logout drops the stored token and the login window's cookies, so the
// next login asks for credentials again. The token is gone even when the
// cookies could not be cleared.
func (m *Manager) Logout(ctx context.Context) error {
	m.logger.Info().Msg("Logged out")
	m.clear()

	if err := m.auth.ClearCookies(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear browser cookies")
		return fmt.Errorf("failed to clear browser cookies: %w", err)
	}
	return nil
}

func (m *Manager) clear() {
	_ = m.store.ClearToken()
	m.bus.PublishSession(false, m.store.Snapshot().URL)
}
