package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bubblecloud/bubblecloud-tray/internal/browser"
	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

type fakeAuth struct {
	token  string
	err    error
	calls  int
	gotURL string

	clearErr   error
	clearCalls int
}

func (f *fakeAuth) Login(_ context.Context, loginURL string) (string, error) {
	f.calls++
	f.gotURL = loginURL
	return f.token, f.err
}

func (f *fakeAuth) ClearCookies(context.Context) error {
	f.clearCalls++
	return f.clearErr
}

func newStore(t *testing.T, cfg config.Config) *config.Store {
	t.Helper()
	s := config.Open(filepath.Join(t.TempDir(), "config.json"), zerolog.Nop())
	if cfg.URL != "" {
		if err := s.SetURL(cfg.URL); err != nil {
			t.Fatal(err)
		}
	}
	if cfg.AuthToken != "" {
		if err := s.SetToken(cfg.AuthToken); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestEnsureLoggedIn_TokenPresentSkipsLogin(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager(newStore(t, config.Config{URL: "https://d.example.com", AuthToken: "tok"}), auth, nil, logging.Nop())

	ok, err := m.EnsureLoggedIn(context.Background())
	if !ok || err != nil {
		t.Fatalf("EnsureLoggedIn = (%v, %v), want (true, nil)", ok, err)
	}
	if auth.calls != 0 {
		t.Errorf("login window shown %d times, want 0", auth.calls)
	}
}

func TestLogin_StoresTokenAndPublishes(t *testing.T) {
	bus := events.NewEventBus(4)
	defer bus.Close()
	sessions := bus.Subscribe(events.EventSessionChanged)

	store := newStore(t, config.Config{URL: "https://d.example.com"})
	auth := &fakeAuth{token: "fresh"}
	m := NewManager(store, auth, bus, logging.Nop())

	ok, err := m.EnsureLoggedIn(context.Background())
	if !ok || err != nil {
		t.Fatalf("EnsureLoggedIn = (%v, %v)", ok, err)
	}
	if auth.gotURL != "https://d.example.com/login" {
		t.Errorf("login URL = %q", auth.gotURL)
	}

	// Persisted, not just in memory.
	cfg, err := config.Load(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuthToken != "fresh" {
		t.Errorf("stored token = %q, want fresh", cfg.AuthToken)
	}

	select {
	case ev := <-sessions:
		if !ev.(*events.SessionEvent).Authenticated {
			t.Error("session event should report authenticated")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no session event")
	}
}

func TestLogin_WindowClosedIsNotAnError(t *testing.T) {
	store := newStore(t, config.Config{URL: "https://d.example.com"})
	m := NewManager(store, &fakeAuth{err: browser.ErrWindowClosed}, nil, logging.Nop())

	ok, err := m.Login(context.Background())
	if ok || err != nil {
		t.Errorf("Login = (%v, %v), want (false, nil)", ok, err)
	}
	if m.Authenticated() {
		t.Error("should not be authenticated")
	}
}

func TestLogin_Errors(t *testing.T) {
	t.Run("no url", func(t *testing.T) {
		auth := &fakeAuth{token: "x"}
		m := NewManager(newStore(t, config.Config{}), auth, nil, logging.Nop())
		if _, err := m.Login(context.Background()); !errors.Is(err, ErrNoURL) {
			t.Errorf("err = %v, want ErrNoURL", err)
		}
		if auth.calls != 0 {
			t.Error("login window shown without a URL")
		}
	})

	t.Run("browser failure", func(t *testing.T) {
		boom := errors.New("chrome not found")
		m := NewManager(newStore(t, config.Config{URL: "https://d.example.com"}), &fakeAuth{err: boom}, nil, logging.Nop())
		if _, err := m.Login(context.Background()); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		m := NewManager(newStore(t, config.Config{URL: "https://d.example.com"}), &fakeAuth{}, nil, logging.Nop())
		if ok, err := m.Login(context.Background()); ok || err == nil {
			t.Errorf("Login = (%v, %v), want an error", ok, err)
		}
	})
}

func TestRelogin_ClearsTokenFirst(t *testing.T) {
	store := newStore(t, config.Config{URL: "https://d.example.com", AuthToken: "stale"})
	auth := &fakeAuth{err: browser.ErrWindowClosed}
	m := NewManager(store, auth, nil, logging.Nop())

	ok, err := m.Relogin(context.Background())
	if ok || err != nil {
		t.Fatalf("Relogin = (%v, %v), want (false, nil)", ok, err)
	}
	if auth.calls != 1 {
		t.Errorf("login calls = %d, want 1", auth.calls)
	}
	if store.Snapshot().AuthToken != "" {
		t.Error("stale token should be cleared even when re-login is cancelled")
	}
}

func TestLogout(t *testing.T) {
	store := newStore(t, config.Config{URL: "https://d.example.com", AuthToken: "tok"})
	auth := &fakeAuth{}
	m := NewManager(store, auth, nil, logging.Nop())

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() = %v", err)
	}

	if auth.clearCalls != 1 {
		t.Errorf("browser cookies cleared %d times, want 1", auth.clearCalls)
	}
	if m.Authenticated() {
		t.Error("still authenticated after logout")
	}
	if got := store.Snapshot().URL; got != "https://d.example.com" {
		t.Errorf("URL = %q, logout must keep it", got)
	}
}

func TestLogout_CookieClearFailure(t *testing.T) {
	store := newStore(t, config.Config{URL: "https://d.example.com", AuthToken: "tok"})
	auth := &fakeAuth{clearErr: browser.ErrWindowOpen}
	m := NewManager(store, auth, nil, logging.Nop())

	err := m.Logout(context.Background())
	if !errors.Is(err, browser.ErrWindowOpen) {
		t.Errorf("Logout() = %v, want wrapped ErrWindowOpen", err)
	}
	if m.Authenticated() {
		t.Error("token must be dropped even when the cookies could not be cleared")
	}
	cfg, err := config.Load(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuthToken != "" {
		t.Errorf("stored token = %q, want it removed", cfg.AuthToken)
	}
}

func TestRelogin_KeepsBrowserCookies(t *testing.T) {
	auth := &fakeAuth{err: browser.ErrWindowClosed}
	m := NewManager(newStore(t, config.Config{URL: "https://d.example.com", AuthToken: "stale"}), auth, nil, logging.Nop())

	if _, err := m.Relogin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth.clearCalls != 0 {
		t.Errorf("Relogin cleared browser cookies %d times, want 0", auth.clearCalls)
	}
}
