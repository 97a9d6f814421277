package browser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

func TestSessionCookie(t *testing.T) {
	tests := []struct {
		name    string
		cookies []*network.Cookie
		want    string
		wantOK  bool
	}{
		{
			name:    "no cookies",
			cookies: nil,
		},
		{
			name: "session cookie",
			cookies: []*network.Cookie{
				{Name: "_ga", Value: "GA1"},
				{Name: "session", Value: "abc"},
			},
			want:   "abc",
			wantOK: true,
		},
		{
			name: "auth cookie",
			cookies: []*network.Cookie{
				{Name: "x-auth-token", Value: "tok"},
			},
			want:   "tok",
			wantOK: true,
		},
		{
			name: "first match wins",
			cookies: []*network.Cookie{
				{Name: "connect.session", Value: "first"},
				{Name: "auth", Value: "second"},
			},
			want:   "first",
			wantOK: true,
		},
		{
			name: "case sensitive",
			cookies: []*network.Cookie{
				{Name: "SESSIONID", Value: "upper"},
			},
		},
		{
			name:    "nil entries skipped",
			cookies: []*network.Cookie{nil, {Name: "sessionid", Value: "v"}},
			want:    "v",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sessionCookie(tt.cookies)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("sessionCookie() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	const files = "https://files.example.com/app-api/get-files"
	tests := []struct {
		url       string
		mainFrame bool
		want      navigation
	}{
		{files, true, navContinue},
		{files + "?folder=2024", true, navContinue},
		{"https://files.example.com/login", true, navExpired},
		{"https://files.example.com/login?next=%2Fapp-api%2Fget-files", true, navExpired},
		{"https://files.example.com/uploads/report.pdf", true, navDownload},
		{"https://cdn.example.net/blob/123", true, navDownload},

		// Embedded frames such as analytics or preview iframes.
		{"https://www.youtube.com/embed/abc", false, navContinue},
		{"https://files.example.com/uploads/report.pdf", false, navContinue},
		{"https://files.example.com/login", false, navContinue},
	}
	for _, tt := range tests {
		if got := classify(files, tt.url, tt.mainFrame); got != tt.want {
			t.Errorf("classify(%q, mainFrame=%v) = %v, want %v", tt.url, tt.mainFrame, got, tt.want)
		}
	}
}

func TestLauncherOneWindowAtATime(t *testing.T) {
	l := NewLauncher(t.TempDir(), logging.Nop())

	if err := l.acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.acquire(); err != ErrWindowOpen {
		t.Errorf("second acquire = %v, want ErrWindowOpen", err)
	}
	l.release()
	if err := l.acquire(); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}

// stalledBrowser writes an executable that starts but never reports a
// DevTools address.
func stalledBrowser(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script as the browser binary")
	}
	path := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexec sleep 60\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLauncherStartTimeout(t *testing.T) {
	l := NewLauncher(t.TempDir(), logging.Nop())
	l.execPath = stalledBrowser(t)
	l.startTimeout = 300 * time.Millisecond

	start := time.Now()
	_, err := l.open(context.Background(), 400, 300)
	if err == nil || !strings.Contains(err.Error(), "no response") {
		t.Fatalf("open() error = %v, want a start timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("open() took %s, want it bounded by the start timeout", elapsed)
	}
	if err := l.acquire(); err != nil {
		t.Errorf("launcher still busy after a failed start: %v", err)
	}
}

func TestClearCookiesWithoutProfile(t *testing.T) {
	l := NewLauncher(filepath.Join(t.TempDir(), "never-created"), logging.Nop())
	l.execPath = filepath.Join(t.TempDir(), "missing-browser")

	if err := l.ClearCookies(context.Background()); err != nil {
		t.Errorf("ClearCookies() = %v, want nil for a missing profile", err)
	}
}

func TestClearCookiesWhileWindowOpen(t *testing.T) {
	l := NewLauncher(t.TempDir(), logging.Nop())
	if err := l.acquire(); err != nil {
		t.Fatal(err)
	}
	defer l.release()

	if err := l.ClearCookies(context.Background()); err != ErrWindowOpen {
		t.Errorf("ClearCookies() = %v, want ErrWindowOpen", err)
	}
}
