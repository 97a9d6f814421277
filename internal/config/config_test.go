package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpen_FirstRunCreatesEmptyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "BubbleCloud", "config.json")

	s := Open(path, zerolog.Nop())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if strings.TrimSpace(string(data)) != "{}" {
		t.Errorf("first-run config = %q, want {}", data)
	}
	if got := s.Snapshot(); got != (Config{}) {
		t.Errorf("Snapshot() = %+v, want empty config", got)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"empty", Config{}, "{}"},
		{"url only", Config{URL: "https://bubble.example.com"}, `"url": "https://bubble.example.com"`},
		{"url and token", Config{URL: "http://localhost:5000", AuthToken: "abc.def=="}, `"authToken": "abc.def=="`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			s := Open(path, zerolog.Nop())

			if err := s.SetURL(tt.cfg.URL); err != nil {
				t.Fatalf("SetURL: %v", err)
			}
			if err := s.SetToken(tt.cfg.AuthToken); err != nil {
				t.Fatalf("SetToken: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("saved config %s does not contain %s", data, tt.want)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if *loaded != tt.cfg {
				t.Errorf("Load() = %+v, want %+v", *loaded, tt.cfg)
			}

			// Reopening must not rewrite a valid file.
			before, _ := os.ReadFile(path)
			Open(path, zerolog.Nop())
			after, _ := os.ReadFile(path)
			if string(before) != string(after) {
				t.Errorf("reopen changed the file:\n%s\n->\n%s", before, after)
			}
		})
	}
}

func TestStore_AbsentTokenStaysAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := Open(path, zerolog.Nop())

	if err := s.SetToken("tok"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "authToken") {
		t.Errorf("cleared token still serialized: %s", data)
	}
	if s.Snapshot().Authenticated() {
		t.Error("Authenticated() = true after ClearToken")
	}
}

func TestOpen_CorruptFileFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := Open(path, zerolog.Nop())
	if got := s.Snapshot(); got != (Config{}) {
		t.Errorf("Snapshot() = %+v, want empty config", got)
	}
}

func TestStore_ReloadPicksUpExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := Open(path, zerolog.Nop())

	other := Open(path, zerolog.Nop())
	if err := other.SetURL("https://changed.example.com"); err != nil {
		t.Fatal(err)
	}

	if s.Snapshot().URL != "" {
		t.Fatal("store saw the write before Reload")
	}
	s.Reload()
	if got := s.Snapshot().URL; got != "https://changed.example.com" {
		t.Errorf("URL after Reload = %q", got)
	}
}

func TestStore_SaveFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	s := Open(path, zerolog.Nop())

	// A directory where the temp file should go makes the write fail.
	if err := os.Mkdir(path+".tmp", 0700); err != nil {
		t.Fatal(err)
	}

	if err := s.SetToken("kept"); err == nil {
		t.Fatal("SetToken should report the write failure")
	}
	if got := s.Snapshot().AuthToken; got != "kept" {
		t.Errorf("AuthToken = %q, want in-memory value to survive", got)
	}
}

func TestStore_ConcurrentWritesMatchMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := Open(path, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.SetToken(fmt.Sprintf("tok-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.ClearToken()
		}()
	}
	wg.Wait()

	onDisk, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *onDisk != s.Snapshot() {
		t.Errorf("disk = %+v, memory = %+v; last change must win on both", *onDisk, s.Snapshot())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"https://bubble.example.com", "https://bubble.example.com", nil},
		{"  https://bubble.example.com/  ", "https://bubble.example.com", nil},
		{"http://localhost:5000//", "http://localhost:5000", nil},
		{"https://example.com/tenant/", "https://example.com/tenant", nil},
		{"", "", ErrMissingURL},
		{"   ", "", ErrMissingURL},
		{"ftp://example.com", "", ErrInvalidURL},
		{"example.com", "", ErrInvalidURL},
		{"https://", "", ErrInvalidURL},
	}

	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NormalizeURL(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeURL(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	if filepath.Base(DefaultConfigPath()) != "config.json" {
		t.Errorf("DefaultConfigPath() = %q", DefaultConfigPath())
	}
	if !strings.Contains(DefaultConfigPath(), AppName) {
		t.Errorf("DefaultConfigPath() = %q, want it under %s", DefaultConfigPath(), AppName)
	}
	if filepath.Dir(BrowserProfileDirectory()) != DataDirectory() {
		t.Errorf("BrowserProfileDirectory() = %q, want it inside %q", BrowserProfileDirectory(), DataDirectory())
	}
}
