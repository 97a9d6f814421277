// Package config provides configuration management for BubbleCloud.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bubblecloud/bubblecloud-tray/internal/util/sanitize"
)

// Config is the persisted tray configuration.
//
// File location: <user config dir>/BubbleCloud/config.json
//
//	{
//	  "url": "https://dashboard.example.com",
//	  "authToken": "<session cookie value>"
//	}
//
// Both keys are optional. The file is rewritten wholesale on every change.
type Config struct {
	URL       string `json:"url,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
}

// Authenticated reports whether a session token is stored.
func (c Config) Authenticated() bool {
	return c.AuthToken != ""
}

var (
	// ErrMissingURL is returned when an operation needs the dashboard URL
	// and none has been configured.
	ErrMissingURL = errors.New("dashboard url is not configured")

	// ErrInvalidURL is returned by NormalizeURL for unusable input.
	ErrInvalidURL = errors.New("dashboard url must be an absolute http or https url")
)

// NormalizeURL validates a dashboard base URL and strips trailing slashes
// so routes can be built by plain concatenation.
func NormalizeURL(raw string) (string, error) {
	s := sanitize.SanitizeField(raw)
	if s == "" {
		return "", ErrMissingURL
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}

	return strings.TrimRight(s, "/"), nil
}

// Store owns the on-disk config file and the in-memory copy of it.
// All methods are safe for concurrent use; tray actions run on their own
// goroutines.
type Store struct {
	mu     sync.RWMutex
	path   string
	cfg    Config
	logger zerolog.Logger

	// writeMu orders disk writes the same as the in-memory changes they
	// carry, and guards the shared temp file.
	writeMu sync.Mutex
}

// Open loads the config at path, creating the directory and an empty "{}"
// file on first run. Read or parse failures are logged and leave the store
// empty; they are never returned.
func Open(path string, logger zerolog.Logger) *Store {
	s := &Store{path: path, logger: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(Config{}); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Error initializing config")
		}
		return s
	}

	cfg, err := Load(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Error initializing config")
		return s
	}
	s.cfg = *cfg
	return s
}

// Load reads and decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetURL stores a new dashboard URL and saves.
func (s *Store) SetURL(u string) error {
	return s.update(func(c *Config) { c.URL = u })
}

// SetToken stores a session token and saves.
func (s *Store) SetToken(token string) error {
	return s.update(func(c *Config) { c.AuthToken = token })
}

// ClearToken drops the session token and saves.
func (s *Store) ClearToken() error {
	return s.update(func(c *Config) { c.AuthToken = "" })
}

// Reload re-reads the file, replacing the in-memory copy. A missing or
// unreadable file keeps the current values.
func (s *Store) Reload() {
	cfg, err := Load(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error reading config")
		return
	}

	s.mu.Lock()
	s.cfg = *cfg
	s.mu.Unlock()
}

// Save writes the current configuration to disk.
func (s *Store) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if err := s.write(cfg); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error saving config")
		return err
	}
	return nil
}

func (s *Store) update(fn func(*Config)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	fn(&s.cfg)
	cfg := s.cfg
	s.mu.Unlock()

	if err := s.write(cfg); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error saving config")
		return err
	}
	return nil
}

// write saves cfg through a temp file and rename so a crash never leaves a
// truncated config behind.
func (s *Store) write(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// The session token is a credential
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
