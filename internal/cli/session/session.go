// Package session keeps the CLI's copy of the login: the token in the OS keyring
// and the user snapshot plus the last readable user cookie in a JSON file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

const sessionFileName = "session.json"

// LocalSession is the persisted user snapshot for one gateway
type LocalSession struct {
	Gateway    string    `json:"gateway"`
	User       string    `json:"user"`        // JSON as returned by the gateway at login
	UserCookie string    `json:"user_cookie"` // raw readable cookie value
	SavedAt    time.Time `json:"saved_at"`
}

// Store reads and writes the local session
type Store interface {
	Load() (*LocalSession, error)
	Save(s *LocalSession) error
	Clear() error
}

// FileStore keeps the session in a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFileStore stores the session in ~/.config/shopfront/session.json
func DefaultFileStore() (*FileStore, error) {
	dir, err := userconfig.Dir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(dir, sessionFileName)), nil
}

// Load returns the stored session, or nil when none exists
func (f *FileStore) Load() (*LocalSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s LocalSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &s, nil
}

// Save writes the session with owner-only permissions
func (f *FileStore) Save(s *LocalSession) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the session file
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Resolve returns the best available user snapshot: the readable cookie first,
// then the locally stored user JSON. It returns nil for a guest.
func Resolve(cookieValue, localUser string) *auth.Profile {
	if cookieValue != "" {
		if p, err := auth.DecodeProfile(cookieValue); err == nil {
			return p
		}
	}
	if localUser != "" {
		var p auth.Profile
		if err := json.Unmarshal([]byte(localUser), &p); err == nil {
			return &p
		}
	}
	return nil
}

// IsAdmin is the role gate: true only for a resolved snapshot whose role is exactly "admin"
func IsAdmin(p *auth.Profile) bool {
	return p.IsAdmin()
}
