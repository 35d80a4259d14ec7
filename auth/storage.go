package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFile = "credentials.json"

// ErrNoCredentials is returned by Load when no usable record is stored.
var ErrNoCredentials = errors.New("no stored credentials")

// User is the identity persisted next to the token.
type User struct {
	Username string `json:"username"`
}

// record is the on-disk layout: two string fields, user is JSON text.
type record struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// Store persists the {token, user} pair across runs.
type Store struct {
	dir string
}

// NewStore returns a store that keeps its file inside dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns ~/.config/cryptoalert.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cryptoalert"), nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Save writes token and user, replacing any previous record.
func (s *Store) Save(token string, user User) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	data, err := json.Marshal(record{Token: token, User: string(userData)})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, credentialsFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credentials: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}

// Load returns the stored pair. Missing or partial records yield
// ErrNoCredentials; corrupt records are cleared before returning it.
func (s *Store) Load() (string, User, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", User{}, ErrNoCredentials
	}
	if err != nil {
		return "", User{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", User{}, s.discard()
	}
	if rec.Token == "" || rec.User == "" {
		return "", User{}, s.discard()
	}

	var user User
	if err := json.Unmarshal([]byte(rec.User), &user); err != nil {
		return "", User{}, s.discard()
	}

	return rec.Token, user, nil
}

// discard clears an unusable record and reports it as absent.
func (s *Store) discard() error {
	if err := s.Clear(); err != nil {
		return err
	}
	return ErrNoCredentials
}

// Clear removes the record. Calling it with nothing stored is fine.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
