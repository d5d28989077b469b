// Package config provides credential storage and runtime settings for the w3s CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/w3s-cli/w3s/internal/constants"
)

var (
	// ErrMissingCredential means no API token has been remembered yet.
	ErrMissingCredential = errors.New("no API token found, please remember API token first")
	// ErrNoHomeDir means the user's home directory could not be resolved.
	ErrNoHomeDir = errors.New("unable to get the home dir path")
)

// CredentialStore persists a single API token under <home>/.w3s/credentials.
// One job runs per process, so no locking is done.
type CredentialStore struct {
	dir string
}

// NewCredentialStore returns a store rooted at the current user's home directory.
func NewCredentialStore() (*CredentialStore, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil, fmt.Errorf("%w: %v", ErrNoHomeDir, err)
	}
	return NewCredentialStoreAt(home), nil
}

// NewCredentialStoreAt returns a store rooted at the given home directory.
func NewCredentialStoreAt(home string) *CredentialStore {
	return &CredentialStore{dir: filepath.Join(home, constants.CredentialDirName)}
}

// Path returns the credential file path without touching the filesystem.
func (s *CredentialStore) Path() string {
	return filepath.Join(s.dir, constants.CredentialFileName)
}

// EnsureStorePath creates the configuration directory and an empty credential
// file when they are missing, and returns the credential file path.
func (s *CredentialStore) EnsureStorePath() (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create credential directory: %w", err)
	}

	path := s.Path()
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return "", fmt.Errorf("credential path %s is a directory", path)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := os.WriteFile(path, nil, 0600); err != nil {
			return "", fmt.Errorf("failed to create credential file: %w", err)
		}
	default:
		return "", fmt.Errorf("failed to stat credential file: %w", err)
	}
	return path, nil
}

// Save overwrites the credential file with token.
func (s *CredentialStore) Save(token string) error {
	path, err := s.EnsureStorePath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Load returns the remembered token, or ErrMissingCredential when the file is empty.
func (s *CredentialStore) Load() (string, error) {
	path, err := s.EnsureStorePath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
