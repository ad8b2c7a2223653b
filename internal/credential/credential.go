// Package credential resolves the GitHub token from the environment or the
// system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName = "ghinbox"
	tokenKey    = "github-token"

	// EnvToken overrides any stored token.
	EnvToken = "GITHUB_TOKEN"
)

// ErrNotFound is returned when no token is stored.
var ErrNotFound = errors.New("no stored token")

// Source names where a token came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// Store reads and writes the token. The zero value uses the system keyring.
type Store struct {
	// open returns the keyring; replaced in tests.
	open func() (keyring.Keyring, error)
}

// NewStore returns a Store backed by the system keyring.
func NewStore() *Store {
	return &Store{open: openKeyring}
}

// NewStoreWithKeyring returns a Store backed by ring.
func NewStoreWithKeyring(ring keyring.Keyring) *Store {
	return &Store{open: func() (keyring.Keyring, error) { return ring, nil }}
}

func openKeyring() (keyring.Keyring, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "~/.config"
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dir, "ghinbox", "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("ghinbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func (s *Store) ring() (keyring.Keyring, error) {
	if s.open == nil {
		return openKeyring()
	}
	return s.open()
}

// Get returns the stored token, or ErrNotFound.
func (s *Store) Get() (string, error) {
	ring, err := s.ring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	return string(item.Data), nil
}

// Set stores the token.
func (s *Store) Set(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	ring, err := s.ring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         tokenKey,
		Data:        []byte(token),
		Label:       "ghinbox GitHub token",
		Description: "GitHub personal access token used by ghinbox",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Delete removes the stored token. Deleting a missing token is not an error.
func (s *Store) Delete() error {
	ring, err := s.ring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Resolve returns the token and where it came from. The environment wins
// over the keyring. A missing token is not an error.
func (s *Store) Resolve() (string, Source) {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok, SourceEnv
	}
	tok, err := s.Get()
	if err != nil || tok == "" {
		return "", SourceNone
	}
	return tok, SourceKeyring
}

// Token returns the current token, or "" when none is available.
// It is the accessor injected into the store and the GitHub client.
func (s *Store) Token() string {
	tok, _ := s.Resolve()
	return tok
}
