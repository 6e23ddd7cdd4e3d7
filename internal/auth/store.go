package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
	"github.com/zalando/go-keyring"
)

const keyringUser = "credentials"

// NewStore returns the credential store selected by [shared.CacheConfig.CredentialBackend].
func NewStore(cfg shared.CacheConfig) (Store, error) {
	switch cfg.CredentialBackend {
	case "", "keyring":
		return NewKeyringStore(shared.AppName), nil
	case "file":
		if cfg.CredentialPath == "" {
			return nil, fmt.Errorf("%w: cache.credential_path", shared.ErrMissingConfig)
		}
		return NewFileStore(cfg.CredentialPath), nil
	default:
		return nil, fmt.Errorf("%w: unknown credential backend %q", shared.ErrInvalidConfig, cfg.CredentialBackend)
	}
}

// KeyringStore keeps credentials as JSON in the OS keyring.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Load() (*models.Credentials, error) {
	secret, err := keyring.Get(s.service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return decodeCredentials([]byte(secret))
}

func (s *KeyringStore) Save(creds *models.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(s.service, keyringUser, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(s.service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring: %w", err)
	}
	return nil
}

// FileStore keeps credentials in a 0600 JSON file, for hosts without a keyring.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*models.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return decodeCredentials(data)
}

// Save replaces the file atomically.
func (s *FileStore) Save(creds *models.Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

func decodeCredentials(data []byte) (*models.Credentials, error) {
	var creds models.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: corrupt credentials: %v", shared.ErrInvalidInput, err)
	}
	if !creds.Valid() {
		return nil, nil
	}
	creds.Kind = models.CredentialsStored
	return &creds, nil
}
