package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/ports"
)

// CredentialRepositoryImpl reads username to bcrypt hash pairs from a YAML file.
// The file is read on every lookup so edits take effect without a restart.
type CredentialRepositoryImpl struct {
	path string
}

// NewCredentialRepository creates a credential repository backed by path
func NewCredentialRepository(path string) ports.CredentialRepository {
	return &CredentialRepositoryImpl{path: path}
}

// GetByUsername returns entities.ErrInvalidCredentials when the user is unknown.
// A missing file is treated as an empty user list.
func (r *CredentialRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.Credential, error) {
	users, err := loadCredentials(r.path)
	if err != nil {
		return nil, err
	}

	hash, ok := users[username]
	if !ok || hash == "" {
		return nil, entities.ErrInvalidCredentials
	}

	return &entities.Credential{Username: username, PasswordHash: hash}, nil
}

// SaveCredential adds or replaces a user in the credentials file at path
func SaveCredential(path string, credential entities.Credential) error {
	if credential.Username == "" {
		return errors.New("username is required")
	}

	users, err := loadCredentials(path)
	if err != nil {
		return err
	}
	users[credential.Username] = credential.PasswordHash

	data, err := yaml.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func loadCredentials(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	users := map[string]string{}
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return users, nil
}
