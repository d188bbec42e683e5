package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcms/core/internal/domain/entities"
)

func TestCredentialRepository_GetByUsername(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yml")
	require.NoError(t, os.WriteFile(path, []byte("admin: \"$2a$10$abc\"\neditor: \"$2a$10$def\"\n"), 0o600))

	repo := NewCredentialRepository(path)

	cred, err := repo.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", cred.Username)
	assert.Equal(t, "$2a$10$abc", cred.PasswordHash)

	_, err = repo.GetByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestCredentialRepository_MissingFileHasNoUsers(t *testing.T) {
	repo := NewCredentialRepository(filepath.Join(t.TempDir(), "absent.yml"))

	_, err := repo.GetByUsername(context.Background(), "admin")
	require.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestCredentialRepository_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	_, err := NewCredentialRepository(path).GetByUsername(context.Background(), "admin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestSaveCredential_AddsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yml")

	require.NoError(t, SaveCredential(path, entities.Credential{Username: "admin", PasswordHash: "h1"}))
	require.NoError(t, SaveCredential(path, entities.Credential{Username: "editor", PasswordHash: "h2"}))
	require.NoError(t, SaveCredential(path, entities.Credential{Username: "admin", PasswordHash: "h3"}))

	repo := NewCredentialRepository(path)
	cred, err := repo.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "h3", cred.PasswordHash)

	cred, err = repo.GetByUsername(context.Background(), "editor")
	require.NoError(t, err)
	assert.Equal(t, "h2", cred.PasswordHash)

	require.Error(t, SaveCredential(path, entities.Credential{PasswordHash: "x"}))
}
