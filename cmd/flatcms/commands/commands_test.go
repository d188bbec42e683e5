package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func TestUserHashCommand(t *testing.T) {
	cmd := NewUserCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"hash", "--password", "secret", "--cost", "4"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))
}

func TestUserAddCommandWritesCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "users.yml")

	cmd := NewUserCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"add", "--username", "admin", "--password", "secret", "--cost", "4", "--file", file})

	require.NoError(t, cmd.Execute())

	raw, err := os.ReadFile(file)
	require.NoError(t, err)

	users := map[string]string{}
	require.NoError(t, yaml.Unmarshal(raw, &users))
	require.Contains(t, users, "admin")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users["admin"]), []byte("secret")))
}

func TestUserAddCommandRequiresUsername(t *testing.T) {
	cmd := NewUserCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"add", "--password", "secret", "--file", filepath.Join(t.TempDir(), "users.yml")})

	assert.Error(t, cmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "flatcms dev\n", out.String())
}
