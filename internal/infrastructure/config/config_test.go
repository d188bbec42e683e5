package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "flatcms", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 4567, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data", cfg.DataDir())
	assert.Equal(t, "users.yml", cfg.UsersFile())
	assert.Equal(t, "flatcms_session", cfg.Session.CookieName)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, "localhost:6379", cfg.Redis.GetAddr())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_TestEnvironmentSelectsTestPaths(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("TEST_DATA_DIR", "/tmp/cms-test-data")
	t.Setenv("TEST_USERS_FILE", "/tmp/cms-test-users.yml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsTest())
	assert.Equal(t, "/tmp/cms-test-data", cfg.DataDir())
	assert.Equal(t, "/tmp/cms-test-users.yml", cfg.UsersFile())
	assert.Equal(t, "data", cfg.Storage.DataDir, "production path is left untouched")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.GetAddr())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown environment", env: map[string]string{"APP_ENVIRONMENT": "staging"}},
		{name: "unknown session store", env: map[string]string{"SESSION_STORE": "cookie"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "default secret in production", env: map[string]string{"APP_ENVIRONMENT": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "data", cfg.DataDir())
}
