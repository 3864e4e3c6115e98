package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	t.Setenv("PAPERZ_CONFIG", p)
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("PAPERZ_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.Equal(t, 600*time.Millisecond, c.Session.AutoAdvanceDelay)
	assert.Equal(t, 100, c.Session.NarrowWidth)
	assert.Equal(t, ":8080", c.Server.Addr)
}

func TestLoadFromFile(t *testing.T) {
	writeConfig(t, `
[service]
base_url = "https://papers.example.com"
user_id = "student-7"
timeout = "5s"
local = true

[retry]
max_attempts = 5
initial_wait = "1s"

[session]
auto_advance_delay = "250ms"
narrow_width = 80

[server]
addr = "127.0.0.1:9000"
allowed_origins = ["https://app.example.com"]
`)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://papers.example.com", c.Service.BaseURL)
	assert.Equal(t, "student-7", c.Service.UserID)
	assert.Equal(t, 5*time.Second, c.Service.Timeout)
	assert.True(t, c.Service.Local)
	assert.Equal(t, 5, c.Retry.MaxAttempts)
	assert.Equal(t, time.Second, c.Retry.InitialWait)
	assert.Equal(t, DefaultConfig().Retry.MaxWait, c.Retry.MaxWait, "unset keys keep defaults")
	assert.Equal(t, 250*time.Millisecond, c.Session.AutoAdvanceDelay)
	assert.Equal(t, 80, c.Session.NarrowWidth)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, c.Server.AllowedOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	writeConfig(t, `
[service]
user_id = "from-file"
`)
	t.Setenv("PAPERZ_SERVICE_USER_ID", "from-env")
	t.Setenv("PAPERZ_SESSION_NARROW_WIDTH", "120")
	t.Setenv("PAPERZ_DATABASE_PATH", "/tmp/papers.db")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Service.UserID)
	assert.Equal(t, 120, c.Session.NarrowWidth)
	assert.Equal(t, "/tmp/papers.db", c.Database.Path)
}

func TestLoadMalformedFile(t *testing.T) {
	writeConfig(t, "[service\nbase_url = ")

	_, err := Load()
	assert.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	c := DefaultConfig()
	c.Retry.MaxAttempts = 7

	p := c.RetryPolicy()
	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, c.Retry.InitialWait, p.InitialWait)
	assert.Equal(t, c.Retry.Multiplier, p.Multiplier)
}

func TestPath(t *testing.T) {
	t.Setenv("PAPERZ_CONFIG", "")
	t.Setenv("HOME", "/home/student")
	assert.Equal(t, "/home/student/.config/paperz/config.toml", Path())

	t.Setenv("PAPERZ_CONFIG", "/etc/paperz.toml")
	assert.Equal(t, "/etc/paperz.toml", Path())
}
