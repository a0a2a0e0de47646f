package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_TOKEN", "TOKEN", "NOTEBOT_DB", "NOTEBOT_LOG_LEVEL", "NOTEBOT_POLL_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./notes.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.PollTimeout)
	assert.Empty(t, cfg.Token)
	assert.Error(t, cfg.Validate(), "token is required")
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "notebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
token: from-file
db_path: /var/lib/notebot/notes.db
poll_timeout: 30s
log_level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
	assert.Equal(t, "/var/lib/notebot/notes.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	require.NoError(t, cfg.Validate())

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("NOTEBOT_POLL_TIMEOUT", "5s")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, 5*time.Second, cfg.PollTimeout)
}

func TestLoad_LegacyTokenVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Token)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("TELEGRAM_TOKEN=dotenv-token\nNOTEBOT_DB=dot.db\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_TOKEN")
		os.Unsetenv("NOTEBOT_DB")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Token)
	assert.Equal(t, "dot.db", cfg.DBPath)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("poll_timeout: [nope"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("NOTEBOT_POLL_TIMEOUT", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Token = "t"
	require.NoError(t, cfg.Validate())

	cfg.PollTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Token = "t"
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}
