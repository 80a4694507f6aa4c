// ABOUTME: Tests for layered configuration loading
// ABOUTME: Validates defaults, file and env precedence, and ISH_MODE strictness

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default config path at an empty temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, k := range []string{"ISH_MODE", "ISH_BASE_URL", "ISH_USER", "DEADLINE_MCP_ISH_MODE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.ISHMode)
	assert.Equal(t, "http://localhost:9000", cfg.ISHBaseURL)
	assert.Equal(t, "http://127.0.0.1:8000/extract-assignments", cfg.Extraction.URL)
	assert.Equal(t, 60*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, uint32(5), cfg.Extraction.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Extraction.OpenTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Contains(t, cfg.CredentialsPath, filepath.Join("deadline-mcp", "credentials.json"))
	assert.Contains(t, cfg.TokenPath, filepath.Join("deadline-mcp", "token.json"))
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	path := writeFile(t, `
default_timezone: Europe/Berlin
extraction:
  url: http://extractor:9000/run
  timeout: 5s
log:
  level: debug
metrics:
  addr: ":9100"
`)
	t.Setenv("DEADLINE_MCP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.DefaultTimezone)
	assert.Equal(t, "http://extractor:9000/run", cfg.Extraction.URL)
	assert.Equal(t, 5*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file")
}

func TestLoad_DefaultFileIsPickedUp(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(DefaultPath()), 0700))
	require.NoError(t, os.WriteFile(DefaultPath(), []byte("ish_user: alice\n"), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.ISHUser)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoad_ISHModeOnlyExactTrue(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"1", false},
		{"yes", false},
		{"TRUE", false},
		{"  true  ", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("ISH_MODE="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv("ISH_MODE", tt.value)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ISHMode)
		})
	}
}

func TestLoad_ISHFromFileAndEnv(t *testing.T) {
	isolate(t)
	path := writeFile(t, "ish_mode: true\nish_base_url: http://file:1\n")
	t.Setenv("ISH_BASE_URL", "http://env:2")
	t.Setenv("ISH_USER", "envuser")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.ISHMode, "YAML boolean enables ish mode")
	assert.Equal(t, "http://env:2", cfg.ISHBaseURL)
	assert.Equal(t, "envuser", cfg.ISHUser)
}

func TestLoad_PathOverridesFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DEADLINE_MCP_CREDENTIALS_PATH", "/custom/creds.json")
	t.Setenv("DEADLINE_MCP_TOKEN_PATH", "/custom/token.json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/custom/creds.json", cfg.CredentialsPath)
	assert.Equal(t, "/custom/token.json", cfg.TokenPath)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"relative extraction url", "extraction:\n  url: localhost:8000\n", "extraction.url"},
		{"zero timeout", "extraction:\n  timeout: 0s\n", "extraction.timeout"},
		{"unknown zone", "default_timezone: Mars/Olympus\n", "default_timezone"},
		{"bad log level", "log:\n  level: chatty\n", "log.level"},
		{"ish without url", "ish_mode: true\nish_base_url: \"\"\n", "ish_base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeFile(t, tt.body))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
