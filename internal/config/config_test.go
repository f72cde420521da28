package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory and clears YTTHUMB_* variables.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "YTTHUMB_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultScope, cfg.Scope)
	assert.Equal(t, "_google_token.json", cfg.TokenPath)
	assert.Equal(t, "_youtube_commenters.json", cfg.LastSeenPath)
	assert.Equal(t, "thumbnail.jpeg", cfg.PhotoPath)
	assert.Equal(t, "credentials.json", cfg.ClientSecretsPath)
	assert.Empty(t, cfg.HistoryPath)

	// Defaults are valid once the one required field is set.
	cfg.VideoID = "1G0yTHwDcMY"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ytthumb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
video_id: abc123
token_path: /var/lib/ytthumb/token.json
history_path: /var/lib/ytthumb/history.db
run_timeout: 90s
max_retries: 1
log_format: json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.VideoID)
	assert.Equal(t, "/var/lib/ytthumb/token.json", cfg.TokenPath)
	assert.Equal(t, "/var/lib/ytthumb/history.db", cfg.HistoryPath)
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, "json", cfg.LogFormat)
	// Untouched fields keep defaults.
	assert.Equal(t, "thumbnail.jpeg", cfg.PhotoPath)
}

func TestLoad_JSONFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ytthumb.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"video_id": "fromjson", "photo_path": "out.jpeg"}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromjson", cfg.VideoID)
	assert.Equal(t, "out.jpeg", cfg.PhotoPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ytthumb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video_id: fromfile\nmax_retries: 2\n"), 0644))

	t.Setenv("YTTHUMB_VIDEO_ID", "fromenv")
	t.Setenv("YTTHUMB_MAX_RETRIES", "0")
	t.Setenv("YTTHUMB_RUN_TIMEOUT", "2m")
	t.Setenv("YTTHUMB_DOWNLOAD_RPS", "0.5")
	t.Setenv("YTTHUMB_API_ENDPOINT", "http://127.0.0.1:8085/")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.VideoID)
	assert.Equal(t, "http://127.0.0.1:8085/", cfg.APIEndpoint)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 0.5, cfg.DownloadRPS)
}

func TestLoad_NoFileUsesEnv(t *testing.T) {
	isolate(t)
	t.Chdir(t.TempDir())
	t.Setenv("YTTHUMB_VIDEO_ID", "envonly")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "envonly", cfg.VideoID)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Chdir(t.TempDir())
	t.Setenv("YTTHUMB_VIDEO_ID", "x")
	t.Setenv("YTTHUMB_RUN_TIMEOUT", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "YTTHUMB_RUN_TIMEOUT")
}

func TestLoad_MalformedFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ytthumb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video_id: [unterminated\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing video", func(c *Config) { c.VideoID = " " }, "video_id"},
		{"no client", func(c *Config) { c.ClientSecretsPath = "" }, "client_secrets_path"},
		{"inline client", func(c *Config) {
			c.ClientSecretsPath = ""
			c.ClientID = "id"
			c.ClientSecret = "secret"
		}, ""},
		{"empty scope", func(c *Config) { c.Scope = "" }, "scope"},
		{"empty photo path", func(c *Config) { c.PhotoPath = "" }, "photo_path"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"zero run timeout", func(c *Config) { c.RunTimeout = 0 }, "run_timeout"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"negative rps", func(c *Config) { c.DownloadRPS = -1 }, "download_rps"},
		{"backoff order", func(c *Config) { c.MaxBackoff = time.Millisecond }, "max_backoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.VideoID = "vid"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
