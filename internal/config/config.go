// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultScope grants read/write access to the account's videos and comments,
// which thumbnails.set requires.
const DefaultScope = "https://www.googleapis.com/auth/youtube.force-ssl"

// Config holds all application configuration.
type Config struct {
	// Target
	VideoID string `yaml:"video_id"`
	// APIEndpoint overrides the Data API base URL, e.g. for a local emulator.
	APIEndpoint string `yaml:"api_endpoint"`

	// OAuth client. ClientSecretsPath points at the JSON downloaded from the
	// Google console; the explicit fields override what it contains.
	ClientSecretsPath string `yaml:"client_secrets_path"`
	ClientID          string `yaml:"client_id"`
	ClientSecret      string `yaml:"client_secret"`
	RedirectURL       string `yaml:"redirect_url"`
	Scope             string `yaml:"scope"`

	// Local state
	TokenPath    string `yaml:"token_path"`
	LastSeenPath string `yaml:"last_seen_path"`
	PhotoPath    string `yaml:"photo_path"`
	HistoryPath  string `yaml:"history_path"` // empty disables run history
	MetricsFile  string `yaml:"metrics_file"` // empty disables textfile metrics

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"

	// Timeouts
	RunTimeout  time.Duration `yaml:"run_timeout"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// Photo download
	DownloadRPS    float64       `yaml:"download_rps"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DefaultConfig returns configuration with safe defaults. File names match the
// ones earlier deployments already have on disk.
func DefaultConfig() *Config {
	return &Config{
		ClientSecretsPath: "credentials.json",
		Scope:             DefaultScope,
		TokenPath:         "_google_token.json",
		LastSeenPath:      "_youtube_commenters.json",
		PhotoPath:         "thumbnail.jpeg",
		LogLevel:          "info",
		LogFormat:         "text",
		RunTimeout:        5 * time.Minute,
		HTTPTimeout:       30 * time.Second,
		LockTimeout:       5 * time.Second,
		DownloadRPS:       2,
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
	}
}

// Load loads configuration from a config file and environment variables, then
// validates it. Priority: env vars > config file > defaults.
//
// If path is non-empty the file must exist; otherwise the default search
// locations are tried and a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		if path != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the config files tried when no explicit path is given.
func SearchPaths() []string {
	paths := []string{"ytthumb.yaml", "ytthumb.yml", "ytthumb.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytthumb", "ytthumb.yaml"))
	}
	return paths
}

// loadFromFile reads the first config file found. YAML is a superset of JSON,
// so ytthumb.json is parsed by the same decoder.
func (c *Config) loadFromFile(path string) error {
	paths := SearchPaths()
	if path != "" {
		paths = []string{path}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == "" {
				continue
			}
			return err
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}

	return fs.ErrNotExist
}

// loadFromEnv overrides config with YTTHUMB_* environment variables.
func (c *Config) loadFromEnv() error {
	strs := map[string]*string{
		"YTTHUMB_VIDEO_ID":       &c.VideoID,
		"YTTHUMB_API_ENDPOINT":   &c.APIEndpoint,
		"YTTHUMB_CLIENT_SECRETS": &c.ClientSecretsPath,
		"YTTHUMB_CLIENT_ID":      &c.ClientID,
		"YTTHUMB_CLIENT_SECRET":  &c.ClientSecret,
		"YTTHUMB_REDIRECT_URL":   &c.RedirectURL,
		"YTTHUMB_SCOPE":          &c.Scope,
		"YTTHUMB_TOKEN_PATH":     &c.TokenPath,
		"YTTHUMB_LAST_SEEN_PATH": &c.LastSeenPath,
		"YTTHUMB_PHOTO_PATH":     &c.PhotoPath,
		"YTTHUMB_HISTORY_PATH":   &c.HistoryPath,
		"YTTHUMB_METRICS_FILE":   &c.MetricsFile,
		"YTTHUMB_LOG_LEVEL":      &c.LogLevel,
		"YTTHUMB_LOG_FORMAT":     &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"YTTHUMB_RUN_TIMEOUT":     &c.RunTimeout,
		"YTTHUMB_HTTP_TIMEOUT":    &c.HTTPTimeout,
		"YTTHUMB_LOCK_TIMEOUT":    &c.LockTimeout,
		"YTTHUMB_INITIAL_BACKOFF": &c.InitialBackoff,
		"YTTHUMB_MAX_BACKOFF":     &c.MaxBackoff,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("YTTHUMB_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("YTTHUMB_MAX_RETRIES: %w", err)
		}
		c.MaxRetries = n
	}
	if v := os.Getenv("YTTHUMB_DOWNLOAD_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("YTTHUMB_DOWNLOAD_RPS: %w", err)
		}
		c.DownloadRPS = f
	}
	return nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VideoID) == "" {
		return fmt.Errorf("video_id is required")
	}
	if c.ClientSecretsPath == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return fmt.Errorf("client_secrets_path or client_id and client_secret are required")
	}
	if c.Scope == "" {
		return fmt.Errorf("scope must not be empty")
	}
	for name, p := range map[string]string{
		"token_path":     c.TokenPath,
		"last_seen_path": c.LastSeenPath,
		"photo_path":     c.PhotoPath,
	} {
		if p == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive")
	}
	if c.DownloadRPS < 0 {
		return fmt.Errorf("download_rps must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	return nil
}
