package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// ErrMissingBaseURL means no API base URL was configured anywhere.
var ErrMissingBaseURL = errors.New("BACKOFFICE_API_URL is required")

// Config captures everything backoffice needs at startup.
type Config struct {
	APIURL         string
	LogPath        string
	LogLevel       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

const (
	defaultConfigPath     = "~/.config/backoffice/config.toml"
	defaultLogPath        = "~/.local/state/backoffice/backoffice.log"
	defaultLogLevel       = "info"
	defaultPollInterval   = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// fileConfig mirrors config.toml.
type fileConfig struct {
	APIURL                string `toml:"api_url"`
	LogPath               string `toml:"log_path"`
	LogLevel              string `toml:"log_level"`
	PollSeconds           int    `toml:"poll_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// envConfig holds the environment overrides. Unset variables leave the file
// values alone.
type envConfig struct {
	APIURL                string `env:"BACKOFFICE_API_URL"`
	LogPath               string `env:"BACKOFFICE_LOG_PATH"`
	LogLevel              string `env:"BACKOFFICE_LOG_LEVEL"`
	PollSeconds           int    `env:"BACKOFFICE_POLL_SECONDS"`
	RequestTimeoutSeconds int    `env:"BACKOFFICE_REQUEST_TIMEOUT_SECONDS"`
}

// Load reads the config file (missing is fine), applies environment
// overrides and checks the result. A missing base URL yields
// ErrMissingBaseURL.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := Config{
		APIURL:         firstNonEmpty(overrides.APIURL, raw.APIURL),
		LogPath:        firstNonEmpty(overrides.LogPath, raw.LogPath, defaultLogPath),
		LogLevel:       strings.ToLower(firstNonEmpty(overrides.LogLevel, raw.LogLevel, defaultLogLevel)),
		PollInterval:   seconds(defaultPollInterval, raw.PollSeconds, overrides.PollSeconds),
		RequestTimeout: seconds(defaultRequestTimeout, raw.RequestTimeoutSeconds, overrides.RequestTimeoutSeconds),
	}
	cfg.LogPath = mustExpand(cfg.LogPath)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.APIURL == "" {
		return ErrMissingBaseURL
	}
	parsed, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid api url %q: want an absolute http(s) url", c.APIURL)
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

// seconds picks the last positive value, falling back to def.
func seconds(def time.Duration, values ...int) time.Duration {
	out := def
	for _, v := range values {
		if v > 0 {
			out = time.Duration(v) * time.Second
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
