package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"memory-duel-server/game"
)

// Config holds all configurable server parameters.
type Config struct {
	HTTPPort int `json:"http_port" yaml:"http_port"`

	// DatabaseURL is the Postgres connection string for game history.
	// When empty, history is kept in memory and lost on restart.
	DatabaseURL string `json:"database_url" yaml:"database_url"`

	// SessionDBPath is the SQLite file holding games in progress.
	// When empty, sessions are kept in memory.
	SessionDBPath string `json:"session_db_path" yaml:"session_db_path"`

	NeonAuthBaseURL string `json:"neon_auth_base_url" yaml:"neon_auth_base_url"`
	// AuthHMACSecret enables HS256 bearer tokens instead of Neon Auth. Local development only.
	AuthHMACSecret string `json:"auth_hmac_secret" yaml:"auth_hmac_secret"`

	DefaultPairs     int `json:"default_pairs" yaml:"default_pairs"`
	LeaderboardLimit int `json:"leaderboard_limit" yaml:"leaderboard_limit"`
	RecentGamesLimit int `json:"recent_games_limit" yaml:"recent_games_limit"`
	SaveTimeoutMS    int `json:"save_timeout_ms" yaml:"save_timeout_ms"`

	// SessionTTLHours drops games in progress left untouched this long. 0 keeps them forever.
	SessionTTLHours int `json:"session_ttl_hours" yaml:"session_ttl_hours"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// Images is the catalog card faces are drawn from. Empty means the built-in set.
	Images []string `json:"images" yaml:"images"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		HTTPPort:         8080,
		DefaultPairs:     8,
		LeaderboardLimit: 10,
		RecentGamesLimit: 5,
		SaveTimeoutMS:    3000,
		SessionTTLHours:  24,
		LogLevel:         "info",
	}
}

// Load reads configuration from an optional config.json or config.yaml file
// in the working directory, then applies environment variable overrides.
// Fields not set in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	loadJSON(cfg, "config.json")
	loadYAML(cfg, "config.yaml")

	// Environment variable overrides
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.SessionDBPath, "SESSION_DB_PATH")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideString(&cfg.AuthHMACSecret, "AUTH_HMAC_SECRET")
	overrideInt(&cfg.DefaultPairs, "DEFAULT_PAIRS")
	overrideInt(&cfg.LeaderboardLimit, "LEADERBOARD_LIMIT")
	overrideInt(&cfg.RecentGamesLimit, "RECENT_GAMES_LIMIT")
	overrideInt(&cfg.SaveTimeoutMS, "SAVE_TIMEOUT_MS")
	overrideInt(&cfg.SessionTTLHours, "SESSION_TTL_HOURS")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	return cfg
}

func loadJSON(cfg *Config, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		slog.Warn("failed to parse config file", "tag", "config", "file", path, "err", err)
	}
}

func loadYAML(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("failed to parse config file", "tag", "config", "file", path, "err", err)
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	if c.DefaultPairs < game.MinPairs || c.DefaultPairs > game.MaxPairs {
		errs = append(errs, fmt.Errorf("default_pairs %d not in [%d, %d]", c.DefaultPairs, game.MinPairs, game.MaxPairs))
	}
	if c.SaveTimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("save_timeout_ms must be positive, got %d", c.SaveTimeoutMS))
	}
	if c.SessionTTLHours < 0 {
		errs = append(errs, fmt.Errorf("session_ttl_hours must not be negative, got %d", c.SessionTTLHours))
	}
	distinct := make(map[string]bool, len(c.Images))
	for _, img := range c.Images {
		clean, err := game.SanitizeImage(img)
		if err != nil {
			errs = append(errs, fmt.Errorf("images: %w", err))
			continue
		}
		distinct[clean] = true
	}
	// Deals draw distinct images, so duplicates do not count toward a full board.
	if len(c.Images) > 0 && len(distinct) < game.MaxPairs {
		errs = append(errs, fmt.Errorf("images: need at least %d distinct entries, got %d", game.MaxPairs, len(distinct)))
	}
	return errors.Join(errs...)
}

// SaveTimeout is SaveTimeoutMS as a duration.
func (c *Config) SaveTimeout() time.Duration {
	return time.Duration(c.SaveTimeoutMS) * time.Millisecond
}

// SessionTTL is SessionTTLHours as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ImageCatalog returns the configured images, or the built-in set.
func (c *Config) ImageCatalog() []string {
	if len(c.Images) == 0 {
		return game.DefaultImages
	}
	return c.Images
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
