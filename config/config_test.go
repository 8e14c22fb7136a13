package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"memory-duel-server/game"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected HTTPPort=8080, got %d", cfg.HTTPPort)
	}
	if cfg.DefaultPairs != 8 {
		t.Errorf("expected DefaultPairs=8, got %d", cfg.DefaultPairs)
	}
	if cfg.LeaderboardLimit != 10 {
		t.Errorf("expected LeaderboardLimit=10, got %d", cfg.LeaderboardLimit)
	}
	if cfg.RecentGamesLimit != 5 {
		t.Errorf("expected RecentGamesLimit=5, got %d", cfg.RecentGamesLimit)
	}
	if cfg.SaveTimeout() != 3*time.Second {
		t.Errorf("expected SaveTimeout=3s, got %v", cfg.SaveTimeout())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("expected SessionTTL=24h, got %v", cfg.SessionTTL())
	}
	if cfg.DatabaseURL != "" || cfg.SessionDBPath != "" {
		t.Errorf("expected empty storage settings, got %q / %q", cfg.DatabaseURL, cfg.SessionDBPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DEFAULT_PAIRS", "12")
	t.Setenv("DATABASE_URL", "postgres://localhost/memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected HTTPPort=9090 after env override, got %d", cfg.HTTPPort)
	}
	if cfg.DefaultPairs != 12 {
		t.Errorf("expected DefaultPairs=12 after env override, got %d", cfg.DefaultPairs)
	}
	if cfg.DatabaseURL != "postgres://localhost/memory" {
		t.Errorf("unexpected DatabaseURL %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	// Non-overridden fields should remain default
	if cfg.SaveTimeoutMS != 3000 {
		t.Errorf("expected SaveTimeoutMS=3000 (default), got %d", cfg.SaveTimeoutMS)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "invalid")

	cfg := Load()

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected HTTPPort=8080 (default) with invalid env, got %d", cfg.HTTPPort)
	}
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "config.json"), `{"http_port": 7000, "recent_games_limit": 20}`)
	t.Setenv("HTTP_PORT", "7100")

	cfg := Load()

	if cfg.HTTPPort != 7100 {
		t.Errorf("env should win over file, got HTTPPort=%d", cfg.HTTPPort)
	}
	if cfg.RecentGamesLimit != 20 {
		t.Errorf("expected RecentGamesLimit=20 from file, got %d", cfg.RecentGamesLimit)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
default_pairs: 4
session_db_path: sessions.db
images:
  - a.svg
  - b.svg
`)

	cfg := Load()

	if cfg.DefaultPairs != 4 {
		t.Errorf("expected DefaultPairs=4 from yaml, got %d", cfg.DefaultPairs)
	}
	if cfg.SessionDBPath != "sessions.db" {
		t.Errorf("expected SessionDBPath=sessions.db, got %q", cfg.SessionDBPath)
	}
	if len(cfg.Images) != 2 || cfg.Images[1] != "b.svg" {
		t.Errorf("unexpected images %v", cfg.Images)
	}
}

func TestLoadBadFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, "config.yaml"), "default_pairs: [not a number")

	cfg := Load()

	if cfg.DefaultPairs != 8 {
		t.Errorf("expected DefaultPairs=8 with broken yaml, got %d", cfg.DefaultPairs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"pairs too small", func(c *Config) { c.DefaultPairs = 2 }, true},
		{"pairs too large", func(c *Config) { c.DefaultPairs = 13 }, true},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }, true},
		{"zero save timeout", func(c *Config) { c.SaveTimeoutMS = 0 }, true},
		{"negative session ttl", func(c *Config) { c.SessionTTLHours = -1 }, true},
		{"session purge disabled", func(c *Config) { c.SessionTTLHours = 0 }, false},
		{"bad image", func(c *Config) {
			c.Images = append([]string{"x.png"}, game.DefaultImages...)
		}, true},
		{"too few images", func(c *Config) { c.Images = []string{"a.svg", "b.svg"} }, true},
		{"duplicate images", func(c *Config) {
			c.Images = nil
			for range game.MaxPairs {
				c.Images = append(c.Images, "a.svg")
			}
		}, true},
		{"same image spelled twice", func(c *Config) {
			c.Images = append([]string{" " + game.DefaultImages[0] + " "}, game.DefaultImages[1 : game.MaxPairs-1]...)
			c.Images = append(c.Images, game.DefaultImages[0])
		}, true},
		{"custom catalog", func(c *Config) { c.Images = append([]string(nil), game.DefaultImages...) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestImageCatalog(t *testing.T) {
	cfg := Defaults()
	if len(cfg.ImageCatalog()) != len(game.DefaultImages) {
		t.Errorf("expected built-in catalog, got %v", cfg.ImageCatalog())
	}
	cfg.Images = []string{"x.svg"}
	if got := cfg.ImageCatalog(); len(got) != 1 || got[0] != "x.svg" {
		t.Errorf("expected configured catalog, got %v", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
