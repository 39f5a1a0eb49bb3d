package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds daemon-level settings loaded from config.toml. User-facing
// preferences (reminder interval, categories, prayer toggles) live in the
// settings store instead, so they can be changed at runtime through the
// API; this file covers what only changes with a restart.
type Config struct {
	Listen       string `koanf:"listen"`        // HTTP API address
	OffscreenBin string `koanf:"offscreen_bin"` // path to the azkar-offscreen binary

	Catalog CatalogConfig `koanf:"catalog"`
	Pacing  PacingConfig  `koanf:"pacing"`
}

// CatalogConfig points at the optional remote azkar dataset.
type CatalogConfig struct {
	RemoteURL string `koanf:"remote_url"` // empty disables remote refresh
	AdhanURL  string `koanf:"adhan_url"`  // adhan recitation played at prayer time
}

// PacingConfig exposes the delays between queue steps, in milliseconds.
// The defaults are tuned pacing values, not principled constants.
type PacingConfig struct {
	SkipMs    int `koanf:"skip_ms"`
	EndedMs   int `koanf:"ended_ms"`
	ErrorMs   int `koanf:"error_ms"`
	ReleaseMs int `koanf:"release_ms"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Listen:       "127.0.0.1:7312",
		OffscreenBin: "azkar-offscreen",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.OffscreenBin != "" {
		cfg.OffscreenBin = expandPath(cfg.OffscreenBin)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/azkar/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "azkar", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPacing returns the queue pacing with defaults applied.
func (c *Config) GetPacing() (skip, ended, errDelay, release time.Duration) {
	ms := func(v, def int) time.Duration {
		if v <= 0 {
			v = def
		}
		return time.Duration(v) * time.Millisecond
	}
	return ms(c.Pacing.SkipMs, 500),
		ms(c.Pacing.EndedMs, 900),
		ms(c.Pacing.ErrorMs, 600),
		ms(c.Pacing.ReleaseMs, 3000)
}
