package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/haryoiro/vidstream/internal/constants"
	"github.com/haryoiro/vidstream/internal/structures"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// Load loads the configuration from a TOML file
func Load(path string) (*structures.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves the configuration to a TOML file
func Save(cfg *structures.Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with VIDSTREAM_* environment variables
func ApplyEnv(cfg *structures.Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings the client cannot run without
func Validate(cfg *structures.Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", cfg.API.BaseURL)
	}

	switch cfg.Storage.Backend {
	case StorageSQLite, StorageFile:
	default:
		return fmt.Errorf("unknown storage.backend %q (want %s or %s)", cfg.Storage.Backend, StorageSQLite, StorageFile)
	}

	if cfg.API.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("api.request_timeout_seconds must not be negative")
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}

	return nil
}

// Default returns the default configuration
func Default() *structures.Config {
	return &structures.Config{
		API: structures.APIConfig{
			BaseURL:               constants.DefaultBaseURL,
			AuthScheme:            "Bearer",
			RequestTimeoutSeconds: 60,
			RateLimit:             0,
			RateBurst:             5,
		},
		Storage: structures.StorageConfig{
			Backend: StorageSQLite,
		},
		Theme: structures.Theme{
			Foreground: "#c0caf5", // Tokyo Night foreground
			Selected:   "#7aa2f7", // Tokyo Night blue
			Accent:     "#bb9af7", // Tokyo Night purple
			Border:     "#3b4261", // Tokyo Night border
			Error:      "#f7768e", // Tokyo Night red
			Success:    "#9ece6a", // Tokyo Night green
		},
		KeyBindings: structures.KeyBindings{
			Quit: []string{"ctrl+c", "ctrl+d"},
			Back: []string{"esc"},

			MoveUp:    []string{"up", "ctrl+p"},
			MoveDown:  []string{"down", "ctrl+n"},
			Select:    []string{"enter"},
			NextField: []string{"tab", "down"},
			PrevField: []string{"shift+tab", "up"},

			Search:     "/",
			Auth:       "a",
			Dashboard:  "d",
			Refresh:    "r",
			Edit:       "e",
			Delete:     "x",
			Logout:     "ctrl+x",
			NextTab:    "ctrl+o",
			ToggleAuth: "ctrl+t",
		},
	}
}
