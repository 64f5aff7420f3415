package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when neither a path nor CONFIG_PATH is given.
const DefaultPath = "./config.yaml"

// Load reads configuration from CONFIG_PATH (or DefaultPath) and the
// environment. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration with priority ENV > YAML > env-default tags
// and validates it. An empty path falls back to CONFIG_PATH, then to
// DefaultPath. A missing DefaultPath is not an error: configuration then
// comes from the environment alone. A missing explicit path is.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	var cfg Config
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit || !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
