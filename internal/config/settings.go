package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings holds optional tuning loaded from the TOML settings file.
// A missing file yields the defaults; a malformed file is an error so the
// user notices a typo instead of silently running with defaults.
type Settings struct {
	DBPath          string   `toml:"db_path"`
	FullBatchSize   int      `toml:"full_batch_size"`
	RatingBatchSize int      `toml:"rating_batch_size"`
	Extensions      []string `toml:"extensions"`
}

func DefaultSettings() Settings {
	return Settings{
		FullBatchSize:   100,
		RatingBatchSize: 50,
	}
}

func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	if err := toml.Unmarshal(body, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	if settings.FullBatchSize <= 0 {
		settings.FullBatchSize = 100
	}
	if settings.RatingBatchSize <= 0 {
		settings.RatingBatchSize = 50
	}

	return settings, nil
}
