package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Paths struct {
	BaseDir      string
	DBPath       string
	StateDir     string
	SettingsPath string
	LegacyDirs   string
}

func ResolvePaths(appSlug string) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
	}

	baseDir := filepath.Join(configDir, appSlug)
	stateDir := filepath.Join(baseDir, "state")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app state dir: %w", err)
	}

	return Paths{
		BaseDir:      baseDir,
		DBPath:       filepath.Join(baseDir, "library.db"),
		StateDir:     stateDir,
		SettingsPath: filepath.Join(baseDir, appSlug+".toml"),
		LegacyDirs:   filepath.Join(baseDir, "directories.txt"),
	}, nil
}
