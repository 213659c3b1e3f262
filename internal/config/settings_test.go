package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadSettings_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(settings, DefaultSettings()) {
		t.Fatalf("got %+v, want defaults", settings)
	}
}

func TestLoadSettings_ParsesOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "attune.toml")
	body := `
db_path = "/data/library.db"
full_batch_size = 25
extensions = [".mp3", ".flac"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.DBPath != "/data/library.db" || settings.FullBatchSize != 25 {
		t.Fatalf("overrides not applied: %+v", settings)
	}
	if settings.RatingBatchSize != 50 {
		t.Fatalf("unset field lost its default: %+v", settings)
	}
	if len(settings.Extensions) != 2 {
		t.Fatalf("extensions not parsed: %+v", settings.Extensions)
	}
}

func TestLoadSettings_MalformedFileIsAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "attune.toml")
	if err := os.WriteFile(path, []byte("full_batch_size = ["), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected parse error")
	}
}
