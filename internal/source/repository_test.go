package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"attune/internal/db"
)

func newTestRepo(t *testing.T, legacyPath string) *Repository {
	t.Helper()

	database, err := db.Bootstrap(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("bootstrap db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewRepository(database, legacyPath, nil)
}

func TestRepository_AddListRemove(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t, "")
	ctx := context.Background()

	src := Source{Path: "/music", Primary: TypeAttrs, Secondary: TypeTags, Policy: PolicyOverwrite}
	if err := repo.Add(ctx, src); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0] != src {
		t.Fatalf("list = %+v, want [%+v]", got, src)
	}

	if err := repo.Remove(ctx, "/music"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("source survived remove: %+v", got)
	}
}

func TestRepository_AddUpsertsExistingPath(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t, "")
	ctx := context.Background()

	src := Default()
	src.Path = "/music"
	if err := repo.Add(ctx, src); err != nil {
		t.Fatalf("add: %v", err)
	}

	src.Policy = PolicyOverwrite
	if err := repo.Add(ctx, src); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Policy != PolicyOverwrite {
		t.Fatalf("upsert result: %+v", got)
	}
}

func TestRepository_RemoveUnknownPath(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t, "")
	if err := repo.Remove(context.Background(), "/nowhere"); !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestRepository_AddRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t, "")
	if err := repo.Add(context.Background(), Source{Path: "  "}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRepository_MigratesLegacyDirectoryList(t *testing.T) {
	t.Parallel()

	legacy := filepath.Join(t.TempDir(), "directories.txt")
	content := "/music\n\n/podcasts\n"
	if err := os.WriteFile(legacy, []byte(content), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	repo := newTestRepo(t, legacy)
	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("imported %d sources, want 2: %+v", len(got), got)
	}
	for _, src := range got {
		if src.Primary != TypeTags || src.Policy != PolicyAsk {
			t.Fatalf("imported source lacks defaults: %+v", src)
		}
	}

	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Fatal("legacy file was not renamed after import")
	}
	if _, err := os.Stat(legacy + ".imported"); err != nil {
		t.Fatalf("renamed legacy file missing: %v", err)
	}

	// A second List must not re-import.
	got, err = repo.List(context.Background())
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("second list = %d sources, want 2", len(got))
	}
}

func TestRepository_ForPathFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t, "")
	got := repo.ForPath(context.Background(), "/unconfigured/track.mp3")
	if got != Default() {
		t.Fatalf("got %+v, want defaults", got)
	}
}
