package source

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var ErrSourceNotFound = errors.New("source not found")

// Repository persists per-directory sync configuration. The configuration
// is read-mostly: scans and sync operations resolve policy concurrently
// while edits go through Add/Update/Remove.
type Repository struct {
	db         *sql.DB
	legacyPath string
	log        *slog.Logger
}

func NewRepository(database *sql.DB, legacyPath string, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Repository{db: database, legacyPath: legacyPath, log: log}
}

// List returns all configured directories. When no structured records
// exist yet, a legacy plain-text directory list is imported once.
func (r *Repository) List(ctx context.Context) ([]Source, error) {
	sources, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		return sources, nil
	}

	if migrated := r.migrateLegacy(ctx); migrated > 0 {
		return r.list(ctx)
	}

	return sources, nil
}

func (r *Repository) list(ctx context.Context) ([]Source, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT path, primary_source, secondary_source, conflict_policy FROM sources ORDER BY path",
	)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	sources := make([]Source, 0)
	for rows.Next() {
		var src Source
		var primary, secondary, policy int
		if err := rows.Scan(&src.Path, &primary, &secondary, &policy); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		src.Primary = Type(primary)
		src.Secondary = Type(secondary)
		src.Policy = ConflictPolicy(policy)
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source rows: %w", err)
	}

	return sources, nil
}

func (r *Repository) Add(ctx context.Context, src Source) error {
	if strings.TrimSpace(src.Path) == "" {
		return errors.New("source path is required")
	}

	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sources(path, primary_source, secondary_source, conflict_policy)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			primary_source = excluded.primary_source,
			secondary_source = excluded.secondary_source,
			conflict_policy = excluded.conflict_policy`,
		src.Path,
		int(src.Primary),
		int(src.Secondary),
		int(src.Policy),
	); err != nil {
		return fmt.Errorf("insert source %s: %w", src.Path, err)
	}

	return nil
}

func (r *Repository) Remove(ctx context.Context, path string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sources WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("delete source %s: %w", path, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted source count: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSourceNotFound
	}

	return nil
}

// ForPath resolves the configuration governing filePath by longest prefix
// match across all configured directories.
func (r *Repository) ForPath(ctx context.Context, filePath string) Source {
	sources, err := r.List(ctx)
	if err != nil {
		r.log.Warn("resolve source config failed, using defaults", "path", filePath, "error", err)
		return Default()
	}

	return ForPath(sources, filePath)
}

// migrateLegacy imports a plain-text directory list (one path per line)
// left behind by old releases, then renames the file so it is never read
// again. Returns the number of imported directories.
func (r *Repository) migrateLegacy(ctx context.Context) int {
	if r.legacyPath == "" {
		return 0
	}

	f, err := os.Open(r.legacyPath)
	if err != nil {
		return 0
	}
	defer f.Close()

	imported := 0
	lines := bufio.NewScanner(f)
	for lines.Scan() {
		path := strings.TrimSpace(lines.Text())
		if path == "" {
			continue
		}

		src := Default()
		src.Path = path
		if err := r.Add(ctx, src); err != nil {
			r.log.Warn("legacy directory import failed", "path", path, "error", err)
			continue
		}
		imported++
	}

	if imported > 0 {
		r.log.Info("imported legacy directory list", "path", r.legacyPath, "count", imported)
		if err := os.Rename(r.legacyPath, r.legacyPath+".imported"); err != nil {
			r.log.Warn("rename legacy directory list failed", "error", err)
		}
	}

	return imported
}
