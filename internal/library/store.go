package library

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

const entryColumns = `path, base, title, artist, album, album_artist, composer,
	genre, comment, year, track, track_total, disc, disc_total, duration,
	bitrate, sample_rate, channels, size, mtime, inode, rating,
	mb_album_id, mb_artist_id, mb_track_id, missing`

const upsertEntrySQL = `INSERT INTO entries(` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		base = excluded.base,
		title = excluded.title,
		artist = excluded.artist,
		album = excluded.album,
		album_artist = excluded.album_artist,
		composer = excluded.composer,
		genre = excluded.genre,
		comment = excluded.comment,
		year = excluded.year,
		track = excluded.track,
		track_total = excluded.track_total,
		disc = excluded.disc,
		disc_total = excluded.disc_total,
		duration = excluded.duration,
		bitrate = excluded.bitrate,
		sample_rate = excluded.sample_rate,
		channels = excluded.channels,
		size = excluded.size,
		mtime = excluded.mtime,
		inode = excluded.inode,
		rating = excluded.rating,
		mb_album_id = excluded.mb_album_id,
		mb_artist_id = excluded.mb_artist_id,
		mb_track_id = excluded.mb_track_id,
		missing = excluded.missing`

// EntryStore persists the catalog in SQLite. The cache goroutine is the
// only writer during normal operation.
type EntryStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewEntryStore(database *sql.DB, log *slog.Logger) *EntryStore {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &EntryStore{db: database, log: log}
}

// LoadAll reads every persisted entry. Unreadable rows are skipped with a
// warning so one corrupt row cannot take the whole catalog down.
func (s *EntryStore) LoadAll(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM entries")
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			s.log.Warn("skipping unreadable catalog row", "error", err)
			continue
		}
		entries[e.Path] = e
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// ReplaceAll rewrites the whole catalog in one transaction. Used at scan
// completion so a crash mid-persist never leaves a half-written catalog.
func (s *EntryStore) ReplaceAll(ctx context.Context, entries map[string]Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog rewrite: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertEntrySQL)
	if err != nil {
		return fmt.Errorf("prepare catalog insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, entryArgs(e)...); err != nil {
			return fmt.Errorf("persist entry %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog rewrite: %w", err)
	}
	return nil
}

// Upsert persists a single entry, used for edits outside a scan.
func (s *EntryStore) Upsert(ctx context.Context, e Entry) error {
	if _, err := s.db.ExecContext(ctx, upsertEntrySQL, entryArgs(e)...); err != nil {
		return fmt.Errorf("persist entry %s: %w", e.Path, err)
	}
	return nil
}

// Delete removes a single entry row.
func (s *EntryStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete entry %s: %w", path, err)
	}
	return nil
}

func entryArgs(e Entry) []any {
	missing := 0
	if e.Missing {
		missing = 1
	}
	return []any{
		e.Path, e.Base, e.Title, e.Artist, e.Album, e.AlbumArtist, e.Composer,
		e.Genre, e.Comment, e.Year, e.Track, e.TrackTotal, e.Disc, e.DiscTotal,
		e.DurationSec, e.Bitrate, e.SampleRate, e.Channels, e.Size, e.MTime,
		int64(e.Inode), e.Rating, e.MBAlbumID, e.MBArtistID, e.MBTrackID,
		missing,
	}
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var inode int64
	var missing int
	if err := rows.Scan(
		&e.Path, &e.Base, &e.Title, &e.Artist, &e.Album, &e.AlbumArtist,
		&e.Composer, &e.Genre, &e.Comment, &e.Year, &e.Track, &e.TrackTotal,
		&e.Disc, &e.DiscTotal, &e.DurationSec, &e.Bitrate, &e.SampleRate,
		&e.Channels, &e.Size, &e.MTime, &inode, &e.Rating,
		&e.MBAlbumID, &e.MBArtistID, &e.MBTrackID, &missing,
	); err != nil {
		return Entry{}, fmt.Errorf("scan entry row: %w", err)
	}
	e.Inode = uint64(inode)
	e.Missing = missing == 1
	return e, nil
}
