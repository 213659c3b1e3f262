package tagsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"attune/internal/library"
	"attune/internal/metadata"
	"attune/internal/source"
)

var ErrEntryNotFound = errors.New("entry not in library")

// Direction optionally overrides the per-directory source configuration
// for one sync run.
type Direction int

const (
	// DirectionAuto syncs from each directory's configured primary store
	// toward its secondary.
	DirectionAuto Direction = iota
	// DirectionToTags forces attributes -> embedded tags.
	DirectionToTags
	// DirectionToAttrs forces embedded tags -> native attributes.
	DirectionToAttrs
)

// Decision is a conflict resolver's answer for one file.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionKeepSource
	DecisionKeepTarget
)

// Conflict describes one file whose two stores disagree on at least one
// populated field. Conflicts are presented one at a time, in scan order.
type Conflict struct {
	Path   string
	Index  int
	Total  int
	Source metadata.TagData
	Target metadata.TagData
}

// ConflictResolver decides conflicts during a sync run under the ask
// policy. A nil resolver skips conflicted files.
type ConflictResolver interface {
	Resolve(ctx context.Context, c Conflict) Decision
}

// Codec is the metadata I/O surface the engine needs. Satisfied by
// *metadata.Codec; tests substitute fakes.
type Codec interface {
	ReadTags(path string) (metadata.TagData, bool)
	ReadAttributes(path string) (metadata.TagData, bool)
	WriteTagsToFile(path string, td metadata.TagData, cover []byte) bool
	WriteAttributes(path string, td metadata.TagData) bool
	IsAttrVolume(path string) bool
	ExtractEmbeddedCover(path string) ([]byte, string, bool)
	WriteEmbeddedCover(path string, data []byte, mimeType string) bool
}

// Engine applies edits and runs store-to-store synchronization. It writes
// through the library cache so the catalog and the files never drift.
type Engine struct {
	codec   Codec
	sources *source.Repository
	cache   *library.Cache
	emit    library.Emitter
	log     *slog.Logger
}

func NewEngine(codec Codec, sources *source.Repository, cache *library.Cache, emit library.Emitter, log *slog.Logger) *Engine {
	if emit == nil {
		emit = func(string, any) {}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{codec: codec, sources: sources, cache: cache, emit: emit, log: log}
}

// SaveTags applies a partial edit to one file, writing every store the
// file's directory configuration names, then updates the catalog.
func (e *Engine) SaveTags(ctx context.Context, path string, patch FieldPatch) error {
	entry, ok := e.cache.Get(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	if patch.IsEmpty() {
		return nil
	}

	td := entry.Tags()
	patch.apply(&td)

	cfg := e.sources.ForPath(ctx, path)
	if err := e.writeStores(path, td, cfg); err != nil {
		return err
	}

	entry.ApplyTags(td)
	e.refreshStamp(&entry)
	return e.cache.AddOrUpdateEntry(entry)
}

func (e *Engine) writeStores(path string, td metadata.TagData, cfg source.Source) error {
	wroteAny := false
	for _, t := range []source.Type{cfg.Primary, cfg.Secondary} {
		switch t {
		case source.TypeTags:
			if !e.codec.WriteTagsToFile(path, td, nil) {
				return fmt.Errorf("write embedded tags: %s", path)
			}
			wroteAny = true
		case source.TypeAttrs:
			if !e.codec.IsAttrVolume(path) {
				e.log.Debug("attribute store unavailable", "path", path)
				continue
			}
			if !e.codec.WriteAttributes(path, td) {
				return fmt.Errorf("write native attributes: %s", path)
			}
			wroteAny = true
		}
	}

	if !wroteAny {
		return fmt.Errorf("no writable metadata store for %s", path)
	}
	return nil
}

// SaveTagsForFiles applies one patch to several files. Per-file failures
// are logged and counted; the batch always runs to the end.
func (e *Engine) SaveTagsForFiles(ctx context.Context, paths []string, patch FieldPatch) (saved, failed int) {
	for _, path := range paths {
		if err := e.SaveTags(ctx, path, patch); err != nil {
			e.log.Warn("save tags failed", "path", path, "error", err)
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

// SyncMetadata reconciles both stores for every catalog entry under base
// (all entries when base is empty). dir overrides the configured
// source/target pair; resolver answers ask-policy conflicts.
func (e *Engine) SyncMetadata(ctx context.Context, base string, dir Direction, resolver ConflictResolver) (library.SyncDonePayload, error) {
	return e.syncEntries(ctx, e.cache.Snapshot(base), dir, resolver)
}

// SyncFiles reconciles an explicit file list. Files outside the catalog
// are still synced; only catalogued ones get their entry refreshed.
func (e *Engine) SyncFiles(ctx context.Context, paths []string, dir Direction, resolver ConflictResolver) (library.SyncDonePayload, error) {
	entries := make([]library.Entry, 0, len(paths))
	for _, path := range paths {
		entry, ok := e.cache.Get(path)
		if !ok {
			entry = library.Entry{Path: path}
		}
		entries = append(entries, entry)
	}
	return e.syncEntries(ctx, entries, dir, resolver)
}

func (e *Engine) syncEntries(ctx context.Context, entries []library.Entry, dir Direction, resolver ConflictResolver) (library.SyncDonePayload, error) {
	total := len(entries)

	var result library.SyncDonePayload
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			e.emit(library.EventSyncDone, result)
			return result, err
		}
		if entry.Missing {
			result.Skipped++
			continue
		}

		e.emit(library.EventSyncProgress, library.SyncProgressPayload{
			Done: i, Total: total, Path: entry.Path,
		})

		e.syncFile(ctx, entry, dir, resolver, i, total, &result)
	}

	e.emit(library.EventSyncDone, result)
	return result, nil
}

func (e *Engine) syncFile(ctx context.Context, entry library.Entry, dir Direction, resolver ConflictResolver, index, total int, result *library.SyncDonePayload) {
	cfg := e.sources.ForPath(ctx, entry.Path)

	// The primary store leads the merge; both configured stores converge
	// on the merged result. A direction override narrows the write side to
	// one store.
	primaryType := cfg.Primary
	writeTags := cfg.Primary == source.TypeTags || cfg.Secondary == source.TypeTags
	writeAttrs := cfg.Primary == source.TypeAttrs || cfg.Secondary == source.TypeAttrs
	switch dir {
	case DirectionToTags:
		primaryType = source.TypeAttrs
		writeTags, writeAttrs = true, false
	case DirectionToAttrs:
		primaryType = source.TypeTags
		writeTags, writeAttrs = false, true
	}
	if primaryType == source.TypeNone || (!writeTags && !writeAttrs) {
		result.Skipped++
		return
	}
	if !e.codec.IsAttrVolume(entry.Path) {
		if primaryType == source.TypeAttrs {
			result.Skipped++
			return
		}
		writeAttrs = false
		if !writeTags {
			result.Skipped++
			return
		}
	}

	tags, _ := e.codec.ReadTags(entry.Path)
	attrs, _ := e.codec.ReadAttributes(entry.Path)

	primaryData, secondaryData := tags, attrs
	if primaryType == source.TypeAttrs {
		primaryData, secondaryData = attrs, tags
	}

	// SmartMerge favors the primary store; under overwrite and fill-empty
	// a conflict silently resolves in its favor, under ask it escalates.
	merged, _, conflict := metadata.SmartMerge(primaryData, secondaryData)
	if conflict && cfg.Policy == source.PolicyAsk {
		result.Conflicts++
		e.emit(library.EventSyncConflict, library.SyncConflictPayload{
			Path: entry.Path, Index: index, Total: total,
		})

		if resolver == nil {
			result.Skipped++
			return
		}
		switch resolver.Resolve(ctx, Conflict{
			Path: entry.Path, Index: index, Total: total,
			Source: primaryData, Target: secondaryData,
		}) {
		case DecisionKeepSource:
			// merged already favors the primary store
		case DecisionKeepTarget:
			merged, _, _ = metadata.SmartMerge(secondaryData, primaryData)
		default:
			result.Skipped++
			return
		}
	}

	wrote, failed := false, false
	if writeTags && metadata.HasDifferences(merged, tags) {
		if e.codec.WriteTagsToFile(entry.Path, merged, nil) {
			wrote = true
		} else {
			failed = true
		}
	}
	if writeAttrs && metadata.HasDifferences(merged, attrs) {
		if e.codec.WriteAttributes(entry.Path, merged) {
			wrote = true
		} else {
			failed = true
		}
	}

	switch {
	case failed:
		result.Failed++
	case wrote:
		result.Synced++
	default:
		result.Skipped++
	}
	// Files synced outside the catalog (explicit file lists) have no base
	// and leave the catalog untouched.
	if !wrote || entry.Base == "" {
		return
	}

	entry.ApplyTags(merged)
	e.refreshStamp(&entry)
	if err := e.cache.AddOrUpdateEntry(entry); err != nil {
		e.log.Warn("catalog update after sync failed", "path", entry.Path, "error", err)
	}
}

// refreshStamp re-reads the file identity after a write so the next scan
// fast-skips instead of re-reading.
func (e *Engine) refreshStamp(entry *library.Entry) {
	info, err := os.Stat(entry.Path)
	if err != nil {
		return
	}
	entry.Size = info.Size()
	entry.MTime = info.ModTime().Unix()
}
