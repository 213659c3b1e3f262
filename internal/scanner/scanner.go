// Package scanner walks configured base directories and feeds the library
// cache. Files whose size and mtime match the cached entry are fast-skipped
// with only a cheap rating probe; everything else gets a full metadata read.
package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"attune/internal/library"
	"attune/internal/metadata"
)

// MetadataReader is the slice of the metadata codec the scanner needs.
// Tests substitute fakes so no real audio files are required.
type MetadataReader interface {
	// ReadCombined returns tags and attributes as one merged snapshot.
	ReadCombined(path string) (metadata.TagData, bool)
	// ReadAttrRating probes only the rating attribute.
	ReadAttrRating(path string) int
}

var defaultExtensions = []string{
	".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac", ".wma",
}

const (
	defaultFullBatch   = 100
	defaultRatingBatch = 50
	progressInterval   = 100 * time.Millisecond
)

type Config struct {
	// Extensions overrides the recognized file extensions (with dots,
	// lowercase). Empty means the default set.
	Extensions []string

	// FullBatchSize and RatingBatchSize bound how many results accumulate
	// before a flush to the cache.
	FullBatchSize   int
	RatingBatchSize int
}

// NewFactory returns the constructor the library cache uses to spawn one
// walk per base directory.
func NewFactory(cfg Config, reader MetadataReader, log *slog.Logger) library.ScannerFactory {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.FullBatchSize <= 0 {
		cfg.FullBatchSize = defaultFullBatch
	}
	if cfg.RatingBatchSize <= 0 {
		cfg.RatingBatchSize = defaultRatingBatch
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	return func(base string, known map[string]library.Entry, sink library.Sink) library.ScanJob {
		return &walk{
			base:    base,
			known:   known,
			sink:    sink,
			reader:  reader,
			cfg:     cfg,
			allowed: allowed,
			log:     log,
		}
	}
}

type walk struct {
	base    string
	known   map[string]library.Entry
	sink    library.Sink
	reader  MetadataReader
	cfg     Config
	allowed map[string]bool
	log     *slog.Logger

	start time.Time

	mu       sync.Mutex
	full     []library.Entry
	ratings  []library.RatingUpdate
	dirs     int
	scanned  int
	updated  int
	lastNote time.Time
}

// Run walks the base directory, fanning file reads out to a small worker
// pool. On cancellation the walk stops descending, workers drain, and the
// partial results are still flushed and reported.
func (w *walk) Run(ctx context.Context) {
	w.start = time.Now()
	paths := make(chan string)

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				w.process(path)
			}
		}()
	}

	w.walkDirs(ctx, paths)
	close(paths)
	wg.Wait()

	w.flush(true)
	w.sink.ScanDone(w.base, w.scanned, w.updated, ctx.Err() != nil)
}

// walkDirs is an explicit-stack depth-first traversal. Dot-prefixed names
// are skipped entirely; unreadable directories are logged and skipped.
func (w *walk) walkDirs(ctx context.Context, paths chan<- string) {
	stack := []string{w.base}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			w.log.Warn("unreadable directory skipped", "dir", dir, "error", err)
			continue
		}
		w.noteDir()

		for _, de := range dirEntries {
			name := de.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}

			full := filepath.Join(dir, name)
			if de.IsDir() {
				stack = append(stack, full)
				continue
			}
			if !w.allowed[strings.ToLower(filepath.Ext(name))] {
				continue
			}

			select {
			case paths <- full:
			case <-ctx.Done():
				return
			}
		}
	}
}

// process handles one file. Errors are per-file: a bad file never aborts
// the walk.
func (w *walk) process(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Debug("stat failed", "path", path, "error", err)
		return
	}

	w.noteScanned()

	prev, ok := w.known[path]
	if ok && prev.MTime == info.ModTime().Unix() && prev.Size == info.Size() {
		// Unchanged on disk. Native rating attributes can move without
		// touching mtime, so probe that one key before skipping.
		if rating := w.reader.ReadAttrRating(path); rating != prev.Rating {
			w.addRating(library.RatingUpdate{Path: path, Rating: rating})
		}
		return
	}

	td, _ := w.reader.ReadCombined(path)

	e := library.Entry{
		Path:  path,
		Base:  w.base,
		Size:  info.Size(),
		MTime: info.ModTime().Unix(),
		Inode: inodeOf(info),
	}
	e.ApplyTags(td)
	if e.Title == "" {
		name := filepath.Base(path)
		e.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	w.addFull(e)
}

func (w *walk) noteDir() {
	w.mu.Lock()
	w.dirs++
	w.mu.Unlock()
}

func (w *walk) noteScanned() {
	w.mu.Lock()
	w.scanned++
	w.maybeNoteProgressLocked()
	w.mu.Unlock()
}

func (w *walk) addFull(e library.Entry) {
	w.mu.Lock()
	w.full = append(w.full, e)
	w.updated++
	shouldFlush := len(w.full) >= w.cfg.FullBatchSize
	w.mu.Unlock()

	if shouldFlush {
		w.flush(false)
	}
}

func (w *walk) addRating(r library.RatingUpdate) {
	w.mu.Lock()
	w.ratings = append(w.ratings, r)
	w.updated++
	shouldFlush := len(w.ratings) >= w.cfg.RatingBatchSize
	w.mu.Unlock()

	if shouldFlush {
		w.flush(false)
	}
}

// maybeNoteProgressLocked emits a throttled progress event. Callers hold
// w.mu.
func (w *walk) maybeNoteProgressLocked() {
	now := time.Now()
	if now.Sub(w.lastNote) < progressInterval {
		return
	}
	w.lastNote = now

	p := w.progressLocked()
	go w.sink.Progress(w.base, p)
}

// progressLocked snapshots the running totals. Callers hold w.mu.
func (w *walk) progressLocked() library.ScanProgress {
	return library.ScanProgress{
		Dirs:    w.dirs,
		Scanned: w.scanned,
		Updated: w.updated,
		Elapsed: time.Since(w.start),
	}
}

// flush hands accumulated results to the cache. The buffers are swapped
// out under the lock and delivered outside it so workers keep moving.
func (w *walk) flush(final bool) {
	w.mu.Lock()
	full, ratings := w.full, w.ratings
	w.full, w.ratings = nil, nil
	p := w.progressLocked()
	w.mu.Unlock()

	if len(full) > 0 || len(ratings) > 0 {
		w.sink.ApplyBatch(library.Batch{Base: w.base, Full: full, Ratings: ratings})
	}
	if final {
		w.sink.Progress(w.base, p)
	}
}
