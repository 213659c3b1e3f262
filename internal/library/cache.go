package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"attune/internal/source"
)

var ErrScanInProgress = errors.New("a scan is already running")

// RatingUpdate is the fast-skip path's output: the file was unchanged on
// disk but its native rating attribute moved.
type RatingUpdate struct {
	Path   string
	Rating int
}

// Batch is a scanner flush. Full carries complete snapshots of changed
// files, Ratings carries rating-only refreshes.
type Batch struct {
	Base    string
	Full    []Entry
	Ratings []RatingUpdate
}

// ScanProgress is one scanner's running totals.
type ScanProgress struct {
	Dirs    int
	Scanned int
	Updated int
	Elapsed time.Duration
}

// Sink is the cache as seen by a running scanner.
type Sink interface {
	ApplyBatch(b Batch)
	Progress(base string, p ScanProgress)
	ScanDone(base string, scanned, updated int, cancelled bool)
}

// ScanJob walks one base directory until done or cancelled.
type ScanJob interface {
	Run(ctx context.Context)
}

// ScannerFactory builds a scan job for one base directory. known holds the
// cache's current view of that base for fast-skip decisions.
type ScannerFactory func(base string, known map[string]Entry, sink Sink) ScanJob

// Cache owns the catalog. All state below the inbox is touched only by the
// run loop; external callers go through the message channel and get copies.
type Cache struct {
	store   *EntryStore
	sources *source.Repository
	factory ScannerFactory
	emit    Emitter
	log     *slog.Logger

	inbox  chan message
	closed chan struct{}

	entries map[string]Entry

	activeScans   int
	scanCancel    context.CancelFunc
	scanScanned   int
	scanUpdated   int
	scanCancelled bool
}

type message interface{ isMessage() }

type batchMsg struct{ batch Batch }
type progressMsg struct {
	base     string
	progress ScanProgress
}
type scanDoneMsg struct {
	base             string
	scanned, updated int
	cancelled        bool
}
type markMissingMsg struct{ paths []string }
type baseOfflineMsg struct{ base string }
type startScanMsg struct{ reply chan error }
type cancelScanMsg struct{}
type upsertMsg struct {
	entry Entry
	reply chan error
}
type snapshotMsg struct {
	base  string
	reply chan []Entry
}
type getMsg struct {
	path  string
	reply chan getReply
}
type getReply struct {
	entry Entry
	ok    bool
}
type stopMsg struct{ reply chan struct{} }

func (batchMsg) isMessage()       {}
func (progressMsg) isMessage()    {}
func (scanDoneMsg) isMessage()    {}
func (markMissingMsg) isMessage() {}
func (baseOfflineMsg) isMessage() {}
func (startScanMsg) isMessage()   {}
func (cancelScanMsg) isMessage()  {}
func (upsertMsg) isMessage()      {}
func (snapshotMsg) isMessage()    {}
func (getMsg) isMessage()         {}
func (stopMsg) isMessage()        {}

func NewCache(store *EntryStore, sources *source.Repository, factory ScannerFactory, emit Emitter, log *slog.Logger) *Cache {
	if emit == nil {
		emit = func(string, any) {}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		store:   store,
		sources: sources,
		factory: factory,
		emit:    emit,
		log:     log,
		inbox:   make(chan message, 64),
		closed:  make(chan struct{}),
		entries: make(map[string]Entry),
	}
}

// Start loads the persisted catalog and starts the run loop. A load error
// is downgraded to an empty catalog so a damaged database never blocks
// startup; the next scan rebuilds it.
func (c *Cache) Start(ctx context.Context) {
	entries, err := c.store.LoadAll(ctx)
	if err != nil {
		c.log.Warn("catalog load failed, starting empty", "error", err)
		entries = make(map[string]Entry)
	}
	c.entries = entries
	c.emit(EventLoaded, LoadedPayload{Count: len(entries)})

	go c.run()
}

// Stop cancels any running scan and shuts the run loop down.
func (c *Cache) Stop() {
	reply := make(chan struct{})
	select {
	case c.inbox <- stopMsg{reply: reply}:
		<-reply
	case <-c.closed:
	}
}

// StartScan kicks off one scanner per configured, reachable base
// directory. Entries under bases no longer configured are pruned first;
// unreachable bases are marked offline without losing their entries.
func (c *Cache) StartScan() error {
	reply := make(chan error, 1)
	c.inbox <- startScanMsg{reply: reply}
	return <-reply
}

// CancelScan asks running scanners to stop. They flush what they have and
// report completion, so the catalog is still persisted.
func (c *Cache) CancelScan() {
	c.inbox <- cancelScanMsg{}
}

// MarkBaseOffline soft-deletes every entry under base. Listeners are
// notified once for the whole base.
func (c *Cache) MarkBaseOffline(base string) {
	c.inbox <- baseOfflineMsg{base: base}
}

// AddOrUpdateEntry replaces one entry after an edit, persisting it
// immediately.
func (c *Cache) AddOrUpdateEntry(e Entry) error {
	reply := make(chan error, 1)
	c.inbox <- upsertMsg{entry: e, reply: reply}
	return <-reply
}

// Snapshot returns a copy of every entry, or of one base's entries when
// base is non-empty.
func (c *Cache) Snapshot(base string) []Entry {
	reply := make(chan []Entry, 1)
	c.inbox <- snapshotMsg{base: base, reply: reply}
	return <-reply
}

// Get returns a copy of one entry.
func (c *Cache) Get(path string) (Entry, bool) {
	reply := make(chan getReply, 1)
	c.inbox <- getMsg{path: path, reply: reply}
	r := <-reply
	return r.entry, r.ok
}

// Sink implementation; called from scanner goroutines.

func (c *Cache) ApplyBatch(b Batch) { c.inbox <- batchMsg{batch: b} }

func (c *Cache) Progress(base string, p ScanProgress) {
	c.inbox <- progressMsg{base: base, progress: p}
}

func (c *Cache) ScanDone(base string, scanned, updated int, cancelled bool) {
	c.inbox <- scanDoneMsg{base: base, scanned: scanned, updated: updated, cancelled: cancelled}
}

func (c *Cache) run() {
	defer close(c.closed)

	for msg := range c.inbox {
		switch m := msg.(type) {
		case batchMsg:
			c.applyBatch(m.batch)
		case progressMsg:
			c.emit(EventScanProgress, ScanProgressPayload{
				Base:       m.base,
				Dirs:       m.progress.Dirs,
				Scanned:    m.progress.Scanned,
				Updated:    m.progress.Updated,
				ElapsedSec: m.progress.Elapsed.Seconds(),
			})
		case scanDoneMsg:
			c.finishScanner(m)
		case markMissingMsg:
			c.markMissing(m.paths)
		case baseOfflineMsg:
			c.markBaseOffline(m.base)
		case startScanMsg:
			m.reply <- c.startScan()
		case cancelScanMsg:
			if c.scanCancel != nil {
				c.scanCancel()
			}
		case upsertMsg:
			m.reply <- c.upsert(m.entry)
		case snapshotMsg:
			m.reply <- c.snapshot(m.base)
		case getMsg:
			e, ok := c.entries[m.path]
			m.reply <- getReply{entry: e, ok: ok}
		case stopMsg:
			if c.scanCancel != nil {
				c.scanCancel()
			}
			c.drainScanners()
			m.reply <- struct{}{}
			return
		}
	}
}

// drainScanners keeps consuming scanner messages after shutdown begins so
// cancelled walks can flush and report instead of blocking on a full inbox.
func (c *Cache) drainScanners() {
	for c.activeScans > 0 {
		switch m := (<-c.inbox).(type) {
		case batchMsg:
			c.applyBatch(m.batch)
		case scanDoneMsg:
			c.finishScanner(m)
		case markMissingMsg:
			c.markMissing(m.paths)
		case baseOfflineMsg:
			c.markBaseOffline(m.base)
		}
	}
}

func (c *Cache) startScan() error {
	if c.activeScans > 0 {
		return ErrScanInProgress
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sources, err := c.sources.List(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("list scan directories: %w", err)
	}

	c.pruneUnconfigured(sources)

	// Listeners see the retained catalog before any scan results arrive,
	// so stale entries render immediately and get corrected in place.
	c.emit(EventLoaded, LoadedPayload{Count: len(c.entries)})

	c.scanScanned, c.scanUpdated, c.scanCancelled = 0, 0, false

	scanCtx, scanCancel := context.WithCancel(context.Background())
	c.scanCancel = scanCancel

	for _, src := range sources {
		base := src.Path
		known := c.entriesUnder(base)
		c.activeScans++
		go c.scanBase(scanCtx, base, known)
	}

	if c.activeScans == 0 {
		c.persist()
		c.scanCancel = nil
		c.emit(EventScanDone, ScanDonePayload{})
	}

	return nil
}

// scanBase runs outside the loop goroutine: reachability check, existence
// check of known entries, then the directory walk. Results flow back
// through the inbox.
func (c *Cache) scanBase(ctx context.Context, base string, known map[string]Entry) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		c.log.Warn("scan base unreachable", "base", base, "error", err)
		c.inbox <- baseOfflineMsg{base: base}
		c.ScanDone(base, 0, 0, false)
		return
	}

	var gone []string
	for path := range known {
		if _, err := os.Stat(path); err != nil {
			gone = append(gone, path)
		}
	}
	if len(gone) > 0 {
		c.inbox <- markMissingMsg{paths: gone}
	}

	c.factory(base, known, c).Run(ctx)
}

func (c *Cache) finishScanner(m scanDoneMsg) {
	c.activeScans--
	c.scanScanned += m.scanned
	c.scanUpdated += m.updated
	c.scanCancelled = c.scanCancelled || m.cancelled

	if c.activeScans > 0 {
		return
	}

	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}

	c.persist()
	c.emit(EventScanDone, ScanDonePayload{
		Scanned:   c.scanScanned,
		Updated:   c.scanUpdated,
		Cancelled: c.scanCancelled,
	})
}

func (c *Cache) applyBatch(b Batch) {
	for _, e := range b.Full {
		e.Missing = false
		c.entries[e.Path] = e
		c.emit(EventItemUpdated, e)
	}
	for _, r := range b.Ratings {
		e, ok := c.entries[r.Path]
		if !ok {
			continue
		}
		e.Rating = r.Rating
		e.Missing = false
		c.entries[r.Path] = e
		c.emit(EventItemUpdated, e)
	}
}

// markBaseOffline soft-deletes every entry under base with a single
// notification for the whole base.
func (c *Cache) markBaseOffline(base string) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	count := 0
	for path, e := range c.entries {
		if e.Base != base && !strings.HasPrefix(path, prefix) {
			continue
		}
		if !e.Missing {
			e.Missing = true
			c.entries[path] = e
		}
		count++
	}
	c.emit(EventBaseOffline, OfflinePayload{Base: base, Count: count})
}

func (c *Cache) markMissing(paths []string) {
	for _, path := range paths {
		e, ok := c.entries[path]
		if !ok || e.Missing {
			continue
		}
		e.Missing = true
		c.entries[path] = e
		c.emit(EventItemRemoved, RemovedPayload{Path: path})
	}
}

// pruneUnconfigured drops entries whose base directory is no longer
// configured. Offline bases keep their entries; only deconfigured ones are
// removed.
func (c *Cache) pruneUnconfigured(sources []source.Source) {
	configured := make(map[string]bool, len(sources))
	for _, src := range sources {
		configured[src.Path] = true
	}

	for path, e := range c.entries {
		if configured[e.Base] {
			continue
		}
		delete(c.entries, path)
		c.emit(EventItemRemoved, RemovedPayload{Path: path})
	}
}

func (c *Cache) upsert(e Entry) error {
	if old, ok := c.entries[e.Path]; ok && old.MBTrackID != "" && e.MBTrackID == "" {
		c.log.Warn("entry update drops track identifier", "path", e.Path, "mbTrackID", old.MBTrackID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.store.Upsert(ctx, e); err != nil {
		return err
	}

	c.entries[e.Path] = e
	c.emit(EventItemUpdated, e)
	return nil
}

func (c *Cache) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := c.store.ReplaceAll(ctx, c.entries); err != nil {
		c.log.Error("catalog persist failed", "error", err)
	}
}

func (c *Cache) snapshot(base string) []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if base != "" && e.Base != base {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *Cache) entriesUnder(base string) map[string]Entry {
	out := make(map[string]Entry)
	prefix := strings.TrimSuffix(base, "/") + "/"
	for path, e := range c.entries {
		if e.Base == base || strings.HasPrefix(path, prefix) {
			out[path] = e
		}
	}
	return out
}
