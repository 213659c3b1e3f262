package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"attune/internal/library"
	"attune/internal/metadata"
)

type fakeReader struct {
	mu      sync.Mutex
	tags    map[string]metadata.TagData
	ratings map[string]int
	reads   []string
}

func (f *fakeReader) ReadCombined(path string) (metadata.TagData, bool) {
	f.mu.Lock()
	f.reads = append(f.reads, path)
	f.mu.Unlock()

	td, ok := f.tags[path]
	return td, ok
}

func (f *fakeReader) ReadAttrRating(path string) int {
	return f.ratings[path]
}

func (f *fakeReader) tagReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads)
}

type fakeSink struct {
	mu        sync.Mutex
	batches   []library.Batch
	progress  []library.ScanProgress
	done      bool
	scanned   int
	updated   int
	cancelled bool
}

func (f *fakeSink) ApplyBatch(b library.Batch) {
	f.mu.Lock()
	f.batches = append(f.batches, b)
	f.mu.Unlock()
}

func (f *fakeSink) Progress(_ string, p library.ScanProgress) {
	f.mu.Lock()
	f.progress = append(f.progress, p)
	f.mu.Unlock()
}

func (f *fakeSink) lastProgress() library.ScanProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.progress) == 0 {
		return library.ScanProgress{}
	}
	return f.progress[len(f.progress)-1]
}

func (f *fakeSink) ScanDone(_ string, scanned, updated int, cancelled bool) {
	f.mu.Lock()
	f.done = true
	f.scanned = scanned
	f.updated = updated
	f.cancelled = cancelled
	f.mu.Unlock()
}

func (f *fakeSink) allEntries() map[string]library.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]library.Entry)
	for _, b := range f.batches {
		for _, e := range b.Full {
			out[e.Path] = e
		}
	}
	return out
}

func (f *fakeSink) allRatings() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int)
	for _, b := range f.batches {
		for _, r := range b.Ratings {
			out[r.Path] = r.Rating
		}
	}
	return out
}

func writeStub(t *testing.T, path string) os.FileInfo {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat stub: %v", err)
	}
	return info
}

func runWalk(t *testing.T, base string, known map[string]library.Entry, reader *fakeReader) *fakeSink {
	t.Helper()

	sink := &fakeSink{}
	factory := NewFactory(Config{}, reader, nil)
	factory(base, known, sink).Run(context.Background())

	if !sink.done {
		t.Fatal("scan never reported done")
	}
	return sink
}

func TestWalk_ReadsNewFilesAndSkipsUnsupported(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	track := filepath.Join(base, "album", "01 aurora.mp3")
	writeStub(t, track)
	writeStub(t, filepath.Join(base, "album", "cover.jpg"))
	writeStub(t, filepath.Join(base, ".hidden", "ghost.mp3"))

	reader := &fakeReader{tags: map[string]metadata.TagData{
		track: {Title: "Aurora", Artist: "Lumen", Rating: 6},
	}}
	sink := runWalk(t, base, nil, reader)

	entries := sink.allEntries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(entries), entries)
	}

	e := entries[track]
	if e.Title != "Aurora" || e.Artist != "Lumen" || e.Rating != 6 {
		t.Fatalf("tag data not applied: %+v", e)
	}
	if e.Base != base {
		t.Fatalf("entry base = %q, want %q", e.Base, base)
	}
	if e.Size == 0 || e.MTime == 0 {
		t.Fatalf("file identity not recorded: %+v", e)
	}
	if sink.scanned != 1 || sink.updated != 1 {
		t.Fatalf("scanned=%d updated=%d, want 1/1", sink.scanned, sink.updated)
	}
}

func TestWalk_TitleFallsBackToFilename(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	track := filepath.Join(base, "untagged song.flac")
	writeStub(t, track)

	sink := runWalk(t, base, nil, &fakeReader{})

	e := sink.allEntries()[track]
	if e.Title != "untagged song" {
		t.Fatalf("title = %q, want filename fallback", e.Title)
	}
}

func TestWalk_FastSkipProbesRatingOnly(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	track := filepath.Join(base, "steady.mp3")
	info := writeStub(t, track)

	known := map[string]library.Entry{
		track: {
			Path:   track,
			Base:   base,
			Size:   info.Size(),
			MTime:  info.ModTime().Unix(),
			Rating: 3,
		},
	}
	reader := &fakeReader{ratings: map[string]int{track: 7}}
	sink := runWalk(t, base, known, reader)

	if reader.tagReads() != 0 {
		t.Fatalf("fast-skip path performed %d full reads", reader.tagReads())
	}
	if got := sink.allRatings()[track]; got != 7 {
		t.Fatalf("rating update = %d, want 7", got)
	}
}

func TestWalk_FastSkipUnchangedRatingIsSilent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	track := filepath.Join(base, "steady.mp3")
	info := writeStub(t, track)

	known := map[string]library.Entry{
		track: {Path: track, Base: base, Size: info.Size(), MTime: info.ModTime().Unix(), Rating: 5},
	}
	reader := &fakeReader{ratings: map[string]int{track: 5}}
	sink := runWalk(t, base, known, reader)

	if len(sink.batches) != 0 {
		t.Fatalf("unchanged file produced batches: %v", sink.batches)
	}
	if sink.updated != 0 {
		t.Fatalf("updated = %d, want 0", sink.updated)
	}
}

func TestWalk_ChangedFileGetsFullRead(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	track := filepath.Join(base, "edited.mp3")
	info := writeStub(t, track)

	known := map[string]library.Entry{
		track: {Path: track, Base: base, Size: info.Size() + 10, MTime: info.ModTime().Unix()},
	}
	reader := &fakeReader{tags: map[string]metadata.TagData{track: {Title: "Edited"}}}
	sink := runWalk(t, base, known, reader)

	if reader.tagReads() != 1 {
		t.Fatalf("full reads = %d, want 1", reader.tagReads())
	}
	if e := sink.allEntries()[track]; e.Title != "Edited" {
		t.Fatalf("changed file not re-read: %+v", e)
	}
}

func TestWalk_CancelledScanStillReportsDone(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		writeStub(t, filepath.Join(base, name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	factory := NewFactory(Config{}, &fakeReader{}, nil)

	doneCh := make(chan struct{})
	go func() {
		factory(base, nil, sink).Run(ctx)
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled walk did not finish")
	}

	if !sink.done || !sink.cancelled {
		t.Fatalf("done=%v cancelled=%v, want true/true", sink.done, sink.cancelled)
	}
}

func TestWalk_BatchFlushThreshold(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	tags := make(map[string]metadata.TagData)
	for i := range 5 {
		path := filepath.Join(base, string(rune('a'+i))+".mp3")
		writeStub(t, path)
		tags[path] = metadata.TagData{Title: "t"}
	}

	sink := &fakeSink{}
	factory := NewFactory(Config{FullBatchSize: 2}, &fakeReader{tags: tags}, nil)
	factory(base, nil, sink).Run(context.Background())

	if len(sink.batches) < 2 {
		t.Fatalf("expected multiple flushes, got %d", len(sink.batches))
	}
	if len(sink.allEntries()) != 5 {
		t.Fatalf("entries lost across flushes: %d", len(sink.allEntries()))
	}
}

func TestWalk_DefaultExtensionAllowList(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	for _, name := range []string{
		"a.mp3", "b.wav", "c.flac", "d.ogg", "e.m4a", "f.aac", "g.wma",
	} {
		writeStub(t, filepath.Join(base, name))
	}
	for _, name := range []string{"h.opus", "i.mp4", "j.aiff", "k.txt"} {
		writeStub(t, filepath.Join(base, name))
	}

	sink := runWalk(t, base, nil, &fakeReader{})

	if len(sink.allEntries()) != 7 {
		t.Fatalf("got %d entries, want the 7 recognized formats: %v",
			len(sink.allEntries()), sink.allEntries())
	}
}

func TestWalk_ProgressCountsDirsAndElapsed(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeStub(t, filepath.Join(base, "a.mp3"))
	writeStub(t, filepath.Join(base, "album", "b.mp3"))

	sink := runWalk(t, base, nil, &fakeReader{})

	p := sink.lastProgress()
	if p.Dirs != 2 {
		t.Fatalf("dirs = %d, want 2", p.Dirs)
	}
	if p.Scanned != 2 || p.Updated != 2 {
		t.Fatalf("scanned=%d updated=%d, want 2/2", p.Scanned, p.Updated)
	}
	if p.Elapsed <= 0 {
		t.Fatalf("elapsed = %v, want positive", p.Elapsed)
	}
}
