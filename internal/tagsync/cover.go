package tagsync

import (
	"fmt"
	"os"
)

// CoverResult summarizes a cover operation across several files.
type CoverResult struct {
	Applied int
	Failed  int
}

// ApplyCoverToFiles embeds one image into each listed file. Files that
// reject the image (unsupported container, wrong image type for the
// container) count as failed; the rest of the batch proceeds.
func (e *Engine) ApplyCoverToFiles(paths []string, data []byte, mimeType string) CoverResult {
	var res CoverResult
	for _, path := range paths {
		if !e.codec.WriteEmbeddedCover(path, data, mimeType) {
			res.Failed++
			continue
		}
		res.Applied++
		e.refreshEntry(path)
	}
	return res
}

// ApplyCoverFromFile loads an image from disk and embeds it into each
// listed file.
func (e *Engine) ApplyCoverFromFile(paths []string, imagePath string) (CoverResult, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return CoverResult{}, fmt.Errorf("read cover image: %w", err)
	}
	return e.ApplyCoverToFiles(paths, data, ""), nil
}

// ApplyAlbumCover embeds an image into every present file of one album.
func (e *Engine) ApplyAlbumCover(album, albumArtist string, data []byte, mimeType string) CoverResult {
	return e.ApplyCoverToFiles(e.albumPaths(album, albumArtist), data, mimeType)
}

// ClearAlbumCover removes the embedded cover from every present file of
// one album.
func (e *Engine) ClearAlbumCover(album, albumArtist string) CoverResult {
	return e.ApplyCoverToFiles(e.albumPaths(album, albumArtist), nil, "")
}

// ExtractCover returns the embedded cover of one file.
func (e *Engine) ExtractCover(path string) ([]byte, string, bool) {
	return e.codec.ExtractEmbeddedCover(path)
}

func (e *Engine) albumPaths(album, albumArtist string) []string {
	var paths []string
	for _, entry := range e.cache.Snapshot("") {
		if entry.Missing || entry.Album != album {
			continue
		}
		if albumArtist != "" && entry.AlbumArtist != albumArtist {
			continue
		}
		paths = append(paths, entry.Path)
	}
	return paths
}

// refreshEntry updates the catalog's file identity after an in-place file
// rewrite.
func (e *Engine) refreshEntry(path string) {
	entry, ok := e.cache.Get(path)
	if !ok {
		return
	}
	e.refreshStamp(&entry)
	if err := e.cache.AddOrUpdateEntry(entry); err != nil {
		e.log.Warn("catalog update after cover write failed", "path", path, "error", err)
	}
}
