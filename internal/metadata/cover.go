package metadata

import (
	"bytes"
	"os"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Container families that can carry embedded artwork.
var coverCapable = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// ExtractEmbeddedCover returns the front cover image stored in the file's
// tags, with its MIME type when it is known.
func (c *Codec) ExtractEmbeddedCover(path string) ([]byte, string, bool) {
	if f, err := os.Open(path); err == nil {
		m, err := tag.ReadFrom(f)
		f.Close()
		if err == nil {
			if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
				return pic.Data, pic.MIMEType, true
			}
		}
	}

	data, err := taglib.ReadImage(path)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}
	return data, sniffImageMIME(data), true
}

// WriteEmbeddedCover replaces the file's front cover. Empty data removes
// the cover. Box-atom containers only accept PNG and JPEG; other image
// payloads report false without touching the file.
func (c *Codec) WriteEmbeddedCover(path string, data []byte, mimeType string) bool {
	ext := normalizeExt(path)
	if !coverCapable[ext] {
		return false
	}

	if len(data) == 0 {
		if err := taglib.WriteImage(path, nil); err != nil {
			c.log.Warn("cover removal failed", "path", path, "error", err)
			return false
		}
		return true
	}

	if mimeType == "" {
		mimeType = sniffImageMIME(data)
	}

	switch ext {
	case ".m4a", ".mp4", ".aac":
		if mimeType != "image/png" && mimeType != "image/jpeg" {
			return false
		}
	}

	if err := taglib.WriteImage(path, data); err != nil {
		c.log.Warn("cover write failed", "path", path, "error", err)
		return false
	}
	return true
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8}
)

func sniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	default:
		return ""
	}
}
