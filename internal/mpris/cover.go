//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

var coverExts = []string{".jpg", ".png", ".jpeg"}

// FindAlbumArt looks for an image next to the source: first one sharing
// its base name (song.flac -> song.jpg), then the usual cover names.
// Returns the empty string when there is none.
func FindAlbumArt(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	candidates := make([]string, 0, len(coverExts)+len(coverNames))
	for _, ext := range coverExts {
		candidates = append(candidates, stem+ext)
	}
	candidates = append(candidates, coverNames...)

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}
