// Package tags reads the metadata shown for a source.
package tags

import (
	"strconv"
	"strings"
)

// Tag is the metadata of one source. Format is empty when the file
// carries no tags, in which case Title is the file name.
type Tag struct {
	Path   string
	Format string

	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int

	Track Position
	Disc  Position

	// Artwork reports an embedded picture.
	Artwork bool
}

// Position is an "N of M" index such as a track or disc number.
type Position struct {
	N  int
	Of int
}

// String returns "N/M", "N" or "".
func (p Position) String() string {
	switch {
	case p.N == 0:
		return ""
	case p.Of == 0:
		return strconv.Itoa(p.N)
	}
	return strconv.Itoa(p.N) + "/" + strconv.Itoa(p.Of)
}

// parsePosition parses "5" or "5/10". Unparsable parts are zero.
func parsePosition(s string) Position {
	n, of, _ := strings.Cut(strings.TrimSpace(s), "/")
	var p Position
	p.N, _ = strconv.Atoi(n)
	p.Of, _ = strconv.Atoi(of)
	return p
}

// parseYear reads the leading year of "2024", "2024-03-01" or
// "2024-03-01T10:00".
func parseYear(s string) int {
	if len(s) > 4 {
		s = s[:4]
	}
	y, _ := strconv.Atoi(s)
	return y
}

// Untagged reports whether the source had no tags.
func (t *Tag) Untagged() bool {
	return t.Format == ""
}

// Display returns "Artist - Title", or the title alone without an artist.
func (t *Tag) Display() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
