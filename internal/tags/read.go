package tags

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Read reads the tags of the audio file at path. Files without tags give
// an untagged Tag titled with the file name.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
		return fill(&Tag{Path: path}), nil
	case err != nil && strings.EqualFold(filepath.Ext(path), ".mp3"):
		// dhowden/tag rejects some UTF-16 ID3 frames that id3v2 reads.
		return readID3(path)
	case err != nil:
		return nil, err
	}

	track, tracks := m.Track()
	disc, discs := m.Disc()
	return fill(&Tag{
		Path:        path,
		Format:      string(m.Format()),
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		Year:        m.Year(),
		Track:       Position{N: track, Of: tracks},
		Disc:        Position{N: disc, Of: discs},
		Artwork:     m.Picture() != nil,
	}), nil
}

// fill applies the display fallbacks: title from the file name, album
// artist from the artist.
func fill(t *Tag) *Tag {
	if t.Title == "" {
		t.Title = filepath.Base(t.Path)
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}
	return t
}
