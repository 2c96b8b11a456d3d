package tags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/unitplayer/internal/testutil"
)

// writeMP3 writes one silent MPEG1 Layer III frame (128 kbps, 44.1 kHz)
// and tags it with edit.
func writeMP3(t *testing.T, name string, edit func(*id3v2.Tag)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	frame := make([]byte, 417)
	copy(frame, []byte{0xff, 0xfb, 0x90, 0x00})
	require.NoError(t, os.WriteFile(path, frame, 0o600))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	edit(tag)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())
	return path
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want Position
	}{
		{"", Position{}},
		{"5", Position{N: 5}},
		{"5/10", Position{N: 5, Of: 10}},
		{" 3/4 ", Position{N: 3, Of: 4}},
		{"invalid", Position{}},
		{"5/x", Position{N: 5}},
		{"x/10", Position{Of: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePosition(tt.in))
		})
	}
}

func TestPosition_String(t *testing.T) {
	assert.Empty(t, Position{}.String())
	assert.Empty(t, Position{Of: 9}.String())
	assert.Equal(t, "4", Position{N: 4}.String())
	assert.Equal(t, "2/11", Position{N: 2, Of: 11}.String())
}

func TestParseYear(t *testing.T) {
	assert.Equal(t, 1999, parseYear("1999-03-01"))
	assert.Equal(t, 2024, parseYear("2024"))
	assert.Equal(t, 2001, parseYear("2001-05-06T10:00"))
	assert.Zero(t, parseYear("soon"))
	assert.Zero(t, parseYear(""))
}

func TestReadID3(t *testing.T) {
	path := writeMP3(t, "test.mp3", func(tag *id3v2.Tag) {
		tag.SetTitle("Test Title")
		tag.SetArtist("Test Artist")
		tag.SetAlbum("Test Album")
		tag.SetYear("2024")
		tag.SetGenre("Rock")
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, "3/12")
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, "1/2")
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, "Test Album Artist")
	})

	got, err := readID3(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Title", got.Title)
	assert.Equal(t, "Test Artist", got.Artist)
	assert.Equal(t, "Test Album", got.Album)
	assert.Equal(t, "Test Album Artist", got.AlbumArtist)
	assert.Equal(t, "Rock", got.Genre)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, Position{N: 3, Of: 12}, got.Track)
	assert.Equal(t, Position{N: 1, Of: 2}, got.Disc)
	assert.Equal(t, "ID3v2.4", got.Format)
	assert.False(t, got.Artwork)
}

func TestReadID3_Fallbacks(t *testing.T) {
	path := writeMP3(t, "my-song.mp3", func(tag *id3v2.Tag) {
		tag.SetArtist("Solo Artist")
	})

	got, err := readID3(path)
	require.NoError(t, err)
	assert.Equal(t, "my-song.mp3", got.Title)
	assert.Equal(t, "Solo Artist", got.AlbumArtist)
	assert.False(t, got.Untagged())
}

func TestReadID3_Artwork(t *testing.T) {
	path := writeMP3(t, "art.mp3", func(tag *id3v2.Tag) {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/png",
			PictureType: id3v2.PTFrontCover,
			Picture:     []byte{0x89, 'P', 'N', 'G'},
		})
	})

	got, err := readID3(path)
	require.NoError(t, err)
	assert.True(t, got.Artwork)
}

func TestRead_ID3(t *testing.T) {
	path := writeMP3(t, "tagged.mp3", func(tag *id3v2.Tag) {
		tag.SetTitle("Intro")
		tag.SetArtist("The Band")
		tag.SetAlbum("Debut")
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, "1/9")
	})

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "The Band - Intro", got.Display())
	assert.Equal(t, "Debut", got.Album)
	assert.Equal(t, "1/9", got.Track.String())
	assert.Equal(t, "The Band", got.AlbumArtist)
}

func TestRead_Untagged(t *testing.T) {
	path := testutil.WriteWAV(t, "tone.wav", 8000, 4000, testutil.Constant(0.1))

	got, err := Read(path)
	require.NoError(t, err)
	assert.True(t, got.Untagged())
	assert.Equal(t, "tone.wav", got.Title)
	assert.Equal(t, "tone.wav", got.Display())
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
