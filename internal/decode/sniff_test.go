package decode

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromMagic(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want kind
	}{
		{"flac", []byte("fLaC\x00\x00\x00\x22"), kindFLAC},
		{"ogg", []byte("OggS\x00\x02"), kindOgg},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), kindWAV},
		{"riff not wave", []byte("RIFF\x24\x00\x00\x00AVI "), kindUnknown},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), kindM4A},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, kindMP3},
		{"short", []byte("fL"), kindUnknown},
		{"empty", nil, kindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kindFromMagic(tt.head))
		})
	}
}

func TestSniff_ExtensionFallback(t *testing.T) {
	r := bytes.NewReader([]byte("garbage bytes"))

	k, offset, err := sniff(r, "/music/track.opus")

	require.NoError(t, err)
	assert.Equal(t, kindOgg, k)
	assert.Zero(t, offset)
}

func TestSniff_ID3BeforeFLAC(t *testing.T) {
	data := id3Header(10)
	data = append(data, make([]byte, 10)...)
	data = append(data, []byte("fLaC\x00\x00\x00\x22")...)
	r := bytes.NewReader(data)

	k, offset, err := sniff(r, "track.flac")

	require.NoError(t, err)
	assert.Equal(t, kindFLAC, k)
	assert.Equal(t, int64(20), offset)
	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Zero(t, pos, "reader is rewound")
}

func TestSniff_ID3BeforeMP3(t *testing.T) {
	data := id3Header(4)
	data = append(data, 0, 0, 0, 0, 0xFF, 0xFB, 0x90, 0x64)

	k, offset, err := sniff(bytes.NewReader(data), "track.flac")

	require.NoError(t, err)
	assert.Equal(t, kindMP3, k)
	assert.Zero(t, offset)
}

func TestID3v2Size_Syncsafe(t *testing.T) {
	// 0x01 0x7F in the low bytes is 1<<7 + 127.
	h := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0x01, 0x7F}
	assert.Equal(t, int64(10+255), id3v2Size(h))
}

func id3Header(size int) []byte {
	return []byte{
		'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7F), byte(size >> 14 & 0x7F), byte(size >> 7 & 0x7F), byte(size & 0x7F),
	}
}
