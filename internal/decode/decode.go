// Package decode opens audio files as seekable beep streamers and reports
// their native sample format.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
)

// ErrUnsupportedFormat is returned for files no decoder recognizes.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Codec names reported in Description.Format.
const (
	FormatMP3    = "MP3"
	FormatFLAC   = "FLAC"
	FormatWAV    = "WAV"
	FormatOpus   = "OPUS"
	FormatVorbis = "VORBIS"
	FormatAAC    = "AAC"
	FormatALAC   = "ALAC"
)

// Description is the native sample format of a source.
type Description struct {
	Format        string
	SampleRate    int
	Channels      int
	BitsPerSample int
	Frames        int64 // per-channel sample frames
}

// IsZero reports whether no source has been described.
func (d Description) IsZero() bool {
	return d == Description{}
}

// Duration returns the length of the source.
func (d Description) Duration() time.Duration {
	if d.SampleRate <= 0 || d.Frames <= 0 {
		return 0
	}
	return time.Duration(float64(d.Frames) / float64(d.SampleRate) * float64(time.Second))
}

// BytesPerFrame returns the size of one interleaved frame in the native
// format, rounded up to whole bytes per sample.
func (d Description) BytesPerFrame() int {
	return d.Channels * ((d.BitsPerSample + 7) / 8)
}

// String returns a short human readable form, e.g. "FLAC 44100 Hz 16-bit stereo".
func (d Description) String() string {
	if d.IsZero() {
		return "none"
	}
	var layout string
	switch d.Channels {
	case 1:
		layout = "mono"
	case 2:
		layout = "stereo"
	default:
		layout = fmt.Sprintf("%d ch", d.Channels)
	}
	return fmt.Sprintf("%s %d Hz %d-bit %s", d.Format, d.SampleRate, d.BitsPerSample, layout)
}

// Source is an opened audio file. Streamed frames are always stereo
// (mono is duplicated, extra channels are dropped).
type Source struct {
	beep.StreamSeekCloser
	Path string
	Desc Description
}

// SampleRate returns the rate frames are streamed at.
func (s *Source) SampleRate() beep.SampleRate {
	return beep.SampleRate(s.Desc.SampleRate)
}

// Open opens path and returns a streaming decoder for it. The format is
// detected from the file contents, falling back to the extension.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	k, offset, err := sniff(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	rsc, err := newSectionFile(f, offset)
	if err != nil {
		f.Close()
		return nil, err
	}

	var (
		s    beep.StreamSeekCloser
		desc Description
	)
	switch k {
	case kindMP3:
		s, desc, err = decodeMP3(rsc)
	case kindFLAC:
		s, desc, err = decodeFLAC(rsc)
	case kindWAV:
		s, desc, err = decodeWAV(rsc)
	case kindOgg:
		s, desc, err = decodeOgg(rsc)
	case kindM4A:
		s, desc, err = decodeM4A(rsc)
	case kindUnknown:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, extOf(path))
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Source{StreamSeekCloser: s, Path: path, Desc: desc}, nil
}

// IsAudioFile reports whether path has an extension Open understands.
func IsAudioFile(path string) bool {
	return kindFromExt(path) != kindUnknown
}

func extOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "(no extension)"
	}
	return ext
}
