package decode

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type kind int

const (
	kindUnknown kind = iota
	kindMP3
	kindFLAC
	kindWAV
	kindOgg
	kindM4A
)

const id3Magic = "ID3"

// sniff detects the container from the first bytes of f. It returns the
// offset where the audio stream starts, which is past a leading ID3v2 tag
// for FLAC files.
func sniff(f io.ReadSeeker, path string) (kind, int64, error) {
	var head [12]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return kindUnknown, 0, err
	}
	b := head[:n]

	if bytes.HasPrefix(b, []byte(id3Magic)) && n >= 10 {
		// Some taggers prepend ID3v2 to FLAC files.
		size := id3v2Size(b)
		var next [4]byte
		if _, err := f.Seek(size, io.SeekStart); err != nil {
			return kindUnknown, 0, err
		}
		if _, err := io.ReadFull(f, next[:]); err == nil && string(next[:]) == "fLaC" {
			return kindFLAC, size, rewind(f)
		}
		return kindMP3, 0, rewind(f)
	}

	k := kindFromMagic(b)
	if k == kindUnknown {
		k = kindFromExt(path)
	}
	return k, 0, rewind(f)
}

func rewind(f io.Seeker) error {
	_, err := f.Seek(0, io.SeekStart)
	return err
}

// id3v2Size returns the total size of an ID3v2 tag from its 10-byte header.
// The size is a syncsafe integer: 7 bits per byte.
func id3v2Size(header []byte) int64 {
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	return 10 + size
}

func kindFromMagic(b []byte) kind {
	switch {
	case bytes.HasPrefix(b, []byte("fLaC")):
		return kindFLAC
	case bytes.HasPrefix(b, []byte("OggS")):
		return kindOgg
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE":
		return kindWAV
	case len(b) >= 8 && string(b[4:8]) == "ftyp":
		return kindM4A
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return kindMP3
	}
	return kindUnknown
}

func kindFromExt(path string) kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return kindMP3
	case ".flac":
		return kindFLAC
	case ".wav", ".wave":
		return kindWAV
	case ".ogg", ".oga", ".opus":
		return kindOgg
	case ".m4a", ".mp4", ".m4b":
		return kindM4A
	}
	return kindUnknown
}

// sectionFile exposes the part of a file after offset as its own
// ReadSeekCloser, so decoders see the stream start at zero.
type sectionFile struct {
	*io.SectionReader
	f *os.File
}

func newSectionFile(f *os.File, offset int64) (io.ReadSeekCloser, error) {
	if offset == 0 {
		return f, nil
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &sectionFile{
		SectionReader: io.NewSectionReader(f, offset, fi.Size()-offset),
		f:             f,
	}, nil
}

func (s *sectionFile) Close() error { return s.f.Close() }
