package decode

import (
	"io"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

func decodeFLAC(rsc io.ReadSeekCloser) (beep.StreamSeekCloser, Description, error) {
	s, format, err := flac.Decode(rsc)
	if err != nil {
		return nil, Description{}, err
	}
	return s, describeBeep(FormatFLAC, format, s.Len()), nil
}

func describeBeep(name string, f beep.Format, frames int) Description {
	return Description{
		Format:        name,
		SampleRate:    int(f.SampleRate),
		Channels:      f.NumChannels,
		BitsPerSample: f.Precision * 8,
		Frames:        int64(frames),
	}
}

// probeFLAC reads STREAMINFO without setting up a frame decoder.
func probeFLAC(path string) (Description, bool) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return Description{}, false
	}
	for _, meta := range f.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		return parseStreamInfo(meta.Data), true
	}
	return Description{}, false
}

// parseStreamInfo decodes the fields of a FLAC STREAMINFO block:
// bytes 10-17 pack sample rate (20 bits), channels-1 (3), bits-1 (5) and
// total samples (36).
func parseStreamInfo(data []byte) Description {
	rate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
	channels := int(data[12]>>1&0x07) + 1
	bits := ((int(data[12])&0x01)<<4 | int(data[13])>>4) + 1
	total := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 |
		int64(data[16])<<8 | int64(data[17])

	return Description{
		Format:        FormatFLAC,
		SampleRate:    rate,
		Channels:      channels,
		BitsPerSample: bits,
		Frames:        total,
	}
}
