package decode

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

var (
	_ beep.StreamSeekCloser = (*m4aDecoder)(nil)

	errM4ACodec = errors.New("m4a: unsupported codec")
)

const alacFrameSize = 4096

// m4aDecoder decodes AAC or ALAC samples read from an MP4 container.
type m4aDecoder struct {
	ctx       context.Context
	container *m4a.Reader
	closer    io.Closer
	codec     m4a.CodecType
	rate      int
	nch       int
	bits      int
	total     int

	aac  *faad2.Decoder
	alac *alac.Alac

	sample int // next container sample index
	frames [][2]float64
	offset int
	err    error
}

func decodeM4A(rsc io.ReadSeekCloser) (beep.StreamSeekCloser, Description, error) {
	ctx := context.Background()
	container, err := m4a.Open(rsc)
	if err != nil {
		return nil, Description{}, err
	}

	d := &m4aDecoder{
		ctx:       ctx,
		container: container,
		closer:    rsc,
		codec:     container.Codec(),
		rate:      int(container.SampleRate()),
		nch:       int(container.Channels()),
		bits:      16,
	}
	if d.rate <= 0 || d.nch <= 0 {
		return nil, Description{}, errors.New("m4a: invalid audio track")
	}
	d.total = int(container.Duration().Seconds() * float64(d.rate))

	var name string
	switch d.codec {
	case m4a.CodecAAC:
		name = FormatAAC
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, Description{}, err
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, Description{}, err
		}
		d.aac = dec
	case m4a.CodecALAC:
		name = FormatALAC
		d.bits = int(container.SampleSize())
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  d.rate,
			SampleSize:  d.bits,
			NumChannels: d.nch,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, Description{}, err
		}
		d.alac = dec
	default:
		return nil, Description{}, errM4ACodec
	}

	desc := Description{
		Format:        name,
		SampleRate:    d.rate,
		Channels:      d.nch,
		BitsPerSample: d.bits,
		Frames:        int64(d.total),
	}
	return d, desc, nil
}

func (d *m4aDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if d.offset < len(d.frames) {
			c := copy(samples[n:], d.frames[d.offset:])
			d.offset += c
			n += c
			continue
		}
		if d.sample >= d.container.SampleCount() {
			return n, n > 0
		}
		if err := d.decodeSample(); err != nil {
			d.err = err
			return n, n > 0
		}
	}
	return n, true
}

func (d *m4aDecoder) decodeSample() error {
	data, err := d.container.ReadSample(d.sample)
	if err != nil {
		return err
	}
	d.sample++
	d.offset = 0

	if d.aac != nil {
		pcm, err := d.aac.Decode(d.ctx, data)
		if err != nil {
			return err
		}
		d.frames = int16Frames(d.frames[:0], pcm, d.nch)
		return nil
	}
	d.frames = packedFrames(d.frames[:0], d.alac.Decode(data), d.nch, d.bits)
	return nil
}

// int16Frames appends interleaved 16-bit samples to dst as stereo frames.
func int16Frames(dst [][2]float64, pcm []int16, nch int) [][2]float64 {
	for i := 0; i+nch <= len(pcm); i += nch {
		l := float64(pcm[i]) / 32768
		r := l
		if nch > 1 {
			r = float64(pcm[i+1]) / 32768
		}
		dst = append(dst, [2]float64{l, r})
	}
	return dst
}

// packedFrames appends little-endian packed PCM of 16 or 24 bits to dst
// as stereo frames.
func packedFrames(dst [][2]float64, data []byte, nch, bits int) [][2]float64 {
	width := bits / 8
	frame := width * nch
	for off := 0; off+frame <= len(data); off += frame {
		l := pcmSample(data[off:], width)
		r := l
		if nch > 1 {
			r = pcmSample(data[off+width:], width)
		}
		dst = append(dst, [2]float64{l, r})
	}
	return dst
}

func pcmSample(b []byte, width int) float64 {
	if width == 3 {
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / (1 << 23)
	}
	return float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768 //nolint:gosec // PCM sample
}

func (d *m4aDecoder) Err() error { return d.err }

func (d *m4aDecoder) Len() int { return d.total }

func (d *m4aDecoder) Position() int {
	t := d.container.SampleTime(d.sample)
	pos := int(t.Seconds()*float64(d.rate)) - (len(d.frames) - d.offset)
	return min(max(pos, 0), d.total)
}

func (d *m4aDecoder) Seek(p int) error {
	p = min(max(p, 0), d.total)
	at := time.Duration(float64(p) / float64(d.rate) * float64(time.Second))
	d.sample = d.container.SeekToTime(at)
	d.frames = d.frames[:0]
	d.offset = 0
	d.err = nil
	return nil
}

func (d *m4aDecoder) Close() error {
	if d.aac != nil {
		d.aac.Close(d.ctx)
	}
	return d.closer.Close()
}
