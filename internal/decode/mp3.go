package decode

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

var _ beep.StreamSeekCloser = (*mp3Decoder)(nil)

// mp3Decoder adapts go-mp3, which yields 16-bit little-endian stereo PCM.
type mp3Decoder struct {
	dec    *mp3.Decoder
	closer io.Closer
	buf    []byte
	err    error
}

const mp3BytesPerFrame = 4

func decodeMP3(rsc io.ReadSeekCloser) (beep.StreamSeekCloser, Description, error) {
	dec, err := mp3.NewDecoder(rsc)
	if err != nil {
		return nil, Description{}, err
	}
	rate := dec.SampleRate()
	if rate == 0 {
		return nil, Description{}, errors.New("mp3: invalid sample rate")
	}

	d := &mp3Decoder{
		dec:    dec,
		closer: rsc,
		buf:    make([]byte, 4096*mp3BytesPerFrame),
	}
	desc := Description{
		Format:        FormatMP3,
		SampleRate:    rate,
		Channels:      2,
		BitsPerSample: 16,
		Frames:        int64(d.Len()),
	}
	return d, desc, nil
}

func (d *mp3Decoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	want := len(samples) * mp3BytesPerFrame
	if len(d.buf) < want {
		d.buf = make([]byte, want)
	}
	read, err := io.ReadFull(d.dec, d.buf[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}

	n = read / mp3BytesPerFrame
	for i := range n {
		off := i * mp3BytesPerFrame
		l := int16(binary.LittleEndian.Uint16(d.buf[off:]))   //nolint:gosec // PCM sample
		r := int16(binary.LittleEndian.Uint16(d.buf[off+2:])) //nolint:gosec // PCM sample
		samples[i][0] = float64(l) / 32768
		samples[i][1] = float64(r) / 32768
	}
	return n, n > 0
}

func (d *mp3Decoder) Err() error { return d.err }

func (d *mp3Decoder) Len() int {
	return int(max(d.dec.SampleCount(), 0))
}

func (d *mp3Decoder) Position() int {
	return int(d.dec.SamplePosition())
}

func (d *mp3Decoder) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	if err := d.dec.SeekToSample(int64(p)); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *mp3Decoder) Close() error { return d.closer.Close() }
