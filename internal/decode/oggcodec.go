package decode

import (
	"encoding/binary"
	"errors"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

var (
	errUnknownOggCodec = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errOpusHead        = errors.New("opus: invalid OpusHead")
	errOpusVersion     = errors.New("opus: unsupported version")
	errVorbisHeader    = errors.New("vorbis: invalid identification header")
	errVorbisNotReady  = errors.New("vorbis: headers incomplete")
	errPCMTooSmall     = errors.New("ogg: pcm buffer too small")
)

const (
	opusSampleRate = 48000
	opusMaxFrame   = 5760 // 120 ms at 48 kHz
	opusPreroll    = 3840 // 80 ms, recommended by RFC 7845
	vorbisMaxFrame = 8192
)

// oggCodec decodes the packets of one logical Ogg stream.
type oggCodec interface {
	name() string
	sampleRate() int
	channels() int
	// preSkip is the number of leading granules that are not audio.
	preSkip() int
	// preroll is how far before a seek target decoding must start.
	preroll() int
	maxFrame() int
	// header consumes a header packet and reports whether all headers
	// have been seen.
	header(packet []byte) (done bool, err error)
	// decode writes interleaved samples into pcm and returns the number
	// of frames.
	decode(packet []byte, pcm []float32) (int, error)
	reset()
}

func newOggCodec(ident []byte) (oggCodec, error) {
	switch {
	case len(ident) >= 8 && string(ident[:8]) == "OpusHead":
		return newOpusCodec(ident)
	case len(ident) >= 7 && ident[0] == 0x01 && string(ident[1:7]) == "vorbis":
		return newVorbisCodec(ident)
	}
	return nil, errUnknownOggCodec
}

type opusCodec struct {
	dec  *opus.Decoder
	nch  int
	skip int
}

// newOpusCodec parses OpusHead: version at 8, channels at 9, pre-skip at
// 10-11.
func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 {
		return nil, errOpusHead
	}
	if head[8] != 1 {
		return nil, errOpusVersion
	}
	nch := int(head[9])
	if nch == 0 {
		return nil, errOpusHead
	}
	dec, err := opus.NewDecoder(opusSampleRate, nch)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		dec:  dec,
		nch:  nch,
		skip: int(binary.LittleEndian.Uint16(head[10:12])),
	}, nil
}

func (c *opusCodec) name() string    { return FormatOpus }
func (c *opusCodec) sampleRate() int { return opusSampleRate }
func (c *opusCodec) channels() int   { return c.nch }
func (c *opusCodec) preSkip() int    { return c.skip }
func (c *opusCodec) preroll() int    { return opusPreroll }
func (c *opusCodec) maxFrame() int   { return opusMaxFrame }

// header consumes OpusTags, the only header after OpusHead.
func (c *opusCodec) header(_ []byte) (bool, error) {
	return true, nil
}

func (c *opusCodec) decode(packet []byte, pcm []float32) (int, error) {
	return c.dec.DecodeFloat32(packet, pcm)
}

// reset is a no-op: the pre-roll lets the decoder converge after a seek.
func (c *opusCodec) reset() {}

type vorbisCodec struct {
	dec     *vorbis.Decoder
	nch     int
	rate    int
	headers [][]byte
}

// newVorbisCodec parses the identification header: version at 7-10,
// channels at 11, sample rate at 12-15.
func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 {
		return nil, errVorbisHeader
	}
	c := &vorbisCodec{
		nch:     int(ident[11]),
		rate:    int(binary.LittleEndian.Uint32(ident[12:16])),
		headers: [][]byte{append([]byte(nil), ident...)},
	}
	if c.nch == 0 || c.rate == 0 {
		return nil, errVorbisHeader
	}
	return c, nil
}

func (c *vorbisCodec) name() string    { return FormatVorbis }
func (c *vorbisCodec) sampleRate() int { return c.rate }
func (c *vorbisCodec) channels() int   { return c.nch }
func (c *vorbisCodec) preSkip() int    { return 0 }
func (c *vorbisCodec) preroll() int    { return 0 }
func (c *vorbisCodec) maxFrame() int   { return vorbisMaxFrame }

// header collects the comment and setup headers, then initializes the
// decoder with all three.
func (c *vorbisCodec) header(packet []byte) (bool, error) {
	if c.dec != nil {
		return true, nil
	}
	c.headers = append(c.headers, append([]byte(nil), packet...))
	if len(c.headers) < 3 {
		return false, nil
	}
	dec := &vorbis.Decoder{}
	for _, h := range c.headers {
		if err := dec.ReadHeader(h); err != nil {
			return false, err
		}
	}
	c.dec = dec
	c.headers = nil
	return true, nil
}

func (c *vorbisCodec) decode(packet []byte, pcm []float32) (int, error) {
	if c.dec == nil {
		return 0, errVorbisNotReady
	}
	out, err := c.dec.Decode(packet)
	if err != nil {
		return 0, err
	}
	if len(out) > len(pcm) {
		return 0, errPCMTooSmall
	}
	return copy(pcm, out) / c.nch, nil
}

func (c *vorbisCodec) reset() {
	if c.dec != nil {
		c.dec.Clear()
	}
}
