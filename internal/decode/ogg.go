package decode

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
)

var _ beep.StreamSeekCloser = (*oggDecoder)(nil)

// oggDecoder streams one Opus or Vorbis logical stream.
//
// Positions are tracked in granules and resynchronized at every page end.
// Stream position p corresponds to granule p+preSkip.
type oggDecoder struct {
	rsc    io.ReadSeekCloser
	codec  oggCodec
	reader *oggPacketReader
	pages  []oggPageRef
	start  int64 // offset of the first audio page
	total  int64

	pcm      []float32
	pcmLen   int   // frames in pcm
	pcmIdx   int   // next frame to emit
	pcmStart int64 // granule of pcm[0]
	granEnd  int64 // granule after the last decoded frame, -1 if unknown
	target   int64 // first granule to emit
	pos      int64

	err error
}

func decodeOgg(rsc io.ReadSeekCloser) (beep.StreamSeekCloser, Description, error) {
	first, err := readOggHeader(rsc)
	if err != nil {
		return nil, Description{}, err
	}
	if _, err := rsc.Seek(0, io.SeekStart); err != nil {
		return nil, Description{}, err
	}

	r := newOggPacketReader(rsc, first.serial, 0)
	ident, err := r.next()
	if err != nil {
		return nil, Description{}, err
	}
	codec, err := newOggCodec(ident.data)
	if err != nil {
		return nil, Description{}, err
	}
	for done := false; !done; {
		pkt, err := r.next()
		if err != nil {
			return nil, Description{}, err
		}
		if done, err = codec.header(pkt.data); err != nil {
			return nil, Description{}, err
		}
	}
	// Header packets end on a page boundary; audio starts at the next page.
	d, err := newOggDecoder(rsc, codec, first.serial, r.offset)
	if err != nil {
		return nil, Description{}, err
	}

	desc := Description{
		Format:        codec.name(),
		SampleRate:    codec.sampleRate(),
		Channels:      codec.channels(),
		BitsPerSample: 16,
		Frames:        d.total,
	}
	return d, desc, nil
}

// newOggDecoder indexes the audio pages from start and positions rsc there.
func newOggDecoder(rsc io.ReadSeekCloser, codec oggCodec, serial uint32, start int64) (*oggDecoder, error) {
	pages, err := scanOggPages(rsc, serial, start)
	if err != nil {
		return nil, err
	}
	var last int64
	for i := len(pages) - 1; i >= 0; i-- {
		if pages[i].granule >= 0 {
			last = pages[i].granule
			break
		}
	}
	if _, err := rsc.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	return &oggDecoder{
		rsc:    rsc,
		codec:  codec,
		reader: newOggPacketReader(rsc, serial, start),
		pages:  pages,
		start:  start,
		total:  max(last-int64(codec.preSkip()), 0),
		pcm:    make([]float32, codec.maxFrame()*codec.channels()),
		target: int64(codec.preSkip()),
	}, nil
}

func (d *oggDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	nch := d.codec.channels()

	for n < len(samples) {
		if d.pcmIdx < d.pcmLen {
			g := d.pcmStart + int64(d.pcmIdx)
			if g < d.target {
				d.pcmIdx = min(d.pcmLen, d.pcmIdx+int(d.target-g))
				continue
			}
			if d.pos >= d.total {
				return n, n > 0
			}
			off := d.pcmIdx * nch
			samples[n][0] = float64(d.pcm[off])
			if nch > 1 {
				samples[n][1] = float64(d.pcm[off+1])
			} else {
				samples[n][1] = samples[n][0]
			}
			d.pcmIdx++
			d.pos++
			n++
			continue
		}

		if !d.decodeNext() {
			return n, n > 0
		}
	}
	return n, true
}

// decodeNext decodes one packet into pcm. It returns false at end of
// stream or on a read error.
func (d *oggDecoder) decodeNext() bool {
	pkt, err := d.reader.next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			d.err = err
		}
		return false
	}

	frames, err := d.codec.decode(pkt.data, d.pcm)
	if err != nil {
		// Corrupt packets are skipped.
		frames = 0
	}

	if pkt.granule < 0 && d.granEnd < 0 {
		// Position unknown since the last seek: the codec may have
		// swallowed frames while priming, so wait for a page granule.
		frames = 0
	}
	start := d.granEnd
	end := start + int64(frames)
	if pkt.granule >= 0 {
		if pkt.eos && start >= 0 && pkt.granule < end {
			// The last page trims padding from the final packet.
			frames = int(max(pkt.granule-start, 0))
			end = pkt.granule
		} else {
			end = pkt.granule
			start = end - int64(frames)
		}
	}

	d.pcmStart = start
	d.pcmLen = frames
	d.pcmIdx = 0
	d.granEnd = end
	return true
}

func (d *oggDecoder) Err() error { return d.err }

func (d *oggDecoder) Len() int { return int(d.total) }

func (d *oggDecoder) Position() int { return int(d.pos) }

// Seek moves to frame p. Decoding restarts one granule page before the
// last page that ends before p minus the codec pre-roll, so that page's
// granule labels the decoded frames once the codec is primed. Frames up to
// p are discarded.
func (d *oggDecoder) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	skip := int64(d.codec.preSkip())
	target := int64(p) + skip
	from := target - int64(d.codec.preroll())

	offset, granule := d.start, int64(0)
	for j := len(d.pages) - 1; j >= 0; j-- {
		if g := d.pages[j].granule; g >= 0 && g < from {
			granule = -1
			for k := j - 1; k >= 0; k-- {
				if d.pages[k].granule >= 0 {
					offset = d.pages[k].offset + d.pages[k].size
					break
				}
			}
			break
		}
	}

	if err := d.reader.seek(offset); err != nil {
		return err
	}
	if offset == d.start {
		d.reader.dropContinued = false
	}
	d.codec.reset()
	d.pcmLen, d.pcmIdx = 0, 0
	d.granEnd = granule
	d.target = max(target, skip)
	d.pos = int64(p)
	d.err = nil
	return nil
}

func (d *oggDecoder) Close() error { return d.rsc.Close() }
