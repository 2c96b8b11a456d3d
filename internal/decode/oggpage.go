package decode

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	errOggMagic   = errors.New("ogg: invalid capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
)

const (
	oggHeaderSize   = 27
	oggFlagContinue = 0x01
	oggFlagEOS      = 0x04
)

// oggPageRef locates one page of the logical stream.
type oggPageRef struct {
	offset  int64
	size    int64 // header + body
	granule int64 // -1 when no packet ends on the page
}

type oggPage struct {
	oggPageRef
	flags    byte
	serial   uint32
	segments []byte
	body     []byte
}

// readOggHeader reads a page header at the reader's position and returns
// the page with its lacing table but without its body.
func readOggHeader(r io.Reader) (*oggPage, error) {
	var h [oggHeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, err
	}
	if string(h[0:4]) != "OggS" {
		return nil, errOggMagic
	}
	if h[4] != 0 {
		return nil, errOggVersion
	}

	p := &oggPage{
		flags:  h[5],
		serial: binary.LittleEndian.Uint32(h[14:18]),
	}
	p.granule = int64(binary.LittleEndian.Uint64(h[6:14])) //nolint:gosec // -1 is meaningful

	p.segments = make([]byte, h[26])
	if _, err := io.ReadFull(r, p.segments); err != nil {
		return nil, err
	}

	var bodySize int64
	for _, s := range p.segments {
		bodySize += int64(s)
	}
	p.size = oggHeaderSize + int64(len(p.segments)) + bodySize
	return p, nil
}

func (p *oggPage) bodySize() int64 {
	return p.size - oggHeaderSize - int64(len(p.segments))
}

// oggPacket is one reassembled packet. granule is set on the last packet
// completed on a page and is -1 otherwise.
type oggPacket struct {
	data    []byte
	granule int64
	eos     bool
}

// oggPacketReader reassembles packets of one logical stream from pages.
type oggPacketReader struct {
	rs      io.ReadSeeker
	serial  uint32
	offset  int64
	pending []byte
	queue   []oggPacket
	// dropContinued discards continued data at the first page after a seek.
	dropContinued bool
}

func newOggPacketReader(rs io.ReadSeeker, serial uint32, offset int64) *oggPacketReader {
	return &oggPacketReader{rs: rs, serial: serial, offset: offset}
}

// seek repositions the reader at a page boundary.
func (r *oggPacketReader) seek(offset int64) error {
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.offset = offset
	r.pending = nil
	r.queue = r.queue[:0]
	r.dropContinued = true
	return nil
}

// next returns the next complete packet, or io.EOF.
func (r *oggPacketReader) next() (oggPacket, error) {
	for len(r.queue) == 0 {
		if err := r.readPage(); err != nil {
			return oggPacket{}, err
		}
	}
	pkt := r.queue[0]
	r.queue = r.queue[1:]
	return pkt, nil
}

func (r *oggPacketReader) readPage() error {
	p, err := readOggHeader(r.rs)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	p.offset = r.offset
	r.offset += p.size

	p.body = make([]byte, p.bodySize())
	if _, err := io.ReadFull(r.rs, p.body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	if p.serial != r.serial {
		return nil
	}

	drop := r.dropContinued && p.flags&oggFlagContinue != 0
	r.dropContinued = false

	start := len(r.queue)
	pos := 0
	for _, lace := range p.segments {
		seg := p.body[pos : pos+int(lace)]
		pos += int(lace)
		r.pending = append(r.pending, seg...)
		if lace == 255 {
			continue
		}
		if drop {
			drop = false
			r.pending = nil
			continue
		}
		r.queue = append(r.queue, oggPacket{data: r.pending, granule: -1})
		r.pending = nil
	}
	if drop {
		// The whole page continued a packet that started before the seek.
		r.pending = nil
	}

	if n := len(r.queue); n > start {
		r.queue[n-1].granule = p.granule
		r.queue[n-1].eos = p.flags&oggFlagEOS != 0
	}
	return nil
}

// scanOggPages indexes the pages of stream serial from offset to EOF,
// reading headers only.
func scanOggPages(rs io.ReadSeeker, serial uint32, offset int64) ([]oggPageRef, error) {
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	var pages []oggPageRef
	for {
		p, err := readOggHeader(rs)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return pages, nil
			}
			return nil, err
		}
		p.offset = offset
		if p.serial == serial {
			pages = append(pages, p.oggPageRef)
		}
		offset += p.size
		if _, err := rs.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
	}
}
