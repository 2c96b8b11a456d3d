package player

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/unitplayer/internal/decode"
	"github.com/llehouerou/unitplayer/internal/engine"
)

const noEnd = -1

type seekRequest struct {
	gen uint64
	pos time.Duration
}

// session is one bound source and the loader goroutine decoding it.
type session struct {
	src      *decode.Source
	ring     *ring
	duration time.Duration
	rate     beep.SampleRate // controller rate
	quality  int
	refill   time.Duration
	log      *slog.Logger

	seekCh    chan seekRequest // latest wins
	wake      chan struct{}    // render released a block
	committed chan struct{}    // loader published a block or ended
	done      chan struct{}
	finished  chan struct{}
	stopOnce  sync.Once

	// endGen is the generation whose stream is fully in the ring, or noEnd.
	endGen atomic.Int64
	failed atomic.Bool

	errMu sync.Mutex
	err   error

	// Loader goroutine only.
	stream   beep.Streamer
	gen      uint64
	next     time.Duration
	ended    bool
	seekFail error
}

func newSession(src *decode.Source, gen uint64, ctrl *engine.Controller, o options, log *slog.Logger) *session {
	rate := ctrl.SampleRate()
	nblocks := (rate.N(o.readAhead) + o.blockFrames - 1) / o.blockFrames

	s := &session{
		src:       src,
		ring:      newRing(max(nblocks, 2), o.blockFrames),
		duration:  src.SampleRate().D(src.Len()),
		rate:      rate,
		quality:   ctrl.ResampleQuality(),
		refill:    o.refill,
		log:       log.With(slog.String("source", src.Path)),
		seekCh:    make(chan seekRequest, 1),
		wake:      make(chan struct{}, 1),
		committed: make(chan struct{}, 1),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		gen:       gen,
	}
	s.endGen.Store(noEnd)
	s.stream = s.newStream()
	return s
}

// newStream returns the source converted to the controller rate.
func (s *session) newStream() beep.Streamer {
	if s.src.SampleRate() == s.rate {
		return s.src
	}
	return beep.Resample(s.quality, s.src.SampleRate(), s.rate, s.src)
}

// requestSeek queues req, replacing a request the loader has not taken yet.
func (s *session) requestSeek(req seekRequest) {
	select {
	case s.seekCh <- req:
	default:
		select {
		case <-s.seekCh:
		default:
		}
		select {
		case s.seekCh <- req:
		default:
		}
	}
}

// stop ends the loader and closes the source.
func (s *session) stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.finished
	return s.src.Close()
}

// lastErr returns the error that ended the stream.
func (s *session) lastErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *session) buffered() time.Duration {
	return s.rate.D(s.ring.len() * s.ring.blockFrames())
}

func (s *session) run() {
	defer close(s.finished)

	ticker := time.NewTicker(s.refill)
	defer ticker.Stop()

	for {
		s.fill()
		select {
		case <-s.done:
			return
		case req := <-s.seekCh:
			s.seek(req)
		case <-s.wake:
		case <-ticker.C:
		}
	}
}

// fill decodes into free blocks until the ring is full, the stream ends
// or a seek is waiting.
func (s *session) fill() {
	for !s.ended && len(s.seekCh) == 0 {
		select {
		case <-s.done:
			return
		default:
		}

		b := s.ring.reserve()
		if b == nil {
			return
		}
		s.decodeInto(b)
		if b.n > 0 {
			s.ring.commit()
		} else if !s.ended {
			return
		}
		if s.ended {
			s.endGen.Store(int64(s.gen)) //nolint:gosec // generations stay far below 2^63
		}
		signal(s.committed)
	}
}

func (s *session) decodeInto(b *block) {
	b.gen, b.start = s.gen, s.next

	if s.seekFail != nil {
		s.finish(s.seekFail)
		s.seekFail = nil
		return
	}

	for b.n < len(b.frames) {
		n, ok := s.stream.Stream(b.frames[b.n:])
		b.n += n
		if !ok {
			s.finish(s.src.Err())
			break
		}
		if n == 0 {
			break
		}
	}
	s.next += s.rate.D(b.n)
}

func (s *session) finish(err error) {
	s.ended = true
	if err != nil {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		s.failed.Store(true)
		s.log.Debug("decode error", slog.Any("error", err))
		return
	}
	s.log.Debug("source drained", slog.Duration("position", s.next))
}

func (s *session) seek(req seekRequest) {
	frame := min(max(s.src.SampleRate().N(req.pos), 0), s.src.Len())

	s.gen = req.gen
	s.next = req.pos
	s.ended = false
	s.endGen.Store(noEnd)
	s.failed.Store(false)

	if err := s.src.Seek(frame); err != nil {
		s.seekFail = err
		return
	}
	s.stream = s.newStream()
	s.log.Debug("seek", slog.Duration("position", req.pos), slog.Uint64("gen", req.gen))
}

// signal performs a non-blocking send on a 1-buffered channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
