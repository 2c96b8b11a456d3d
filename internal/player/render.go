package player

import (
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// renderer is the streamer attached to the controller mix. Stream runs on
// the output thread: it takes no locks and allocates nothing, and in
// realtime mode it never waits.
type renderer struct {
	p        *FilePlayer
	realtime bool
	vol      *effects.Volume
}

var _ beep.Streamer = (*renderer)(nil)

func newRenderer(p *FilePlayer, realtime bool) *renderer {
	r := &renderer{p: p, realtime: realtime}
	r.vol = &effects.Volume{Streamer: beep.StreamerFunc(r.pull), Base: 2}
	return r
}

func (r *renderer) Stream(samples [][2]float64) (int, bool) {
	level := math.Float64frombits(r.p.volume.Load())
	r.vol.Silent = level <= 0
	r.vol.Volume = levelToVolume(level)
	n, ok := r.vol.Stream(samples)
	balance(samples[:n], math.Float64frombits(r.p.pan.Load()))
	return n, ok
}

// balance attenuates the channel opposite to pan by 1-|pan|. Unlike
// effects.Pan it never mixes one channel into the other.
func balance(samples [][2]float64, pan float64) {
	switch {
	case pan < 0:
		g := 1 + pan
		for i := range samples {
			samples[i][1] *= g
		}
	case pan > 0:
		g := 1 - pan
		for i := range samples {
			samples[i][0] *= g
		}
	}
}

func (r *renderer) Err() error { return nil }

// pull fills samples from the ring and pads with silence. The endpoint
// never drains: it stays in the mix until closed.
func (r *renderer) pull(samples [][2]float64) (int, bool) {
	n := r.fill(samples)
	clear(samples[n:])
	return len(samples), true
}

func (r *renderer) fill(samples [][2]float64) int {
	p := r.p
	s := p.sess.Load()
	if s == nil {
		return 0
	}
	filled := 0
	for {
		// Reloaded every pass: a seek may land while the pull waits for
		// the loader, and blocks of the new generation must then play.
		gen := p.gen.Load()
		b := s.ring.peek()
		if b != nil && b.gen < gen {
			// Produced before the latest seek.
			s.ring.release()
			signal(s.wake)
			continue
		}
		if filled == len(samples) || !p.playing.Load() {
			return filled
		}

		if b == nil {
			if s.endGen.Load() == int64(gen) { //nolint:gosec // see session.fill
				r.end(s, gen)
				return filled
			}
			if r.realtime {
				p.underruns.Add(1)
				return filled
			}
			select {
			case <-s.committed:
				continue
			case <-s.done:
				return filled
			}
		}

		c := copy(samples[filled:], b.frames[b.off:b.n])
		b.off += c
		filled += c
		p.pos.Store(int64(b.start + s.rate.D(b.off)))
		p.renderGen.Store(b.gen)

		if b.off == b.n {
			s.ring.release()
			signal(s.wake)
		}
	}
}

// end stops playback at the end of the stream of gen and wakes the
// notifier. Only the transition from playing notifies.
func (r *renderer) end(s *session, gen uint64) {
	p := r.p
	if p.gen.Load() != gen {
		return
	}
	if !p.playing.CompareAndSwap(true, false) {
		return
	}
	select {
	case p.notices <- notice{sess: s, gen: gen, failed: s.failed.Load()}:
	default:
	}
}
