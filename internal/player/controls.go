package player

import (
	"log/slog"
	"time"
)

// SetPlaying starts or stops playback. Stopping keeps the position, so
// starting again resumes from it.
func (p *FilePlayer) SetPlaying(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if !on {
		p.playing.Store(false)
		return nil
	}
	if p.sess.Load() == nil {
		return ErrNoSource
	}
	p.playing.Store(true)
	p.log.Debug("playing", slog.String("url", p.url), slog.Duration("position", p.CurrentTime()))
	return nil
}

// Playing reports whether the endpoint is playing. It becomes false on its
// own at the end of the source or on a decode error.
func (p *FilePlayer) Playing() bool {
	return p.playing.Load()
}

// State derives the transport state.
func (p *FilePlayer) State() State {
	return stateOf(p.sess.Load() != nil, p.playing.Load(), int64(p.CurrentTime()))
}

// SetCurrentTime moves playback to t, clamped to [0, Duration]. The new
// position is reported by CurrentTime immediately; audio from it follows
// once the loader has decoded it. Without a source it does nothing.
func (p *FilePlayer) SetCurrentTime(t time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.sess.Load()
	if s == nil || p.closed {
		return
	}
	p.seekLocked(s, t)
}

// seekLocked must be called with mu held.
func (p *FilePlayer) seekLocked(s *session, t time.Duration) {
	t = min(max(t, 0), s.duration)
	p.target.Store(int64(t))
	gen := p.gen.Add(1)
	s.requestSeek(seekRequest{gen: gen, pos: t})
}

// CurrentTime returns the playback position. Until the render side has
// reached the latest seek, the seek target is reported.
func (p *FilePlayer) CurrentTime() time.Duration {
	gen := p.gen.Load()
	var pos time.Duration
	if p.renderGen.Load() == gen {
		pos = time.Duration(p.pos.Load())
	} else {
		pos = time.Duration(p.target.Load())
	}
	return min(max(pos, 0), p.Duration())
}
