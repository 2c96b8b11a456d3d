package player

import "log/slog"

// notice is posted by the render side when a stream ends while playing.
type notice struct {
	sess   *session
	gen    uint64
	failed bool
}

// OnCompletion sets the function called when playback reaches the end of
// the source. It runs on the notifier goroutine after Playing has become
// false and the position has been rewound to zero. It is not called when
// playback is stopped or the source is rebound.
func (p *FilePlayer) OnCompletion(fn func()) {
	p.mu.Lock()
	p.onCompletion = fn
	p.mu.Unlock()
}

// OnError sets the function called when decoding fails during playback.
// Playing is false when it runs.
func (p *FilePlayer) OnError(fn func(error)) {
	p.mu.Lock()
	p.onError = fn
	p.mu.Unlock()
}

func (p *FilePlayer) notifyLoop() {
	for {
		select {
		case <-p.quit:
			return
		case n := <-p.notices:
			p.deliver(n)
		}
	}
}

func (p *FilePlayer) deliver(n notice) {
	p.mu.Lock()
	if p.closed || p.sess.Load() != n.sess || p.gen.Load() != n.gen {
		// Superseded by a seek, rebind or close.
		p.mu.Unlock()
		return
	}
	url := p.url
	if n.failed {
		fn := p.onError
		p.mu.Unlock()

		err := n.sess.lastErr()
		p.log.Warn("playback failed", slog.String("url", url), slog.Any("error", err))
		if fn != nil {
			fn(err)
		}
		return
	}

	p.seekLocked(n.sess, 0)
	fn := p.onCompletion
	p.mu.Unlock()

	p.log.Debug("playback completed", slog.String("url", url))
	if fn != nil {
		fn()
	}
}
