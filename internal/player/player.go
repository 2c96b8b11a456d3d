// Package player implements the file player endpoint: an audio file
// streamed into an engine controller's mix, with transport, seek and mix
// controls and a completion notification.
//
// Each endpoint splits its work across three goroutines. The render side
// runs on the controller's output thread and only reads from a lock-free
// ring of decoded blocks. A loader goroutine per bound source decodes,
// resamples and seeks. A notifier goroutine delivers completion and error
// callbacks.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/unitplayer/internal/decode"
	"github.com/llehouerou/unitplayer/internal/engine"
	"github.com/llehouerou/unitplayer/internal/logger"
)

var (
	// ErrNilController is returned by New without a controller.
	ErrNilController = errors.New("player: nil controller")
	// ErrNoSource is returned when starting playback with no source bound.
	ErrNoSource = errors.New("player: no source")
	// ErrClosed is returned by operations on a closed endpoint.
	ErrClosed = errors.New("player: closed")
)

const (
	defaultReadAhead      = 2 * time.Second
	defaultBlockFrames    = 1024
	defaultRefillInterval = 10 * time.Millisecond
	noticeBufferSize      = 4
)

type options struct {
	readAhead   time.Duration
	blockFrames int
	refill      time.Duration
	log         *slog.Logger
}

// Option configures a FilePlayer.
type Option func(*options)

// WithReadAhead sets how much decoded audio is buffered ahead of the
// render position.
func WithReadAhead(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.readAhead = d
		}
	}
}

// WithBlockFrames sets the size of one ring block in frames.
func WithBlockFrames(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockFrames = n
		}
	}
}

// WithRefillInterval sets how often the loader tops up the ring when the
// render side has not woken it.
func WithRefillInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.refill = d
		}
	}
}

// WithLogger sets the endpoint logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Stats reports render health.
type Stats struct {
	Underruns uint64        // render pulls that found no decoded audio
	Buffered  time.Duration // decoded audio waiting in the ring
}

// FilePlayer is a playback endpoint bound to one controller.
type FilePlayer struct {
	ctrl *engine.Controller
	ch   *engine.Channel
	opts options
	log  *slog.Logger

	// Shared with the render side; atomics only.
	sess      atomic.Pointer[session]
	playing   atomic.Bool
	gen       atomic.Uint64 // bumped by every seek and rebind
	target    atomic.Int64  // requested position of gen
	pos       atomic.Int64  // rendered position of renderGen
	renderGen atomic.Uint64
	duration  atomic.Int64
	volume    atomic.Uint64 // float64 bits
	pan       atomic.Uint64 // float64 bits
	underruns atomic.Uint64

	notices chan notice
	quit    chan struct{}

	mu           sync.Mutex
	url          string
	desc         decode.Description
	onCompletion func()
	onError      func(error)
	closed       bool
}

var _ Interface = (*FilePlayer)(nil)

// New creates an endpoint attached to ctrl. It fails when ctrl is nil,
// closed, or out of channels.
func New(ctrl *engine.Controller, opts ...Option) (*FilePlayer, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}

	o := options{
		readAhead:   defaultReadAhead,
		blockFrames: defaultBlockFrames,
		refill:      defaultRefillInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("player")
	}

	p := &FilePlayer{
		ctrl:    ctrl,
		opts:    o,
		log:     o.log,
		notices: make(chan notice, noticeBufferSize),
		quit:    make(chan struct{}),
	}
	p.volume.Store(math.Float64bits(1))

	ch, err := ctrl.Attach(newRenderer(p, ctrl.Realtime()))
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	p.ch = ch

	go p.notifyLoop()
	return p, nil
}

// SetURL binds the source at url, which is a file:// URL or a path. The
// previous source is released and playback stops without a completion.
// Position resets to zero. An empty url unbinds.
func (p *FilePlayer) SetURL(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.playing.Store(false)
	if old := p.sess.Swap(nil); old != nil {
		if err := old.stop(); err != nil {
			p.log.Debug("close source", slog.String("url", p.url), slog.Any("error", err))
		}
	}
	p.url = ""
	p.desc = decode.Description{}
	p.duration.Store(0)
	p.target.Store(0)
	gen := p.gen.Add(1)

	if url == "" {
		return nil
	}

	path, err := SourcePath(url)
	if err != nil {
		return err
	}
	src, err := decode.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	p.bindLocked(url, src, gen)
	return nil
}

// bindLocked starts a session for an opened source. mu must be held and
// no session bound.
func (p *FilePlayer) bindLocked(url string, src *decode.Source, gen uint64) {
	s := newSession(src, gen, p.ctrl, p.opts, p.log)
	p.url = url
	p.desc = src.Desc
	p.duration.Store(int64(s.duration))
	p.sess.Store(s)
	go s.run()

	p.log.Info("source bound",
		slog.String("url", url),
		slog.String("format", src.Desc.String()),
		slog.Duration("duration", s.duration))
}

// URL returns the bound source locator, or "" when unbound.
func (p *FilePlayer) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Duration returns the length of the bound source, or zero.
func (p *FilePlayer) Duration() time.Duration {
	return time.Duration(p.duration.Load())
}

// AudioDescription returns the native format of the bound source.
func (p *FilePlayer) AudioDescription() decode.Description {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.desc
}

// Stats returns render counters.
func (p *FilePlayer) Stats() Stats {
	st := Stats{Underruns: p.underruns.Load()}
	if s := p.sess.Load(); s != nil {
		st.Buffered = s.buffered()
	}
	return st
}

// Close detaches the endpoint and releases its source. Pending callbacks
// are dropped.
func (p *FilePlayer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.playing.Store(false)
	s := p.sess.Swap(nil)
	p.mu.Unlock()

	p.ch.Detach()
	close(p.quit)
	if s != nil {
		return s.stop()
	}
	return nil
}
