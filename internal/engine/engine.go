// Package engine provides the host processing context that playback
// endpoints are bound to: an output, a mixer pulled by the output's render
// thread, and the render lock guarding the mixer.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

var (
	// ErrClosed is returned when attaching to a closed controller.
	ErrClosed = errors.New("engine: controller closed")
	// ErrTooManyChannels is returned when the channel limit is reached.
	ErrTooManyChannels = errors.New("engine: too many channels")
)

// Config holds the controller settings.
type Config struct {
	SampleRate      beep.SampleRate
	Buffer          time.Duration // output buffer length
	MaxChannels     int
	ResampleQuality int // beep.Resample quality (1-64)
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		Buffer:          100 * time.Millisecond,
		MaxChannels:     32,
		ResampleQuality: 4,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Buffer <= 0 {
		c.Buffer = d.Buffer
	}
	if c.MaxChannels <= 0 {
		c.MaxChannels = d.MaxChannels
	}
	if c.ResampleQuality < 1 || c.ResampleQuality > 64 {
		c.ResampleQuality = d.ResampleQuality
	}
	return c
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns the mixer and the output pulling it.
type Controller struct {
	cfg   Config
	out   Output
	mixer *beep.Mixer
	log   *slog.Logger

	mu       sync.Mutex
	channels map[*Channel]struct{}
	closed   bool
}

// New creates a controller and starts the output.
func New(cfg Config, out Output, opts ...Option) (*Controller, error) {
	if out == nil {
		return nil, errors.New("engine: nil output")
	}
	c := &Controller{
		cfg:      cfg.withDefaults(),
		out:      out,
		mixer:    &beep.Mixer{},
		log:      slog.Default(),
		channels: make(map[*Channel]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := out.Start(c.Format(), c.cfg.Buffer, c.mixer); err != nil {
		return nil, fmt.Errorf("start output: %w", err)
	}
	c.log.Debug("controller started",
		slog.Int("sample_rate", int(c.cfg.SampleRate)),
		slog.Duration("buffer", c.cfg.Buffer),
		slog.Bool("realtime", out.Realtime()))
	return c, nil
}

// Format returns the mix format: stereo at the controller sample rate.
func (c *Controller) Format() beep.Format {
	return beep.Format{SampleRate: c.cfg.SampleRate, NumChannels: 2, Precision: 2}
}

// SampleRate returns the mix sample rate.
func (c *Controller) SampleRate() beep.SampleRate { return c.cfg.SampleRate }

// ResampleQuality returns the quality passed to beep.Resample.
func (c *Controller) ResampleQuality() int { return c.cfg.ResampleQuality }

// Realtime reports whether the output is a realtime device. When false the
// render side may wait for producers instead of emitting silence.
func (c *Controller) Realtime() bool { return c.out.Realtime() }

// Logger returns the controller logger.
func (c *Controller) Logger() *slog.Logger { return c.log }

// Lock acquires the render lock. Streamers attached to the mixer are not
// pulled while it is held.
func (c *Controller) Lock() { c.out.Lock() }

// Unlock releases the render lock.
func (c *Controller) Unlock() { c.out.Unlock() }

// Attach adds a streamer to the mix and returns its channel.
func (c *Controller) Attach(s beep.Streamer) (*Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if len(c.channels) >= c.cfg.MaxChannels {
		return nil, ErrTooManyChannels
	}

	ch := &Channel{streamer: s, ctrl: c}
	c.channels[ch] = struct{}{}

	c.out.Lock()
	c.mixer.Add(ch)
	c.out.Unlock()

	return ch, nil
}

// Channels returns the number of attached channels.
func (c *Controller) Channels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels)
}

func (c *Controller) release(ch *Channel) {
	c.mu.Lock()
	delete(c.channels, ch)
	c.mu.Unlock()
}

// Close detaches every channel and closes the output. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for ch := range c.channels {
		ch.detached.Store(true)
	}
	c.channels = make(map[*Channel]struct{})
	c.mu.Unlock()

	c.out.Lock()
	c.mixer.Clear()
	c.out.Unlock()

	c.log.Debug("controller closed")
	return c.out.Close()
}
