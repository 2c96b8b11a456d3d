package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/player"
	"github.com/llehouerou/unitplayer/internal/state"
)

var (
	// ErrNoSource is returned by transport operations before a load.
	ErrNoSource = errors.New("playback: no source loaded")
	// ErrClosed is returned by operations on a closed service.
	ErrClosed = errors.New("playback: closed")
)

const storeTimeout = 2 * time.Second

type options struct {
	resume bool
	log    *slog.Logger
}

// Option configures the service.
type Option func(*options)

// WithResume controls whether Load restores the saved position and mix.
// Positions are saved either way while a store is set.
func WithResume(enabled bool) Option {
	return func(o *options) { o.resume = enabled }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.Mutex

	player player.Interface
	store  state.Interface // nil disables persistence
	resume bool
	log    *slog.Logger

	source *Source
	last   State

	subs       []*Subscription
	subsMu     sync.RWMutex
	subsClosed bool

	closed bool
}

// New creates a playback service driving p. store may be nil. The service
// does not own p or store: Close leaves both open.
func New(p player.Interface, store state.Interface, opts ...Option) Service {
	o := options{resume: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("playback")
	}
	return &serviceImpl{
		player: p,
		store:  store,
		resume: o.resume,
		log:    o.log,
		last:   fromPlayerState(p.State()),
	}
}

// Load binds url to the endpoint, saving the position of the previous
// source first. An empty url unloads.
func (s *serviceImpl) Load(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	prev := s.source
	s.saveLocked(false)

	if err := s.player.SetURL(url); err != nil {
		s.source = nil
		s.emitStateLocked()
		s.publish(SourceChange{Previous: prev})
		s.emitError(errmsg.OpSourceLoad, url, err)
		s.log.Warn("load failed", slog.String("url", url), slog.Any("error", err))
		return errmsg.Wrap(errmsg.OpSourceLoad, url, err)
	}

	if url == "" {
		s.source = nil
		s.emitStateLocked()
		if prev != nil {
			s.publish(SourceChange{Previous: prev})
		}
		return nil
	}

	s.player.OnCompletion(func() { s.handleCompleted(url) })
	s.player.OnError(func(err error) { s.handleError(url, err) })

	src := &Source{
		URL:         url,
		Duration:    s.player.Duration(),
		Description: s.player.AudioDescription(),
	}
	src.Resumed = s.restoreLocked(url)
	s.source = src

	s.emitStateLocked()
	cur := *src
	s.publish(SourceChange{Previous: prev, Current: &cur})
	s.log.Info("source loaded",
		slog.String("url", url),
		slog.Duration("duration", src.Duration),
		slog.Duration("resumed", src.Resumed))
	return nil
}

// restoreLocked applies the saved resume record of url and returns the
// restored position.
func (s *serviceImpl) restoreLocked(url string) time.Duration {
	if s.store == nil || !s.resume {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	r, err := s.store.GetResume(ctx, url)
	if err != nil {
		s.emitError(errmsg.OpStateLoad, url, err)
		s.log.Warn("resume lookup failed", slog.String("url", url), slog.Any("error", err))
		return 0
	}
	if r == nil {
		return 0
	}

	if r.Volume != nil {
		s.player.SetVolume(*r.Volume)
	}
	if r.Pan != nil {
		s.player.SetPan(*r.Pan)
	}
	if r.Position <= 0 || r.Position >= s.player.Duration() {
		return 0
	}
	s.player.SetCurrentTime(r.Position)
	return s.player.CurrentTime()
}

// saveLocked records the position and mix of the loaded source. rewind
// saves a zero position.
func (s *serviceImpl) saveLocked(rewind bool) {
	if s.store == nil || s.source == nil {
		return
	}
	pos := s.player.CurrentTime()
	if rewind {
		pos = 0
	}
	vol, pan := s.player.Volume(), s.player.Pan()
	s.store.SaveResume(state.Resume{
		URL:      s.source.URL,
		Position: pos,
		Volume:   &vol,
		Pan:      &pan,
	})
}

// Source returns a copy of the loaded source, or nil.
func (s *serviceImpl) Source() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil
	}
	src := *s.source
	return &src
}

// Play starts playback from the current position.
func (s *serviceImpl) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked()
}

func (s *serviceImpl) playLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.source == nil {
		return ErrNoSource
	}
	if err := s.player.SetPlaying(true); err != nil {
		s.emitError(errmsg.OpPlaybackStart, s.source.URL, err)
		return errmsg.Wrap(errmsg.OpPlaybackStart, s.source.URL, err)
	}
	s.emitStateLocked()
	return nil
}

// Stop stops playback, keeping and saving the position.
func (s *serviceImpl) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *serviceImpl) stopLocked() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.player.SetPlaying(false); err != nil {
		return errmsg.Wrap(errmsg.OpPlaybackStop, "", err)
	}
	s.saveLocked(false)
	s.emitStateLocked()
	return nil
}

// Toggle switches between playing and stopped.
func (s *serviceImpl) Toggle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player.Playing() {
		return s.stopLocked()
	}
	return s.playLocked()
}

// Seek moves the position by delta.
func (s *serviceImpl) Seek(delta time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekLocked(s.player.CurrentTime() + delta)
}

// SeekTo moves to position, clamped to the source duration.
func (s *serviceImpl) SeekTo(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seekLocked(position)
}

func (s *serviceImpl) seekLocked(position time.Duration) error {
	if s.closed {
		return ErrClosed
	}
	if s.source == nil {
		return ErrNoSource
	}
	s.player.SetCurrentTime(position)
	pos := s.player.CurrentTime()
	s.publish(PositionChange{Position: pos})
	s.emitStateLocked()
	return nil
}

func (s *serviceImpl) SetVolume(level float64) { s.player.SetVolume(level) }

func (s *serviceImpl) Volume() float64 { return s.player.Volume() }

func (s *serviceImpl) SetPan(pan float64) { s.player.SetPan(pan) }

func (s *serviceImpl) Pan() float64 { return s.player.Pan() }

// State returns the current playback state.
func (s *serviceImpl) State() State {
	return fromPlayerState(s.player.State())
}

func (s *serviceImpl) IsPlaying() bool { return s.player.Playing() }

// Position returns the current playback position.
func (s *serviceImpl) Position() time.Duration {
	return s.player.CurrentTime()
}

// Duration returns the loaded source duration.
func (s *serviceImpl) Duration() time.Duration {
	return s.player.Duration()
}

func (s *serviceImpl) Player() player.Interface { return s.player }

// handleCompleted runs on the endpoint's notifier goroutine.
func (s *serviceImpl) handleCompleted(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.source == nil || s.source.URL != url {
		return
	}

	s.saveLocked(true)
	s.emitStateLocked()
	s.publish(Completed{URL: url})
	s.log.Debug("completed", slog.String("url", url))
}

// handleError runs on the endpoint's notifier goroutine.
func (s *serviceImpl) handleError(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.source == nil || s.source.URL != url {
		return
	}

	s.saveLocked(false)
	s.emitStateLocked()
	s.emitError(errmsg.OpDecode, url, err)
	s.log.Warn("playback error", slog.String("url", url), slog.Any("error", err))
}

// emitStateLocked broadcasts a StateChange when the endpoint state differs
// from the last one broadcast.
func (s *serviceImpl) emitStateLocked() {
	cur := fromPlayerState(s.player.State())
	if cur == s.last {
		return
	}
	prev := s.last
	s.last = cur
	s.publish(StateChange{Previous: prev, Current: cur})
}

func (s *serviceImpl) emitError(op errmsg.Op, url string, err error) {
	s.publish(ErrorEvent{Operation: op, URL: url, Err: err})
}

func (s *serviceImpl) publish(e any) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.deliver(e)
	}
}

// Subscribe creates a new event subscription. After Close the returned
// subscription is already done.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	if s.subsClosed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops playback, saves the position and ends all subscriptions.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	err := s.player.SetPlaying(false)
	if errors.Is(err, player.ErrClosed) {
		err = nil
	}
	s.saveLocked(false)
	s.player.OnCompletion(nil)
	s.player.OnError(nil)
	s.emitStateLocked()
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsClosed = true
	s.subsMu.Unlock()

	return err
}
