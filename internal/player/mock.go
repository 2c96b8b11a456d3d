// internal/player/mock.go
package player

import (
	"sync"
	"time"

	"github.com/llehouerou/unitplayer/internal/decode"
)

// Mock is a test double for FilePlayer.
type Mock struct {
	mu           sync.Mutex
	url          string
	playing      bool
	position     time.Duration
	duration     time.Duration
	volume       float64
	pan          float64
	desc         decode.Description
	setURLErr    error
	urlCalls     []string
	seekCalls    []time.Duration
	onCompletion func()
	onError      func(error)
	closed       bool
}

var _ Interface = (*Mock)(nil)

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{volume: 1}
}

func (m *Mock) SetURL(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urlCalls = append(m.urlCalls, url)
	m.playing = false
	m.position = 0
	if m.setURLErr != nil {
		m.url = ""
		return m.setURLErr
	}
	m.url = url
	return nil
}

func (m *Mock) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

func (m *Mock) SetPlaying(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on && m.url == "" {
		return ErrNoSource
	}
	m.playing = on
	return nil
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stateOf(m.url != "", m.playing, int64(m.position))
}

func (m *Mock) SetCurrentTime(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, t)
	if m.url == "" {
		return
	}
	m.position = min(max(t, 0), m.duration)
}

func (m *Mock) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = min(max(level, 0), 1)
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) SetPan(pan float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pan = min(max(pan, -1), 1)
}

func (m *Mock) Pan() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pan
}

func (m *Mock) AudioDescription() decode.Description {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desc
}

func (m *Mock) OnCompletion(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCompletion = fn
}

func (m *Mock) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}

// Test helpers

// SetDuration sets the duration reported for any bound source.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SetDescription sets the reported audio description.
func (m *Mock) SetDescription(d decode.Description) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desc = d
}

// SetURLError makes subsequent SetURL calls fail with err.
func (m *Mock) SetURLError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setURLErr = err
}

// URLCalls returns the locators passed to SetURL.
func (m *Mock) URLCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urlCalls...)
}

// SeekCalls returns the positions passed to SetCurrentTime.
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Complete simulates the end of the source: playing stops, the position
// rewinds and the completion callback runs on the caller's goroutine.
func (m *Mock) Complete() {
	m.mu.Lock()
	m.playing = false
	m.position = 0
	fn := m.onCompletion
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Fail simulates a decode error during playback.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	m.playing = false
	fn := m.onError
	m.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
