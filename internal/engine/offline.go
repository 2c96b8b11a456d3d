package engine

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// OfflineOutput renders the mix on demand instead of against a clock.
// Used for rendering to files and in tests.
type OfflineOutput struct {
	mu       sync.Mutex
	streamer beep.Streamer
	format   beep.Format
	rendered int
}

var _ Output = (*OfflineOutput)(nil)

// NewOfflineOutput returns an output that is pulled by Render.
func NewOfflineOutput() *OfflineOutput {
	return &OfflineOutput{}
}

func (o *OfflineOutput) Start(format beep.Format, _ time.Duration, s beep.Streamer) error {
	o.mu.Lock()
	o.streamer = s
	o.format = format
	o.mu.Unlock()
	return nil
}

func (o *OfflineOutput) Lock() { o.mu.Lock() }

func (o *OfflineOutput) Unlock() { o.mu.Unlock() }

func (o *OfflineOutput) Realtime() bool { return false }

func (o *OfflineOutput) Close() error {
	o.mu.Lock()
	o.streamer = nil
	o.mu.Unlock()
	return nil
}

// Render pulls len(buf) frames of the mix into buf. After Close it fills
// buf with silence.
func (o *OfflineOutput) Render(buf [][2]float64) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		clear(buf)
		return len(buf)
	}
	n, ok := o.streamer.Stream(buf)
	if !ok {
		n = 0
	}
	clear(buf[n:])
	o.rendered += len(buf)
	return len(buf)
}

// Rendered returns how much audio has been rendered so far.
func (o *OfflineOutput) Rendered() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.format.SampleRate == 0 {
		return 0
	}
	return o.format.SampleRate.D(o.rendered)
}

// Streamer exposes the output as an endless beep.Streamer, for feeding an
// encoder. Bound it with beep.Take.
func (o *OfflineOutput) Streamer() beep.Streamer {
	return offlineStreamer{o}
}

type offlineStreamer struct{ o *OfflineOutput }

func (s offlineStreamer) Stream(samples [][2]float64) (int, bool) {
	return s.o.Render(samples), true
}

func (s offlineStreamer) Err() error { return nil }
