package engine

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

var _ beep.Streamer = (*Channel)(nil)

// Channel is one streamer attached to a controller mix.
//
// Once detached it reports exhaustion, and the mixer drops it on its next
// pull.
type Channel struct {
	streamer beep.Streamer
	ctrl     *Controller
	detached atomic.Bool
}

// Stream implements beep.Streamer.
func (ch *Channel) Stream(samples [][2]float64) (n int, ok bool) {
	if ch.detached.Load() {
		return 0, false
	}
	return ch.streamer.Stream(samples)
}

// Err implements beep.Streamer.
func (ch *Channel) Err() error {
	return ch.streamer.Err()
}

// Detach removes the channel from the mix.
func (ch *Channel) Detach() {
	if ch.detached.CompareAndSwap(false, true) {
		ch.ctrl.release(ch)
	}
}

// Detached reports whether the channel has been removed from the mix.
func (ch *Channel) Detached() bool { return ch.detached.Load() }
