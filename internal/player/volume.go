package player

import (
	"math"
)

// SetVolume sets the linear volume level (0.0 to 1.0). Zero is silent.
// The render side picks it up on its next pull.
func (p *FilePlayer) SetVolume(level float64) {
	if math.IsNaN(level) {
		return
	}
	p.volume.Store(math.Float64bits(min(max(level, 0), 1)))
}

// Volume returns the current volume level (0.0 to 1.0).
func (p *FilePlayer) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// SetPan sets the stereo position: -1 is hard left, 0 centre, 1 hard right.
func (p *FilePlayer) SetPan(pan float64) {
	if math.IsNaN(pan) {
		return
	}
	p.pan.Store(math.Float64bits(min(max(pan, -1), 1)))
}

// Pan returns the current stereo position.
func (p *FilePlayer) Pan() float64 {
	return math.Float64frombits(p.pan.Load())
}

// levelToVolume converts a 0.0-1.0 level to beep's Volume value.
// beep uses a logarithmic scale where Volume is in "decibels" with base 2.
// Volume = 0 means no change, -1 = half volume, -2 = quarter, etc.
// Zero is handled by Silent.
func levelToVolume(level float64) float64 {
	if level <= 0 || level >= 1 {
		return 0
	}
	return math.Log2(level)
}
