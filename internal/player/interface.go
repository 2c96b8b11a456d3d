// internal/player/interface.go
package player

import (
	"time"

	"github.com/llehouerou/unitplayer/internal/decode"
)

// Interface defines the endpoint contract for dependency injection and testing.
type Interface interface {
	SetURL(url string) error
	URL() string
	SetPlaying(on bool) error
	Playing() bool
	State() State
	SetCurrentTime(t time.Duration)
	CurrentTime() time.Duration
	Duration() time.Duration
	SetVolume(level float64)
	Volume() float64
	SetPan(pan float64)
	Pan() float64
	AudioDescription() decode.Description
	OnCompletion(fn func())
	OnError(fn func(error))
	Close() error
}
