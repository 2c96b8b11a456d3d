package playback

import (
	"time"

	"github.com/llehouerou/unitplayer/internal/player"
)

// Service defines the playback service contract.
type Service interface {
	// Source
	Load(url string) error
	Source() *Source

	// Playback control
	Play() error
	Stop() error
	Toggle() error
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error

	// Mix
	SetVolume(level float64)
	Volume() float64
	SetPan(pan float64)
	Pan() float64

	// State queries
	State() State
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	Player() player.Interface // Direct endpoint access

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
