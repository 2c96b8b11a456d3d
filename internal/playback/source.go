package playback

import (
	"time"

	"github.com/llehouerou/unitplayer/internal/decode"
)

// Source describes the loaded source.
// This is a copy of the endpoint's data at load time.
type Source struct {
	URL         string
	Duration    time.Duration
	Description decode.Description
	// Resumed is the position restored from the state store, or zero.
	Resumed time.Duration
}
