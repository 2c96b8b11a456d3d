package playback

import (
	"time"

	"github.com/llehouerou/unitplayer/internal/errmsg"
)

// StateChange is emitted when the transport state changes.
type StateChange struct {
	Previous State
	Current  State
}

// SourceChange is emitted when a source is loaded.
//
// Previous is nil for the first load. Current is nil when a load failed
// and left the endpoint unbound.
type SourceChange struct {
	Previous *Source
	Current  *Source
}

// PositionChange is emitted when a seek occurs. Positions reached by
// playing are not reported; poll Position for those.
type PositionChange struct {
	Position time.Duration
}

// Completed is emitted when a source plays to its end.
type Completed struct {
	URL string
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation errmsg.Op
	URL       string
	Err       error
}

// Message returns the user-facing text of the error.
func (e ErrorEvent) Message() string {
	return errmsg.FormatWith(e.Operation, e.URL, e.Err)
}
