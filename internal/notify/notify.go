// Package notify posts desktop notifications for playback events.
package notify

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification is one desktop notification.
//
// Timeout is in milliseconds; -1 leaves it to the server and 0 never
// expires. A non-zero ReplacesID updates that notification in place.
type Notification struct {
	Title      string
	Body       string
	Icon       string // image path or icon name
	Timeout    int32
	ReplacesID uint32
	Urgency    Urgency
}

// Notifier posts notifications. Notify returns the id the server
// assigned, or 0 when notifications are unavailable.
type Notifier interface {
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Discard is a Notifier that posts nothing.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) (uint32, error) { return 0, nil }

func (discard) Close(uint32) error { return nil }
