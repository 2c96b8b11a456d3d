//go:build !linux

package notify

// New returns Discard: desktop notifications need D-Bus.
func New(_ string) (Notifier, error) {
	return Discard, nil
}
