//go:build windows

// Package stderr provides a no-op implementation for Windows.
// Windows audio libraries don't produce the same stderr noise as ALSA.
package stderr

import "os"

// Capture is a no-op on Windows.
type Capture struct{}

// Start is a no-op on Windows.
func Start(_ func(line string)) (*Capture, error) {
	return &Capture{}, nil
}

// Original returns os.Stderr.
func (c *Capture) Original() *os.File {
	return os.Stderr
}

// Stop is a no-op on Windows.
func (c *Capture) Stop() {}

// Close is a no-op on Windows.
func (c *Capture) Close() error { return nil }
