//go:build !windows

// Package stderr captures output that C audio libraries (ALSA, faad2)
// write directly to file descriptor 2, bypassing Go's os.Stderr.
package stderr

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var errActive = errors.New("stderr: capture already active")

var (
	activeMu sync.Mutex
	active   bool
)

// Capture redirects fd 2 into a pipe and hands each non-empty line to a
// callback.
type Capture struct {
	orig  *os.File
	saved int
	r, w  *os.File
	done  chan struct{}
	once  sync.Once
}

// Start begins capturing stderr. It must be called before the audio
// backend is initialized. Only one capture may be active at a time.
func Start(handle func(line string)) (*Capture, error) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active {
		return nil, errActive
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	fd := int(os.Stderr.Fd())
	saved, err := unix.Dup(fd)
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := unix.Dup2(int(w.Fd()), fd); err != nil {
		unix.Close(saved)
		r.Close()
		w.Close()
		return nil, err
	}

	// A second descriptor for the original stream; saved stays reserved
	// for restoring fd 2.
	origFD, err := unix.Dup(saved)
	if err != nil {
		_ = unix.Dup2(saved, fd)
		unix.Close(saved)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{
		orig:  os.NewFile(uintptr(origFD), "stderr"),
		saved: saved,
		r:     r,
		w:     w,
		done:  make(chan struct{}),
	}
	active = true

	go func() {
		defer close(c.done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				handle(line)
			}
		}
	}()
	return c, nil
}

// Original returns the stream stderr pointed at before the capture.
// Writes to it are never captured.
func (c *Capture) Original() *os.File {
	return c.orig
}

// Stop restores fd 2 and waits until the captured lines are handled.
func (c *Capture) Stop() {
	c.once.Do(func() {
		fd := int(os.Stderr.Fd())
		_ = unix.Dup2(c.saved, fd)
		_ = unix.Close(c.saved)
		// fd 2 no longer refers to the pipe; closing w delivers EOF.
		c.w.Close()
		<-c.done
		c.r.Close()

		activeMu.Lock()
		active = false
		activeMu.Unlock()
	})
}

// Close stops the capture and closes the original stream handle.
func (c *Capture) Close() error {
	c.Stop()
	return c.orig.Close()
}
