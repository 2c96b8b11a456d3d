// Package errmsg formats user-facing error messages as "Failed to <op>".
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Source
	OpSourceLoad  Op = "load source"
	OpSourceProbe Op = "read audio description"
	OpDecode      Op = "decode source"

	// Transport
	OpPlaybackStart Op = "start playback"
	OpPlaybackStop  Op = "stop playback"
	OpPlaybackSeek  Op = "seek"

	// Rendering
	OpRender     Op = "render"
	OpOutputOpen Op = "open audio output"

	// Resume state
	OpStateOpen Op = "open state database"
	OpStateLoad Op = "load resume position"
	OpStateSave Op = "save resume position"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize player"
)

// Format returns "Failed to <op>: <err>", or "" for a nil err.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith is Format naming the subject of the operation, usually a
// file or URL.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Error carries an operation and its subject alongside the cause, and
// prints like FormatWith.
type Error struct {
	Op      Op
	Context string
	Err     error
}

// Wrap returns an *Error, or nil for a nil err.
func Wrap(op Op, context string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Context: context, Err: err}
}

func (e *Error) Error() string { return FormatWith(e.Op, e.Context, e.Err) }

func (e *Error) Unwrap() error { return e.Err }
