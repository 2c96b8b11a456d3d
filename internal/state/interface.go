package state

import (
	"context"
	"time"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	GetResume(ctx context.Context, url string) (*Resume, error)
	SaveResume(r Resume)
	Forget(ctx context.Context, url string) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
