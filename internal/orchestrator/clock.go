package orchestrator

import (
	"context"
	"time"
)

// Clock abstracts time for the video poll loop so tests can simulate
// waiting without real delays.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is canceled, returning ctx.Err()
	// in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }
