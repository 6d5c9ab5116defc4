package executor

import (
	"context"
	"time"
)

// sleepBackoff waits scheduleMS[attempt] before the next generator retry
// (spec.md §4.6, §6.6) and returns at once when attempt is past the end of
// the schedule. With the default 100/300/900ms schedule a call is tried up
// to 4 times, waiting 100ms, then 300ms, then 900ms between tries. This is a small explicit helper rather than an
// open-ended backoff policy, since the schedule is a fixed list, not a
// tunable exponential curve.
func sleepBackoff(ctx context.Context, scheduleMS []int, attempt int) error {
	if attempt >= len(scheduleMS) {
		return nil
	}
	d := time.Duration(scheduleMS[attempt]) * time.Millisecond
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
