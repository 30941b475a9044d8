package liquid

import (
	"math"
	"sync/atomic"
)

// stepTracker bounds the number of node renders in one render call. It
// guards against runaway templates (deep partial recursion, huge loops).
// The counter is atomic because async renders complete on a different
// goroutine than the caller's.
type stepTracker struct {
	remaining atomic.Int64
}

func newStepTracker(steps uint64) *stepTracker {
	if steps > math.MaxInt64 {
		steps = math.MaxInt64
	}
	t := &stepTracker{}
	t.remaining.Store(int64(steps))
	return t
}

func (t *stepTracker) consume(amount int64) error {
	if t == nil || amount == 0 {
		return nil
	}
	if t.remaining.Add(-amount) <= 0 {
		return NewError(ErrRender, "render step limit exceeded")
	}
	return nil
}
