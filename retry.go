package llm

import (
	"context"
	"math/rand"
	"time"
)

// backoffPolicy computes full-jitter exponential delays between retry
// attempts. The delay for attempt n is drawn uniformly from
// [floor, min(ceiling, floor<<n)], so concurrent clients spread out instead
// of thundering in lockstep.
type backoffPolicy struct {
	floor   time.Duration
	ceiling time.Duration

	// randFloat returns a value in [0, 1). Overridable for deterministic
	// tests; nil means the package-level source.
	randFloat func() float64
}

func defaultBackoff() backoffPolicy {
	return backoffPolicy{
		floor:   1 * time.Second,
		ceiling: 60 * time.Second,
	}
}

// delay computes the wait before retrying after the given zero-based failed
// attempt.
func (b backoffPolicy) delay(attempt int) time.Duration {
	high := b.floor
	for i := 0; i < attempt; i++ {
		high *= 2
		if high >= b.ceiling {
			high = b.ceiling
			break
		}
	}

	rf := b.randFloat
	if rf == nil {
		rf = rand.Float64
	}
	return b.floor + time.Duration(rf()*float64(high-b.floor))
}

// sleep waits out the backoff delay or returns early with ctx.Err() on
// cancellation.
func (b backoffPolicy) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
