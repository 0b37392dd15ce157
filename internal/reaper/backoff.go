package reaper

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 1 * time.Second
	jitter     = 0.25
)

// backoff paces polling for the exit of a process that is not our child and
// therefore cannot be waited on.
type backoff struct {
	attempt int
}

// Wait blocks for the next delay and returns false if ctx is done first.
func (b *backoff) Wait(ctx context.Context) bool {
	t := time.NewTimer(b.nextDelay())
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *backoff) nextDelay() time.Duration {
	// Exponential: min * 2^attempt, capped at max
	base := float64(minBackoff) * math.Pow(2, float64(b.attempt))
	if base > float64(maxBackoff) {
		base = float64(maxBackoff)
	}

	j := base * jitter * (2*rand.Float64() - 1)
	d := time.Duration(base + j)
	if d < minBackoff {
		d = minBackoff
	}
	if d > maxBackoff {
		d = maxBackoff
	}

	if base < float64(maxBackoff) {
		b.attempt++
	}
	return d
}
