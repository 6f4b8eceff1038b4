package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential delays with jitter for the one-shot sweep.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	Jitter    float64
}

// DefaultBackoff starts at the platform's minimum backoff unit.
func DefaultBackoff() *Backoff {
	return &Backoff{
		BaseDelay: 10 * time.Second,
		MaxDelay:  30 * time.Minute,
		Factor:    2.0,
		Jitter:    0.1,
	}
}

// NextDelay returns the delay for the given attempt count (0-based).
func (b *Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(b.BaseDelay) * math.Pow(b.Factor, float64(attempt))
	if delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	if b.Jitter > 0 {
		jitterRange := delay * b.Jitter
		delay += (rand.Float64() * 2 * jitterRange) - jitterRange
	}

	if delay < float64(100*time.Millisecond) {
		delay = float64(100 * time.Millisecond)
	}

	return time.Duration(delay)
}
