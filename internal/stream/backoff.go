package stream

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultInitialBackoff is the delay before the first reconnect attempt.
	DefaultInitialBackoff = 500 * time.Millisecond
	// DefaultMaxBackoff caps the reconnect delay.
	DefaultMaxBackoff = 30 * time.Second
	// backoffJitter spreads each delay by ±20%.
	backoffJitter = 0.2
)

// Backoff returns the delay before reconnect attempt n (0-based):
// initial doubled n times, capped at max, then jittered by ±20%.
// rnd must return a value in [0, 1); nil uses math/rand/v2.
func Backoff(n int, initial, max time.Duration, rnd func() float64) time.Duration {
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}
	if max < initial {
		max = initial
	}
	if rnd == nil {
		rnd = rand.Float64
	}

	d := initial
	for i := 0; i < n && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}

	factor := 1 - backoffJitter + 2*backoffJitter*rnd()
	return time.Duration(math.Round(float64(d) * factor))
}
