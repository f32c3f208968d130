package resilience

import "time"

// Config tunes retries and the circuit breaker for one class of upstream.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64
	// RetryAfterMax caps how long a server-sent Retry-After hint may stall
	// one attempt. Zero ignores hints.
	RetryAfterMax time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

var baseline = Config{
	RetryMaxAttempts:    3,
	RetryInitialBackoff: 100 * time.Millisecond,
	RetryMaxBackoff:     400 * time.Millisecond,
	RetryMultiplier:     2.0,

	BreakerEnabled:          true,
	BreakerMinRequests:      10,
	BreakerFailureRatio:     0.5,
	BreakerOpenTimeout:      30 * time.Second,
	BreakerHalfOpenMaxCalls: 2,
}

// BrokerProfile guards publishing item ids to the message broker. Publishes
// happen inside an upload request, so retries stay short.
func BrokerProfile() Config {
	return baseline
}

// VisionProfile guards the background-removal and categorization APIs.
// Their calls are slow and billed: the breaker trips after fewer failures,
// stays open longer, and rate-limit hints are honored.
func VisionProfile() Config {
	cfg := baseline
	cfg.RetryInitialBackoff = 250 * time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Second
	cfg.RetryAfterMax = 5 * time.Second
	cfg.BreakerMinRequests = 5
	cfg.BreakerOpenTimeout = time.Minute
	return cfg
}

// FetchProfile guards downloads of stored or generated images. A CDN miss is
// usually gone on the next try, so it retries once more than the others.
func FetchProfile() Config {
	cfg := baseline
	cfg.RetryMaxAttempts = 4
	cfg.RetryMaxBackoff = time.Second
	cfg.RetryAfterMax = 2 * time.Second
	return cfg
}

func (c Config) withDefaults() Config {
	out := c
	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = baseline.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = baseline.RetryInitialBackoff
	}
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = baseline.RetryMultiplier
	}
	if out.RetryAfterMax < 0 {
		out.RetryAfterMax = 0
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = baseline.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = baseline.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = baseline.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = baseline.BreakerHalfOpenMaxCalls
	}
	return out
}

// backoffAt returns the delay after the given failed attempt (1-based).
func (c Config) backoffAt(attempt int) time.Duration {
	wait := float64(c.RetryInitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= c.RetryMultiplier
		if wait >= float64(c.RetryMaxBackoff) {
			return c.RetryMaxBackoff
		}
	}
	return min(time.Duration(wait), c.RetryMaxBackoff)
}
