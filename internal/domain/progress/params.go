package progress

import "time"

// Params defines the configurable parameters of the review scheduling policy.
//
// IntervalLadder holds the review interval assigned after each promotion:
// the first promotion schedules the next review after IntervalLadder[0], the
// second after IntervalLadder[1], and so on. Promotions past the end of the
// ladder clamp to the last entry. The first entry is also the reset interval
// assigned on every failed attempt.
type Params struct {
	IntervalLadder []time.Duration
}

// ParamsConfig allows overriding the default parameters.
type ParamsConfig struct {
	// IntervalLadder replaces the default ladder when non-empty.
	// Values must be positive.
	IntervalLadder []time.Duration
}

// NewDefaultParams creates a Params instance with the default interval
// ladder: 1 day, 3 days, 7 days.
func NewDefaultParams() *Params {
	return &Params{
		IntervalLadder: []time.Duration{
			24 * time.Hour,
			72 * time.Hour,
			168 * time.Hour,
		},
	}
}

// NewParams creates a Params instance with custom configuration, falling
// back to defaults for anything not supplied.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if len(config.IntervalLadder) > 0 {
		valid := true
		for _, d := range config.IntervalLadder {
			if d <= 0 {
				valid = false
				break
			}
		}
		if valid {
			params.IntervalLadder = config.IntervalLadder
		}
	}

	return params
}

// intervalForPromotion returns the interval assigned after the nth promotion
// (1-based), clamped to the ladder.
func (p *Params) intervalForPromotion(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > len(p.IntervalLadder) {
		n = len(p.IntervalLadder)
	}
	return p.IntervalLadder[n-1]
}

// resetInterval returns the shortest interval, assigned after a failure.
func (p *Params) resetInterval() time.Duration {
	return p.IntervalLadder[0]
}
