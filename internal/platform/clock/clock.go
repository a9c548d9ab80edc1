// Package clock is a package-level time source so tests can freeze time.
// Production code uses the real clock; tests inject a fake for deterministic
// report headers and message grouping.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var current clockwork.Clock = clockwork.NewRealClock()

// Now returns the current time from the active clock.
func Now() time.Time {
	return current.Now()
}

// Set swaps the time source. Pass nil to reset to real time.
func Set(c clockwork.Clock) {
	if c == nil {
		current = clockwork.NewRealClock()
		return
	}

	current = c
}
