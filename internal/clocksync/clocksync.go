// Package clocksync implements the post-request clock synchroniser:
// after every top-level request, every chip is advanced to the same
// global commit point.
package clocksync

import (
	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// Synchronise drains every chip to Finished(), computes the maximum
// Time() across all chips, advances every chip to that maximum, and
// commits the new baseline via UpdateTime.
//
// No synchronisation happens inside a top-level request's
// decomposition; this is the only happens-before edge the core
// establishes between top-level requests.
func Synchronise(chips []chipproxy.Proxy) {
	for _, c := range chips {
		for !c.Finished() {
			c.Tick()
		}
	}

	var global ticks.Ticks
	for _, c := range chips {
		if t := c.Time(); t > global {
			global = t
		}
	}

	for _, c := range chips {
		for c.Time() < global {
			c.Tick()
		}
		c.UpdateTime()
	}
}
