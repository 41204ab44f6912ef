package clocksync_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/clocksync"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// fakeChip is a minimal chipproxy.Proxy that finishes after a fixed
// number of ticks, for exercising the synchroniser in isolation from a
// real Controller's admission bookkeeping.
type fakeChip struct {
	cur, base  ticks.Ticks
	workUntil  ticks.Ticks
}

func (f *fakeChip) Receive(*request.Request) bool { return true }
func (f *fakeChip) Tick()                         { f.cur++ }
func (f *fakeChip) Time() ticks.Ticks             { return f.cur }
func (f *fakeChip) Finished() bool                { return f.cur >= f.workUntil }
func (f *fakeChip) UpdateTime()                   { f.base = f.cur }
func (f *fakeChip) OutputStats(io.Writer)         {}

func TestSynchroniseAdvancesAllChipsToGlobalMax(t *testing.T) {
	chips := []chipproxy.Proxy{
		&fakeChip{workUntil: 3},
		&fakeChip{workUntil: 7},
		&fakeChip{workUntil: 2},
	}

	clocksync.Synchronise(chips)

	for i, c := range chips {
		assert.Equal(t, ticks.Ticks(7), c.Time(), "chip %d should be advanced to the global max", i)
		assert.True(t, c.Finished())
	}
}

func TestSynchroniseIsIdempotentOnAlreadySyncedChips(t *testing.T) {
	chips := []chipproxy.Proxy{
		&fakeChip{workUntil: 5},
		&fakeChip{workUntil: 5},
	}
	clocksync.Synchronise(chips)
	clocksync.Synchronise(chips)

	for _, c := range chips {
		assert.Equal(t, ticks.Ticks(5), c.Time())
	}
}
