// Package chipproxy implements the per-chip facade the dispatcher
// treats as a black box: receive, tick, time, finished, update_time,
// and statistics emission. The internal admission scheme
// is adapted from the bitmap + count-trailing-zeros free-slot search
// used by the out-of-order scheduler this module is descended from —
// here there is no dependency graph to track, only a bounded pool of
// in-flight primitive slots.
package chipproxy

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/Cadmium-CD/PIM/internal/geometry"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// Proxy is the contract the dispatcher depends on. The core never
// inspects anything beyond this interface.
type Proxy interface {
	Receive(req *request.Request) bool
	Tick()
	Time() ticks.Ticks
	Finished() bool
	UpdateTime()
	OutputStats(w io.Writer)
}

// Granularity selects which level of the chip hierarchy admits
// primitives independently. Exactly one of the config flags
// BlockCtrl/TileCtrl/ChipCtrl should be set; config.Normalize enforces
// the blockctrl-default fallback when none are.
type Granularity int

const (
	GranularityBlock Granularity = iota
	GranularityTile
	GranularityChip
)

// Capacity derives the number of independent admission slots a
// controller exposes for a given geometry and granularity. This is a
// concrete-backend design decision, not part of the abstract Chip
// Proxy contract: finer control granularity means more of the chip
// can admit primitives at once.
func Capacity(g geometry.Geometry, gran Granularity) int {
	switch gran {
	case GranularityTile:
		return g.NTiles
	case GranularityChip:
		return 1
	default:
		return g.NTiles * g.NBlocks
	}
}

type inflightSlot struct {
	busy  bool
	doneAt ticks.Ticks
	kind  request.Kind
}

// Controller is the concrete Proxy implementation for one chip.
type Controller struct {
	id       int
	capacity int
	occupied []uint64 // bitmap: bit i set = slots[i] busy
	slots    []inflightSlot

	cur  ticks.Ticks
	base ticks.Ticks

	table LatencyTable

	// statistics, read by OutputStats and by the result writer.
	perKindCount  map[request.Kind]uint64
	perKindTicks  map[request.Kind]ticks.Ticks
	energyTotalNJ float64
	tickedTotal   uint64
}

// New builds a Controller for chip id with the given admission
// capacity and latency/energy table.
func New(id int, capacity int, table LatencyTable) *Controller {
	if capacity < 1 {
		capacity = 1
	}
	words := (capacity + 63) / 64
	return &Controller{
		id:           id,
		capacity:     capacity,
		occupied:     make([]uint64, words),
		slots:        make([]inflightSlot, capacity),
		table:        table,
		perKindCount: make(map[request.Kind]uint64),
		perKindTicks: make(map[request.Kind]ticks.Ticks),
	}
}

// findFreeSlot locates the first unoccupied slot via count-trailing-
// zeros on the inverted bitmap word, the same technique an
// out-of-order scheduler uses to find a free reservation station.
func (c *Controller) findFreeSlot() (int, bool) {
	for w, word := range c.occupied {
		inv := ^word
		if w == len(c.occupied)-1 {
			// mask off bits beyond capacity in the last word
			rem := c.capacity - w*64
			if rem < 64 {
				inv &= (uint64(1) << uint(rem)) - 1
			}
		}
		if inv == 0 {
			continue
		}
		bit := bits.TrailingZeros64(inv)
		idx := w*64 + bit
		if idx >= c.capacity {
			continue
		}
		return idx, true
	}
	return 0, false
}

// Receive attempts to admit req into a free slot. Returns false
// (back-pressure) if every slot is occupied; calling it again with the
// same request after a failure is safe and has no side effects.
func (c *Controller) Receive(req *request.Request) bool {
	idx, ok := c.findFreeSlot()
	if !ok {
		return false
	}
	lat, nrg := c.table.Lookup(req.Kind)
	c.slots[idx] = inflightSlot{busy: true, doneAt: c.cur + lat, kind: req.Kind}
	c.occupied[idx/64] |= 1 << uint(idx%64)

	c.perKindCount[req.Kind]++
	c.perKindTicks[req.Kind] += lat
	c.energyTotalNJ += nrg
	return true
}

// Tick advances the chip by exactly one tick, freeing any slot whose
// latency has elapsed.
func (c *Controller) Tick() {
	c.cur++
	c.tickedTotal++
	for i := range c.slots {
		s := &c.slots[i]
		if s.busy && c.cur >= s.doneAt {
			s.busy = false
			c.occupied[i/64] &^= 1 << uint(i%64)
		}
	}
}

// Time returns the current tick counter.
func (c *Controller) Time() ticks.Ticks { return c.cur }

// Finished is true iff no slot has in-flight work.
func (c *Controller) Finished() bool {
	for _, word := range c.occupied {
		if word != 0 {
			return false
		}
	}
	return true
}

// UpdateTime commits the current tick as the new baseline. Called by
// the clock synchroniser after every top-level request.
func (c *Controller) UpdateTime() {
	c.base = c.cur
}

// TickedTotal and EnergyNJ back the Summary section of the result
// file; they are read-only snapshots of internal state.
func (c *Controller) TickedTotal() uint64    { return c.tickedTotal }
func (c *Controller) EnergyNJ() float64      { return c.energyTotalNJ }
func (c *Controller) ID() int                { return c.id }

// KindCount returns how many primitives of kind k this chip has
// admitted, for the pim_requests_total metric.
func (c *Controller) KindCount(k request.Kind) uint64 { return c.perKindCount[k] }

// OutputStats writes the per-chip Backend-section block: a per-kind
// breakdown of how many primitives were admitted and how many ticks
// they accounted for.
func (c *Controller) OutputStats(w io.Writer) {
	fmt.Fprintf(w, "chip %d: capacity=%d baseline=%d current=%d\n", c.id, c.capacity, c.base, c.cur)
	for _, k := range request.AllKinds() {
		n := c.perKindCount[k]
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-16s count=%-8d ticks=%d\n", k, n, c.perKindTicks[k])
	}
}
