package chipproxy

import (
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// LatencyTable maps a primitive Kind to how many ticks it occupies a
// controller slot, and how much energy (in nanojoules) that costs.
//
// This stands in for a characterized energy/latency model: the
// dispatch core only needs something that satisfies the shape, not a
// calibrated one.
type LatencyTable struct {
	latency map[request.Kind]ticks.Ticks
	energy  map[request.Kind]float64
}

// DefaultLatencyTable gives every primitive kind a small, plausible
// fixed cost: memory accesses, intra-block moves and network
// primitives occupy a slot for 1 tick, buffer primitives for 2, and
// PIM compute kinds for 2 to 6. Network primitives draw more energy
// than any kind except division.
func DefaultLatencyTable() LatencyTable {
	return LatencyTable{
		latency: map[request.Kind]ticks.Ticks{
			request.Read:           1,
			request.Write:          1,
			request.RowMv:          1,
			request.ColMv:          1,
			request.RowAdd:         3,
			request.RowSub:         3,
			request.RowMul:         4,
			request.RowDiv:         6,
			request.RowBitwise:     2,
			request.RowSearch:      4,
			request.ColAdd:         3,
			request.ColSub:         3,
			request.ColMul:         4,
			request.ColDiv:         6,
			request.ColBitwise:     2,
			request.ColSearch:      4,
			request.RowBufferRead:  2,
			request.RowBufferWrite: 2,
			request.ColBufferRead:  2,
			request.ColBufferWrite: 2,
			request.NetworkSend:    1,
			request.NetworkReceive: 1,
		},
		energy: map[request.Kind]float64{
			request.Read:           0.0021,
			request.Write:          0.0026,
			request.RowMv:          0.0012,
			request.ColMv:          0.0012,
			request.RowAdd:         0.0110,
			request.RowSub:         0.0110,
			request.RowMul:         0.0190,
			request.RowDiv:         0.0410,
			request.RowBitwise:     0.0060,
			request.RowSearch:      0.0170,
			request.ColAdd:         0.0110,
			request.ColSub:         0.0110,
			request.ColMul:         0.0190,
			request.ColDiv:         0.0410,
			request.ColBitwise:     0.0060,
			request.ColSearch:      0.0170,
			request.RowBufferRead:  0.0080,
			request.RowBufferWrite: 0.0090,
			request.ColBufferRead:  0.0080,
			request.ColBufferWrite: 0.0090,
			request.NetworkSend:    0.0200,
			request.NetworkReceive: 0.0200,
		},
	}
}

// Lookup returns the tick cost and energy cost for kind, defaulting to
// one tick and a small fixed energy draw for any kind not present.
func (t LatencyTable) Lookup(kind request.Kind) (ticks.Ticks, float64) {
	lat, ok := t.latency[kind]
	if !ok {
		lat = 1
	}
	nrg, ok := t.energy[kind]
	if !ok {
		nrg = 0.0010
	}
	return lat, nrg
}
