// Package dispatcher implements the request dispatcher and the system
// transfer decomposer — the core of the simulator. It resolves every
// request's operands to physical
// locations via the address map, either admits primitives directly to
// a chip under back-pressure, or lowers a system-level transfer into
// an ordered sequence of primitives.
package dispatcher

import (
	"github.com/charmbracelet/log"

	"github.com/Cadmium-CD/PIM/internal/addrmap"
	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/geometry"
	"github.com/Cadmium-CD/PIM/internal/network"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// Dispatcher ties the address map, chip array, and network oracle
// together. It never inspects internal chip state beyond the
// chipproxy.Proxy contract.
type Dispatcher struct {
	geo   geometry.Geometry
	amap  addrmap.Map
	chips []chipproxy.Proxy
	net   *network.Oracle
	log   *log.Logger

	// trace records, in order, the kind of every primitive emitted
	// while servicing the most recent top-level Send call. It exists
	// for decomposition-invariant tests (e.g. "the emitted primitive
	// sequence length is exactly 4"); it is not consulted by any
	// dispatch logic.
	trace []request.Kind
}

func New(geo geometry.Geometry, amap addrmap.Map, chips []chipproxy.Proxy, net *network.Oracle, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{geo: geo, amap: amap, chips: chips, net: net, log: logger}
}

// Send is the single public entry point: it switches on req.Kind and
// routes to exactly one handler. On a geometric violation, it returns
// (ticks.ErrTicks, error wrapping ErrGeometricViolation) rather than
// terminating the process directly — the caller (typically the
// Simulator, or the CLI above it) decides whether to recover or
// terminate.
func (d *Dispatcher) Send(req *request.Request) (ticks.Ticks, error) {
	if err := req.Validate(); err != nil {
		return ticks.ErrTicks, err
	}
	d.trace = d.trace[:0]

	switch req.Kind {
	case request.Read, request.Write:
		return d.sendMemory(req)

	case request.RowMv:
		return d.sendRowMv(req)
	case request.ColMv:
		return d.sendColMv(req)

	case request.RowAdd, request.RowSub, request.RowMul, request.RowDiv, request.RowBitwise, request.RowSearch:
		return d.sendRowPim(req)
	case request.ColAdd, request.ColSub, request.ColMul, request.ColDiv, request.ColBitwise, request.ColSearch:
		return d.sendColPim(req)

	case request.RowBufferRead, request.RowBufferWrite:
		return d.sendRowBuffer(req)
	case request.ColBufferRead, request.ColBufferWrite:
		return d.sendColBuffer(req)

	case request.NetworkSend, request.NetworkReceive:
		return d.sendNetwork(req)

	case request.SystemRow2Row, request.SystemRow2Col, request.SystemCol2Row, request.SystemCol2Col:
		return d.decomposeSystemTransfer(req)

	default:
		d.log.Warn("dispatcher: unsupported kind, treating as no-op", "kind", req.Kind)
		return 0, nil
	}
}

// admit runs the primitive admission pattern shared by every leaf
// handler: inject, then poll receive/tick until admitted. Cost is one
// tick to inject plus one tick per rejection.
func (d *Dispatcher) admit(chipIdx int, prim *request.Request) ticks.Ticks {
	d.trace = append(d.trace, prim.Kind)
	chip := d.chips[chipIdx]
	var cost ticks.Ticks = 1
	for !chip.Receive(prim) {
		cost++
		chip.Tick()
	}
	return cost
}

func (d *Dispatcher) resolve(addr addrmap.Addr) addrmap.Location {
	return d.amap.DecodeLocation(addr)
}

// LastTrace returns the sequence of primitive kinds emitted while
// servicing the most recent top-level Send call, for tests asserting
// decomposition invariants.
func (d *Dispatcher) LastTrace() []request.Kind {
	out := make([]request.Kind, len(d.trace))
	copy(out, d.trace)
	return out
}
