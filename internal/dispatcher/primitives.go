package dispatcher

import (
	"fmt"

	"github.com/Cadmium-CD/PIM/internal/addrmap"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// sendMemory handles Read/Write: single operand, resolve full
// location, attempt admission.
func (d *Dispatcher) sendMemory(req *request.Request) (ticks.Ticks, error) {
	op := req.Operands[0]
	loc := d.resolve(op.Addr)
	req.Location = loc
	return d.admit(loc.Chip, req), nil
}

// sendRowMv handles RowMv: intra-block primitive, operands walked in
// pairs, axis-wide column (col=-1), same (chip, tile, block) required.
func (d *Dispatcher) sendRowMv(req *request.Request) (ticks.Ticks, error) {
	return d.sendMv(req, request.RowMv, true)
}

// sendColMv handles ColMv: intra-block primitive, operands walked in
// pairs, axis-wide row (row=-1). Unlike RowMv, same-tile is not
// required.
func (d *Dispatcher) sendColMv(req *request.Request) (ticks.Ticks, error) {
	return d.sendMv(req, request.ColMv, false)
}

func (d *Dispatcher) sendMv(req *request.Request, kind request.Kind, requireSameTile bool) (ticks.Ticks, error) {
	var total ticks.Ticks
	for i := 0; i < len(req.Operands); i += 2 {
		src := req.Operands[i]
		dst := req.Operands[i+1]
		srcLoc := d.resolve(src.Addr)
		dstLoc := d.resolve(dst.Addr)

		if srcLoc.Chip != dstLoc.Chip || srcLoc.Block != dstLoc.Block ||
			(requireSameTile && srcLoc.Tile != dstLoc.Tile) {
			return ticks.ErrTicks, fmt.Errorf("%w: %s requires same chip/block%s, got src=%+v dst=%+v",
				ErrGeometricViolation, kind, tileClause(requireSameTile), srcLoc, dstLoc)
		}

		if kind == request.RowMv {
			if srcLoc.Col+int(src.Size) > d.geo.NCols || dstLoc.Col+int(dst.Size) > d.geo.NCols {
				return ticks.ErrTicks, fmt.Errorf("%w: %s col+size exceeds NCols=%d", ErrGeometricViolation, kind, d.geo.NCols)
			}
		} else {
			if srcLoc.Row+int(src.Size) > d.geo.NRows || dstLoc.Row+int(dst.Size) > d.geo.NRows {
				return ticks.ErrTicks, fmt.Errorf("%w: %s row+size exceeds NRows=%d", ErrGeometricViolation, kind, d.geo.NRows)
			}
		}

		prim := request.New(kind)
		prim.AddOperand(src.Addr, src.Size)
		prim.AddOperand(dst.Addr, dst.Size)
		if kind == request.RowMv {
			prim.SetLocation(srcLoc.Chip, srcLoc.Tile, srcLoc.Block, srcLoc.Row, -1)
		} else {
			prim.SetLocation(srcLoc.Chip, srcLoc.Tile, srcLoc.Block, -1, srcLoc.Col)
		}

		total += d.admit(srcLoc.Chip, prim)
	}
	return total, nil
}

func tileClause(requireSameTile bool) string {
	if requireSameTile {
		return "/tile"
	}
	return ""
}

// sendRowPim handles the six Row{Add,Sub,Mul,Div,Bitwise,Search}
// kinds: every operand is walked (step 1). PIM handlers return 0 on
// success regardless of admission cost — a preserved quirk, not a bug.
func (d *Dispatcher) sendRowPim(req *request.Request) (ticks.Ticks, error) {
	return d.sendPim(req, 1)
}

// sendColPim handles the six Col{...} kinds: operands are walked in
// steps of 2, dropping every odd-indexed operand. This asymmetry with
// sendRowPim is intentional and load-bearing — preserve it.
func (d *Dispatcher) sendColPim(req *request.Request) (ticks.Ticks, error) {
	return d.sendPim(req, 2)
}

func (d *Dispatcher) sendPim(req *request.Request, step int) (ticks.Ticks, error) {
	isRow := step == 1
	for i := 0; i < len(req.Operands); i += step {
		op := req.Operands[i]
		loc := d.resolve(op.Addr)

		prim := request.New(req.Kind)
		prim.AddOperand(op.Addr, op.Size)
		if isRow {
			prim.SetLocation(loc.Chip, loc.Tile, loc.Block, loc.Row, -1)
		} else {
			prim.SetLocation(loc.Chip, loc.Tile, loc.Block, -1, loc.Col)
		}

		d.admit(loc.Chip, prim)
	}
	return 0, nil
}

// sendRowBuffer handles RowBufferRead/RowBufferWrite: each operand is
// an independent single-entry request; bounds-check against NCols,
// admit with row axis-wide marked by col=-1.
func (d *Dispatcher) sendRowBuffer(req *request.Request) (ticks.Ticks, error) {
	return d.sendBuffer(req, true)
}

// sendColBuffer handles ColBufferRead/ColBufferWrite, checking NRows.
func (d *Dispatcher) sendColBuffer(req *request.Request) (ticks.Ticks, error) {
	return d.sendBuffer(req, false)
}

func (d *Dispatcher) sendBuffer(req *request.Request, isRow bool) (ticks.Ticks, error) {
	var total ticks.Ticks
	for _, op := range req.Operands {
		loc := d.resolve(op.Addr)

		if isRow {
			if loc.Col+int(op.Size) > d.geo.NCols {
				return ticks.ErrTicks, fmt.Errorf("%w: %s col+size exceeds NCols=%d", ErrGeometricViolation, req.Kind, d.geo.NCols)
			}
		} else {
			if loc.Row+int(op.Size) > d.geo.NRows {
				return ticks.ErrTicks, fmt.Errorf("%w: %s row+size exceeds NRows=%d", ErrGeometricViolation, req.Kind, d.geo.NRows)
			}
		}

		prim := request.New(req.Kind)
		prim.AddOperand(op.Addr, op.Size)
		if isRow {
			prim.SetLocation(loc.Chip, loc.Tile, loc.Block, loc.Row, -1)
		} else {
			prim.SetLocation(loc.Chip, loc.Tile, loc.Block, -1, loc.Col)
		}

		total += d.admit(loc.Chip, prim)
	}
	return total, nil
}

// sendNetwork handles NetworkSend/NetworkReceive: two operands, the
// source endpoint and the destination endpoint. It ticks the source
// chip up to the pair's common time, ticks the destination chip to
// that time plus the oracle's latency, and records the transfer with
// the oracle. Used both as the top-level handler for a
// client-issued NetworkSend/NetworkReceive request and, via
// networkTransfer, as the shared core the decomposer's cross-chip
// lowering calls once for the NetworkSend+NetworkReceive pair (see
// decompose.go — calling this handler twice for the same transfer
// would double-tick and double-record it).
func (d *Dispatcher) sendNetwork(req *request.Request) (ticks.Ticks, error) {
	d.trace = append(d.trace, req.Kind)
	src := req.Operands[0]
	dst := req.Operands[1]
	srcLoc := d.resolve(src.Addr)
	dstLoc := d.resolve(dst.Addr)

	tick1, tick2 := d.networkTransfer(srcLoc, dstLoc, src.Size)
	if tick1 > tick2 {
		return tick1, nil
	}
	return tick2, nil
}

// networkTransfer ticks cp1 to the pair's synchronised time, ticks cp2
// to that time plus the oracle's latency, and records exactly one
// transfer with the oracle.
func (d *Dispatcher) networkTransfer(srcLoc, dstLoc addrmap.Location, size uint32) (tick1, tick2 ticks.Ticks) {
	cp1 := d.chips[srcLoc.Chip]
	cp2 := d.chips[dstLoc.Chip]

	syncTime := cp1.Time()
	if cp2.Time() > syncTime {
		syncTime = cp2.Time()
	}
	overhead := d.net.Latency(srcLoc.Chip, dstLoc.Chip, size)

	for cp1.Time() < syncTime {
		cp1.Tick()
		tick1++
	}
	deadline := syncTime + overhead
	for cp2.Time() < deadline {
		cp2.Tick()
		tick2++
	}

	d.net.Issue(srcLoc.Chip, dstLoc.Chip, size, tick1, tick2, overhead)
	return tick1, tick2
}
