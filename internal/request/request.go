// Package request defines the closed set of operation kinds the
// dispatcher understands and the value object that carries one
// request through the system.
package request

import (
	"fmt"
	"strings"

	"github.com/Cadmium-CD/PIM/internal/addrmap"
)

// Kind enumerates every request the dispatcher routes. The set is
// closed: every member must route to exactly one handler, and no
// default branch should ever fire for a valid Kind.
type Kind uint8

const (
	KindUnknown Kind = iota

	Read
	Write

	RowMv
	ColMv

	RowAdd
	RowSub
	RowMul
	RowDiv
	RowBitwise
	RowSearch

	ColAdd
	ColSub
	ColMul
	ColDiv
	ColBitwise
	ColSearch

	RowBufferRead
	RowBufferWrite
	ColBufferRead
	ColBufferWrite

	NetworkSend
	NetworkReceive

	SystemRow2Row
	SystemRow2Col
	SystemCol2Row
	SystemCol2Col

	kindSentinel // not a real kind; bounds the enumeration for tests
)

var kindNames = [...]string{
	KindUnknown:    "Unknown",
	Read:           "Read",
	Write:          "Write",
	RowMv:          "RowMv",
	ColMv:          "ColMv",
	RowAdd:         "RowAdd",
	RowSub:         "RowSub",
	RowMul:         "RowMul",
	RowDiv:         "RowDiv",
	RowBitwise:     "RowBitwise",
	RowSearch:      "RowSearch",
	ColAdd:         "ColAdd",
	ColSub:         "ColSub",
	ColMul:         "ColMul",
	ColDiv:         "ColDiv",
	ColBitwise:     "ColBitwise",
	ColSearch:      "ColSearch",
	RowBufferRead:  "RowBufferRead",
	RowBufferWrite: "RowBufferWrite",
	ColBufferRead:  "ColBufferRead",
	ColBufferWrite: "ColBufferWrite",
	NetworkSend:    "NetworkSend",
	NetworkReceive: "NetworkReceive",
	SystemRow2Row:  "SystemRow2Row",
	SystemRow2Col:  "SystemRow2Col",
	SystemCol2Row:  "SystemCol2Row",
	SystemCol2Col:  "SystemCol2Col",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// AllKinds returns every real Kind in declaration order, for dispatch
// coverage tests.
func AllKinds() []Kind {
	out := make([]Kind, 0, int(kindSentinel)-1)
	for k := Read; k < kindSentinel; k++ {
		out = append(out, k)
	}
	return out
}

// Operand is one (address, size) pair. Size is an element count along
// the kind's implicit axis.
type Operand struct {
	Addr addrmap.Addr
	Size uint32
}

// Request is a short-lived value carrying one operation through the
// dispatcher. The zero value is not valid; use New.
type Request struct {
	Kind     Kind
	Operands []Operand

	// Location is the resolved location of operand 0, assigned by the
	// dispatcher before the request enters a chip. Row or Col of -1
	// means "axis-wide".
	Location addrmap.Location
}

// New constructs an empty request of the given kind.
func New(kind Kind) *Request {
	return &Request{Kind: kind}
}

// AddOperand appends one (address, size) pair.
func (r *Request) AddOperand(addr addrmap.Addr, size uint32) {
	r.Operands = append(r.Operands, Operand{Addr: addr, Size: size})
}

// SetLocation assigns the resolved physical location of operand 0.
func (r *Request) SetLocation(chip, tile, block, row, col int) {
	r.Location = addrmap.Location{Chip: chip, Tile: tile, Block: block, Row: row, Col: col}
}

// Validate enforces the operand-count invariants: at least one
// operand, and an even count for move/transfer kinds.
func (r *Request) Validate() error {
	if len(r.Operands) == 0 {
		return fmt.Errorf("request: %s has no operands", r.Kind)
	}
	if r.isPairedKind() && len(r.Operands)%2 != 0 {
		return fmt.Errorf("request: %s requires an even number of operands, got %d", r.Kind, len(r.Operands))
	}
	return nil
}

func (r *Request) isPairedKind() bool {
	switch r.Kind {
	case RowMv, ColMv, NetworkSend, NetworkReceive,
		SystemRow2Row, SystemRow2Col, SystemCol2Row, SystemCol2Col:
		return true
	default:
		return false
	}
}

// Describe renders a human-readable one-liner, used only in debug
// output.
func (r *Request) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[", r.Kind)
	for i, op := range r.Operands {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "(0x%x,%d)", uint64(op.Addr), op.Size)
	}
	b.WriteByte(']')
	fmt.Fprintf(&b, "@chip%d/tile%d/block%d/row%d/col%d",
		r.Location.Chip, r.Location.Tile, r.Location.Block, r.Location.Row, r.Location.Col)
	return b.String()
}
