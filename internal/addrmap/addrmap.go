// Package addrmap implements the bijection between a flat 64-bit
// address and the (chip, tile, block, row, col) physical location it
// names.
//
// The encoding is a fixed mixed-radix combination, most significant
// digit first: chip, then tile, then block, then row, then col. It is
// the address-space equivalent of DecodeInstruction's bit-field
// extraction in the CPU reference model this module is descended
// from — fixed-width digits peeled off in a known order instead of
// fixed-width bit fields.
package addrmap

import (
	"fmt"

	"github.com/Cadmium-CD/PIM/internal/geometry"
)

// Addr is a flat physical address.
type Addr uint64

// Location is a fully resolved 5-tuple. Row and Col may be -1 to mean
// "axis-wide" (see request.Request.Location).
type Location struct {
	Chip, Tile, Block, Row, Col int
}

// Map encodes and decodes addresses for one fixed Geometry.
type Map struct {
	g geometry.Geometry
}

func New(g geometry.Geometry) Map {
	return Map{g: g}
}

// Encode combines a full 5-tuple into a flat address using the
// mixed-radix layout:
//
//	A = (((chip*NTiles + tile)*NBlocks + block)*NRows + row)*NCols + col
func (m Map) Encode(chip, tile, block, row, col int) (Addr, error) {
	g := m.g
	if chip < 0 || chip >= g.NChips ||
		tile < 0 || tile >= g.NTiles ||
		block < 0 || block >= g.NBlocks ||
		row < 0 || row >= g.NRows ||
		col < 0 || col >= g.NCols {
		return 0, fmt.Errorf("addrmap: coordinate out of range: chip=%d tile=%d block=%d row=%d col=%d geometry=%+v",
			chip, tile, block, row, col, g)
	}
	a := ((uint64(chip)*uint64(g.NTiles)+uint64(tile))*uint64(g.NBlocks)+uint64(block))*uint64(g.NRows) + uint64(row)
	a = a*uint64(g.NCols) + uint64(col)
	return Addr(a), nil
}

// DecodeFull inverts Encode by successive modulo/division in reverse
// digit order: col, row, block, tile, chip.
func (m Map) DecodeFull(a Addr) (chip, tile, block, row, col int) {
	g := m.g
	v := uint64(a)
	col = int(v % uint64(g.NCols))
	v /= uint64(g.NCols)
	row = int(v % uint64(g.NRows))
	v /= uint64(g.NRows)
	block = int(v % uint64(g.NBlocks))
	v /= uint64(g.NBlocks)
	tile = int(v % uint64(g.NTiles))
	v /= uint64(g.NTiles)
	chip = int(v)
	return
}

// DecodeBlock returns only (chip, tile, block) from an address.
//
// It divides out BlockSize first, then peels off the block digit using
// NBlocks, then the tile digit using NTiles; the remainder is the chip.
// The reference model's two-argument variant swapped the tile and
// block labels during this extraction. DecodeBlock does not reproduce
// that swap: no caller in this tree depends on it, and the values it
// returns are the same chip, tile and block digits DecodeFull returns.
func (m Map) DecodeBlock(a Addr) (chip, tile, block int) {
	g := m.g
	v := uint64(a) / uint64(g.BlockSize())
	block = int(v % uint64(g.NBlocks))
	v /= uint64(g.NBlocks)
	tile = int(v % uint64(g.NTiles))
	v /= uint64(g.NTiles)
	chip = int(v)
	return
}

func (m Map) DecodeLocation(a Addr) Location {
	chip, tile, block, row, col := m.DecodeFull(a)
	return Location{Chip: chip, Tile: tile, Block: block, Row: row, Col: col}
}
