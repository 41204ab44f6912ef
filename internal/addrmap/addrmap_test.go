package addrmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Cadmium-CD/PIM/internal/addrmap"
	"github.com/Cadmium-CD/PIM/internal/geometry"
)

func testGeometry(t require.TestingT) geometry.Geometry {
	g, err := geometry.New(4, 8, 16, 32, 64)
	require.NoError(t, err)
	return g
}

func TestEncodeDecodeFullRoundTrip(t *testing.T) {
	g := testGeometry(t)
	m := addrmap.New(g)

	addr, err := m.Encode(2, 5, 9, 17, 40)
	require.NoError(t, err)

	chip, tile, block, row, col := m.DecodeFull(addr)
	assert.Equal(t, 2, chip)
	assert.Equal(t, 5, tile)
	assert.Equal(t, 9, block)
	assert.Equal(t, 17, row)
	assert.Equal(t, 40, col)
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	g := testGeometry(t)
	m := addrmap.New(g)

	_, err := m.Encode(4, 0, 0, 0, 0) // chip out of range
	assert.Error(t, err)

	_, err = m.Encode(0, 0, 0, 0, 64) // col out of range
	assert.Error(t, err)
}

func TestDecodeBlockMatchesDecodeFullForBlockFields(t *testing.T) {
	g := testGeometry(t)
	m := addrmap.New(g)

	addr, err := m.Encode(3, 6, 11, 0, 0)
	require.NoError(t, err)

	chip, tile, block := m.DecodeBlock(addr)
	fullChip, fullTile, fullBlock, _, _ := m.DecodeFull(addr)
	assert.Equal(t, fullChip, chip)
	assert.Equal(t, fullTile, tile)
	assert.Equal(t, fullBlock, block)
}

// TestEncodeDecodeFullRoundTripProperty checks the round-trip invariant
// over the whole address space for many random valid coordinates.
func TestEncodeDecodeFullRoundTripProperty(t *testing.T) {
	g := testGeometry(t)
	m := addrmap.New(g)

	rapid.Check(t, func(t *rapid.T) {
		chip := rapid.IntRange(0, g.NChips-1).Draw(t, "chip")
		tile := rapid.IntRange(0, g.NTiles-1).Draw(t, "tile")
		block := rapid.IntRange(0, g.NBlocks-1).Draw(t, "block")
		row := rapid.IntRange(0, g.NRows-1).Draw(t, "row")
		col := rapid.IntRange(0, g.NCols-1).Draw(t, "col")

		addr, err := m.Encode(chip, tile, block, row, col)
		if err != nil {
			t.Fatalf("unexpected encode error: %v", err)
		}

		gotChip, gotTile, gotBlock, gotRow, gotCol := m.DecodeFull(addr)
		if gotChip != chip || gotTile != tile || gotBlock != block || gotRow != row || gotCol != col {
			t.Fatalf("round trip mismatch: got (%d,%d,%d,%d,%d), want (%d,%d,%d,%d,%d)",
				gotChip, gotTile, gotBlock, gotRow, gotCol, chip, tile, block, row, col)
		}
	})
}

// TestEncodeMonotonicInColumn checks that incrementing col by one
// increments the flat address by exactly one, the defining property of
// the mixed-radix layout's least-significant digit.
func TestEncodeMonotonicInColumn(t *testing.T) {
	g := testGeometry(t)
	m := addrmap.New(g)

	a1, err := m.Encode(1, 2, 3, 4, 5)
	require.NoError(t, err)
	a2, err := m.Encode(1, 2, 3, 4, 6)
	require.NoError(t, err)

	assert.Equal(t, addrmap.Addr(1), a2-a1)
}
