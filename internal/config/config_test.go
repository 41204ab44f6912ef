package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cadmium-CD/PIM/internal/config"
)

func TestNormalizeDefaultsToBlockCtrl(t *testing.T) {
	c := config.Config{NChips: 1, NTiles: 1, NBlocks: 1, NRows: 1, NCols: 1, ClockRate: 1}
	require.NoError(t, c.Normalize())
	assert.True(t, c.BlockCtrl)
	assert.False(t, c.TileCtrl)
	assert.False(t, c.ChipCtrl)
}

func TestNormalizeLeavesExplicitGranularityAlone(t *testing.T) {
	c := config.Config{NChips: 1, NTiles: 1, NBlocks: 1, NRows: 1, NCols: 1, ClockRate: 1, ChipCtrl: true}
	require.NoError(t, c.Normalize())
	assert.False(t, c.BlockCtrl)
	assert.True(t, c.ChipCtrl)
}

func TestNormalizeRejectsNonPositiveGeometry(t *testing.T) {
	c := config.Config{NChips: 0, NTiles: 1, NBlocks: 1, NRows: 1, NCols: 1, ClockRate: 1}
	assert.Error(t, c.Normalize())
}

func TestNormalizeRejectsNonPositiveClockRate(t *testing.T) {
	c := config.Config{NChips: 1, NTiles: 1, NBlocks: 1, NRows: 1, NCols: 1, ClockRate: 0}
	assert.Error(t, c.Normalize())
}

func TestNormalizeDefaultsRstFile(t *testing.T) {
	c := config.Config{NChips: 1, NTiles: 1, NBlocks: 1, NRows: 1, NCols: 1, ClockRate: 1}
	require.NoError(t, c.Normalize())
	assert.Equal(t, "result.txt", c.RstFile)
}

func TestLoadParsesYAMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pim.yaml")
	contents := "nchips: 2\nntiles: 4\nnblocks: 8\nnrows: 16\nncols: 16\nclock_rate: 1000000\nnetscheme: mesh\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NChips)
	assert.Equal(t, "mesh", c.NetScheme)
	assert.True(t, c.BlockCtrl, "blockctrl should default true when not set in the file")
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
