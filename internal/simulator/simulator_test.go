package simulator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cadmium-CD/PIM/internal/config"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/simulator"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		NChips: 2, NTiles: 2, NBlocks: 4, NRows: 64, NCols: 64,
		ClockRate: 1e6, BlockCtrl: true, NetScheme: "ideal",
		RstFile: filepath.Join(t.TempDir(), "result.txt"),
	}
	require.NoError(t, cfg.Normalize())
	return cfg
}

func TestSendAndCloseProducesResultFile(t *testing.T) {
	cfg := testConfig(t)
	sim, err := simulator.New(cfg, nil)
	require.NoError(t, err)

	addr, err := sim.Encode(0, 0, 0, 0, 0)
	require.NoError(t, err)

	req := request.New(request.Read)
	req.AddOperand(addr, 1)
	_, err = sim.Send(req)
	require.NoError(t, err)

	require.NoError(t, sim.Close())

	data, err := os.ReadFile(cfg.RstFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Backend")
}

func TestSendPropagatesGeometricViolation(t *testing.T) {
	cfg := testConfig(t)
	sim, err := simulator.New(cfg, nil)
	require.NoError(t, err)
	defer sim.Close()

	addr, err := sim.Encode(0, 0, 0, 60, 0)
	require.NoError(t, err)

	req := request.New(request.ColMv)
	req.AddOperand(addr, 10) // 60+10 > NRows=64
	req.AddOperand(addr, 10)

	_, err = sim.Send(req)
	assert.Error(t, err)
}

func TestRunIDIsStable(t *testing.T) {
	cfg := testConfig(t)
	sim, err := simulator.New(cfg, nil)
	require.NoError(t, err)
	defer sim.Close()

	assert.NotEmpty(t, sim.RunID())
	assert.Equal(t, sim.RunID(), sim.RunID())
}
