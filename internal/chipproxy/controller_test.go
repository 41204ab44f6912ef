package chipproxy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/geometry"
	"github.com/Cadmium-CD/PIM/internal/request"
)

func TestCapacityByGranularity(t *testing.T) {
	g, err := geometry.New(1, 4, 8, 16, 16)
	require.NoError(t, err)

	assert.Equal(t, 32, chipproxy.Capacity(g, chipproxy.GranularityBlock))
	assert.Equal(t, 4, chipproxy.Capacity(g, chipproxy.GranularityTile))
	assert.Equal(t, 1, chipproxy.Capacity(g, chipproxy.GranularityChip))
}

func TestReceiveBackPressureWhenFull(t *testing.T) {
	c := chipproxy.New(0, 2, chipproxy.DefaultLatencyTable())

	assert.True(t, c.Receive(request.New(request.Read)))
	assert.True(t, c.Receive(request.New(request.Read)))
	assert.False(t, c.Receive(request.New(request.Read)), "third admission should be rejected, capacity is 2")

	assert.False(t, c.Finished())
	for !c.Finished() {
		c.Tick()
	}
	assert.True(t, c.Receive(request.New(request.Read)), "a slot should free up once the in-flight work completes")
}

func TestTickedTotalAndEnergyAccumulate(t *testing.T) {
	c := chipproxy.New(0, 4, chipproxy.DefaultLatencyTable())
	assert.Equal(t, uint64(0), c.TickedTotal())
	assert.Equal(t, float64(0), c.EnergyNJ())

	c.Receive(request.New(request.RowMul))
	for !c.Finished() {
		c.Tick()
	}

	assert.Greater(t, c.TickedTotal(), uint64(0))
	assert.Greater(t, c.EnergyNJ(), float64(0))
}

func TestUpdateTimeCommitsBaselineWithoutResettingCurrent(t *testing.T) {
	c := chipproxy.New(0, 1, chipproxy.DefaultLatencyTable())
	c.Tick()
	c.Tick()
	before := c.Time()
	c.UpdateTime()
	assert.Equal(t, before, c.Time())
}
