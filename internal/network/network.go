// Package network implements the Network Oracle: a pure latency
// function of topology and geometry, plus write-only bookkeeping of
// issued transfers for the result file's Network section.
package network

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/Cadmium-CD/PIM/internal/geometry"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// Topology selects the latency model. Any configured netscheme value
// other than "mesh"/"dragonfly" selects Ideal.
type Topology int

const (
	Ideal Topology = iota
	Mesh
	Dragonfly
)

func (t Topology) String() string {
	switch t {
	case Mesh:
		return "mesh"
	case Dragonfly:
		return "dragonfly"
	default:
		return "ideal"
	}
}

// ParseTopology maps a config netscheme string to a Topology, falling
// back to Ideal for anything unrecognized.
func ParseTopology(netscheme string) Topology {
	switch netscheme {
	case "mesh":
		return Mesh
	case "dragonfly":
		return Dragonfly
	default:
		return Ideal
	}
}

const (
	idealBaseTicks     ticks.Ticks = 4
	idealBytesPerTick              = 64.0
	meshHopTicks       ticks.Ticks = 2
	dragonflyLocalHop  ticks.Ticks = 2
	dragonflyGlobalHop ticks.Ticks = 6
)

type linkKey struct {
	src, dst int
}

type linkStats struct {
	transfers uint64
	bytes     uint64
	ticksSum  ticks.Ticks
}

// Oracle is the concrete Network Oracle backing a Simulator.
type Oracle struct {
	topology Topology
	geometry geometry.Geometry
	links    map[linkKey]*linkStats
}

func New(topology Topology, g geometry.Geometry) *Oracle {
	return &Oracle{topology: topology, geometry: g, links: make(map[linkKey]*linkStats)}
}

// Latency returns the tick cost of moving size elements from srcChip
// to dstChip under the configured topology. Pure function of topology
// and geometry; does not mutate Oracle state.
func (o *Oracle) Latency(srcChip, dstChip int, size uint32) ticks.Ticks {
	if srcChip == dstChip {
		return 1
	}
	switch o.topology {
	case Mesh:
		return o.meshLatency(srcChip, dstChip, size)
	case Dragonfly:
		return o.dragonflyLatency(srcChip, dstChip, size)
	default:
		return o.idealLatency(size)
	}
}

func (o *Oracle) idealLatency(size uint32) ticks.Ticks {
	return idealBaseTicks + ticks.Ticks(math.Ceil(float64(size)/idealBytesPerTick))
}

// meshSide returns the width of the square mesh this oracle lays the
// chip array out on: the smallest w with w*w >= NChips.
func (o *Oracle) meshSide() int {
	n := o.geometry.NChips
	w := int(math.Ceil(math.Sqrt(float64(n))))
	if w < 1 {
		w = 1
	}
	return w
}

func (o *Oracle) meshLatency(srcChip, dstChip int, size uint32) ticks.Ticks {
	w := o.meshSide()
	sx, sy := srcChip%w, srcChip/w
	dx, dy := dstChip%w, dstChip/w
	hops := absInt(sx-dx) + absInt(sy-dy)
	if hops < 1 {
		hops = 1
	}
	return ticks.Ticks(hops)*meshHopTicks + ticks.Ticks(math.Ceil(float64(size)/idealBytesPerTick))
}

// dragonflyGroupSize groups chips into clusters sized so that there
// are roughly as many groups as chips-per-group, a common dragonfly
// balance point.
func (o *Oracle) dragonflyGroupSize() int {
	n := o.geometry.NChips
	g := int(math.Ceil(math.Sqrt(float64(n))))
	if g < 1 {
		g = 1
	}
	return g
}

func (o *Oracle) dragonflyLatency(srcChip, dstChip int, size uint32) ticks.Ticks {
	groupSize := o.dragonflyGroupSize()
	srcGroup := srcChip / groupSize
	dstGroup := dstChip / groupSize

	cost := dragonflyLocalHop * 2 // local router in, local router out
	if srcGroup != dstGroup {
		cost += dragonflyGlobalHop
	}
	return cost + ticks.Ticks(math.Ceil(float64(size)/idealBytesPerTick))
}

// Issue records a completed transfer for the result file's Network
// section. ticksSrcWaited/ticksDstWaited are the polling costs the
// dispatcher paid synchronising each endpoint; overhead is the
// Latency() value charged to the transfer.
func (o *Oracle) Issue(srcChip, dstChip int, size uint32, ticksSrcWaited, ticksDstWaited, overhead ticks.Ticks) {
	key := linkKey{src: srcChip, dst: dstChip}
	ls, ok := o.links[key]
	if !ok {
		ls = &linkStats{}
		o.links[key] = ls
	}
	ls.transfers++
	ls.bytes += uint64(size)
	ls.ticksSum += overhead + ticksSrcWaited + ticksDstWaited
}

// TransferCount returns how many transfers were recorded between a
// specific pair of chips; exported for tests exercising cross-chip
// decomposition.
func (o *Oracle) TransferCount(srcChip, dstChip int) uint64 {
	if ls, ok := o.links[linkKey{src: srcChip, dst: dstChip}]; ok {
		return ls.transfers
	}
	return 0
}

// TotalBytes sums bytes carried across every recorded link, for the
// pim_network_bytes_total metric.
func (o *Oracle) TotalBytes() uint64 {
	var total uint64
	for _, ls := range o.links {
		total += ls.bytes
	}
	return total
}

// Topology returns the configured topology name, for metric labelling.
func (o *Oracle) Topology() string { return o.topology.String() }

// OutputStats renders the Network section of the result file: one
// line per link pair that actually carried traffic, in a stable order.
func (o *Oracle) OutputStats(w io.Writer) {
	fmt.Fprintf(w, "topology: %s\n", o.topology)
	keys := make([]linkKey, 0, len(o.links))
	for k := range o.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].src != keys[j].src {
			return keys[i].src < keys[j].src
		}
		return keys[i].dst < keys[j].dst
	})
	for _, k := range keys {
		ls := o.links[k]
		fmt.Fprintf(w, "  chip%d->chip%d transfers=%d bytes=%d ticks=%d\n",
			k.src, k.dst, ls.transfers, ls.bytes, ls.ticksSum)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
