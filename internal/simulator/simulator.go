// Package simulator owns the full lifetime of one simulation run: it
// builds the chip array, network oracle, and dispatcher from a Config,
// opens the result file, and tears everything down on Close. This is
// the owning collaborator that sits outside the dispatch core's scope
// — the concrete glue that makes the core runnable.
package simulator

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"

	"github.com/Cadmium-CD/PIM/internal/addrmap"
	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/clocksync"
	"github.com/Cadmium-CD/PIM/internal/config"
	"github.com/Cadmium-CD/PIM/internal/dispatcher"
	"github.com/Cadmium-CD/PIM/internal/geometry"
	"github.com/Cadmium-CD/PIM/internal/metrics"
	"github.com/Cadmium-CD/PIM/internal/network"
	"github.com/Cadmium-CD/PIM/internal/request"
	"github.com/Cadmium-CD/PIM/internal/result"
	"github.com/Cadmium-CD/PIM/internal/ticks"
)

// Simulator is the top-level handle a CLI or an example kernel drives.
type Simulator struct {
	runID  xid.ID
	cfg    config.Config
	geo    geometry.Geometry
	amap   addrmap.Map
	chips  []*chipproxy.Controller
	proxys []chipproxy.Proxy
	oracle *network.Oracle
	disp   *dispatcher.Dispatcher
	rst    *result.Writer
	log    *log.Logger
}

// New constructs a Simulator from cfg: validates the geometry, builds
// one chipproxy.Controller per chip at the configured granularity,
// builds the network oracle for the configured topology, and opens
// the result file at cfg.RstFile.
func New(cfg config.Config, logger *log.Logger) (*Simulator, error) {
	if logger == nil {
		logger = log.Default()
	}

	geo, err := geometry.New(cfg.NChips, cfg.NTiles, cfg.NBlocks, cfg.NRows, cfg.NCols)
	if err != nil {
		return nil, err
	}
	amap := addrmap.New(geo)

	gran := chipproxy.GranularityBlock
	switch {
	case cfg.ChipCtrl:
		gran = chipproxy.GranularityChip
	case cfg.TileCtrl:
		gran = chipproxy.GranularityTile
	}
	capacity := chipproxy.Capacity(geo, gran)
	table := chipproxy.DefaultLatencyTable()

	chips := make([]*chipproxy.Controller, geo.NChips)
	proxys := make([]chipproxy.Proxy, geo.NChips)
	for i := range chips {
		c := chipproxy.New(i, capacity, table)
		chips[i] = c
		proxys[i] = c
	}

	oracle := network.New(network.ParseTopology(cfg.NetScheme), geo)
	disp := dispatcher.New(geo, amap, proxys, oracle, logger)

	rst, err := result.Open(cfg.RstFile)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		runID: xid.New(),
		cfg:   cfg, geo: geo, amap: amap,
		chips: chips, proxys: proxys, oracle: oracle,
		disp: disp, rst: rst, log: logger,
	}, nil
}

// RunID uniquely identifies this simulation run, for correlating a
// result file with the log lines and metrics it produced.
func (s *Simulator) RunID() string { return s.runID.String() }

// Send services one top-level request and synchronises clocks
// afterward — the only happens-before edge between requests. On a
// geometric violation the error is returned, not swallowed: the
// caller decides whether to terminate.
func (s *Simulator) Send(req *request.Request) (ticks.Ticks, error) {
	cost, err := s.disp.Send(req)
	clocksync.Synchronise(s.proxys)
	if err != nil {
		return ticks.ErrTicks, fmt.Errorf("simulator: %w", err)
	}
	return cost, nil
}

// LastTrace exposes the dispatcher's primitive trace for the most
// recent Send, for callers that want to inspect the decomposition.
func (s *Simulator) LastTrace() []request.Kind {
	return s.disp.LastTrace()
}

// Geometry returns the device shape this simulator was built with, for
// client kernels that need to construct addresses.
func (s *Simulator) Geometry() geometry.Geometry { return s.geo }

// Encode resolves a 5-tuple location to a flat address for client
// kernels, using this simulator's address map.
func (s *Simulator) Encode(chip, tile, block, row, col int) (addrmap.Addr, error) {
	return s.amap.Encode(chip, tile, block, row, col)
}

// Metrics builds a Prometheus collector over this run's live state,
// for a CLI to serve on an opt-in metrics address.
func (s *Simulator) Metrics() *metrics.Collector {
	return metrics.New(s.chips, s.oracle, s.oracle.Topology())
}

// Close renders the result file's Backend/Network/Summary sections
// and closes the underlying handle. Safe to call once, at shutdown.
func (s *Simulator) Close() error {
	if err := s.rst.Write(s.runID.String(), s.chips, s.oracle); err != nil {
		s.log.Warn("simulator: result write failed", "err", err)
	}
	return s.rst.Close()
}
