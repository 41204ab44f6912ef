// Package result renders the simulator's output file: the Backend,
// Network, and Summary sections.
package result

import (
	"fmt"
	"io"
	"os"

	"github.com/Cadmium-CD/PIM/internal/chipproxy"
	"github.com/Cadmium-CD/PIM/internal/network"
)

// Writer owns the open result file handle for the lifetime of a
// Simulator: opened at construction, closed at shutdown.
type Writer struct {
	f *os.File
}

// Open creates (or truncates) the result file at path.
func Open(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("result: open %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// chipStats is the minimal read surface result needs from a chip
// proxy beyond the core chipproxy.Proxy contract, to render the
// Summary section without the core inspecting private chip state.
type chipStats interface {
	OutputStats(w io.Writer)
	TickedTotal() uint64
	EnergyNJ() float64
	ID() int
}

// Write renders the Backend/Network/Summary layout for the given
// chips and network oracle, tagged with runID so a result file can be
// correlated with the log lines and metrics its run produced. I/O
// errors on the individual writes are not checked; Write always
// returns nil.
func (w *Writer) Write(runID string, chips []*chipproxy.Controller, net *network.Oracle) error {
	fmt.Fprintf(w.f, "run: %s\n", runID)
	fmt.Fprintln(w.f, "############# Backend ##############")
	for _, c := range chips {
		c.OutputStats(w.f)
	}

	fmt.Fprintln(w.f, "############# Network #############")
	net.OutputStats(w.f)

	fmt.Fprintln(w.f, "############# Summary #############")
	for _, c := range chips {
		fmt.Fprintf(w.f, "Chip#%d has ticked %d clocks\n", c.ID(), c.TickedTotal())
		fmt.Fprintf(w.f, "Chip#%d has consumed %.4f nj energy\n", c.ID(), c.EnergyNJ())
	}
	return nil
}

var _ chipStats = (*chipproxy.Controller)(nil)
