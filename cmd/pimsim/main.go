// Command pimsim drives a Simulator from the command line: load a
// config file, run an example kernel against it, and write the result
// file, optionally serving Prometheus metrics while it runs.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/Cadmium-CD/PIM/examples/kernels"
	"github.com/Cadmium-CD/PIM/internal/config"
	"github.com/Cadmium-CD/PIM/internal/metrics"
	"github.com/Cadmium-CD/PIM/internal/simulator"
)

func main() {
	var configFile = pflag.StringP("config", "c", "", "Path to a YAML config file. Omit to run with built-in defaults.")
	var rstFile = pflag.StringP("rstfile", "r", "", "Override the result file path from the config.")
	var kernel = pflag.StringP("kernel", "k", "matmul", "Example kernel to run against the simulator.")
	var metricsAddr = pflag.StringP("metrics-addr", "m", "", "Serve Prometheus metrics on this address (e.g. :9100). Empty disables metrics.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pimsim - cycle-accurate processing-in-memory simulator.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pimsim [options]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := log.Default()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			logger.Fatal("failed to load config", "err", err)
		}
	}
	if *rstFile != "" {
		cfg.RstFile = *rstFile
	}

	sim, err := simulator.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to construct simulator", "err", err)
	}
	defer sim.Close()

	if *metricsAddr != "" {
		reg := metrics.Registry(sim.Metrics())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	runner, ok := kernels.Lookup(*kernel)
	if !ok {
		logger.Fatal("unknown kernel", "kernel", *kernel, "available", kernels.Names())
	}

	// A geometric violation is unrecoverable: the simulator's internal
	// state after one is no longer trustworthy, so the process
	// terminates rather than attempting to continue.
	if err := runner(sim); err != nil {
		logger.Fatal("kernel run failed", "kernel", *kernel, "err", err)
	}

	logger.Info("run complete", "rstfile", cfg.RstFile)
}
