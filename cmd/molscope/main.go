// Package main is the entry point for the molscope viewer.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/config"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/internal/viewer"
	"github.com/molscope/molscope/pkg/molecule"
)

// Demo structure selection. Real structure files are parsed upstream; the
// viewer ships procedural structures to exercise the pipeline.
var (
	flagResidues = flag.Int("residues", 400, "Residue count for the demo helix")
	flagLigand   = flag.Bool("ligand", true, "Include a ligand in the demo helix")
	flagLattice  = flag.Int("lattice", 0, "Render an NxNxN lattice instead of the helix")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== molscope ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// Create the viewer
	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	// Kick off the progressive load of the demo structure
	structure := demoStructure()
	if err := v.Load(structure); err != nil {
		logger.Error("failed to start load", zap.Error(err))
		os.Exit(1)
	}

	// Run the viewer loop
	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func demoStructure() *molecule.Structure {
	if n := *flagLattice; n > 0 {
		return molecule.BuildLattice(n, n, n, 3.0)
	}
	return molecule.BuildHelix(*flagResidues, *flagLigand)
}
