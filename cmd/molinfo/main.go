// molinfo is a headless inspector for the progressive loading pipeline: it
// prints the complexity report, the recommended starting tier, and the
// per-tier projection for a synthetic structure without opening a window.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/pkg/molecule"
)

func main() {
	fs := flag.NewFlagSet("molinfo", flag.ExitOnError)
	residues := fs.Int("residues", 400, "Residue count for the synthetic helix")
	ligand := fs.Bool("ligand", true, "Include a ligand")
	lattice := fs.Int("lattice", 0, "Inspect an NxNxN lattice instead of the helix")
	surface := fs.Bool("surface", false, "Assume a surface representation is requested")
	budgetMB := fs.Int("budget", 512, "Memory budget in MB")
	minAtoms := fs.Int("min-atoms", 0, "Detail-reduction floor (0 = default)")
	fs.Usage = printUsage(fs)
	fs.Parse(os.Args[1:])

	var s *molecule.Structure
	if *lattice > 0 {
		s = molecule.BuildLattice(*lattice, *lattice, *lattice, 3.0)
	} else {
		s = molecule.BuildHelix(*residues, *ligand)
	}

	budget := int64(*budgetMB) << 20
	desc, start, err := lod.Analyze(s, budget, *surface)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Structure: %s\n", s.Meta.Title)
	fmt.Printf("Atoms:     %d (%d backbone)\n", desc.AtomCount, s.BackboneCount())
	fmt.Printf("Bonds:     %d\n", desc.BondCount)
	fmt.Printf("Residues:  %d\n", desc.ResidueCount)
	fmt.Printf("Chains:    %d\n", desc.ChainCount)
	fmt.Printf("Ligands:   %v\n", desc.HasLigands)
	fmt.Printf("Surface:   %v\n", desc.SurfaceRequested)
	fmt.Println()
	fmt.Printf("Estimated vertices: %d\n", desc.EstimatedVertices)
	fmt.Printf("Estimated memory:   %s\n", formatBytes(desc.EstimatedBytes))
	fmt.Printf("Memory budget:      %s (ratio %.3f)\n", formatBytes(budget), desc.MemoryRatio(budget))
	fmt.Println()
	fmt.Printf("Recommended starting tier: %s\n", start)
	fmt.Println()

	fmt.Printf("%-12s %8s %10s %12s %10s  %s\n",
		"tier", "atoms", "verts", "memory", "segments", "plan")
	for t := lod.Preview; t <= lod.Full; t++ {
		cfg := t.Config()
		retained := lod.RetainedCount(desc.AtomCount, t, *minAtoms)

		verts := retained * (cfg.SphereSegments + 1) * (cfg.SphereSegments + 1)
		capped := ""
		if verts > cfg.MaxVertices {
			verts = cfg.MaxVertices
			capped = " (capped)"
		}
		bytes := int64(verts) * lod.BytesPerVertex

		plan := "skipped"
		switch {
		case t < start:
			// Below the starting tier; the orchestrator never visits it.
		case bytes > budget:
			plan = "over budget"
		default:
			plan = "synthesize"
		}

		fmt.Printf("%-12s %8d %10d %12s %10d  %s%s\n",
			t, retained, verts, formatBytes(bytes), cfg.SphereSegments, plan, capped)
	}
}

func printUsage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Println(`molinfo - complexity and load-plan inspector

Usage:
  molinfo [options]

Examples:
  molinfo -residues 2000
  molinfo -lattice 20 -surface
  molinfo -residues 50 -budget 64`)
		fmt.Println()
		fs.PrintDefaults()
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
