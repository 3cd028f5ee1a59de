package synth

import (
	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/pkg/molecule"
)

// ForTier selects the atoms rendered at a tier. Backbone atoms always
// survive. Ligand atoms survive whenever the tier's feature set shows
// ligands. The remaining atoms fill up to the tier's retained count, evenly
// spaced over the structure, but only at tiers whose feature set includes
// sidechains. A structure without any backbone atom falls back to uniform
// reduction over everything, so the viewer always has something to show.
// Output preserves input order; minAtoms <= 0 selects the default floor.
func ForTier(atoms []molecule.Atom, tier lod.Tier, minAtoms int) []molecule.Atom {
	n := len(atoms)
	if n == 0 {
		return nil
	}
	cfg := tier.Config()

	keep := make([]bool, n)
	kept := 0
	hasBackbone := false
	for i, a := range atoms {
		switch {
		case a.Backbone:
			hasBackbone = true
			keep[i] = true
			kept++
		case a.Ligand && cfg.Features.Ligands:
			keep[i] = true
			kept++
		}
	}

	// Tiers that hide sidechains render only the protected set, unless the
	// structure has no main chain at all.
	if cfg.Features.Sidechains || !hasBackbone {
		target := lod.RetainedCount(n, tier, minAtoms)
		if target > kept {
			fillEvenly(keep, target-kept)
		}
	}

	out := make([]molecule.Atom, 0, kept)
	for i, k := range keep {
		if k {
			out = append(out, atoms[i])
		}
	}
	return out
}

// fillEvenly marks need additional entries, spaced evenly over the
// positions not yet kept.
func fillEvenly(keep []bool, need int) {
	var rest []int
	for i, k := range keep {
		if !k {
			rest = append(rest, i)
		}
	}
	if need >= len(rest) {
		for _, i := range rest {
			keep[i] = true
		}
		return
	}
	for j := 0; j < need; j++ {
		keep[rest[j*len(rest)/need]] = true
	}
}
