package synth

import (
	"github.com/molscope/molscope/pkg/molecule"
)

// Scheme resolves an atom to its instance color, rgb in [0,1]. Schemes are
// evaluated at synthesis time; the render surface never recolors.
type Scheme func(molecule.Atom) [3]float32

// ByElement colors atoms with the conventional CPK palette.
func ByElement() Scheme {
	return func(a molecule.Atom) [3]float32 {
		return molecule.CPKColor(a.Element)
	}
}

// ByChain assigns each chain of the structure a stable palette color.
func ByChain(s *molecule.Structure) Scheme {
	index := make(map[string]int)
	for i, c := range s.Chains() {
		index[c] = i
	}
	return func(a molecule.Atom) [3]float32 {
		return molecule.ChainColor(index[a.Chain])
	}
}

// BySecondary colors atoms by their residue's fold class. Atoms without a
// matching residue get the coil color.
func BySecondary(s *molecule.Structure) Scheme {
	type key struct {
		chain string
		seq   int
	}
	fold := make(map[key]molecule.SecondaryStructure, len(s.Residues))
	for _, r := range s.Residues {
		fold[key{r.Chain, r.Seq}] = r.Secondary
	}
	return func(a molecule.Atom) [3]float32 {
		return molecule.SecondaryColor(fold[key{a.Chain, a.ResidueSeq}])
	}
}
