package molecule

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Helix placement constants, loosely following alpha-helix geometry:
// 1.5 A rise and a 100 degree turn per residue around the Y axis.
const (
	helixRise      = 1.5
	helixTurnDeg   = 100.0
	helixRadius    = 2.3
	sidechainReach = 1.5
)

// BuildHelix returns a synthetic helical peptide with the given residue
// count. Each residue contributes four backbone atoms (N, CA, C, O) and,
// except for every fourth residue, one CB sidechain atom. With withLigand a
// six-membered carbon ring is placed beside the helix and flagged as ligand.
// Output is deterministic for a given input.
func BuildHelix(residues int, withLigand bool) *Structure {
	if residues < 1 {
		residues = 1
	}
	s := &Structure{
		Meta: Metadata{
			Title:  fmt.Sprintf("Synthetic helix, %d residues", residues),
			Method: "procedural",
		},
	}

	turn := float32(helixTurnDeg) * math32.Pi / 180
	for i := 0; i < residues; i++ {
		theta := float32(i) * turn
		y := float32(i) * helixRise
		name := "ALA"
		if i%4 == 3 {
			name = "GLY"
		}

		// Backbone atoms sit on the helical curve, slightly phase-shifted
		// so N precedes CA and C follows it along the turn.
		n := helixPoint(theta-0.35, y-0.4)
		ca := helixPoint(theta, y)
		c := helixPoint(theta+0.35, y+0.4)
		o := outward(c, theta+0.35, 0.6)

		base := len(s.Atoms)
		s.Atoms = append(s.Atoms,
			Atom{Element: "N", Position: n, Residue: name, ResidueSeq: i + 1, Chain: "A", Backbone: true},
			Atom{Element: "C", Position: ca, Residue: name, ResidueSeq: i + 1, Chain: "A", Backbone: true},
			Atom{Element: "C", Position: c, Residue: name, ResidueSeq: i + 1, Chain: "A", Backbone: true},
			Atom{Element: "O", Position: o, Residue: name, ResidueSeq: i + 1, Chain: "A", Backbone: true},
		)
		s.Bonds = append(s.Bonds,
			Bond{A: base, B: base + 1},
			Bond{A: base + 1, B: base + 2},
			Bond{A: base + 2, B: base + 3},
		)
		if i > 0 {
			// Peptide bond to the previous residue's carbonyl carbon.
			s.Bonds = append(s.Bonds, Bond{A: base - 3, B: base})
		}

		if name != "GLY" {
			cb := outward(ca, theta, sidechainReach)
			s.Atoms = append(s.Atoms, Atom{
				Element: "C", Position: cb, Residue: name, ResidueSeq: i + 1, Chain: "A",
			})
			s.Bonds = append(s.Bonds, Bond{A: base + 1, B: len(s.Atoms) - 1})
		}

		s.Residues = append(s.Residues, Residue{
			Name: name, Seq: i + 1, Chain: "A", Secondary: Helix,
		})
	}

	if withLigand {
		addRingLigand(s, [3]float32{helixRadius + 5, float32(residues) * helixRise / 2, 0})
	}
	return s
}

// helixPoint maps a turn angle and height to a point on the helix cylinder.
func helixPoint(theta, y float32) [3]float32 {
	return [3]float32{
		helixRadius * math32.Cos(theta),
		y,
		helixRadius * math32.Sin(theta),
	}
}

// outward pushes a point radially away from the helix axis.
func outward(p [3]float32, theta, dist float32) [3]float32 {
	return [3]float32{
		p[0] + dist*math32.Cos(theta),
		p[1],
		p[2] + dist*math32.Sin(theta),
	}
}

// addRingLigand appends a planar six-carbon ring centered at c.
func addRingLigand(s *Structure, c [3]float32) {
	const ringRadius = 1.4
	base := len(s.Atoms)
	for i := 0; i < 6; i++ {
		theta := float32(i) * math32.Pi / 3
		s.Atoms = append(s.Atoms, Atom{
			Element: "C",
			Position: [3]float32{
				c[0] + ringRadius*math32.Cos(theta),
				c[1],
				c[2] + ringRadius*math32.Sin(theta),
			},
			Residue: "LIG", ResidueSeq: 1, Chain: "L", Ligand: true,
		})
		s.Bonds = append(s.Bonds, Bond{A: base + i, B: base + (i+1)%6})
	}
	s.Residues = append(s.Residues, Residue{Name: "LIG", Seq: 1, Chain: "L", Secondary: Coil})
}

// BuildLattice returns a cubic carbon lattice for load testing. No atom is
// flagged backbone, which exercises the reduction fallback for structures
// without a main chain. Bonds connect neighbors along X.
func BuildLattice(nx, ny, nz int, spacing float32) *Structure {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	if nz < 1 {
		nz = 1
	}
	if spacing <= 0 {
		spacing = 1.5
	}
	s := &Structure{
		Meta: Metadata{
			Title:  fmt.Sprintf("Carbon lattice %dx%dx%d", nx, ny, nz),
			Method: "procedural",
		},
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				s.Atoms = append(s.Atoms, Atom{
					Element: "C",
					Position: [3]float32{
						float32(x) * spacing,
						float32(y) * spacing,
						float32(z) * spacing,
					},
					Residue: "UNK", ResidueSeq: 1, Chain: "A",
				})
				if x > 0 {
					i := len(s.Atoms) - 1
					s.Bonds = append(s.Bonds, Bond{A: i - 1, B: i})
				}
			}
		}
	}
	s.Residues = append(s.Residues, Residue{Name: "UNK", Seq: 1, Chain: "A", Secondary: Coil})
	return s
}
