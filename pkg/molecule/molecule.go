// Package molecule provides the parsed molecular structure model consumed by
// the rendering pipeline: atoms, bonds, residues, and descriptive metadata.
// Parsing of on-disk structure formats happens upstream; this package only
// defines the in-memory form and validation over it.
package molecule

import (
	"fmt"

	"github.com/chewxy/math32"
)

// SecondaryStructure classifies a residue's local fold.
type SecondaryStructure uint8

const (
	Coil SecondaryStructure = iota
	Helix
	Sheet
)

// Atom is a single atom. Immutable once the structure is built.
type Atom struct {
	Element    string
	Position   [3]float32
	Residue    string
	ResidueSeq int
	Chain      string
	// Backbone marks main-chain atoms. These survive every detail reduction.
	Backbone bool
	// Ligand marks hetero atoms that are not part of a polymer chain.
	Ligand bool
}

// Bond connects two atoms by index into Structure.Atoms.
type Bond struct {
	A, B int
}

// Residue groups consecutive atoms of one chain position.
type Residue struct {
	Name      string
	Seq       int
	Chain     string
	Secondary SecondaryStructure
}

// Metadata carries descriptive fields from the source file header.
type Metadata struct {
	Title      string
	Method     string
	Resolution float32
}

// Structure is an ordered, read-only collection of atoms with their bonds,
// residues, and metadata. The pipeline never mutates a Structure; it only
// derives buffers from it.
type Structure struct {
	Atoms    []Atom
	Bonds    []Bond
	Residues []Residue
	Meta     Metadata
}

// Bounds is the axis-aligned bounding box of a structure.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the box midpoint.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Radius returns half the box diagonal, the bounding-sphere radius around Center.
func (b Bounds) Radius() float32 {
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	dz := b.Max[2] - b.Min[2]
	return math32.Sqrt(dx*dx+dy*dy+dz*dz) / 2
}

// Validate checks that the structure is renderable: at least one atom and
// finite coordinates throughout. Bond indices must stay in range.
func (s *Structure) Validate() error {
	if len(s.Atoms) == 0 {
		return fmt.Errorf("structure %q has no atoms", s.Meta.Title)
	}
	for i, a := range s.Atoms {
		for _, c := range a.Position {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return fmt.Errorf("atom %d (%s): non-finite coordinate", i, a.Element)
			}
		}
	}
	for i, b := range s.Bonds {
		if b.A < 0 || b.A >= len(s.Atoms) || b.B < 0 || b.B >= len(s.Atoms) {
			return fmt.Errorf("bond %d: atom index out of range", i)
		}
	}
	return nil
}

// Bounds computes the axis-aligned bounding box over all atom positions.
// A structure with no atoms yields the zero box.
func (s *Structure) Bounds() Bounds {
	if len(s.Atoms) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: s.Atoms[0].Position, Max: s.Atoms[0].Position}
	for _, a := range s.Atoms[1:] {
		for i := 0; i < 3; i++ {
			if a.Position[i] < b.Min[i] {
				b.Min[i] = a.Position[i]
			}
			if a.Position[i] > b.Max[i] {
				b.Max[i] = a.Position[i]
			}
		}
	}
	return b
}

// Chains returns the distinct chain identifiers in first-seen order.
func (s *Structure) Chains() []string {
	seen := make(map[string]struct{})
	var chains []string
	for _, a := range s.Atoms {
		if _, ok := seen[a.Chain]; !ok {
			seen[a.Chain] = struct{}{}
			chains = append(chains, a.Chain)
		}
	}
	return chains
}

// HasLigands reports whether any atom carries the ligand flag.
func (s *Structure) HasLigands() bool {
	for _, a := range s.Atoms {
		if a.Ligand {
			return true
		}
	}
	return false
}

// BackboneCount returns the number of backbone atoms.
func (s *Structure) BackboneCount() int {
	n := 0
	for _, a := range s.Atoms {
		if a.Backbone {
			n++
		}
	}
	return n
}
