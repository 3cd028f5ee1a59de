package lod

import (
	"fmt"

	"github.com/molscope/molscope/pkg/molecule"
)

// DefaultMemoryBudget bounds the geometry the pipeline may hold resident.
const DefaultMemoryBudget int64 = 512 << 20

// BytesPerVertex is the GPU footprint of one vertex: position, normal, and
// color as packed float32 triples, padded to 32 bytes.
const BytesPerVertex = 32

// Per-atom vertex estimates used before any geometry exists. Surfaces
// tessellate far denser than spheres.
const (
	estVertsPerAtom        = 20
	estVertsPerSurfaceAtom = 50
)

// Descriptor summarizes a structure's rendering cost. Derived per load and
// never mutated afterward.
type Descriptor struct {
	AtomCount         int
	BondCount         int
	ResidueCount      int
	ChainCount        int
	HasLigands        bool
	SurfaceRequested  bool
	EstimatedVertices int
	EstimatedBytes    int64
}

// MemoryRatio returns estimated bytes over the given budget.
func (d Descriptor) MemoryRatio(budget int64) float64 {
	if budget <= 0 {
		return 1
	}
	return float64(d.EstimatedBytes) / float64(budget)
}

// Small structures skip the preview tier: below this atom count, and when
// the memory ratio stays under smallRatio, the first visible tier is
// Interactive because preview geometry would add latency without benefit.
const (
	smallAtomCount = 500
	smallRatio     = 0.1
)

// Analyze derives a complexity descriptor and the recommended starting tier
// for a structure. It is pure; the only rejected input is a structure with
// zero atoms.
func Analyze(s *molecule.Structure, memoryBudget int64, surfaceRequested bool) (Descriptor, Tier, error) {
	if s == nil || len(s.Atoms) == 0 {
		return Descriptor{}, 0, fmt.Errorf("cannot analyze a structure with no atoms")
	}
	if memoryBudget <= 0 {
		memoryBudget = DefaultMemoryBudget
	}

	perAtom := estVertsPerAtom
	if surfaceRequested {
		perAtom = estVertsPerSurfaceAtom
	}

	d := Descriptor{
		AtomCount:         len(s.Atoms),
		BondCount:         len(s.Bonds),
		ResidueCount:      len(s.Residues),
		ChainCount:        len(s.Chains()),
		HasLigands:        s.HasLigands(),
		SurfaceRequested:  surfaceRequested,
		EstimatedVertices: len(s.Atoms) * perAtom,
	}
	d.EstimatedBytes = int64(d.EstimatedVertices) * BytesPerVertex

	start := Preview
	if d.AtomCount < smallAtomCount && d.MemoryRatio(memoryBudget) < smallRatio {
		start = Interactive
	}
	return d, start, nil
}
