package lod

import (
	"testing"

	"github.com/molscope/molscope/pkg/molecule"
)

func atoms(n int) *molecule.Structure {
	s := &molecule.Structure{}
	for i := 0; i < n; i++ {
		s.Atoms = append(s.Atoms, molecule.Atom{
			Element:  "C",
			Position: [3]float32{float32(i), 0, 0},
			Chain:    "A",
		})
	}
	return s
}

func TestAnalyzeSmallStructure(t *testing.T) {
	d, start, err := Analyze(atoms(100), DefaultMemoryBudget, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if d.EstimatedVertices != 2000 {
		t.Errorf("EstimatedVertices = %d, want 2000", d.EstimatedVertices)
	}
	if d.EstimatedBytes != 64000 {
		t.Errorf("EstimatedBytes = %d, want 64000", d.EstimatedBytes)
	}
	// Small and cheap skips the preview tier
	if start != Interactive {
		t.Errorf("starting tier = %v, want %v", start, Interactive)
	}
}

func TestAnalyzeLargeStructure(t *testing.T) {
	_, start, err := Analyze(atoms(5000), DefaultMemoryBudget, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if start != Preview {
		t.Errorf("starting tier = %v, want %v", start, Preview)
	}
}

func TestAnalyzeTightBudget(t *testing.T) {
	// 100 atoms but a budget small enough that the ratio crosses 0.1:
	// 64000 bytes against a 100 KB budget is 0.64.
	_, start, err := Analyze(atoms(100), 100_000, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if start != Preview {
		t.Errorf("starting tier = %v, want %v under a tight budget", start, Preview)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, _, err := Analyze(&molecule.Structure{}, DefaultMemoryBudget, false); err == nil {
		t.Error("Analyze() of an empty structure should fail")
	}
	if _, _, err := Analyze(nil, DefaultMemoryBudget, false); err == nil {
		t.Error("Analyze(nil) should fail")
	}
}

func TestAnalyzeSurfaceEstimate(t *testing.T) {
	plain, _, err := Analyze(atoms(200), DefaultMemoryBudget, false)
	if err != nil {
		t.Fatal(err)
	}
	surf, _, err := Analyze(atoms(200), DefaultMemoryBudget, true)
	if err != nil {
		t.Fatal(err)
	}
	if surf.EstimatedBytes <= plain.EstimatedBytes {
		t.Errorf("surface estimate %d should exceed plain estimate %d",
			surf.EstimatedBytes, plain.EstimatedBytes)
	}
	if !surf.SurfaceRequested {
		t.Error("SurfaceRequested should be recorded in the descriptor")
	}
}

func TestAnalyzeEstimateMonotonic(t *testing.T) {
	var prev int64 = -1
	for _, n := range []int{1, 10, 100, 1000, 10000} {
		d, _, err := Analyze(atoms(n), DefaultMemoryBudget, false)
		if err != nil {
			t.Fatal(err)
		}
		if d.EstimatedBytes <= prev {
			t.Errorf("estimate for %d atoms (%d bytes) should exceed smaller structure (%d bytes)",
				n, d.EstimatedBytes, prev)
		}
		prev = d.EstimatedBytes
	}
}

func TestAnalyzeCounts(t *testing.T) {
	s := molecule.BuildHelix(10, true)
	d, _, err := Analyze(s, DefaultMemoryBudget, false)
	if err != nil {
		t.Fatal(err)
	}
	if d.AtomCount != len(s.Atoms) {
		t.Errorf("AtomCount = %d, want %d", d.AtomCount, len(s.Atoms))
	}
	if d.BondCount != len(s.Bonds) {
		t.Errorf("BondCount = %d, want %d", d.BondCount, len(s.Bonds))
	}
	if d.ChainCount != 2 {
		t.Errorf("ChainCount = %d, want 2", d.ChainCount)
	}
	if !d.HasLigands {
		t.Error("HasLigands should be true for a structure with a ligand")
	}
}
