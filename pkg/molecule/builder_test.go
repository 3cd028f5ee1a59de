package molecule

import "testing"

func TestBuildHelix(t *testing.T) {
	const residues = 8
	s := BuildHelix(residues, false)

	// 4 backbone atoms per residue, plus CB on all but every fourth residue.
	gly := residues / 4
	wantAtoms := residues*4 + (residues - gly)
	if len(s.Atoms) != wantAtoms {
		t.Errorf("atom count = %d, want %d", len(s.Atoms), wantAtoms)
	}
	if got := s.BackboneCount(); got != residues*4 {
		t.Errorf("backbone count = %d, want %d", got, residues*4)
	}
	if len(s.Residues) != residues {
		t.Errorf("residue count = %d, want %d", len(s.Residues), residues)
	}
	if s.HasLigands() {
		t.Error("helix without ligand should have no ligand atoms")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("built helix should validate: %v", err)
	}
}

func TestBuildHelixDeterministic(t *testing.T) {
	a := BuildHelix(5, true)
	b := BuildHelix(5, true)

	if len(a.Atoms) != len(b.Atoms) {
		t.Fatalf("atom counts differ: %d vs %d", len(a.Atoms), len(b.Atoms))
	}
	for i := range a.Atoms {
		if a.Atoms[i] != b.Atoms[i] {
			t.Fatalf("atom %d differs between builds", i)
		}
	}
}

func TestBuildHelixLigand(t *testing.T) {
	plain := BuildHelix(6, false)
	lig := BuildHelix(6, true)

	if len(lig.Atoms) != len(plain.Atoms)+6 {
		t.Errorf("ligand ring should add 6 atoms, got %d extra", len(lig.Atoms)-len(plain.Atoms))
	}
	if !lig.HasLigands() {
		t.Error("HasLigands() = false after adding ligand")
	}
	chains := lig.Chains()
	if len(chains) != 2 {
		t.Errorf("chains = %v, want main chain plus ligand chain", chains)
	}
}

func TestBuildLattice(t *testing.T) {
	s := BuildLattice(3, 2, 1, 1.5)

	if len(s.Atoms) != 6 {
		t.Errorf("atom count = %d, want 6", len(s.Atoms))
	}
	// Bonds run along X only: (nx-1) per row
	if len(s.Bonds) != 4 {
		t.Errorf("bond count = %d, want 4", len(s.Bonds))
	}
	if s.BackboneCount() != 0 {
		t.Error("lattice atoms should not be backbone")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("built lattice should validate: %v", err)
	}
}

func TestBuildClampsDegenerateInput(t *testing.T) {
	if s := BuildHelix(0, false); len(s.Atoms) == 0 {
		t.Error("BuildHelix(0) should clamp to one residue")
	}
	if s := BuildLattice(0, 0, 0, -1); len(s.Atoms) != 1 {
		t.Errorf("BuildLattice(0,0,0) should clamp to one atom, got %d", len(s.Atoms))
	}
}
