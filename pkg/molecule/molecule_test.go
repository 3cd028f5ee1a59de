package molecule

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Structure
		wantErr bool
	}{
		{
			name:    "empty",
			s:       Structure{},
			wantErr: true,
		},
		{
			name: "valid",
			s: Structure{Atoms: []Atom{
				{Element: "C", Position: [3]float32{0, 0, 0}},
				{Element: "O", Position: [3]float32{1, 0, 0}},
			}},
			wantErr: false,
		},
		{
			name: "nan coordinate",
			s: Structure{Atoms: []Atom{
				{Element: "C", Position: [3]float32{math32.NaN(), 0, 0}},
			}},
			wantErr: true,
		},
		{
			name: "inf coordinate",
			s: Structure{Atoms: []Atom{
				{Element: "C", Position: [3]float32{0, math32.Inf(1), 0}},
			}},
			wantErr: true,
		},
		{
			name: "bond out of range",
			s: Structure{
				Atoms: []Atom{{Element: "C"}},
				Bonds: []Bond{{A: 0, B: 5}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	s := Structure{Atoms: []Atom{
		{Position: [3]float32{-1, 2, 3}},
		{Position: [3]float32{5, -4, 0}},
		{Position: [3]float32{2, 2, 9}},
	}}
	b := s.Bounds()

	wantMin := [3]float32{-1, -4, 0}
	wantMax := [3]float32{5, 2, 9}
	if b.Min != wantMin {
		t.Errorf("Bounds min = %v, want %v", b.Min, wantMin)
	}
	if b.Max != wantMax {
		t.Errorf("Bounds max = %v, want %v", b.Max, wantMax)
	}

	c := b.Center()
	if c != ([3]float32{2, -1, 4.5}) {
		t.Errorf("Center = %v, want (2, -1, 4.5)", c)
	}
	if b.Radius() <= 0 {
		t.Errorf("Radius = %v, want > 0", b.Radius())
	}
}

func TestBoundsEmpty(t *testing.T) {
	var s Structure
	if s.Bounds() != (Bounds{}) {
		t.Error("empty structure should have zero bounds")
	}
}

func TestChains(t *testing.T) {
	s := Structure{Atoms: []Atom{
		{Chain: "B"}, {Chain: "A"}, {Chain: "B"}, {Chain: "C"},
	}}
	got := s.Chains()
	want := []string{"B", "A", "C"}
	if len(got) != len(want) {
		t.Fatalf("Chains() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Chains()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCovalentRadius(t *testing.T) {
	if r := CovalentRadius("C"); r != 0.76 {
		t.Errorf("CovalentRadius(C) = %v, want 0.76", r)
	}
	// Case should not matter
	if CovalentRadius("fe") != CovalentRadius("FE") {
		t.Error("radius lookup should be case-insensitive")
	}
	// Unknown elements fall back to the default
	if r := CovalentRadius("Xx"); r != defaultRadius {
		t.Errorf("CovalentRadius(Xx) = %v, want default %v", r, defaultRadius)
	}
}

func TestCPKColor(t *testing.T) {
	if c := CPKColor("O"); c != ([3]float32{1.00, 0.05, 0.05}) {
		t.Errorf("CPKColor(O) = %v", c)
	}
	if c := CPKColor("Zz"); c != unknownColor {
		t.Errorf("CPKColor(Zz) = %v, want fallback", c)
	}
}

func TestChainColor(t *testing.T) {
	// Palette cycles, never panics
	if ChainColor(0) == ChainColor(1) {
		t.Error("adjacent chains should differ in color")
	}
	if ChainColor(0) != ChainColor(len(chainPalette)) {
		t.Error("palette should cycle")
	}
	_ = ChainColor(-3) // negative index is tolerated
}
