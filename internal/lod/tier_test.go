package lod

import "testing"

func TestTierString(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{Preview, "preview"},
		{Interactive, "interactive"},
		{Full, "full"},
		{Tier(9), "tier(9)"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func TestTierConfigProgression(t *testing.T) {
	// Finer tiers tessellate denser, keep more atoms, and get more time.
	p, i, f := Preview.Config(), Interactive.Config(), Full.Config()

	if !(p.SphereSegments < i.SphereSegments && i.SphereSegments < f.SphereSegments) {
		t.Error("sphere segments should increase with tier")
	}
	if !(p.Retention < i.Retention && i.Retention < f.Retention) {
		t.Error("retention should increase with tier")
	}
	if !(p.Budget < i.Budget && i.Budget < f.Budget) {
		t.Error("budget should increase with tier")
	}
	if !(p.MaxVertices < i.MaxVertices && i.MaxVertices < f.MaxVertices) {
		t.Error("vertex cap should increase with tier")
	}
}

func TestTierConfigFeatures(t *testing.T) {
	if Preview.Config().Features.Sidechains {
		t.Error("preview should be backbone-only")
	}
	if !Interactive.Config().Features.Sidechains {
		t.Error("interactive should include sidechains")
	}
	if !Full.Config().Features.Shadows || !Full.Config().Features.AmbientOcclusion {
		t.Error("full should enable shadows and ambient occlusion")
	}
}

func TestTierConfigUnknownFallsBack(t *testing.T) {
	if Tier(42).Config() != Preview.Config() {
		t.Error("unknown tier should fall back to the preview configuration")
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"low", Preview, false},
		{"medium", Interactive, false},
		{"high", Full, false},
		{"extreme", Full, false},
		{"ultra", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseQuality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuality(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAAModeSamples(t *testing.T) {
	if AAOff.Samples() != 0 {
		t.Error("AAOff should report 0 samples")
	}
	if AAMSAA4.Samples() != 4 {
		t.Error("AAMSAA4 should report 4 samples")
	}
}
