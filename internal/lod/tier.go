// Package lod defines the discrete detail tiers of the progressive renderer
// and the pure policies that pick between them: complexity analysis of a
// structure, atom retention per tier, and distance-based tier selection with
// hysteresis. Everything here is side-effect free; the stateful coordination
// lives in internal/pipeline.
package lod

import (
	"fmt"
	"time"
)

// Tier is a detail level. Higher ordinals mean finer geometry.
type Tier uint8

const (
	Preview     Tier = 1
	Interactive Tier = 2
	Full        Tier = 3
)

// String returns the tier name for logs and diagnostics.
func (t Tier) String() string {
	switch t {
	case Preview:
		return "preview"
	case Interactive:
		return "interactive"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= Preview && t <= Full
}

// AAMode selects the antialiasing applied at a tier.
type AAMode uint8

const (
	AAOff AAMode = iota
	AAMSAA2
	AAMSAA4
)

func (m AAMode) String() string {
	switch m {
	case AAMSAA2:
		return "msaa2x"
	case AAMSAA4:
		return "msaa4x"
	default:
		return "off"
	}
}

// Samples returns the MSAA sample count for the mode, 0 when disabled.
func (m AAMode) Samples() int {
	switch m {
	case AAMSAA2:
		return 2
	case AAMSAA4:
		return 4
	default:
		return 0
	}
}

// FeatureSet lists the representations and effects enabled at a tier.
// The zero value is backbone-only with everything else off.
type FeatureSet struct {
	Ribbons          bool
	Sidechains       bool
	Ligands          bool
	Surfaces         bool
	Shadows          bool
	AmbientOcclusion bool
	Antialiasing     AAMode
}

// TierConfig is the static configuration bound to one tier.
type TierConfig struct {
	// MaxVertices caps the geometry buffer; larger results are decimated.
	MaxVertices int
	// SphereSegments is the tessellation grid density per atom sphere.
	SphereSegments int
	// Budget is the target wall-clock time for synthesizing this tier.
	Budget time.Duration
	// Retention is the fraction of non-backbone atoms kept at this tier.
	Retention float32
	Features  FeatureSet
}

var tierConfigs = map[Tier]TierConfig{
	Preview: {
		MaxVertices:    750_000,
		SphereSegments: 6,
		Budget:         150 * time.Millisecond,
		Retention:      0.2,
		Features: FeatureSet{
			Antialiasing: AAOff,
		},
	},
	Interactive: {
		MaxVertices:    2_000_000,
		SphereSegments: 12,
		Budget:         500 * time.Millisecond,
		Retention:      0.5,
		Features: FeatureSet{
			Ribbons:      true,
			Sidechains:   true,
			Ligands:      true,
			Antialiasing: AAMSAA2,
		},
	},
	Full: {
		MaxVertices:    8_000_000,
		SphereSegments: 24,
		Budget:         2 * time.Second,
		Retention:      1.0,
		Features: FeatureSet{
			Ribbons:          true,
			Sidechains:       true,
			Ligands:          true,
			Surfaces:         true,
			Shadows:          true,
			AmbientOcclusion: true,
			Antialiasing:     AAMSAA4,
		},
	},
}

// Config returns the static configuration for a tier. Unknown tiers map to
// Preview so a corrupted value still renders something.
func (t Tier) Config() TierConfig {
	if c, ok := tierConfigs[t]; ok {
		return c
	}
	return tierConfigs[Preview]
}

// ParseQuality maps a user-facing quality name to its tier.
func ParseQuality(name string) (Tier, error) {
	switch name {
	case "low":
		return Preview, nil
	case "medium":
		return Interactive, nil
	case "high", "extreme":
		return Full, nil
	default:
		return 0, fmt.Errorf("unknown quality %q", name)
	}
}
