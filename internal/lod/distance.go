package lod

// DistanceSelector picks a tier from camera distance with a hysteresis
// margin. Each tier above Preview has a limit distance: beyond
// limit+Hysteresis the tier degrades one step, and recovering the finer
// tier requires coming back inside the bare limit. The gap between the two
// conditions is a dead zone that keeps a camera hovering near a boundary
// from flapping between tiers.
type DistanceSelector struct {
	// FullLimit is the distance beyond which Full degrades to Interactive.
	FullLimit float32
	// InteractiveLimit is the distance beyond which Interactive degrades
	// to Preview. Must exceed FullLimit.
	InteractiveLimit float32
	Hysteresis       float32
}

// NewDistanceSelector builds a selector sized to a structure's bounding
// radius: Full within two radii, Interactive within six, Preview beyond.
func NewDistanceSelector(boundingRadius float32) DistanceSelector {
	if boundingRadius < 1 {
		boundingRadius = 1
	}
	return DistanceSelector{
		FullLimit:        boundingRadius * 2,
		InteractiveLimit: boundingRadius * 6,
		Hysteresis:       boundingRadius * 0.4,
	}
}

// limit returns the distance ceiling for holding the given tier.
func (s DistanceSelector) limit(t Tier) float32 {
	switch t {
	case Full:
		return s.FullLimit
	case Interactive:
		return s.InteractiveLimit
	default:
		return 0
	}
}

// Select returns the tier for the given distance, starting from the tier
// currently held. Evaluating repeatedly at an unchanged distance is stable.
func (s DistanceSelector) Select(current Tier, distance float32) Tier {
	if !current.Valid() {
		current = Preview
	}
	for current > Preview && distance >= s.limit(current)+s.Hysteresis {
		current--
	}
	for current < Full && distance < s.limit(current+1) {
		current++
	}
	return current
}
