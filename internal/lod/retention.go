package lod

// DefaultMinAtoms is the floor below which detail reduction never cuts,
// so even huge reduction factors leave a recognizable shape.
const DefaultMinAtoms = 50

// RetainedCount returns how many atoms survive reduction to a tier:
// floor(fullCount * retention), raised to minAtoms and capped at fullCount.
// minAtoms <= 0 selects DefaultMinAtoms. Backbone atoms are exempt from
// reduction entirely; that filtering happens in the synthesis unit, this
// function only sizes the retained set.
func RetainedCount(fullCount int, t Tier, minAtoms int) int {
	if fullCount <= 0 {
		return 0
	}
	if minAtoms <= 0 {
		minAtoms = DefaultMinAtoms
	}
	kept := int(float64(fullCount) * float64(t.Config().Retention))
	if kept < minAtoms {
		kept = minAtoms
	}
	if kept > fullCount {
		kept = fullCount
	}
	return kept
}
