package synth

// Decimator reduces a template mesh so it fits a vertex cap. Implementations
// receive packed xyz positions and triangle indices and return replacements;
// they must not mutate the inputs, which may be shared cached templates.
//
// The stride variant below is the default. A quality-aware variant (error
// bounded collapse) can be substituted without touching the callers.
type Decimator interface {
	Decimate(positions []float32, indices []uint32, maxVertices int) ([]float32, []uint32)
}

// StrideDecimator drops every Nth vertex and the triangles that referenced
// it. Fast and predictable, but it tears holes into the mesh instead of
// preserving its shape; acceptable for far-away geometry only.
type StrideDecimator struct{}

func (StrideDecimator) Decimate(positions []float32, indices []uint32, maxVertices int) ([]float32, []uint32) {
	vc := len(positions) / 3
	if maxVertices <= 0 || vc <= maxVertices {
		return positions, indices
	}

	for vc > maxVertices {
		// Dropping every nth vertex removes ~vc/n of them. Choose n to
		// overshoot slightly; repeat if one pass is not enough.
		n := vc / (vc - maxVertices)
		if n < 2 {
			n = 2
		}

		remap := make([]int32, vc)
		var outPos []float32
		next := int32(0)
		for i := 0; i < vc; i++ {
			if i%n == 0 {
				remap[i] = -1
				continue
			}
			remap[i] = next
			outPos = append(outPos, positions[i*3], positions[i*3+1], positions[i*3+2])
			next++
		}

		var outIdx []uint32
		for i := 0; i+2 < len(indices); i += 3 {
			a := remap[indices[i]]
			b := remap[indices[i+1]]
			c := remap[indices[i+2]]
			if a < 0 || b < 0 || c < 0 {
				continue
			}
			outIdx = append(outIdx, uint32(a), uint32(b), uint32(c))
		}

		positions, indices = outPos, outIdx
		vc = len(positions) / 3
		if vc == 0 {
			break
		}
	}
	return positions, indices
}
