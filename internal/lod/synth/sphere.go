package synth

import (
	"sync"

	"github.com/chewxy/math32"
)

// sphereTemplate is a unit sphere tessellated as a latitude/longitude grid
// of (segments+1)^2 vertices. Positions double as outward normals since the
// radius is one. Templates are immutable once built; per-atom geometry is
// produced by scaling and translating copies of them.
type sphereTemplate struct {
	positions []float32
	indices   []uint32
}

var (
	templateMu    sync.Mutex
	templateCache = map[int]*sphereTemplate{}
)

// unitSphere returns the cached template for a segment count, building it on
// first use. Segment counts below 3 are clamped.
func unitSphere(segments int) *sphereTemplate {
	if segments < 3 {
		segments = 3
	}
	templateMu.Lock()
	defer templateMu.Unlock()
	if t, ok := templateCache[segments]; ok {
		return t
	}
	t := buildSphere(segments)
	templateCache[segments] = t
	return t
}

func buildSphere(segments int) *sphereTemplate {
	rings := segments + 1
	t := &sphereTemplate{
		positions: make([]float32, 0, rings*rings*3),
		indices:   make([]uint32, 0, segments*segments*6),
	}

	// Latitude runs pole to pole; longitude wraps, with the seam column
	// repeated so quads index without wrap-around arithmetic.
	for lat := 0; lat <= segments; lat++ {
		phi := math32.Pi/2 - math32.Pi*float32(lat)/float32(segments)
		y := math32.Sin(phi)
		r := math32.Cos(phi)
		for lon := 0; lon <= segments; lon++ {
			theta := 2 * math32.Pi * float32(lon) / float32(segments)
			t.positions = append(t.positions,
				r*math32.Cos(theta),
				y,
				r*math32.Sin(theta),
			)
		}
	}

	// Two CCW triangles per grid quad, connecting adjacent latitude bands.
	stride := uint32(segments + 1)
	for lat := 0; lat < segments; lat++ {
		for lon := 0; lon < segments; lon++ {
			a := uint32(lat)*stride + uint32(lon)
			b := a + stride
			t.indices = append(t.indices,
				a, b, a+1,
				a+1, b, b+1,
			)
		}
	}
	return t
}

func (t *sphereTemplate) vertexCount() int {
	return len(t.positions) / 3
}
