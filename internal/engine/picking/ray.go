// Package picking provides ray casting for atom selection.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/molscope/molscope/pkg/math"
	"github.com/molscope/molscope/pkg/molecule"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32 // Normalized direction
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := (2.0*screenX/viewportW - 1.0)
	ndcY := (1.0 - 2.0*screenY/viewportH) // Flip Y

	// Unproject near and far points
	nearPoint := math.Vec4{ndcX, ndcY, -1.0, 1.0}
	farPoint := math.Vec4{ndcX, ndcY, 1.0, 1.0}

	nearWorld := invViewProj.MulVec4(nearPoint)
	farWorld := invViewProj.MulVec4(farPoint)

	// Perspective divide
	if nearWorld[3] != 0 {
		nearWorld[0] /= nearWorld[3]
		nearWorld[1] /= nearWorld[3]
		nearWorld[2] /= nearWorld[3]
	}
	if farWorld[3] != 0 {
		farWorld[0] /= farWorld[3]
		farWorld[1] /= farWorld[3]
		farWorld[2] /= farWorld[3]
	}

	origin := [3]float32{nearWorld[0], nearWorld[1], nearWorld[2]}
	dir := [3]float32{
		farWorld[0] - nearWorld[0],
		farWorld[1] - nearWorld[1],
		farWorld[2] - nearWorld[2],
	}

	// Normalize direction
	rayLen := math32.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	if rayLen > 0 {
		dir[0] /= rayLen
		dir[1] /= rayLen
		dir[2] /= rayLen
	}

	return Ray{Origin: origin, Direction: dir}
}

// IntersectSphere tests ray intersection with a sphere.
// Returns the distance to the nearest intersection (t) and whether the ray
// hits. A ray starting inside the sphere reports the exit distance.
func (r Ray) IntersectSphere(center [3]float32, radius float32) (t float32, hit bool) {
	// Solve |Origin + t*Direction - center|^2 = radius^2
	ox := r.Origin[0] - center[0]
	oy := r.Origin[1] - center[1]
	oz := r.Origin[2] - center[2]

	b := ox*r.Direction[0] + oy*r.Direction[1] + oz*r.Direction[2]
	c := ox*ox + oy*oy + oz*oz - radius*radius

	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := math32.Sqrt(disc)
	t0 := -b - sq
	t1 := -b + sq
	if t1 < 0 {
		return 0, false // Sphere entirely behind ray origin
	}
	if t0 < 0 {
		return t1, true // Origin inside sphere
	}
	return t0, true
}

// Hit identifies a picked atom.
type Hit struct {
	Index    int
	Distance float32
}

// pickSlop widens atom spheres for picking so small atoms remain
// clickable at typical zoom levels.
const pickSlop = 1.3

// PickAtom returns the atom whose sphere the ray hits nearest to its
// origin, or ok=false when the ray misses every atom.
func PickAtom(atoms []molecule.Atom, r Ray) (Hit, bool) {
	best := Hit{Index: -1, Distance: math32.MaxFloat32}
	for i, a := range atoms {
		radius := molecule.CovalentRadius(a.Element) * pickSlop
		t, hit := r.IntersectSphere(a.Position, radius)
		if hit && t < best.Distance {
			best = Hit{Index: i, Distance: t}
		}
	}
	return best, best.Index >= 0
}
