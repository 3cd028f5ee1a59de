// Package camera provides the orbit camera used to inspect a structure.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/molscope/molscope/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// New creates an orbit camera with default settings.
func New() *OrbitCamera {
	return &OrbitCamera{
		Distance:        50.0,
		RotationX:       0.3,
		RotationY:       0.0,
		MinDistance:     2.0,
		MaxDistance:     2000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * math32.Cos(c.RotationX) * math32.Sin(c.RotationY)
	y := c.Distance * math32.Sin(c.RotationX)
	z := c.Distance * math32.Cos(c.RotationX) * math32.Cos(c.RotationY)

	return math.Vec3{
		X: c.Center.X + x,
		Y: c.Center.Y + y,
		Z: c.Center.Z + z,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	pos := c.Position()
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(pos, c.Center, up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// HandlePan moves the center point in the camera's screen plane.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.002

	rightX := math32.Cos(c.RotationY)
	rightZ := -math32.Sin(c.RotationY)

	c.Center.X += rightX * deltaX * speed
	c.Center.Z += rightZ * deltaX * speed
	c.Center.Y += deltaY * speed
}

// FitToBounds centers the camera on a bounding sphere and backs off far
// enough to see all of it. The zoom range is rescaled to the structure so
// tiny molecules and huge assemblies both get a usable wheel.
func (c *OrbitCamera) FitToBounds(center [3]float32, radius float32) {
	if radius < 1 {
		radius = 1
	}

	c.Center = math.FromArr(center)
	c.Distance = radius * 2.5
	c.MinDistance = radius * 0.5
	c.MaxDistance = radius * 20

	c.RotationX = 0.3
	c.RotationY = 0.0
}
