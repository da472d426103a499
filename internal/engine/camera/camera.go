// Package camera provides the perspective camera and the orbital controls
// that drive it.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/pkg/math"
)

// Camera is a perspective camera. View and projection are derived on demand.
type Camera struct {
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3

	FovY   float32 // vertical field of view, radians
	Aspect float32
	Near   float32
	Far    float32
}

// New creates a camera at (0, 0, 5) looking at the origin.
func New(fovDegrees, aspect, near, far float32) *Camera {
	return &Camera{
		Position: math.Vec3{Z: 5},
		Up:       math.Vec3{Y: 1},
		FovY:     radians(fovDegrees),
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the view-to-clip transform.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// SetAspect sets the aspect ratio from a surface size.
// A zero height is ignored.
func (c *Camera) SetAspect(width, height int) {
	if height == 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// SetFOV sets the vertical field of view in degrees.
func (c *Camera) SetFOV(degrees float32) {
	c.FovY = radians(degrees)
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}
