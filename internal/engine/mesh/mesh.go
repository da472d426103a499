// Package mesh pairs a shared geometry with a per-instance transform and the
// GPU resources needed to draw it.
package mesh

import (
	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/pkg/math"
)

// Mesh is one drawable instance of a geometry.
type Mesh struct {
	geometry *geometry.Geometry

	position math.Vec3
	rotation math.Vec3 // Euler XYZ, radians
	scale    math.Vec3
	visible  bool

	res *Resources
}

// New creates a visible mesh at the origin with unit scale.
func New(g *geometry.Geometry) *Mesh {
	return &Mesh{
		geometry: g,
		scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		visible:  true,
	}
}

// Geometry returns the shared geometry.
func (m *Mesh) Geometry() *geometry.Geometry { return m.geometry }

// Position returns the translation.
func (m *Mesh) Position() math.Vec3 { return m.position }

// Rotation returns the Euler XYZ rotation in radians.
func (m *Mesh) Rotation() math.Vec3 { return m.rotation }

// Scale returns the per-axis scale.
func (m *Mesh) Scale() math.Vec3 { return m.scale }

// Visible reports whether the renderer draws this mesh.
func (m *Mesh) Visible() bool { return m.visible }

// SetPosition sets the translation.
func (m *Mesh) SetPosition(v math.Vec3) { m.position = v }

// SetRotation sets the Euler angles in radians.
func (m *Mesh) SetRotation(v math.Vec3) { m.rotation = v }

// SetScale sets the per-axis scale.
func (m *Mesh) SetScale(v math.Vec3) { m.scale = v }

// SetVisible shows or hides the mesh.
func (m *Mesh) SetVisible(v bool) { m.visible = v }

// ModelMatrix returns T * R * S for the current transform.
func (m *Mesh) ModelMatrix() math.Mat4 {
	return math.Compose(m.position, m.rotation, m.scale)
}

// Resources returns the GPU cache, or nil before the first EnsureResources.
func (m *Mesh) Resources() *Resources { return m.res }

// EnsureResources creates the GPU cache on first use. Later calls are no-ops.
// On failure nothing is kept, so a later call starts over.
func (m *Mesh) EnsureResources(u *Uploader) error {
	if m.res != nil {
		return nil
	}
	res, err := u.create(m.geometry)
	if err != nil {
		return err
	}
	m.res = res
	return nil
}

// WriteUniforms uploads view-projection and model matrices for this frame.
func (m *Mesh) WriteUniforms(viewProj math.Mat4) error {
	if m.res == nil {
		return errNoResources
	}
	return m.res.uploader.device.WriteBuffer(m.res.UniformBuffer, 0, EncodeUniforms(viewProj, m.ModelMatrix()))
}

// Release frees the GPU cache. The mesh can be drawn again afterwards;
// the next EnsureResources recreates it.
func (m *Mesh) Release() {
	if m.res == nil {
		return
	}
	m.res.release()
	m.res = nil
}
