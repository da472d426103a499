// Package picking casts rays from the screen into the scene.
package picking

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // normalized
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // flip Y

	near := invViewProj.TransformVec3(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invViewProj.TransformVec3(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box
// using the slab method. If the ray starts inside the box the exit
// distance is returned.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	o := r.Origin.Array()
	d := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Bounds returns the local-space box enclosing every vertex of g.
func Bounds(g *geometry.Geometry) AABB {
	verts := g.Vertices()
	if len(verts) == 0 {
		return AABB{}
	}
	p := verts[0].Position
	box := AABB{Min: math.Vec3{X: p[0], Y: p[1], Z: p[2]}, Max: math.Vec3{X: p[0], Y: p[1], Z: p[2]}}
	for _, v := range verts[1:] {
		p := v.Position
		box.Min = math.Vec3{X: math32.Min(box.Min.X, p[0]), Y: math32.Min(box.Min.Y, p[1]), Z: math32.Min(box.Min.Z, p[2])}
		box.Max = math.Vec3{X: math32.Max(box.Max.X, p[0]), Y: math32.Max(box.Max.Y, p[1]), Z: math32.Max(box.Max.Z, p[2])}
	}
	return box
}

// IntersectOriented tests the ray against box placed in the world by model.
// The ray is carried into model space, so rotated and scaled meshes are
// hit exactly. t is the world distance along r.
func (r Ray) IntersectOriented(box AABB, model math.Mat4) (t float32, hit bool) {
	inv := model.Inverse()
	o := inv.TransformVec3(r.Origin)
	// an affine map keeps the ray parameter, so the direction stays unnormalized
	d := inv.TransformVec3(r.At(1)).Sub(o)
	return Ray{Origin: o, Direction: d}.IntersectAABB(box)
}

// Pick returns the nearest visible mesh hit by r.
func Pick(s *scene.Scene, r Ray) (h scene.Handle, t float32, ok bool) {
	best := float32(math32.MaxFloat32)
	for handle, m := range s.All() {
		if !m.Visible() {
			continue
		}
		d, hit := r.IntersectOriented(Bounds(m.Geometry()), m.ModelMatrix())
		if hit && d < best {
			best, h, ok = d, handle, true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return h, best, true
}
