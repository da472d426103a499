package geometry

import "github.com/Faultbox/prism/pkg/math"

// Facing selects the outward normal of a generated face.
type Facing int

const (
	FacingPosZ Facing = iota
	FacingNegZ
	FacingPosY
	FacingNegY
	FacingPosX
	FacingNegX
)

// face is an orthonormal frame with u x v = normal, which makes the
// corner order (-u,-v) (+u,-v) (+u,+v) (-u,+v) counter-clockwise.
type face struct {
	normal, u, v math.Vec3
	color        [3]float32
}

var faces = [...]face{
	FacingPosZ: {normal: math.Vec3{Z: 1}, u: math.Vec3{X: 1}, v: math.Vec3{Y: 1}, color: [3]float32{1, 0, 0}},
	FacingNegZ: {normal: math.Vec3{Z: -1}, u: math.Vec3{X: -1}, v: math.Vec3{Y: 1}, color: [3]float32{0, 1, 0}},
	FacingPosY: {normal: math.Vec3{Y: 1}, u: math.Vec3{X: 1}, v: math.Vec3{Z: -1}, color: [3]float32{0, 0, 1}},
	FacingNegY: {normal: math.Vec3{Y: -1}, u: math.Vec3{X: 1}, v: math.Vec3{Z: 1}, color: [3]float32{1, 1, 0}},
	FacingPosX: {normal: math.Vec3{X: 1}, u: math.Vec3{Z: -1}, v: math.Vec3{Y: 1}, color: [3]float32{1, 0, 1}},
	FacingNegX: {normal: math.Vec3{X: -1}, u: math.Vec3{Z: 1}, v: math.Vec3{Y: 1}, color: [3]float32{0, 1, 1}},
}

var quadUVs = [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// appendQuad adds one face quad centered at center with half sizes hu, hv.
func appendQuad(vertices []Vertex, indices []uint32, f face, center math.Vec3, hu, hv float32, color [3]float32) ([]Vertex, []uint32) {
	base := uint32(len(vertices))
	signs := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, s := range signs {
		p := center.Add(f.u.Scale(s[0] * hu)).Add(f.v.Scale(s[1] * hv))
		vertices = append(vertices, Vertex{
			Position: p.Array(),
			Normal:   f.normal.Array(),
			UV:       quadUVs[i],
			Color:    color,
		})
	}
	indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	return vertices, indices
}

// Box returns a box centered on the origin: 6 faces of 4 vertices each,
// every face carrying its outward normal and its own debug color.
func Box(width, height, depth float32) *Geometry {
	half := math.Vec3{X: width / 2, Y: height / 2, Z: depth / 2}
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)

	for _, f := range faces {
		center := f.normal.Mul(half)
		hu := f.u.Mul(half).Length()
		hv := f.v.Mul(half).Length()
		vertices, indices = appendQuad(vertices, indices, f, center, hu, hv, f.color)
	}
	return mustNew(vertices, indices)
}

// Plane returns a width x height quad through the origin whose single normal
// is the facing axis. Width runs along the face's u axis, height along v
// (for FacingPosZ that is X and Y).
func Plane(width, height float32, facing Facing) *Geometry {
	if facing < FacingPosZ || facing > FacingNegX {
		facing = FacingPosZ
	}
	vertices, indices := appendQuad(nil, nil, faces[facing], math.Vec3{}, width/2, height/2, [3]float32{1, 1, 1})
	return mustNew(vertices, indices)
}
