// Package geometry provides immutable vertex/index data for primitive shapes.
package geometry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Vertex is one interleaved vertex as the shader reads it.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Color    [3]float32
}

// VertexStride is the size of an encoded Vertex in bytes.
const VertexStride = (3 + 3 + 2 + 3) * 4

// Layout returns the vertex layout matching Vertex:
// locations 0-3 are position, normal, uv, color.
func Layout() gpu.VertexLayout {
	return gpu.VertexLayout{
		Stride: VertexStride,
		Attributes: []gpu.VertexAttribute{
			{Location: 0, Format: gpu.VertexFormatFloat32x3, Offset: 0},
			{Location: 1, Format: gpu.VertexFormatFloat32x3, Offset: 12},
			{Location: 2, Format: gpu.VertexFormatFloat32x2, Offset: 24},
			{Location: 3, Format: gpu.VertexFormatFloat32x3, Offset: 32},
		},
	}
}

// Geometry is an indexed triangle list with counter-clockwise winding.
// It never changes after New returns, so meshes may share one instance.
type Geometry struct {
	vertices []Vertex
	indices  []uint32
}

// New validates and copies the given data.
func New(vertices []Vertex, indices []uint32) (*Geometry, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, len(vertices))
		}
	}
	return &Geometry{
		vertices: append([]Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}, nil
}

// mustNew is for generators whose output is valid by construction.
func mustNew(vertices []Vertex, indices []uint32) *Geometry {
	g, err := New(vertices, indices)
	if err != nil {
		panic(err)
	}
	return g
}

// Vertices returns a copy of the vertex data.
func (g *Geometry) Vertices() []Vertex {
	return append([]Vertex(nil), g.vertices...)
}

// Indices returns a copy of the index data.
func (g *Geometry) Indices() []uint32 {
	return append([]uint32(nil), g.indices...)
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.vertices)
}

// IndexCount returns the number of indices.
func (g *Geometry) IndexCount() int {
	return len(g.indices)
}

// VertexBytes encodes the vertices little-endian in Layout order.
func (g *Geometry) VertexBytes() []byte {
	buf := make([]byte, 0, len(g.vertices)*VertexStride)
	for _, v := range g.vertices {
		buf = appendFloats(buf, v.Position[:]...)
		buf = appendFloats(buf, v.Normal[:]...)
		buf = appendFloats(buf, v.UV[:]...)
		buf = appendFloats(buf, v.Color[:]...)
	}
	return buf
}

// IndexBytes encodes the indices as little-endian uint32.
func (g *Geometry) IndexBytes() []byte {
	buf := make([]byte, 0, len(g.indices)*4)
	for _, idx := range g.indices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	return buf
}

func appendFloats(buf []byte, fs ...float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
