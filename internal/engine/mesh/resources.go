package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/pkg/math"
)

// Uniform block layout shared with the shader.
const (
	UniformGroup   = 0
	UniformBinding = 0
	UniformSize    = 2 * 16 * 4 // view_proj, model
)

var errNoResources = errors.New("mesh: resources not created")

// Resources is the per-mesh GPU cache. Vertex and index buffers belong to
// the geometry and are shared with every mesh drawing it.
type Resources struct {
	VertexBuffer  gpu.Buffer
	IndexBuffer   gpu.Buffer
	IndexCount    int
	UniformBuffer gpu.Buffer
	BindGroup     gpu.BindGroup

	uploader *Uploader
	geometry *geometry.Geometry
}

func (r *Resources) release() {
	if r.BindGroup != nil {
		r.BindGroup.Release()
	}
	if r.UniformBuffer != nil {
		r.UniformBuffer.Release()
	}
	r.uploader.unref(r.geometry)
}

type sharedBuffers struct {
	vertex gpu.Buffer
	index  gpu.Buffer
	refs   int
}

// Uploader creates mesh resources on one device for one pipeline and
// uploads each geometry only once.
type Uploader struct {
	device   gpu.Device
	pipeline gpu.RenderPipeline
	shared   map[*geometry.Geometry]*sharedBuffers
}

// NewUploader returns an uploader whose bind groups target pipeline.
func NewUploader(device gpu.Device, pipeline gpu.RenderPipeline) *Uploader {
	return &Uploader{
		device:   device,
		pipeline: pipeline,
		shared:   make(map[*geometry.Geometry]*sharedBuffers),
	}
}

// Geometries returns how many distinct geometries are resident.
func (u *Uploader) Geometries() int {
	return len(u.shared)
}

func (u *Uploader) create(g *geometry.Geometry) (*Resources, error) {
	sb, err := u.ref(g)
	if err != nil {
		return nil, err
	}

	ubo, err := u.device.CreateBuffer(gpu.BufferDescriptor{
		Label: "mesh uniforms",
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
		Size:  UniformSize,
	})
	if err != nil {
		u.unref(g)
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}

	bg, err := u.device.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:    "mesh bind group",
		Pipeline: u.pipeline,
		Group:    UniformGroup,
		Entries:  []gpu.BindGroupEntry{{Binding: UniformBinding, Buffer: ubo, Size: UniformSize}},
	})
	if err != nil {
		ubo.Release()
		u.unref(g)
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	return &Resources{
		VertexBuffer:  sb.vertex,
		IndexBuffer:   sb.index,
		IndexCount:    g.IndexCount(),
		UniformBuffer: ubo,
		BindGroup:     bg,
		uploader:      u,
		geometry:      g,
	}, nil
}

func (u *Uploader) ref(g *geometry.Geometry) (*sharedBuffers, error) {
	if sb, ok := u.shared[g]; ok {
		sb.refs++
		return sb, nil
	}

	vbo, err := u.device.CreateBuffer(gpu.BufferDescriptor{
		Label:    "vertices",
		Usage:    gpu.BufferUsageVertex,
		Contents: g.VertexBytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	ibo, err := u.device.CreateBuffer(gpu.BufferDescriptor{
		Label:    "indices",
		Usage:    gpu.BufferUsageIndex,
		Contents: g.IndexBytes(),
	})
	if err != nil {
		vbo.Release()
		return nil, fmt.Errorf("create index buffer: %w", err)
	}

	sb := &sharedBuffers{vertex: vbo, index: ibo, refs: 1}
	u.shared[g] = sb
	return sb, nil
}

func (u *Uploader) unref(g *geometry.Geometry) {
	sb, ok := u.shared[g]
	if !ok {
		return
	}
	sb.refs--
	if sb.refs > 0 {
		return
	}
	sb.vertex.Release()
	sb.index.Release()
	delete(u.shared, g)
}

// EncodeUniforms packs view_proj then model as little-endian float32,
// column-major, matching the std140 layout of two mat4s.
func EncodeUniforms(viewProj, model math.Mat4) []byte {
	buf := make([]byte, 0, UniformSize)
	for _, m := range [2]math.Mat4{viewProj, model} {
		for _, f := range m {
			buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(f))
		}
	}
	return buf
}
