// Package gpu defines the device contract the renderer draws through.
//
// The shape follows WebGPU: buffers, a render pipeline, bind groups, a depth
// texture, and a command encoder whose finished command buffer is submitted
// once per frame. Implementations live in subpackages (opengl for the desktop
// build, gputest for tests).
package gpu

import "errors"

var (
	// ErrDeviceLost reports that the device is gone. It is never transient.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrOutOfMemory reports a failed allocation. The caller may retry.
	ErrOutOfMemory = errors.New("gpu: out of memory")
)

// BufferUsage is a bit set describing how a buffer is bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// Has reports whether all bits of flag are set.
func (u BufferUsage) Has(flag BufferUsage) bool {
	return u&flag == flag
}

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
)

// Components returns the number of float32 components.
func (f VertexFormat) Components() int {
	switch f {
	case VertexFormatFloat32x2:
		return 2
	case VertexFormatFloat32x3:
		return 3
	default:
		return 0
	}
}

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() int {
	return f.Components() * 4
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// Color is an RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// BufferDescriptor describes a buffer to create.
// When Contents is set the buffer is initialized with it and Size is ignored.
type BufferDescriptor struct {
	Label    string
	Usage    BufferUsage
	Size     int
	Contents []byte
}

// VertexAttribute places one shader input inside a vertex.
type VertexAttribute struct {
	Location int
	Format   VertexFormat
	Offset   int
}

// VertexLayout describes interleaved vertex data.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// ShaderSource holds the vertex and fragment stages.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// UniformBlock names the uniform block the pipeline binds per draw.
type UniformBlock struct {
	Name    string
	Group   int
	Binding int
	Size    int
}

// RenderPipelineDescriptor describes the single pipeline the renderer uses.
type RenderPipelineDescriptor struct {
	Label         string
	Shader        ShaderSource
	Layout        VertexLayout
	Uniforms      UniformBlock
	DepthTest     bool
	CullBackFaces bool
}

// BindGroupEntry binds a buffer range to a binding slot.
type BindGroupEntry struct {
	Binding int
	Buffer  Buffer
	Size    int
}

// BindGroupDescriptor describes a bind group for one pipeline group.
type BindGroupDescriptor struct {
	Label    string
	Pipeline RenderPipeline
	Group    int
	Entries  []BindGroupEntry
}

// RenderPassDescriptor describes a render pass onto the current surface.
type RenderPassDescriptor struct {
	Label      string
	ClearColor Color
	Depth      Texture
	ClearDepth float32
}

// Buffer is a GPU buffer.
type Buffer interface {
	Size() int
	Release()
}

// Texture is a GPU texture. The renderer only creates depth textures.
type Texture interface {
	Width() int
	Height() int
	Release()
}

// RenderPipeline is a compiled pipeline.
type RenderPipeline interface {
	Release()
}

// BindGroup is a set of resources bound together.
type BindGroup interface {
	Release()
}

// CommandBuffer is a finished, submittable command list.
type CommandBuffer interface{}

// RenderPass records draw commands.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index int, group BindGroup)
	SetVertexBuffer(slot int, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	DrawIndexed(indexCount int)
	End() error
}

// CommandEncoder records passes into a command buffer.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error)
	Finish() (CommandBuffer, error)
}

// Device creates resources and executes submitted work.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	WriteBuffer(buf Buffer, offset int, data []byte) error
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreateDepthTexture(width, height int) (Texture, error)
	ConfigureSurface(width, height int) error
	CreateCommandEncoder() (CommandEncoder, error)
	Submit(cmd CommandBuffer) error
	Release()
}
