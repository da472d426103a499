// Package opengl implements gpu.Device on an OpenGL 4.1 core context.
//
// All calls must come from the goroutine that owns the context, locked to
// its OS thread. Command encoders record closures; Submit replays them in
// order, blits the frame to the window and swaps.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// glContextLost is GL_CONTEXT_LOST (GL 4.5, KHR_robustness).
const glContextLost = 0x0507

// Device is the OpenGL gpu.Device.
type Device struct {
	swap   func()
	target *target
}

func newDevice(swap func()) (*Device, error) {
	d := &Device{swap: swap, target: newTarget(1, 1)}
	if err := checkError("create target"); err != nil {
		d.target.destroy()
		return nil, err
	}
	return d, nil
}

// checkError drains the GL error queue and maps the first error.
func checkError(op string) error {
	var first uint32
	for range 32 {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
		if code == glContextLost {
			return fmt.Errorf("%s: %w", op, gpu.ErrDeviceLost)
		}
	}
	switch first {
	case 0:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%s: %w", op, gpu.ErrOutOfMemory)
	default:
		return fmt.Errorf("%s: GL error 0x%x", op, first)
	}
}

type buffer struct {
	id   uint32
	size int
}

func (b *buffer) Size() int { return b.size }

func (b *buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// CreateBuffer implements gpu.Device. Buffers are filled through the copy
// target so no vertex array has to be bound.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	size := desc.Size
	if desc.Contents != nil {
		size = len(desc.Contents)
	}
	usage := uint32(gl.STATIC_DRAW)
	if desc.Usage.Has(gpu.BufferUsageCopyDst) {
		usage = gl.DYNAMIC_DRAW
	}

	b := &buffer{size: size}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	if len(desc.Contents) > 0 {
		gl.BufferData(gl.COPY_WRITE_BUFFER, size, gl.Ptr(desc.Contents), usage)
	} else {
		gl.BufferData(gl.COPY_WRITE_BUFFER, size, nil, usage)
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	if err := checkError("create buffer " + desc.Label); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// WriteBuffer implements gpu.Device.
func (d *Device) WriteBuffer(buf gpu.Buffer, offset int, data []byte) error {
	b, ok := buf.(*buffer)
	if !ok || b.id == 0 {
		return fmt.Errorf("write buffer: invalid buffer %T", buf)
	}
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("write buffer: [%d:%d] out of range for %d bytes", offset, offset+len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return checkError("write buffer")
}

type pipeline struct {
	program uint32
	vao     uint32
	desc    gpu.RenderPipelineDescriptor
}

func (p *pipeline) Release() {
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	program, err := compileProgram(desc.Shader.Vertex, desc.Shader.Fragment)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", desc.Label, err)
	}
	p := &pipeline{program: program, desc: desc}

	if desc.Uniforms.Name != "" {
		if err := bindUniformBlock(program, desc.Uniforms.Name, uint32(desc.Uniforms.Binding)); err != nil {
			p.Release()
			return nil, fmt.Errorf("pipeline %s: %w", desc.Label, err)
		}
	}
	gl.GenVertexArrays(1, &p.vao)

	if err := checkError("create pipeline " + desc.Label); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

type bindGroup struct {
	entries []gpu.BindGroupEntry
}

func (g *bindGroup) Release() {}

// CreateBindGroup implements gpu.Device. GL has no bind group object; the
// entries are bound as uniform buffer ranges when the group is set.
func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	for _, e := range desc.Entries {
		if _, ok := e.Buffer.(*buffer); !ok {
			return nil, fmt.Errorf("bind group %s: invalid buffer %T", desc.Label, e.Buffer)
		}
	}
	return &bindGroup{entries: append([]gpu.BindGroupEntry(nil), desc.Entries...)}, nil
}

// CreateDepthTexture implements gpu.Device.
func (d *Device) CreateDepthTexture(width, height int) (gpu.Texture, error) {
	t := &depthTexture{width: width, height: height}
	gl.GenRenderbuffers(1, &t.rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := checkError("create depth texture"); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// ConfigureSurface implements gpu.Device.
func (d *Device) ConfigureSurface(width, height int) error {
	d.target.resize(int32(width), int32(height))
	return checkError("configure surface")
}

// CreateCommandEncoder implements gpu.Device.
func (d *Device) CreateCommandEncoder() (gpu.CommandEncoder, error) {
	return &encoder{device: d}, nil
}

// Submit implements gpu.Device.
func (d *Device) Submit(cmd gpu.CommandBuffer) error {
	cb, ok := cmd.(*commandBuffer)
	if !ok {
		return fmt.Errorf("submit: invalid command buffer %T", cmd)
	}
	for _, op := range cb.ops {
		if err := op(); err != nil {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return err
		}
	}
	gl.BindVertexArray(0)
	d.target.present()
	if err := checkError("submit"); err != nil {
		return err
	}
	if d.swap != nil {
		d.swap()
	}
	return nil
}

// Release implements gpu.Device.
func (d *Device) Release() {
	d.target.destroy()
}
