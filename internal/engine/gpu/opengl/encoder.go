package opengl

import (
	"errors"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

var (
	errPassOpen     = errors.New("render pass still open")
	errEncoderDone  = errors.New("encoder already finished")
	errNoPipeline   = errors.New("draw without pipeline")
	errForeignValue = errors.New("object from another device")
)

type commandBuffer struct {
	ops []func() error
}

type encoder struct {
	device   *Device
	ops      []func() error
	open     bool
	finished bool
}

func (e *encoder) BeginRenderPass(desc gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	if e.finished {
		return nil, errEncoderDone
	}
	if e.open {
		return nil, errPassOpen
	}
	var depth *depthTexture
	if desc.Depth != nil {
		d, ok := desc.Depth.(*depthTexture)
		if !ok {
			return nil, errForeignValue
		}
		depth = d
	}
	e.open = true

	t := e.device.target
	e.ops = append(e.ops, func() error {
		if err := t.bind(depth); err != nil {
			return err
		}
		c := desc.ClearColor
		gl.ClearColor(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
		gl.ClearDepth(float64(desc.ClearDepth))
		gl.DepthMask(true)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		return nil
	})
	return &pass{enc: e}, nil
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	if e.open {
		return nil, errPassOpen
	}
	e.finished = true
	return &commandBuffer{ops: e.ops}, nil
}

// pass records GL state changes. Vertex attribute pointers depend on the
// pipeline layout, so the pipeline set at record time is captured.
type pass struct {
	enc      *encoder
	pipeline *pipeline
	index    uint32 // GL index type
	err      error
}

func (p *pass) record(op func() error) {
	p.enc.ops = append(p.enc.ops, op)
}

func (p *pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *pass) SetPipeline(rp gpu.RenderPipeline) {
	pl, ok := rp.(*pipeline)
	if !ok {
		p.fail(errForeignValue)
		return
	}
	p.pipeline = pl
	p.record(func() error {
		gl.UseProgram(pl.program)
		gl.BindVertexArray(pl.vao)
		if pl.desc.DepthTest {
			gl.Enable(gl.DEPTH_TEST)
			gl.DepthFunc(gl.LESS)
		} else {
			gl.Disable(gl.DEPTH_TEST)
		}
		if pl.desc.CullBackFaces {
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(gl.BACK)
			gl.FrontFace(gl.CCW)
		} else {
			gl.Disable(gl.CULL_FACE)
		}
		return nil
	})
}

func (p *pass) SetBindGroup(index int, group gpu.BindGroup) {
	g, ok := group.(*bindGroup)
	if !ok {
		p.fail(errForeignValue)
		return
	}
	p.record(func() error {
		for _, e := range g.entries {
			b := e.Buffer.(*buffer)
			gl.BindBufferRange(gl.UNIFORM_BUFFER, uint32(e.Binding), b.id, 0, e.Size)
		}
		return nil
	})
}

func (p *pass) SetVertexBuffer(slot int, buf gpu.Buffer) {
	b, ok := buf.(*buffer)
	if !ok {
		p.fail(errForeignValue)
		return
	}
	if p.pipeline == nil {
		p.fail(errNoPipeline)
		return
	}
	layout := p.pipeline.desc.Layout
	p.record(func() error {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
		for _, a := range layout.Attributes {
			loc := uint32(a.Location)
			gl.VertexAttribPointerWithOffset(loc, int32(a.Format.Components()), gl.FLOAT, false, int32(layout.Stride), uintptr(a.Offset))
			gl.EnableVertexAttribArray(loc)
		}
		return nil
	})
}

func (p *pass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b, ok := buf.(*buffer)
	if !ok {
		p.fail(errForeignValue)
		return
	}
	p.index = gl.UNSIGNED_INT
	if format == gpu.IndexFormatUint16 {
		p.index = gl.UNSIGNED_SHORT
	}
	p.record(func() error {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
		return nil
	})
}

func (p *pass) DrawIndexed(indexCount int) {
	if p.pipeline == nil {
		p.fail(errNoPipeline)
		return
	}
	kind := p.index
	p.record(func() error {
		gl.DrawElements(gl.TRIANGLES, int32(indexCount), kind, nil)
		return nil
	})
}

func (p *pass) End() error {
	p.enc.open = false
	if p.err != nil {
		return p.err
	}
	p.record(func() error {
		return checkError("render pass")
	})
	return nil
}
