// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"context"
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Buffer is a recorded buffer.
type Buffer struct {
	ID       int
	Label    string
	Usage    gpu.BufferUsage
	Data     []byte
	Released bool
}

// Size implements gpu.Buffer.
func (b *Buffer) Size() int { return len(b.Data) }

// Release implements gpu.Buffer.
func (b *Buffer) Release() { b.Released = true }

// Texture is a recorded depth texture.
type Texture struct {
	ID       int
	W, H     int
	Released bool
}

// Width implements gpu.Texture.
func (t *Texture) Width() int { return t.W }

// Height implements gpu.Texture.
func (t *Texture) Height() int { return t.H }

// Release implements gpu.Texture.
func (t *Texture) Release() { t.Released = true }

// Pipeline is a recorded render pipeline.
type Pipeline struct {
	ID       int
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

// Release implements gpu.RenderPipeline.
func (p *Pipeline) Release() { p.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	ID       int
	Desc     gpu.BindGroupDescriptor
	Released bool
}

// Release implements gpu.BindGroup.
func (g *BindGroup) Release() { g.Released = true }

// Write is one WriteBuffer call.
type Write struct {
	Buffer *Buffer
	Offset int
	Data   []byte
}

// Command is one recorded render pass command.
type Command struct {
	Op         string
	Index      int
	Pipeline   *Pipeline
	BindGroup  *BindGroup
	Buffer     *Buffer
	Format     gpu.IndexFormat
	IndexCount int
}

// Pass is a recorded render pass.
type Pass struct {
	Desc     gpu.RenderPassDescriptor
	Commands []Command
	Ended    bool
}

// Draw is the state bound when a DrawIndexed was issued.
type Draw struct {
	Pipeline     *Pipeline
	BindGroup    *BindGroup
	VertexBuffer *Buffer
	IndexBuffer  *Buffer
	IndexCount   int
}

// Draws replays the pass and returns every draw with its bound state.
func (p *Pass) Draws() []Draw {
	var cur Draw
	var draws []Draw
	for _, c := range p.Commands {
		switch c.Op {
		case "SetPipeline":
			cur.Pipeline = c.Pipeline
		case "SetBindGroup":
			cur.BindGroup = c.BindGroup
		case "SetVertexBuffer":
			cur.VertexBuffer = c.Buffer
		case "SetIndexBuffer":
			cur.IndexBuffer = c.Buffer
		case "DrawIndexed":
			d := cur
			d.IndexCount = c.IndexCount
			draws = append(draws, d)
		}
	}
	return draws
}

// CommandBuffer is a finished recording.
type CommandBuffer struct {
	Passes []*Pass
}

// Device records every call made through gpu.Device.
//
// Set Fail to inject errors: it is called with the operation name
// ("CreateBuffer", "CreateBindGroup", "Submit", ...) before the operation
// runs, and a non-nil result is returned instead. Setting Lost makes every
// operation fail with gpu.ErrDeviceLost.
type Device struct {
	Fail func(op string) error
	Lost bool

	Buffers       []*Buffer
	Pipelines     []*Pipeline
	BindGroups    []*BindGroup
	DepthTextures []*Texture
	Writes        []Write
	Submitted     []*CommandBuffer

	SurfaceWidth   int
	SurfaceHeight  int
	ConfigureCalls int
	Released       bool
	nextID         int
}

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

// RequestDevice lets the fake act as the surface target an engine is created on.
func (d *Device) RequestDevice(ctx context.Context) (gpu.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.check("RequestDevice"); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) check(op string) error {
	if d.Lost {
		return gpu.ErrDeviceLost
	}
	if d.Fail != nil {
		return d.Fail(op)
	}
	return nil
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.check("CreateBuffer"); err != nil {
		return nil, err
	}
	data := make([]byte, desc.Size)
	if desc.Contents != nil {
		data = append([]byte(nil), desc.Contents...)
	}
	b := &Buffer{ID: d.id(), Label: desc.Label, Usage: desc.Usage, Data: data}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// WriteBuffer implements gpu.Device.
func (d *Device) WriteBuffer(buf gpu.Buffer, offset int, data []byte) error {
	if err := d.check("WriteBuffer"); err != nil {
		return err
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: foreign buffer %T", buf)
	}
	if b.Released {
		return fmt.Errorf("gputest: write to released buffer %d", b.ID)
	}
	if offset < 0 || offset+len(data) > len(b.Data) {
		return fmt.Errorf("gputest: write [%d:%d] out of range for %d-byte buffer", offset, offset+len(data), len(b.Data))
	}
	copy(b.Data[offset:], data)
	d.Writes = append(d.Writes, Write{Buffer: b, Offset: offset, Data: append([]byte(nil), data...)})
	return nil
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := d.check("CreateRenderPipeline"); err != nil {
		return nil, err
	}
	p := &Pipeline{ID: d.id(), Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// CreateBindGroup implements gpu.Device.
func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.check("CreateBindGroup"); err != nil {
		return nil, err
	}
	g := &BindGroup{ID: d.id(), Desc: desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

// CreateDepthTexture implements gpu.Device.
func (d *Device) CreateDepthTexture(width, height int) (gpu.Texture, error) {
	if err := d.check("CreateDepthTexture"); err != nil {
		return nil, err
	}
	t := &Texture{ID: d.id(), W: width, H: height}
	d.DepthTextures = append(d.DepthTextures, t)
	return t, nil
}

// ConfigureSurface implements gpu.Device.
func (d *Device) ConfigureSurface(width, height int) error {
	if err := d.check("ConfigureSurface"); err != nil {
		return err
	}
	d.SurfaceWidth = width
	d.SurfaceHeight = height
	d.ConfigureCalls++
	return nil
}

// CreateCommandEncoder implements gpu.Device.
func (d *Device) CreateCommandEncoder() (gpu.CommandEncoder, error) {
	if err := d.check("CreateCommandEncoder"); err != nil {
		return nil, err
	}
	return &encoder{cb: &CommandBuffer{}}, nil
}

// Submit implements gpu.Device.
func (d *Device) Submit(cmd gpu.CommandBuffer) error {
	if err := d.check("Submit"); err != nil {
		return err
	}
	cb, ok := cmd.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("gputest: foreign command buffer %T", cmd)
	}
	d.Submitted = append(d.Submitted, cb)
	return nil
}

// Release implements gpu.Device.
func (d *Device) Release() {
	d.Released = true
}

// LastFrame returns the last submitted command buffer, or nil.
func (d *Device) LastFrame() *CommandBuffer {
	if len(d.Submitted) == 0 {
		return nil
	}
	return d.Submitted[len(d.Submitted)-1]
}

// BuffersWith returns the buffers created with the given usage bit.
func (d *Device) BuffersWith(usage gpu.BufferUsage) []*Buffer {
	var out []*Buffer
	for _, b := range d.Buffers {
		if b.Usage.Has(usage) {
			out = append(out, b)
		}
	}
	return out
}

// Live returns how many buffers have not been released.
func (d *Device) Live() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Released {
			n++
		}
	}
	return n
}

// FailOnce returns a Fail hook that fails the first call to op with err.
func FailOnce(op string, err error) func(string) error {
	fired := false
	return func(got string) error {
		if got == op && !fired {
			fired = true
			return err
		}
		return nil
	}
}

// FailAfter returns a Fail hook that lets n calls to op succeed, then fails
// every later call with err.
func FailAfter(op string, n int, err error) func(string) error {
	calls := 0
	return func(got string) error {
		if got != op {
			return nil
		}
		calls++
		if calls > n {
			return err
		}
		return nil
	}
}

type encoder struct {
	cb       *CommandBuffer
	open     *Pass
	finished bool
}

func (e *encoder) BeginRenderPass(desc gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	if e.finished {
		return nil, fmt.Errorf("gputest: encoder already finished")
	}
	if e.open != nil {
		return nil, fmt.Errorf("gputest: render pass already open")
	}
	p := &Pass{Desc: desc}
	e.open = p
	e.cb.Passes = append(e.cb.Passes, p)
	return &pass{enc: e, p: p}, nil
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	if e.open != nil {
		return nil, fmt.Errorf("gputest: finish with open render pass")
	}
	e.finished = true
	return e.cb, nil
}

type pass struct {
	enc *encoder
	p   *Pass
}

func (p *pass) record(c Command) {
	p.p.Commands = append(p.p.Commands, c)
}

func (p *pass) SetPipeline(pl gpu.RenderPipeline) {
	pp, _ := pl.(*Pipeline)
	p.record(Command{Op: "SetPipeline", Pipeline: pp})
}

func (p *pass) SetBindGroup(index int, group gpu.BindGroup) {
	g, _ := group.(*BindGroup)
	p.record(Command{Op: "SetBindGroup", Index: index, BindGroup: g})
}

func (p *pass) SetVertexBuffer(slot int, buf gpu.Buffer) {
	b, _ := buf.(*Buffer)
	p.record(Command{Op: "SetVertexBuffer", Index: slot, Buffer: b})
}

func (p *pass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	b, _ := buf.(*Buffer)
	p.record(Command{Op: "SetIndexBuffer", Buffer: b, Format: format})
}

func (p *pass) DrawIndexed(indexCount int) {
	p.record(Command{Op: "DrawIndexed", IndexCount: indexCount})
}

func (p *pass) End() error {
	p.p.Ended = true
	p.enc.open = nil
	return nil
}
