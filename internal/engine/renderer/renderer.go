// Package renderer draws a scene through a gpu.Device.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/shader"
	"github.com/Faultbox/prism/internal/logger"
)

// ErrNotInitialized is returned by Render on a renderer that has no pipeline,
// either because it was never created with New or because it was closed.
var ErrNotInitialized = errors.New("renderer: not initialized")

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor gpu.Color
	// Shader defaults to shader.Basic.
	Shader gpu.ShaderSource
}

// DefaultClearColor is a dark blue-gray.
var DefaultClearColor = gpu.Color{R: 0.1, G: 0.1, B: 0.15, A: 1}

// Renderer owns the device, the single pipeline and the depth buffer.
type Renderer struct {
	device   gpu.Device
	pipeline gpu.RenderPipeline
	depth    gpu.Texture
	uploader *mesh.Uploader

	clear         gpu.Color
	width, height int
	log           *zap.Logger
}

// New configures the surface and creates the pipeline and depth buffer.
// The renderer takes ownership of device.
func New(device gpu.Device, cfg Config) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Shader == (gpu.ShaderSource{}) {
		cfg.Shader = shader.Basic()
	}

	r := &Renderer{
		device: device,
		clear:  cfg.ClearColor,
		log:    logger.Named("renderer"),
	}

	if err := device.ConfigureSurface(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("configure surface: %w", err)
	}

	pipeline, err := device.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:  "basic",
		Shader: cfg.Shader,
		Layout: geometry.Layout(),
		Uniforms: gpu.UniformBlock{
			Name:    shader.UniformBlockName,
			Group:   mesh.UniformGroup,
			Binding: mesh.UniformBinding,
			Size:    mesh.UniformSize,
		},
		DepthTest:     true,
		CullBackFaces: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	depth, err := device.CreateDepthTexture(cfg.Width, cfg.Height)
	if err != nil {
		pipeline.Release()
		return nil, fmt.Errorf("create depth texture: %w", err)
	}

	r.pipeline = pipeline
	r.depth = depth
	r.width, r.height = cfg.Width, cfg.Height
	r.uploader = mesh.NewUploader(device, pipeline)

	r.log.Info("renderer initialized",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)
	return r, nil
}

// Close releases the pipeline, depth buffer and device. Mesh resources must
// be released first (scene.Clear).
func (r *Renderer) Close() {
	if r.pipeline == nil {
		return
	}
	r.log.Info("closing renderer")
	r.depth.Release()
	r.pipeline.Release()
	r.device.Release()
	r.pipeline = nil
	r.depth = nil
}

// Size returns the current surface size.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// SetClearColor sets the color the frame is cleared to.
func (r *Renderer) SetClearColor(c gpu.Color) {
	r.clear = c
}

// ClearColor returns the current clear color.
func (r *Renderer) ClearColor() gpu.Color {
	return r.clear
}

// Uploader returns the shared geometry uploader.
func (r *Renderer) Uploader() *mesh.Uploader {
	return r.uploader
}

// Resize reconfigures the surface and recreates the depth buffer.
// Non-positive sizes are ignored.
func (r *Renderer) Resize(width, height int) error {
	if r.pipeline == nil {
		return ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	if err := r.device.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	depth, err := r.device.CreateDepthTexture(width, height)
	if err != nil {
		return fmt.Errorf("create depth texture %dx%d: %w", width, height, err)
	}
	r.depth.Release()
	r.depth = depth
	r.width, r.height = width, height

	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// Render draws every visible mesh in scene order inside one depth-tested
// pass and submits the frame once.
//
// If a mesh cannot get its resources the frame is dropped before anything
// is encoded; meshes that already have resources keep them.
func (r *Renderer) Render(s *scene.Scene, cam *camera.Camera) error {
	if r == nil || r.pipeline == nil {
		return ErrNotInitialized
	}

	viewProj := cam.ViewProjection()

	draws := make([]*mesh.Resources, 0, s.Len())
	for h, m := range s.All() {
		if !m.Visible() {
			continue
		}
		if err := m.EnsureResources(r.uploader); err != nil {
			return fmt.Errorf("mesh %s: %w", h, err)
		}
		if err := m.WriteUniforms(viewProj); err != nil {
			return fmt.Errorf("mesh %s uniforms: %w", h, err)
		}
		draws = append(draws, m.Resources())
	}

	enc, err := r.device.CreateCommandEncoder()
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	pass, err := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label:      "main",
		ClearColor: r.clear,
		Depth:      r.depth,
		ClearDepth: 1,
	})
	if err != nil {
		return fmt.Errorf("begin render pass: %w", err)
	}

	pass.SetPipeline(r.pipeline)
	for _, res := range draws {
		pass.SetBindGroup(mesh.UniformGroup, res.BindGroup)
		pass.SetVertexBuffer(0, res.VertexBuffer)
		pass.SetIndexBuffer(res.IndexBuffer, gpu.IndexFormatUint32)
		pass.DrawIndexed(res.IndexCount)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}

	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("finish commands: %w", err)
	}
	if err := r.device.Submit(cmd); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}
