// Package engine is the boundary a host frame loop drives: it owns the
// scene, the camera with its orbital controls, and the renderer.
//
// An Engine is not safe for concurrent use. Hosts call Update then Render
// once per frame and deliver input on the same goroutine.
package engine

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/picking"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/pkg/math"
)

// SurfaceTarget yields the device an engine renders with.
type SurfaceTarget interface {
	RequestDevice(ctx context.Context) (gpu.Device, error)
}

// Animator moves meshes during Update. t is engine time in seconds.
type Animator interface {
	Animate(s *scene.Scene, t, dt float32)
}

// Config holds engine settings.
type Config struct {
	FOV  float32 // degrees
	Near float32
	Far  float32

	Controls   camera.ControlsConfig
	ClearColor gpu.Color
	// Shader overrides the built-in shader pair.
	Shader gpu.ShaderSource
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{
		FOV:        75,
		Near:       0.1,
		Far:        1000,
		Controls:   camera.DefaultControlsConfig(),
		ClearColor: gpu.Color{A: 1},
	}
}

type shapeKey struct {
	facing  geometry.Facing
	w, h, d float32
	plane   bool
}

// Engine is one rendering session.
type Engine struct {
	renderer *renderer.Renderer
	scene    *scene.Scene
	camera   *camera.Camera
	controls *camera.Controls
	animator Animator

	// shapes of the same size share one geometry, so they upload once
	shapes map[shapeKey]*geometry.Geometry

	time  float32
	fatal error
	log   *zap.Logger
}

// Create acquires a device from target and builds the session.
func Create(ctx context.Context, target SurfaceTarget, width, height int, cfg Config) (*Engine, error) {
	const op = "Create"
	if target == nil {
		return nil, &Error{Op: op, Kind: ErrInitialization, Err: fmt.Errorf("no surface target")}
	}
	if width <= 0 || height <= 0 {
		return nil, &Error{Op: op, Kind: ErrInitialization, Err: fmt.Errorf("invalid size %dx%d", width, height)}
	}

	dev, err := target.RequestDevice(ctx)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrInitialization, Err: fmt.Errorf("request device: %w", err)}
	}

	r, err := renderer.New(dev, renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: cfg.ClearColor,
		Shader:     cfg.Shader,
	})
	if err != nil {
		dev.Release()
		return nil, &Error{Op: op, Kind: ErrInitialization, Err: err}
	}

	cam := camera.New(cfg.FOV, float32(width)/float32(height), cfg.Near, cfg.Far)
	controls := camera.NewControls(cam, cfg.Controls)
	controls.SetViewport(width, height)

	e := &Engine{
		renderer: r,
		scene:    scene.New(),
		camera:   cam,
		controls: controls,
		shapes:   make(map[shapeKey]*geometry.Geometry),
		log:      logger.Named("engine"),
	}
	e.log.Info("engine created",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float32("fov", cfg.FOV),
	)
	return e, nil
}

// ready rejects calls on a zero, closed or dead engine.
func (e *Engine) ready(op string) error {
	if e == nil || e.renderer == nil {
		return &Error{Op: op, Kind: ErrState, Err: renderer.ErrNotInitialized}
	}
	return e.fatal
}

// Close releases every GPU resource. The engine is unusable afterwards.
func (e *Engine) Close() {
	if e == nil || e.renderer == nil {
		return
	}
	e.scene.Clear()
	e.renderer.Close()
	e.renderer = nil
	e.log.Info("engine closed")
}

// Update advances the camera controls and the animator by dt seconds.
func (e *Engine) Update(dt float32) error {
	if err := e.ready("Update"); err != nil {
		return err
	}
	e.controls.Update(dt)
	if !(dt > 0) || math32.IsInf(dt, 1) {
		return nil
	}
	e.time += dt
	if e.animator != nil {
		e.animator.Animate(e.scene, e.time, dt)
	}
	return nil
}

// Render draws one frame. Fatal errors latch: every later call returns
// the same error.
func (e *Engine) Render() error {
	if err := e.ready("Render"); err != nil {
		return err
	}
	err := wrap("Render", e.renderer.Render(e.scene, e.camera))
	if err != nil && IsFatal(err) {
		e.die(err)
	}
	return err
}

// SetSize propagates a surface size to the camera, the controls and the
// renderer. Non-positive sizes are ignored.
func (e *Engine) SetSize(width, height int) error {
	if err := e.ready("SetSize"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	e.camera.SetAspect(width, height)
	e.controls.SetViewport(width, height)

	if err := e.renderer.Resize(width, height); err != nil {
		err = &Error{Op: "SetSize", Kind: ErrResource, Err: fmt.Errorf("%w: %w", errResize, err)}
		e.die(err)
		return err
	}
	e.log.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (e *Engine) die(err error) {
	e.fatal = err
	e.log.Error("engine stopped", zap.Error(err))
}

// AddBox adds a w x h x d box centered at (x, y, z).
func (e *Engine) AddBox(w, h, d, x, y, z float32) (scene.Handle, error) {
	if err := e.ready("AddBox"); err != nil {
		return 0, err
	}
	key := shapeKey{w: w, h: h, d: d}
	g, ok := e.shapes[key]
	if !ok {
		g = geometry.Box(w, h, d)
		e.shapes[key] = g
	}
	return e.add(g, x, y, z), nil
}

// AddPlane adds a w x h plane facing +Z centered at (x, y, z).
func (e *Engine) AddPlane(w, h, x, y, z float32) (scene.Handle, error) {
	return e.AddPlaneFacing(w, h, geometry.FacingPosZ, x, y, z)
}

// AddPlaneFacing adds a plane whose normal is facing.
func (e *Engine) AddPlaneFacing(w, h float32, facing geometry.Facing, x, y, z float32) (scene.Handle, error) {
	if err := e.ready("AddPlane"); err != nil {
		return 0, err
	}
	key := shapeKey{plane: true, facing: facing, w: w, h: h}
	g, ok := e.shapes[key]
	if !ok {
		g = geometry.Plane(w, h, facing)
		e.shapes[key] = g
	}
	return e.add(g, x, y, z), nil
}

func (e *Engine) add(g *geometry.Geometry, x, y, z float32) scene.Handle {
	m := mesh.New(g)
	m.SetPosition(math.Vec3{X: x, Y: y, Z: z})
	return e.scene.Add(m)
}

// AddGrid adds cols x rows cubes of the given size on the XY plane,
// centered on the origin, column by column. X steps by 2*spacing and
// Y by spacing.
func (e *Engine) AddGrid(cols, rows int, spacing, size float32) ([]scene.Handle, error) {
	if err := e.ready("AddGrid"); err != nil {
		return nil, err
	}
	if cols < 0 || rows < 0 {
		return nil, &Error{Op: "AddGrid", Kind: ErrState, Err: fmt.Errorf("negative grid %dx%d", cols, rows)}
	}
	handles := make([]scene.Handle, 0, cols*rows)
	for i := 0; i < cols; i++ {
		for j := 0; j < rows; j++ {
			x := (float32(i) - float32(cols)/2) * spacing * 2
			y := (float32(j) - float32(rows)/2) * spacing
			h, err := e.AddBox(size, size, size, x, y, 0)
			if err != nil {
				return handles, err
			}
			handles = append(handles, h)
		}
	}
	e.log.Info("scene populated",
		zap.Int("columns", cols),
		zap.Int("rows", rows),
		zap.Int("meshes", e.scene.Len()),
	)
	return handles, nil
}

func (e *Engine) mesh(op string, h scene.Handle) (*mesh.Mesh, error) {
	if err := e.ready(op); err != nil {
		return nil, err
	}
	m, err := e.scene.Get(h)
	if err != nil {
		return nil, wrap(op, err)
	}
	return m, nil
}

// SetMeshScale sets the per-axis scale of mesh h.
func (e *Engine) SetMeshScale(h scene.Handle, x, y, z float32) error {
	m, err := e.mesh("SetMeshScale", h)
	if err != nil {
		return err
	}
	m.SetScale(math.Vec3{X: x, Y: y, Z: z})
	return nil
}

// SetMeshPosition moves mesh h.
func (e *Engine) SetMeshPosition(h scene.Handle, x, y, z float32) error {
	m, err := e.mesh("SetMeshPosition", h)
	if err != nil {
		return err
	}
	m.SetPosition(math.Vec3{X: x, Y: y, Z: z})
	return nil
}

// SetMeshRotation sets the Euler XYZ rotation of mesh h in radians.
func (e *Engine) SetMeshRotation(h scene.Handle, x, y, z float32) error {
	m, err := e.mesh("SetMeshRotation", h)
	if err != nil {
		return err
	}
	m.SetRotation(math.Vec3{X: x, Y: y, Z: z})
	return nil
}

// SetMeshVisible shows or hides mesh h.
func (e *Engine) SetMeshVisible(h scene.Handle, visible bool) error {
	m, err := e.mesh("SetMeshVisible", h)
	if err != nil {
		return err
	}
	m.SetVisible(visible)
	return nil
}

// ModelMatrix returns the current model matrix of mesh h.
func (e *Engine) ModelMatrix(h scene.Handle) (math.Mat4, error) {
	m, err := e.mesh("ModelMatrix", h)
	if err != nil {
		return math.Mat4{}, err
	}
	return m.ModelMatrix(), nil
}

// Pick returns the nearest visible mesh under pixel (x, y).
func (e *Engine) Pick(x, y float32) (scene.Handle, bool, error) {
	if err := e.ready("Pick"); err != nil {
		return 0, false, err
	}
	w, h := e.renderer.Size()
	ray := picking.ScreenToRay(x, y, float32(w), float32(h), e.camera.ViewProjection().Inverse())
	handle, _, ok := picking.Pick(e.scene, ray)
	return handle, ok, nil
}

// RemoveMesh drops mesh h and frees its GPU resources.
func (e *Engine) RemoveMesh(h scene.Handle) error {
	if err := e.ready("RemoveMesh"); err != nil {
		return err
	}
	return wrap("RemoveMesh", e.scene.Remove(h))
}

// ClearScene removes every mesh.
func (e *Engine) ClearScene() error {
	if err := e.ready("ClearScene"); err != nil {
		return err
	}
	e.scene.Clear()
	return nil
}

// MeshCount returns how many meshes the scene holds.
func (e *Engine) MeshCount() int {
	if e == nil || e.scene == nil {
		return 0
	}
	return e.scene.Len()
}

// SetCameraPosition moves the camera to (x, y, z), as far as the orbit
// bounds allow, keeping the orbit target.
func (e *Engine) SetCameraPosition(x, y, z float32) error {
	if err := e.ready("SetCameraPosition"); err != nil {
		return err
	}
	e.controls.LookFrom(math.Vec3{X: x, Y: y, Z: z})
	return nil
}

// SetCameraTarget moves the orbit center.
func (e *Engine) SetCameraTarget(x, y, z float32) error {
	if err := e.ready("SetCameraTarget"); err != nil {
		return err
	}
	e.controls.SetTarget(math.Vec3{X: x, Y: y, Z: z})
	return nil
}

// SetClearColor sets the frame clear color.
func (e *Engine) SetClearColor(r, g, b, a float64) error {
	if err := e.ready("SetClearColor"); err != nil {
		return err
	}
	e.renderer.SetClearColor(gpu.Color{R: r, G: g, B: b, A: a})
	return nil
}

// SetAnimator installs the per-frame animator. Nil removes it.
func (e *Engine) SetAnimator(a Animator) {
	if e == nil {
		return
	}
	e.animator = a
}

// Camera returns the camera. Controls overwrite its position every Update.
func (e *Engine) Camera() *camera.Camera {
	if e == nil {
		return nil
	}
	return e.camera
}

// Controls returns the orbital controls.
func (e *Engine) Controls() *camera.Controls {
	if e == nil {
		return nil
	}
	return e.controls
}

// Time returns the seconds accumulated by Update.
func (e *Engine) Time() float32 {
	if e == nil {
		return 0
	}
	return e.time
}

// Err returns the latched fatal error, if any.
func (e *Engine) Err() error {
	if e == nil {
		return nil
	}
	return e.fatal
}
