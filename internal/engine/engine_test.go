package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/Faultbox/prism/internal/engine/animation"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/pkg/math"
)

func newEngine(t *testing.T) (*gputest.Device, *Engine) {
	t.Helper()
	dev := gputest.New()
	e, err := Create(context.Background(), dev, 800, 600, DefaultConfig())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	t.Cleanup(e.Close)
	return dev, e
}

func TestCreateFailures(t *testing.T) {
	ctx := context.Background()

	if _, err := Create(ctx, nil, 800, 600, DefaultConfig()); !errors.Is(err, ErrInitialization) {
		t.Errorf("nil target error = %v, want ErrInitialization", err)
	}
	if _, err := Create(ctx, gputest.New(), 0, 600, DefaultConfig()); !errors.Is(err, ErrInitialization) {
		t.Errorf("zero width error = %v, want ErrInitialization", err)
	}

	noAdapter := errors.New("no compatible adapter")
	dev := gputest.New()
	dev.Fail = gputest.FailOnce("RequestDevice", noAdapter)
	_, err := Create(ctx, dev, 800, 600, DefaultConfig())
	if !errors.Is(err, ErrInitialization) || !errors.Is(err, noAdapter) {
		t.Errorf("request failure error = %v, want ErrInitialization wrapping cause", err)
	}

	dev = gputest.New()
	dev.Fail = gputest.FailOnce("CreateRenderPipeline", gpu.ErrOutOfMemory)
	if _, err := Create(ctx, dev, 800, 600, DefaultConfig()); !errors.Is(err, ErrInitialization) {
		t.Errorf("pipeline failure error = %v, want ErrInitialization", err)
	}
	if !dev.Released {
		t.Error("device not released after failed Create")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Create(cancelled, gputest.New(), 800, 600, DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Create error = %v, want context.Canceled", err)
	}
}

func TestZeroEngineIsStateError(t *testing.T) {
	var e Engine
	if err := e.Render(); !errors.Is(err, ErrState) {
		t.Errorf("Render() error = %v, want ErrState", err)
	}
	if err := e.Update(0.016); !errors.Is(err, ErrState) {
		t.Errorf("Update() error = %v, want ErrState", err)
	}
	if _, err := e.AddBox(1, 1, 1, 0, 0, 0); !errors.Is(err, ErrState) {
		t.Errorf("AddBox() error = %v, want ErrState", err)
	}
	// input is a no-op
	e.PointerDown(1, 1)
	e.Wheel(3)

	var nilEngine *Engine
	if err := nilEngine.Render(); !errors.Is(err, ErrState) {
		t.Errorf("nil Render() error = %v, want ErrState", err)
	}
	if nilEngine.MeshCount() != 0 {
		t.Error("nil engine reported meshes")
	}
}

func TestAddGridRejectsNegativeSize(t *testing.T) {
	_, e := newEngine(t)

	tests := []struct {
		name       string
		cols, rows int
	}{
		{"negative columns", -1, 3},
		{"negative rows", 3, -1},
		{"both negative", -2, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handles, err := e.AddGrid(tt.cols, tt.rows, 2, 1)
			if !errors.Is(err, ErrState) {
				t.Errorf("AddGrid(%d, %d) error = %v, want ErrState", tt.cols, tt.rows, err)
			}
			if handles != nil {
				t.Errorf("AddGrid(%d, %d) returned %d handles", tt.cols, tt.rows, len(handles))
			}
		})
	}
	if e.MeshCount() != 0 {
		t.Errorf("MeshCount() = %d after rejected grids, want 0", e.MeshCount())
	}

	if handles, err := e.AddGrid(0, 5, 2, 1); err != nil || len(handles) != 0 {
		t.Errorf("AddGrid(0, 5) = %d handles, %v, want empty", len(handles), err)
	}
}

func TestRenderAfterCloseIsStateError(t *testing.T) {
	_, e := newEngine(t)
	e.Close()
	if err := e.Render(); !errors.Is(err, ErrState) {
		t.Errorf("Render() after Close error = %v, want ErrState", err)
	}
}

func TestAddAndRender(t *testing.T) {
	dev, e := newEngine(t)

	if _, err := e.AddBox(1, 1, 1, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddBox(1, 1, 1, 2, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddPlane(10, 10, 0, -1, 0); err != nil {
		t.Fatal(err)
	}
	if e.MeshCount() != 3 {
		t.Errorf("MeshCount() = %d, want 3", e.MeshCount())
	}

	if err := e.Update(0.016); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}

	draws := dev.LastFrame().Passes[0].Draws()
	if len(draws) != 3 {
		t.Fatalf("draws = %d, want 3", len(draws))
	}
	// equal boxes share one geometry, the plane has its own
	if n := len(dev.BuffersWith(gpu.BufferUsageVertex)); n != 2 {
		t.Errorf("vertex buffers = %d, want 2", n)
	}
	if draws[2].IndexCount != 6 {
		t.Errorf("plane index count = %d, want 6", draws[2].IndexCount)
	}
}

// Transform setters on one handle leave every other model matrix bit-identical.
func TestSettersIsolateHandles(t *testing.T) {
	_, e := newEngine(t)
	handles, err := e.AddGrid(4, 3, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	setters := []func(scene.Handle) error{
		func(h scene.Handle) error { return e.SetMeshPosition(h, 3, -2, 9) },
		func(h scene.Handle) error { return e.SetMeshRotation(h, 0.3, 1.1, -0.5) },
		func(h scene.Handle) error { return e.SetMeshScale(h, 2, 0.5, 4) },
	}

	for i, target := range handles {
		before := matrices(t, e, handles)
		for _, set := range setters {
			if err := set(target); err != nil {
				t.Fatal(err)
			}
		}
		after := matrices(t, e, handles)

		for j := range handles {
			if j == i {
				if after[j] == before[j] {
					t.Errorf("handle %d: matrix unchanged by its own setters", i)
				}
				continue
			}
			if after[j] != before[j] {
				t.Errorf("setting handle %d changed handle %d", i, j)
			}
		}
	}
}

func TestInvalidHandleIsStateError(t *testing.T) {
	_, e := newEngine(t)
	h, err := e.AddBox(1, 1, 1, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveMesh(h); err != nil {
		t.Fatal(err)
	}

	checks := map[string]error{
		"SetMeshScale":    e.SetMeshScale(h, 1, 1, 1),
		"SetMeshPosition": e.SetMeshPosition(h, 1, 1, 1),
		"SetMeshRotation": e.SetMeshRotation(h, 1, 1, 1),
		"SetMeshVisible":  e.SetMeshVisible(h, false),
		"RemoveMesh":      e.RemoveMesh(h),
		"never issued":    e.SetMeshPosition(scene.Handle(12345), 0, 0, 0),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrState) {
			t.Errorf("%s error = %v, want ErrState", name, err)
		}
		if !errors.Is(err, scene.ErrInvalidHandle) {
			t.Errorf("%s error = %v, want cause ErrInvalidHandle", name, err)
		}
		if IsFatal(err) {
			t.Errorf("%s: invalid handle must not be fatal", name)
		}
	}
	if _, err := e.ModelMatrix(h); !errors.Is(err, ErrState) {
		t.Errorf("ModelMatrix error = %v, want ErrState", err)
	}
}

func TestSetSizeUpdatesAspect(t *testing.T) {
	dev, e := newEngine(t)

	if err := e.SetSize(800, 600); err != nil {
		t.Fatal(err)
	}
	before := e.Camera().ProjectionMatrix()
	if e.Camera().Aspect != float32(800)/600 {
		t.Errorf("Aspect = %f, want %f", e.Camera().Aspect, float32(800)/600)
	}

	if err := e.SetSize(1600, 600); err != nil {
		t.Fatal(err)
	}
	after := e.Camera().ProjectionMatrix()
	if e.Camera().Aspect != float32(1600)/600 {
		t.Errorf("Aspect = %f, want %f", e.Camera().Aspect, float32(1600)/600)
	}
	if before[0] == after[0] {
		t.Error("projection[0] unchanged")
	}
	for i := 1; i < 16; i++ {
		if before[i] != after[i] {
			t.Errorf("projection[%d] changed", i)
		}
	}
	if dev.SurfaceWidth != 1600 || dev.SurfaceHeight != 600 {
		t.Errorf("surface = %dx%d, want 1600x600", dev.SurfaceWidth, dev.SurfaceHeight)
	}

	if err := e.SetSize(0, 0); err != nil {
		t.Errorf("SetSize(0, 0) error: %v", err)
	}
	if e.Camera().Aspect != float32(1600)/600 {
		t.Error("SetSize(0, 0) changed aspect")
	}
}

func TestResizeFailureIsFatal(t *testing.T) {
	dev, e := newEngine(t)
	dev.Fail = gputest.FailOnce("CreateDepthTexture", gpu.ErrOutOfMemory)

	err := e.SetSize(1024, 768)
	if !errors.Is(err, ErrResource) || !IsFatal(err) {
		t.Fatalf("SetSize() error = %v, want fatal ErrResource", err)
	}
	if err := e.Render(); !errors.Is(err, ErrResource) {
		t.Errorf("Render() after fatal resize = %v, want latched error", err)
	}
	if e.Err() == nil {
		t.Error("Err() = nil after fatal resize")
	}
}

func TestTransientRenderErrorRecovers(t *testing.T) {
	dev, e := newEngine(t)
	if _, err := e.AddBox(1, 1, 1, 0, 0, 0); err != nil {
		t.Fatal(err)
	}

	dev.Fail = gputest.FailOnce("CreateBindGroup", gpu.ErrOutOfMemory)
	err := e.Render()
	if !errors.Is(err, ErrResource) || !errors.Is(err, gpu.ErrOutOfMemory) {
		t.Fatalf("Render() error = %v, want ErrResource wrapping ErrOutOfMemory", err)
	}
	if IsFatal(err) {
		t.Error("out of memory must not be fatal")
	}

	if err := e.Render(); err != nil {
		t.Errorf("next Render() error: %v", err)
	}
	if len(dev.Submitted) != 1 {
		t.Errorf("submissions = %d, want 1", len(dev.Submitted))
	}
}

func TestDeviceLostLatches(t *testing.T) {
	dev, e := newEngine(t)
	if _, err := e.AddBox(1, 1, 1, 0, 0, 0); err != nil {
		t.Fatal(err)
	}

	dev.Lost = true
	err := e.Render()
	if !errors.Is(err, gpu.ErrDeviceLost) || !IsFatal(err) {
		t.Fatalf("Render() error = %v, want fatal ErrDeviceLost", err)
	}

	dev.Lost = false
	if err := e.Render(); !errors.Is(err, gpu.ErrDeviceLost) {
		t.Errorf("Render() after device loss = %v, want latched error", err)
	}
	if err := e.Update(0.016); !IsFatal(err) {
		t.Errorf("Update() after device loss = %v, want fatal", err)
	}
	if len(dev.Submitted) != 0 {
		t.Error("frame submitted after device loss")
	}
}

func TestUpdateDrivesCameraAndAnimator(t *testing.T) {
	_, e := newEngine(t)
	if _, err := e.AddGrid(10, 10, 1, 1); err != nil {
		t.Fatal(err)
	}
	e.SetAnimator(animation.DefaultWave(10))

	e.PointerDown(400, 300)
	e.PointerMove(500, 300)
	e.PointerUp()
	pos := e.Camera().Position

	for i := 0; i < 10; i++ {
		if err := e.Update(0.016); err != nil {
			t.Fatal(err)
		}
	}
	if e.Camera().Position == pos {
		t.Error("camera did not move after drag and Update")
	}
	if got := e.Time(); got < 0.159 || got > 0.161 {
		t.Errorf("Time() = %f, want 0.16", got)
	}

	for h, m := range e.scene.All() {
		if m.Rotation().Y == 0 {
			t.Errorf("animator did not spin mesh %s", h)
			break
		}
	}

	if err := e.Update(0); err != nil {
		t.Fatal(err)
	}
	if got := e.Time(); got < 0.159 || got > 0.161 {
		t.Errorf("Update(0) advanced time to %f", got)
	}
}

func TestSetCameraPosition(t *testing.T) {
	_, e := newEngine(t)
	if err := e.SetCameraPosition(0, 10, 30); err != nil {
		t.Fatal(err)
	}
	p := e.Camera().Position
	want := math.Vec3{Y: 10, Z: 30}
	if p.Distance(want) > 1e-3 {
		t.Errorf("camera at %v, want %v", p, want)
	}
	// the next Update keeps it there
	if err := e.Update(0.5); err != nil {
		t.Fatal(err)
	}
	if e.Camera().Position.Distance(want) > 1e-3 {
		t.Errorf("camera drifted to %v", e.Camera().Position)
	}
}

func TestClearColorAndScene(t *testing.T) {
	dev, e := newEngine(t)
	if _, err := e.AddGrid(2, 2, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.SetClearColor(0.2, 0.3, 0.4, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	want := gpu.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}
	if got := dev.LastFrame().Passes[0].Desc.ClearColor; got != want {
		t.Errorf("clear color = %+v, want %+v", got, want)
	}

	if err := e.ClearScene(); err != nil {
		t.Fatal(err)
	}
	if e.MeshCount() != 0 {
		t.Errorf("MeshCount() after ClearScene = %d", e.MeshCount())
	}
	if dev.Live() != 0 {
		t.Errorf("live buffers after ClearScene = %d, want 0", dev.Live())
	}
}

func TestHiddenMeshNotDrawn(t *testing.T) {
	dev, e := newEngine(t)
	a, _ := e.AddBox(1, 1, 1, 0, 0, 0)
	if _, err := e.AddBox(1, 1, 1, 3, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.SetMeshVisible(a, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if n := len(dev.LastFrame().Passes[0].Draws()); n != 1 {
		t.Errorf("draws = %d, want 1", n)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	dev, e := newEngine(t)
	if _, err := e.AddGrid(3, 3, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := e.Render(); err != nil {
		t.Fatal(err)
	}
	e.Close()
	if dev.Live() != 0 {
		t.Errorf("live buffers after Close = %d", dev.Live())
	}
	if !dev.Released {
		t.Error("device not released")
	}
}

func matrices(t *testing.T, e *Engine, handles []scene.Handle) []math.Mat4 {
	t.Helper()
	out := make([]math.Mat4, len(handles))
	for i, h := range handles {
		m, err := e.ModelMatrix(h)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = m
	}
	return out
}

func TestPick(t *testing.T) {
	_, e := newEngine(t)
	if err := e.SetCameraPosition(0, 0, 20); err != nil {
		t.Fatalf("SetCameraPosition() error: %v", err)
	}

	far, _ := e.AddBox(2, 2, 2, 0, 0, 0)
	near, _ := e.AddBox(2, 2, 2, 0, 0, 5)
	if _, err := e.AddBox(2, 2, 2, 30, 0, 0); err != nil {
		t.Fatalf("AddBox() error: %v", err)
	}

	h, ok, err := e.Pick(400, 300)
	if err != nil || !ok {
		t.Fatalf("Pick(center) = %v, %v, %v", h, ok, err)
	}
	if h != near {
		t.Errorf("Pick(center) = %v, want nearest %v", h, near)
	}

	_ = e.SetMeshVisible(near, false)
	if h, ok, _ := e.Pick(400, 300); !ok || h != far {
		t.Errorf("Pick(center) with near hidden = %v, %v, want %v", h, ok, far)
	}

	if _, ok, _ := e.Pick(5, 5); ok {
		t.Error("Pick(corner) hit a mesh")
	}

	var zero Engine
	if _, _, err := zero.Pick(0, 0); !errors.Is(err, ErrState) {
		t.Errorf("zero engine Pick error = %v, want ErrState", err)
	}
}
