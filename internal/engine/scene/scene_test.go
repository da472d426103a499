package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/prism/internal/engine/geometry"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/pkg/math"
)

var box = geometry.Box(1, 1, 1)

func TestAddGet(t *testing.T) {
	s := New()
	m := mesh.New(box)
	h := s.Add(m)

	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != m {
		t.Error("Get() returned a different mesh")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestZeroHandleInvalid(t *testing.T) {
	s := New()
	s.Add(mesh.New(box))
	if _, err := s.Get(0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get(0) error = %v, want ErrInvalidHandle", err)
	}
	if _, err := s.Get(Handle(1<<32 | 99)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get(out of range) error = %v, want ErrInvalidHandle", err)
	}
}

func TestRemoveInvalidatesHandle(t *testing.T) {
	s := New()
	a := s.Add(mesh.New(box))
	if err := s.Remove(a); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(a); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get(removed) error = %v, want ErrInvalidHandle", err)
	}
	if err := s.Remove(a); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("second Remove error = %v, want ErrInvalidHandle", err)
	}

	// the slot is reused, the old handle must not alias the new mesh
	m := mesh.New(box)
	b := s.Add(m)
	if b == a {
		t.Fatal("reused slot produced the same handle")
	}
	if _, err := s.Get(a); !errors.Is(err, ErrInvalidHandle) {
		t.Error("stale handle resolved after slot reuse")
	}
	if got, _ := s.Get(b); got != m {
		t.Error("new handle does not resolve to new mesh")
	}
}

func TestRemoveReleasesResources(t *testing.T) {
	dev := gputest.New()
	pl, _ := dev.CreateRenderPipeline(gpu.RenderPipelineDescriptor{})
	u := mesh.NewUploader(dev, pl)

	s := New()
	m := mesh.New(box)
	h := s.Add(m)
	if err := m.EnsureResources(u); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(h); err != nil {
		t.Fatal(err)
	}
	if dev.Live() != 0 {
		t.Errorf("live buffers after Remove = %d, want 0", dev.Live())
	}
}

func TestAllInsertionOrder(t *testing.T) {
	s := New()
	var meshes []*mesh.Mesh
	var handles []Handle
	for i := 0; i < 5; i++ {
		m := mesh.New(box)
		m.SetPosition(math.Vec3{X: float32(i)})
		meshes = append(meshes, m)
		handles = append(handles, s.Add(m))
	}

	// remove 1 and 3, then add one that lands in a freed slot
	if err := s.Remove(handles[1]); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(handles[3]); err != nil {
		t.Fatal(err)
	}
	last := mesh.New(box)
	s.Add(last)

	want := []*mesh.Mesh{meshes[0], meshes[2], meshes[4], last}
	var got []*mesh.Mesh
	for h, m := range s.All() {
		if r, err := s.Get(h); err != nil || r != m {
			t.Errorf("All() yielded handle %v that does not resolve to its mesh", h)
		}
		got = append(got, m)
	}
	if len(got) != len(want) {
		t.Fatalf("All() yielded %d meshes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] is not the expected mesh", i)
		}
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestAllSurvivesCompaction(t *testing.T) {
	s := New()
	var keep []Handle
	for i := 0; i < 100; i++ {
		h := s.Add(mesh.New(box))
		if i%10 == 0 {
			keep = append(keep, h)
			continue
		}
		if err := s.Remove(h); err != nil {
			t.Fatal(err)
		}
	}

	var got []Handle
	for h := range s.All() {
		got = append(got, h)
	}
	if len(got) != len(keep) {
		t.Fatalf("All() yielded %d, want %d", len(got), len(keep))
	}
	for i := range keep {
		if got[i] != keep[i] {
			t.Errorf("All()[%d] = %v, want %v", i, got[i], keep[i])
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		s.Add(mesh.New(box))
	}
	n := 0
	for range s.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times after break, want 1", n)
	}
}

func TestClear(t *testing.T) {
	s := New()
	a := s.Add(mesh.New(box))
	s.Add(mesh.New(box))
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
	if _, err := s.Get(a); !errors.Is(err, ErrInvalidHandle) {
		t.Error("handle still valid after Clear")
	}
	for range s.All() {
		t.Error("All() yielded after Clear")
	}

	b := s.Add(mesh.New(box))
	if _, err := s.Get(b); err != nil {
		t.Errorf("Add after Clear: %v", err)
	}
}

// Mutating one mesh through its handle never changes another.
func TestHandleIsolation(t *testing.T) {
	s := New()
	var handles []Handle
	for i := 0; i < 8; i++ {
		handles = append(handles, s.Add(mesh.New(box)))
	}

	for i, h := range handles {
		m, err := s.Get(h)
		if err != nil {
			t.Fatal(err)
		}
		m.SetPosition(math.Vec3{X: float32(i), Y: float32(i * 2)})
		m.SetScale(math.Vec3{X: float32(i + 1), Y: 1, Z: 1})
	}

	for i, h := range handles {
		m, _ := s.Get(h)
		if m.Position() != (math.Vec3{X: float32(i), Y: float32(i * 2)}) {
			t.Errorf("mesh %d position = %v", i, m.Position())
		}
		if m.Scale().X != float32(i+1) {
			t.Errorf("mesh %d scale = %v", i, m.Scale())
		}
	}
}

func TestAddNilMesh(t *testing.T) {
	s := New()
	s.Add(mesh.New(box))

	h := s.Add(nil)
	if h != 0 {
		t.Errorf("Add(nil) = %v, want zero handle", h)
	}
	if _, err := s.Get(h); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get(Add(nil)) error = %v, want ErrInvalidHandle", err)
	}

	n := 0
	for range s.All() {
		n++
	}
	if s.Len() != 1 || n != 1 {
		t.Errorf("Len() = %d, All() yielded %d, want 1 and 1", s.Len(), n)
	}
}
