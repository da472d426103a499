// Package scene stores meshes in a generation-tagged arena.
//
// A Handle names one mesh for as long as it stays in the scene. Removing a
// mesh frees its slot for reuse, and bumps the slot generation so handles
// to the removed mesh stop resolving instead of aliasing the new occupant.
package scene

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Faultbox/prism/internal/engine/mesh"
)

// ErrInvalidHandle is returned for handles that were never issued or whose
// mesh has been removed.
var ErrInvalidHandle = errors.New("scene: invalid handle")

// Handle identifies a mesh in a Scene. The zero Handle is never valid.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

func (h Handle) slot() uint32 { return uint32(h) }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

func (h Handle) String() string {
	return fmt.Sprintf("mesh#%d.%d", h.slot(), h.gen())
}

type entry struct {
	mesh *mesh.Mesh
	gen  uint32
	seq  uint64
}

// ref is one Add in insertion order. It is stale once its slot is emptied
// or taken by a later Add.
type ref struct {
	slot uint32
	seq  uint64
}

// Scene is an ordered collection of meshes.
type Scene struct {
	entries []entry
	free    []uint32
	order   []ref
	seq     uint64
	live    int
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add inserts m and returns its handle. A nil mesh is not stored and
// yields the zero Handle, which never resolves.
func (s *Scene) Add(m *mesh.Mesh) Handle {
	if m == nil {
		return 0
	}
	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		slot = uint32(len(s.entries))
		// generations start at 1 so the zero Handle never resolves
		s.entries = append(s.entries, entry{gen: 1})
	}

	s.seq++
	e := &s.entries[slot]
	e.mesh = m
	e.seq = s.seq
	s.order = append(s.order, ref{slot: slot, seq: s.seq})
	s.live++
	return makeHandle(slot, e.gen)
}

// Get resolves h.
func (s *Scene) Get(h Handle) (*mesh.Mesh, error) {
	e, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	return e.mesh, nil
}

func (s *Scene) lookup(h Handle) (*entry, error) {
	slot := h.slot()
	if int(slot) >= len(s.entries) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	e := &s.entries[slot]
	if e.mesh == nil || e.gen != h.gen() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return e, nil
}

func (s *Scene) current(r ref) bool {
	e := &s.entries[r.slot]
	return e.mesh != nil && e.seq == r.seq
}

// Remove releases the mesh's GPU resources and drops it from the scene.
func (s *Scene) Remove(h Handle) error {
	e, err := s.lookup(h)
	if err != nil {
		return err
	}
	e.mesh.Release()
	e.mesh = nil
	e.gen++
	s.free = append(s.free, h.slot())
	s.live--

	if len(s.order) > 2*s.live+16 {
		s.compact()
	}
	return nil
}

func (s *Scene) compact() {
	kept := s.order[:0]
	for _, r := range s.order {
		if s.current(r) {
			kept = append(kept, r)
		}
	}
	clear(s.order[len(kept):])
	s.order = kept
}

// All yields live meshes in insertion order.
func (s *Scene) All() iter.Seq2[Handle, *mesh.Mesh] {
	return func(yield func(Handle, *mesh.Mesh) bool) {
		for _, r := range s.order {
			if !s.current(r) {
				continue
			}
			e := &s.entries[r.slot]
			if !yield(makeHandle(r.slot, e.gen), e.mesh) {
				return
			}
		}
	}
}

// Len returns the number of live meshes.
func (s *Scene) Len() int {
	return s.live
}

// Clear releases and removes every mesh. Outstanding handles become invalid.
func (s *Scene) Clear() {
	for i := range s.entries {
		e := &s.entries[i]
		if e.mesh == nil {
			continue
		}
		e.mesh.Release()
		e.mesh = nil
		e.gen++
		s.free = append(s.free, uint32(i))
	}
	s.order = s.order[:0]
	s.live = 0
}
