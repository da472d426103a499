// Package animation moves scene meshes each frame.
package animation

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/internal/engine/scene"
)

// Wave ripples a grid of meshes along Z while spinning them.
//
// Meshes are taken in scene order and laid out row by row, Columns per row.
// For the i-th mesh, with x = (i mod Columns) * 2 and y = i / Columns:
//
//	w = sin((x + y) * Phase + t * Speed)
//	position.z = w * Amplitude
//	rotation.x = w * Tilt
//	rotation.y += SpinRate * dt
type Wave struct {
	Columns   int
	Phase     float32
	Speed     float32
	Amplitude float32
	Tilt      float32
	SpinRate  float32 // radians per second
}

// DefaultWave returns the demo grid animation.
func DefaultWave(columns int) *Wave {
	return &Wave{
		Columns:   columns,
		Phase:     0.05,
		Speed:     2,
		Amplitude: 15,
		Tilt:      0.3,
		SpinRate:  1.2,
	}
}

// Animate advances every mesh in s to time t, dt seconds after the last call.
func (w *Wave) Animate(s *scene.Scene, t, dt float32) {
	cols := max(w.Columns, 1)
	i := 0
	for _, m := range s.All() {
		x := float32(i%cols) * 2
		y := float32(i / cols)
		i++

		v := math32.Sin((x+y)*w.Phase + t*w.Speed)

		pos := m.Position()
		pos.Z = v * w.Amplitude
		m.SetPosition(pos)

		rot := m.Rotation()
		rot.X = v * w.Tilt
		rot.Y += w.SpinRate * dt
		m.SetRotation(rot)
	}
}
