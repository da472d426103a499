package engine

// Input is forwarded to the orbital controls as plain state changes. None
// of these render or block, and all are no-ops on a zero Engine.

// PointerDown starts a drag at (x, y).
func (e *Engine) PointerDown(x, y float32) {
	if e.controls != nil {
		e.controls.PointerDown(x, y)
	}
}

// PointerMove continues a drag and updates the hover position.
func (e *Engine) PointerMove(x, y float32) {
	if e.controls != nil {
		e.controls.PointerMove(x, y)
	}
}

// PointerUp ends a drag.
func (e *Engine) PointerUp() {
	if e.controls != nil {
		e.controls.PointerUp()
	}
}

// Wheel zooms; positive deltas move closer.
func (e *Engine) Wheel(delta float32) {
	if e.controls != nil {
		e.controls.Wheel(delta)
	}
}

// Hover feeds the parallax offset.
func (e *Engine) Hover(x, y float32) {
	if e.controls != nil {
		e.controls.Hover(x, y)
	}
}

// TouchStart registers finger id at (x, y).
func (e *Engine) TouchStart(id int64, x, y float32) {
	if e.controls != nil {
		e.controls.TouchStart(id, x, y)
	}
}

// TouchMove moves finger id; one finger orbits, two pinch and pan.
func (e *Engine) TouchMove(id int64, x, y float32) {
	if e.controls != nil {
		e.controls.TouchMove(id, x, y)
	}
}

// TouchEnd lifts finger id.
func (e *Engine) TouchEnd(id int64) {
	if e.controls != nil {
		e.controls.TouchEnd(id)
	}
}
