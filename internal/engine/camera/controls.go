package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/pkg/math"
)

// PolarEpsilon keeps the polar angle away from the orbit axis,
// where LookAt degenerates.
const PolarEpsilon = 1e-3

// ControlsConfig holds the tuning of the orbital controls.
type ControlsConfig struct {
	Target math.Vec3

	// Initial spherical position. Polar is measured from +Y.
	Azimuth  float32
	Polar    float32
	Distance float32

	MinDistance float32
	MaxDistance float32
	MinPolar    float32
	MaxPolar    float32

	// Damping is the exponential smoothing rate per second. Zero disables smoothing.
	Damping float32

	// RotateSensitivity is turns per viewport-wide drag.
	RotateSensitivity float32
	// ZoomSensitivity scales wheel and pinch deltas into distance.
	ZoomSensitivity float32

	// Parallax shifts the camera by up to half this many units
	// following the hover position. Zero disables it.
	Parallax float32
}

// DefaultControlsConfig returns the stock orbit around the origin.
func DefaultControlsConfig() ControlsConfig {
	return ControlsConfig{
		Azimuth:           0.04 * 2 * math32.Pi,
		Polar:             math32.Pi/2 - 0.1*math32.Pi,
		Distance:          50,
		MinDistance:       5,
		MaxDistance:       500,
		MinPolar:          0.1 * math32.Pi,
		MaxPolar:          0.9 * math32.Pi,
		Damping:           3,
		RotateSensitivity: 1,
		ZoomSensitivity:   0.1,
	}
}

// State is a snapshot of the controls for inspection.
type State struct {
	Theta, Phi, Radius             float32
	GoalTheta, GoalPhi, GoalRadius float32
	Offset                         math.Vec3
	Dragging                       bool
	Touches                        int
}

type touch struct {
	id  int64
	pos math.Vec2
}

// Controls orbits a Camera around a target.
//
// Input only moves the goal angles and distance. Update eases the current
// values toward the goals and writes the resulting position into the camera.
type Controls struct {
	camera *Camera
	cfg    ControlsConfig
	target math.Vec3

	theta, phi, radius             float32
	goalTheta, goalPhi, goalRadius float32
	offset, goalOffset             math.Vec3

	dragging bool
	last     math.Vec2

	touches  []touch
	centroid math.Vec2
	spread   float32

	width, height float32
	enabled       bool
}

// NewControls attaches controls to cam and places it at the configured orbit.
func NewControls(cam *Camera, cfg ControlsConfig) *Controls {
	cfg.MinPolar = max(cfg.MinPolar, 2*PolarEpsilon)
	cfg.MaxPolar = min(cfg.MaxPolar, math32.Pi-2*PolarEpsilon)
	if cfg.MinPolar > cfg.MaxPolar {
		cfg.MinPolar, cfg.MaxPolar = cfg.MaxPolar, cfg.MinPolar
	}
	if cfg.MinDistance > cfg.MaxDistance {
		cfg.MinDistance, cfg.MaxDistance = cfg.MaxDistance, cfg.MinDistance
	}

	c := &Controls{
		camera:    cam,
		cfg:       cfg,
		target:    cfg.Target,
		goalTheta: cfg.Azimuth,
		goalPhi:   cfg.Polar,
		enabled:   true,
		width:     1,
		height:    1,
	}
	c.goalRadius = c.clampRadius(cfg.Distance)
	c.goalPhi = c.clampPhi(c.goalPhi)
	c.snap()
	c.apply()
	return c
}

// Camera returns the driven camera.
func (c *Controls) Camera() *Camera { return c.camera }

// Target returns the orbit center.
func (c *Controls) Target() math.Vec3 { return c.target }

// SetTarget moves the orbit center.
func (c *Controls) SetTarget(t math.Vec3) {
	c.target = t
	c.apply()
}

// SetDistance sets the orbit radius immediately, within bounds.
func (c *Controls) SetDistance(r float32) {
	if !finite(r) {
		return
	}
	c.goalRadius = c.clampRadius(r)
	c.radius = c.goalRadius
	c.apply()
}

// SetAngles sets azimuth and polar angle immediately.
func (c *Controls) SetAngles(theta, phi float32) {
	if !finite(theta) || !finite(phi) {
		return
	}
	c.goalTheta, c.theta = theta, theta
	c.goalPhi = c.clampPhi(phi)
	c.phi = c.goalPhi
	c.apply()
}

// LookFrom places the camera as close to pos as the bounds allow,
// keeping the current target.
func (c *Controls) LookFrom(pos math.Vec3) {
	d := pos.Sub(c.target)
	r := d.Length()
	if !finite(r) {
		return
	}
	if r > 0 {
		c.goalPhi = c.clampPhi(math32.Acos(clamp(d.Y/r, -1, 1)))
		c.goalTheta = math32.Atan2(d.X, d.Z)
	}
	c.goalRadius = c.clampRadius(r)
	c.snap()
	c.apply()
}

// SetViewport sets the size drag deltas are normalized by.
func (c *Controls) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width = float32(width)
	c.height = float32(height)
}

// SetEnabled turns input handling on or off. Disabling ends any drag and
// drops active touches; Update keeps easing toward the last goals.
func (c *Controls) SetEnabled(enabled bool) {
	c.enabled = enabled
	if !enabled {
		c.dragging = false
		c.touches = c.touches[:0]
	}
}

// Enabled reports whether input is handled.
func (c *Controls) Enabled() bool { return c.enabled }

// State returns a snapshot.
func (c *Controls) State() State {
	return State{
		Theta: c.theta, Phi: c.phi, Radius: c.radius,
		GoalTheta: c.goalTheta, GoalPhi: c.goalPhi, GoalRadius: c.goalRadius,
		Offset:   c.offset,
		Dragging: c.dragging,
		Touches:  len(c.touches),
	}
}

// PointerDown starts a drag at (x, y).
func (c *Controls) PointerDown(x, y float32) {
	if !c.enabled || !finite(x) || !finite(y) {
		return
	}
	c.dragging = true
	c.last = math.Vec2{X: x, Y: y}
}

// PointerMove rotates while dragging and always feeds parallax.
func (c *Controls) PointerMove(x, y float32) {
	if !c.enabled || !finite(x) || !finite(y) {
		return
	}
	c.Hover(x, y)
	if !c.dragging {
		return
	}
	p := math.Vec2{X: x, Y: y}
	d := p.Sub(c.last)
	c.last = p
	c.rotate(d.X, d.Y)
}

// PointerUp ends a drag.
func (c *Controls) PointerUp() {
	c.dragging = false
}

// Wheel zooms by delta. Positive deltas move closer.
func (c *Controls) Wheel(delta float32) {
	if !c.enabled {
		return
	}
	c.zoom(delta)
}

// Hover updates the parallax goal from a pointer position.
func (c *Controls) Hover(x, y float32) {
	if !c.enabled || c.cfg.Parallax == 0 || !finite(x) || !finite(y) {
		return
	}
	nx := x/c.width - 0.5
	ny := y/c.height - 0.5
	c.goalOffset = math.Vec3{X: -nx * c.cfg.Parallax, Y: -ny * c.cfg.Parallax}
}

// TouchStart adds or moves touch id.
func (c *Controls) TouchStart(id int64, x, y float32) {
	if !c.enabled || !finite(x) || !finite(y) {
		return
	}
	p := math.Vec2{X: x, Y: y}
	if i := c.touchIndex(id); i >= 0 {
		c.touches[i].pos = p
	} else {
		c.touches = append(c.touches, touch{id: id, pos: p})
	}
	c.anchorTouches()
}

// TouchMove moves touch id. The centroid rotates, the spread zooms.
func (c *Controls) TouchMove(id int64, x, y float32) {
	if !c.enabled || !finite(x) || !finite(y) {
		return
	}
	i := c.touchIndex(id)
	if i < 0 {
		return
	}
	c.touches[i].pos = math.Vec2{X: x, Y: y}

	centroid, spread := c.touchShape()
	d := centroid.Sub(c.centroid)
	c.rotate(d.X, d.Y)
	if len(c.touches) > 1 {
		c.zoom(spread - c.spread)
	}
	c.centroid, c.spread = centroid, spread
}

// TouchEnd removes touch id.
func (c *Controls) TouchEnd(id int64) {
	i := c.touchIndex(id)
	if i < 0 {
		return
	}
	c.touches = append(c.touches[:i], c.touches[i+1:]...)
	c.anchorTouches()
}

// Update eases toward the goals over dt seconds and moves the camera.
func (c *Controls) Update(dt float32) {
	if !(dt > 0) {
		return
	}

	alpha := float32(1)
	if c.cfg.Damping > 0 {
		alpha = 1 - math32.Exp(-c.cfg.Damping*dt)
	}
	if alpha >= 1 || !finite(alpha) {
		c.snap()
	} else {
		c.theta += (c.goalTheta - c.theta) * alpha
		c.phi += (c.goalPhi - c.phi) * alpha
		c.radius += (c.goalRadius - c.radius) * alpha
		c.offset = c.offset.Add(c.goalOffset.Sub(c.offset).Scale(alpha))
	}

	c.phi = c.clampPhi(c.phi)
	c.radius = c.clampRadius(c.radius)
	c.apply()
}

func (c *Controls) rotate(dx, dy float32) {
	if !finite(dx) || !finite(dy) {
		return
	}
	k := 2 * math32.Pi * c.cfg.RotateSensitivity
	c.goalTheta -= dx * k / c.width
	c.goalPhi = c.clampPhi(c.goalPhi - dy*k/c.height)
}

func (c *Controls) zoom(delta float32) {
	if !finite(delta) {
		return
	}
	c.goalRadius = c.clampRadius(c.goalRadius - delta*c.cfg.ZoomSensitivity)
}

func (c *Controls) snap() {
	c.theta, c.phi, c.radius = c.goalTheta, c.goalPhi, c.goalRadius
	c.offset = c.goalOffset
}

func (c *Controls) apply() {
	sinPhi, cosPhi := math32.Sin(c.phi), math32.Cos(c.phi)
	sinTheta, cosTheta := math32.Sin(c.theta), math32.Cos(c.theta)
	dir := math.Vec3{X: sinPhi * sinTheta, Y: cosPhi, Z: sinPhi * cosTheta}

	c.camera.Position = c.target.Add(c.offset).Add(dir.Scale(c.radius))
	c.camera.Target = c.target
}

func (c *Controls) touchIndex(id int64) int {
	for i, t := range c.touches {
		if t.id == id {
			return i
		}
	}
	return -1
}

// anchorTouches resets the reference shape after the touch set changed,
// so adding or lifting a finger never moves the camera.
func (c *Controls) anchorTouches() {
	c.centroid, c.spread = c.touchShape()
}

// touchShape returns the centroid of active touches and their mean
// distance to it.
func (c *Controls) touchShape() (math.Vec2, float32) {
	if len(c.touches) == 0 {
		return math.Vec2{}, 0
	}
	var sum math.Vec2
	for _, t := range c.touches {
		sum = sum.Add(t.pos)
	}
	centroid := sum.Scale(1 / float32(len(c.touches)))

	var spread float32
	for _, t := range c.touches {
		spread += t.pos.Distance(centroid)
	}
	return centroid, spread / float32(len(c.touches))
}

func (c *Controls) clampPhi(phi float32) float32 {
	return clamp(phi, c.cfg.MinPolar, c.cfg.MaxPolar)
}

func (c *Controls) clampRadius(r float32) float32 {
	return clamp(r, c.cfg.MinDistance, c.cfg.MaxDistance)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
