// Package viewer runs the interactive cube-grid demo: it owns the SDL
// window and drives an engine from the frame loop.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine"
	"github.com/Faultbox/prism/internal/engine/animation"
	"github.com/Faultbox/prism/internal/engine/input"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/window"
	"github.com/Faultbox/prism/internal/logger"
)

// Viewer is the running demo.
type Viewer struct {
	config  *config.Config
	running bool
	window  *window.Window
	input   *input.Input
	engine  *engine.Engine
	log     *zap.Logger

	// drawable pixels per window coordinate
	scale  float32
	hidden []scene.Handle
}

// New opens the window and builds the demo scene.
func New(ctx context.Context, cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		config: cfg,
		log:    logger.Named("viewer"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// the engine needs a current GL context, so it comes after the window
	w, h := v.window.DrawableSize()
	v.engine, err = engine.Create(ctx, v.window.Surface(), w, h, cfg.Engine())
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	v.updateScale()

	sc := cfg.Scene
	if _, err := v.engine.AddGrid(sc.Columns, sc.Rows, sc.Spacing, sc.CubeSize); err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to populate scene: %w", err)
	}
	if sc.Wave {
		v.engine.SetAnimator(animation.DefaultWave(sc.Columns))
	}

	ww, wh := v.window.Size()
	v.input = input.New(ww, wh)

	v.log.Info("viewer initialized", zap.Int("meshes", v.engine.MeshCount()))
	return v, nil
}

// Run drives the frame loop until the window closes or the engine fails.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		if err := ctx.Err(); err != nil {
			return nil
		}

		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			break
		}
		for _, event := range v.input.Events() {
			if err := v.handle(event); err != nil {
				return err
			}
		}

		if err := v.engine.Update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		if err := v.engine.Render(); err != nil {
			if engine.IsFatal(err) {
				return fmt.Errorf("render error: %w", err)
			}
			// the next frame retries whatever failed
			v.log.Warn("frame skipped", zap.Error(err))
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handle(event input.Event) error {
	e := v.engine
	x, y := event.X*v.scale, event.Y*v.scale

	switch event.Type {
	case input.EventWindowResize:
		w, h := v.window.DrawableSize()
		if err := e.SetSize(w, h); err != nil {
			return fmt.Errorf("resize error: %w", err)
		}
		v.updateScale()
	case input.EventKeyDown:
		if event.Key == sdl.SCANCODE_ESCAPE {
			v.running = false
		}
	case input.EventMouseDown:
		switch event.Button {
		case sdl.BUTTON_LEFT:
			e.PointerDown(x, y)
		case sdl.BUTTON_RIGHT:
			v.toggle(x, y)
		}
	case input.EventMouseMove:
		e.PointerMove(x, y)
	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT {
			e.PointerUp()
		}
	case input.EventWheel:
		e.Wheel(event.Wheel)
	case input.EventTouchDown:
		e.TouchStart(event.Finger, x, y)
	case input.EventTouchMove:
		e.TouchMove(event.Finger, x, y)
	case input.EventTouchUp:
		e.TouchEnd(event.Finger)
	}
	return nil
}

// toggle hides the mesh under the cursor, or shows every hidden one when
// nothing is hit.
func (v *Viewer) toggle(x, y float32) {
	h, ok, err := v.engine.Pick(x, y)
	if err != nil {
		return
	}
	if ok {
		v.hidden = append(v.hidden, h)
		_ = v.engine.SetMeshVisible(h, false)
		v.log.Debug("mesh hidden", zap.Stringer("mesh", h))
		return
	}
	for _, h := range v.hidden {
		_ = v.engine.SetMeshVisible(h, true)
	}
	v.hidden = v.hidden[:0]
}

func (v *Viewer) updateScale() {
	ww, _ := v.window.Size()
	dw, _ := v.window.DrawableSize()
	v.scale = 1
	if ww > 0 && dw > 0 {
		v.scale = float32(dw) / float32(ww)
	}
}

// Close releases the engine and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.engine != nil {
		if err := v.engine.Err(); err != nil {
			v.log.Warn("engine ended with error", zap.Error(err))
		}
		v.engine.Close()
		v.engine = nil
	}
	if v.window != nil {
		v.window.Close()
		v.window = nil
	}
}
