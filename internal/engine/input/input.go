// Package input translates SDL2 events into engine input.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventWheel
	EventTouchDown
	EventTouchMove
	EventTouchUp
)

// Event represents a processed input event. Positions are in window
// coordinates for both mouse and touch.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	X, Y   float32
	Button uint8
	Wheel  float32
	Finger int64
}

// Input handles all input processing.
type Input struct {
	events []Event
	// touch coordinates arrive normalized; scale them by the window size
	width, height float32
}

// New creates a new input handler for a window of the given size.
func New(width, height int) *Input {
	return &Input{
		events: make([]Event, 0, 16),
		width:  float32(width),
		height: float32(height),
	}
}

// Update polls SDL events and converts them.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.width, i.height = float32(e.Data1), float32(e.Data2)
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			typ := EventKeyUp
			if e.Type == sdl.KEYDOWN {
				typ = EventKeyDown
			}
			i.events = append(i.events, Event{Type: typ, Key: e.Keysym.Scancode})

		case *sdl.MouseMotionEvent:
			// touch devices also synthesize mouse events
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			i.events = append(i.events, Event{
				Type: EventMouseMove,
				X:    float32(e.X),
				Y:    float32(e.Y),
			})

		case *sdl.MouseButtonEvent:
			if e.Which == sdl.TOUCH_MOUSEID {
				continue
			}
			typ := EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				typ = EventMouseDown
			}
			i.events = append(i.events, Event{
				Type:   typ,
				X:      float32(e.X),
				Y:      float32(e.Y),
				Button: e.Button,
			})

		case *sdl.MouseWheelEvent:
			dy := e.PreciseY
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				dy = -dy
			}
			i.events = append(i.events, Event{Type: EventWheel, Wheel: dy})

		case *sdl.TouchFingerEvent:
			var typ EventType
			switch e.Type {
			case sdl.FINGERDOWN:
				typ = EventTouchDown
			case sdl.FINGERMOTION:
				typ = EventTouchMove
			case sdl.FINGERUP:
				typ = EventTouchUp
			default:
				continue
			}
			i.events = append(i.events, Event{
				Type:   typ,
				X:      e.X * i.width,
				Y:      e.Y * i.height,
				Finger: int64(e.FingerID),
			})
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
