package engine

import (
	"errors"
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/scene"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInitialization means no device or surface could be set up.
	ErrInitialization = errors.New("initialization error")
	// ErrResource means a GPU resource could not be created or the device was lost.
	ErrResource = errors.New("resource error")
	// ErrState means the call is invalid in the current state, such as an
	// unknown mesh handle or use of an engine that was never created.
	ErrState = errors.New("state error")
)

// Error is returned by every Engine operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// IsFatal reports whether err ends the session. The host should stop its
// frame loop and Close the engine.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.fatal() {
		return true
	}
	return errors.Is(err, gpu.ErrDeviceLost)
}

func (e *Error) fatal() bool {
	return e.Kind == ErrInitialization || errors.Is(e.Err, gpu.ErrDeviceLost) || errors.Is(e.Err, errResize)
}

var errResize = errors.New("surface reallocation failed")

// wrap classifies err for op. Errors that already carry a kind keep it.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := ErrResource
	if errors.Is(err, scene.ErrInvalidHandle) || errors.Is(err, renderer.ErrNotInitialized) {
		kind = ErrState
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
