package opengl

import (
	"context"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/logger"
)

// Surface is an OpenGL context owned by the window. Swap presents the
// default framebuffer.
type Surface struct {
	Swap func()
}

// RequestDevice loads the OpenGL function pointers for the current context.
// It must run on the thread that owns the context.
func (s *Surface) RequestDevice(ctx context.Context) (gpu.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Named("opengl").Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return newDevice(s.Swap)
}
