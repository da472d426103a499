package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// target is the offscreen color buffer frames render into before they are
// blitted to the window. Depth comes from the pass's depth texture.
type target struct {
	fbo          uint32
	colorTexture uint32
	width        int32
	height       int32
}

func newTarget(width, height int32) *target {
	t := &target{}
	gl.GenFramebuffers(1, &t.fbo)
	gl.GenTextures(1, &t.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	t.resize(width, height)

	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.colorTexture, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return t
}

// resize reallocates color storage if the size changed.
func (t *target) resize(width, height int32) {
	width, height = max(width, 1), max(height, 1)
	if width == t.width && height == t.height {
		return
	}
	t.width, t.height = width, height
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
}

// bind makes the target current with depth attached and checks completeness.
func (t *target) bind(depth *depthTexture) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	var rbo uint32
	if depth != nil {
		rbo = depth.rbo
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rbo)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	gl.Viewport(0, 0, t.width, t.height)
	return nil
}

// present copies the color buffer to the default framebuffer.
func (t *target) present() {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, t.width, t.height, 0, 0, t.width, t.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (t *target) destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.colorTexture != 0 {
		gl.DeleteTextures(1, &t.colorTexture)
		t.colorTexture = 0
	}
}

// depthTexture is a depth renderbuffer attached by render passes.
type depthTexture struct {
	rbo           uint32
	width, height int
}

func (d *depthTexture) Width() int  { return d.width }
func (d *depthTexture) Height() int { return d.height }

func (d *depthTexture) Release() {
	if d.rbo != 0 {
		gl.DeleteRenderbuffers(1, &d.rbo)
		d.rbo = 0
	}
}
