// Package shader provides the embedded GLSL sources the renderer draws with.
package shader

import (
	_ "embed"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// BasicVertexShader transforms by view_proj * model and forwards
// normal, uv and color.
//
//go:embed glsl/basic.vert
var BasicVertexShader string

// BasicFragmentShader shades vertex color with one fixed directional light.
//
//go:embed glsl/basic.frag
var BasicFragmentShader string

// UniformBlockName is the std140 block holding view_proj then model.
const UniformBlockName = "Uniforms"

// Basic returns the vertex/fragment pair.
func Basic() gpu.ShaderSource {
	return gpu.ShaderSource{Vertex: BasicVertexShader, Fragment: BasicFragmentShader}
}
