package shader

import (
	"strings"
	"testing"
)

func TestBasicDeclaresLayout(t *testing.T) {
	src := Basic()

	for _, want := range []string{
		"layout(location = 0) in vec3",
		"layout(location = 1) in vec3",
		"layout(location = 2) in vec2",
		"layout(location = 3) in vec3",
		"uniform " + UniformBlockName,
		"mat4 view_proj;",
		"mat4 model;",
	} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex shader missing %q", want)
		}
	}
	if !strings.Contains(src.Fragment, "#version 410") {
		t.Error("fragment shader is not GLSL 410")
	}
}
