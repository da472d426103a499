// Package config handles viewer configuration loading and management.
package config

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/internal/engine"
	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds projection and orbit settings. Angles are in degrees.
type CameraConfig struct {
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`

	Distance    float32 `yaml:"distance"`
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
	MinPolar    float32 `yaml:"min_polar"`
	MaxPolar    float32 `yaml:"max_polar"`

	Damping           float32 `yaml:"damping"`
	RotateSensitivity float32 `yaml:"rotate_sensitivity"`
	ZoomSensitivity   float32 `yaml:"zoom_sensitivity"`
	Parallax          float32 `yaml:"parallax"`
}

// SceneConfig holds the demo scene layout.
type SceneConfig struct {
	ClearColor [4]float64 `yaml:"clear_color"`
	Columns    int        `yaml:"columns"`
	Rows       int        `yaml:"rows"`
	Spacing    float32    `yaml:"spacing"`
	CubeSize   float32    `yaml:"cube_size"`
	Wave       bool       `yaml:"wave"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Prism",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Camera: CameraConfig{
			FOV:               75,
			Near:              0.1,
			Far:               1000,
			Distance:          50,
			MinDistance:       5,
			MaxDistance:       500,
			MinPolar:          18,
			MaxPolar:          162,
			Damping:           3,
			RotateSensitivity: 1,
			ZoomSensitivity:   0.1,
		},
		Scene: SceneConfig{
			ClearColor: [4]float64{0, 0, 0, 1},
			Columns:    10,
			Rows:       10,
			Spacing:    2,
			CubeSize:   1,
			Wave:       true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Engine converts the settings into an engine configuration.
func (c *Config) Engine() engine.Config {
	ec := engine.DefaultConfig()
	ec.FOV = c.Camera.FOV
	ec.Near = c.Camera.Near
	ec.Far = c.Camera.Far

	ctl := &ec.Controls
	ctl.Distance = c.Camera.Distance
	ctl.MinDistance = c.Camera.MinDistance
	ctl.MaxDistance = c.Camera.MaxDistance
	ctl.MinPolar = radians(c.Camera.MinPolar)
	ctl.MaxPolar = radians(c.Camera.MaxPolar)
	ctl.Damping = c.Camera.Damping
	ctl.RotateSensitivity = c.Camera.RotateSensitivity
	ctl.ZoomSensitivity = c.Camera.ZoomSensitivity
	ctl.Parallax = c.Camera.Parallax

	cc := c.Scene.ClearColor
	ec.ClearColor = gpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}
	return ec
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}
