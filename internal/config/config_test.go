package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/prism/internal/engine/camera"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Camera.FOV != 75 {
		t.Errorf("expected fov 75, got %f", cfg.Camera.FOV)
	}
	if !cfg.Scene.Wave {
		t.Error("expected wave to be enabled by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultEngineMatchesControls(t *testing.T) {
	ec := Default().Engine()
	want := camera.DefaultControlsConfig()

	near := func(a, b float32) bool { return math32.Abs(a-b) < 1e-5 }
	if !near(ec.Controls.MinPolar, want.MinPolar) || !near(ec.Controls.MaxPolar, want.MaxPolar) {
		t.Errorf("polar bounds = [%f, %f], want [%f, %f]",
			ec.Controls.MinPolar, ec.Controls.MaxPolar, want.MinPolar, want.MaxPolar)
	}
	if ec.Controls.Distance != want.Distance || ec.Controls.Damping != want.Damping {
		t.Errorf("distance/damping = %f/%f, want %f/%f",
			ec.Controls.Distance, ec.Controls.Damping, want.Distance, want.Damping)
	}
	if ec.ClearColor.A != 1 || ec.ClearColor.R != 0 {
		t.Errorf("clear color = %+v", ec.ClearColor)
	}
	if ec.FOV != 75 || ec.Near != 0.1 || ec.Far != 1000 {
		t.Errorf("projection = %f %f %f", ec.FOV, ec.Near, ec.Far)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  title: "Cubes"
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

camera:
  fov: 60
  distance: 80
  min_polar: 45
  parallax: 2

scene:
  clear_color: [0.1, 0.2, 0.3, 1]
  columns: 4
  rows: 3
  wave: false

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Title != "Cubes" {
		t.Errorf("expected title Cubes, got %s", cfg.Window.Title)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Camera.FOV != 60 || cfg.Camera.Distance != 80 || cfg.Camera.Parallax != 2 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	// keys absent from the file keep their defaults
	if cfg.Camera.MaxPolar != 162 {
		t.Errorf("expected max polar default 162, got %f", cfg.Camera.MaxPolar)
	}

	if cfg.Scene.ClearColor != [4]float64{0.1, 0.2, 0.3, 1} {
		t.Errorf("clear color = %v", cfg.Scene.ClearColor)
	}
	if cfg.Scene.Columns != 4 || cfg.Scene.Rows != 3 || cfg.Scene.Wave {
		t.Errorf("scene = %+v", cfg.Scene)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}

	ec := cfg.Engine()
	if got, want := ec.Controls.MinPolar, math32.Pi/4; math32.Abs(got-want) > 1e-5 {
		t.Errorf("min polar = %f rad, want %f", got, want)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"negative height", func(c *Config) { c.Window.Height = -1 }},
		{"zero fov", func(c *Config) { c.Camera.FOV = 0 }},
		{"straight fov", func(c *Config) { c.Camera.FOV = 180 }},
		{"zero near", func(c *Config) { c.Camera.Near = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }},
		{"negative grid", func(c *Config) { c.Scene.Rows = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("prism.yaml", []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find prism.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "grid flag",
			setup: func() { *flagGrid = 7 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scene.Columns != 7 || cfg.Scene.Rows != 7 {
					t.Errorf("expected 7x7 grid, got %dx%d", cfg.Scene.Columns, cfg.Scene.Rows)
				}
			},
			teardown: func() { *flagGrid = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// width from flag, height from file
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scene.Columns = 12
	cfg.Camera.Parallax = 1.5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got := Default()
	if err := loadFromFile(got, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Scene.Columns != 12 || got.Camera.Parallax != 1.5 {
		t.Errorf("reloaded scene=%+v camera=%+v", got.Scene, got.Camera)
	}
}

func TestSave(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir is not redirectable on " + runtime.GOOS)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Default().Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ConfigDir(), "config.yaml")); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}
