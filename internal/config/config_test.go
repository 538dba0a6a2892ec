package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/model"
	"github.com/gogpu/mesh/ply"
)

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("mesh: cube.ply\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Width != DefaultWidth || s.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", s.Width, s.Height, DefaultWidth, DefaultHeight)
	}
	if s.Backend != DefaultBackend {
		t.Errorf("Backend = %q, want %q", s.Backend, DefaultBackend)
	}
	if p, _ := s.FitPolicy(); p != model.FitPreserveAspect {
		t.Errorf("FitPolicy() = %v, want PreserveAspect", p)
	}
	if s.Shininess != nil {
		t.Errorf("Shininess = %v, want nil", *s.Shininess)
	}
}

func TestParseFull(t *testing.T) {
	src := `
mesh: bunny.ply
negate: [x, Z]
fit: true
policy: stretch
color: "#ff800080"
shininess: 12
width: 320
height: 200
backend: noop
`
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f, _ := s.Flags(); f != ply.NegateX|ply.NegateZ {
		t.Errorf("Flags() = %v, want NegateX|NegateZ", f)
	}
	if p, _ := s.FitPolicy(); p != model.FitStretch {
		t.Errorf("FitPolicy() = %v, want Stretch", p)
	}
	if c, _ := s.MaterialColor(); c != (color.NRGBA{R: 0xFF, G: 0x80, B: 0, A: 0x80}) {
		t.Errorf("MaterialColor() = %v", c)
	}
	if s.Shininess == nil || *s.Shininess != 12 {
		t.Errorf("Shininess = %v, want 12", s.Shininess)
	}
	v, hal, err := s.BackendVariant()
	if err != nil || !hal || v != gputypes.BackendEmpty {
		t.Errorf("BackendVariant() = %v, %v, %v", v, hal, err)
	}
	if !s.Fit || s.Width != 320 || s.Height != 200 {
		t.Errorf("scene = %+v", s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"bad yaml", "mesh: [unclosed", mesh.ErrParse},
		{"no mesh", "fit: true\n", mesh.ErrValidation},
		{"bad axis", "mesh: a.ply\nnegate: [w]\n", mesh.ErrValidation},
		{"bad policy", "mesh: a.ply\npolicy: squash\n", mesh.ErrValidation},
		{"bad color", "mesh: a.ply\ncolor: '#12'\n", mesh.ErrValidation},
		{"bad backend", "mesh: a.ply\nbackend: glide\n", mesh.ErrValidation},
		{"negative size", "mesh: a.ply\nwidth: -1\n", mesh.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte("mesh: cube.ply\ntexture: skin.png\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Mesh != filepath.Join(dir, "cube.ply") {
		t.Errorf("Mesh = %q", s.Mesh)
	}
	if s.Texture != filepath.Join(dir, "skin.png") {
		t.Errorf("Texture = %q", s.Texture)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.Is(err, mesh.ErrIO) {
		t.Errorf("Load() error = %v, want ErrIO", err)
	}
}
