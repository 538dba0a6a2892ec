// Package config reads the YAML scene files used by the plyinfo command.
//
//	mesh: bunny.ply
//	negate: [y]
//	fit: true
//	policy: preserve
//	color: "#ff8000"
//	texture: skin.png
//	width: 640
//	height: 480
//	backend: noop
package config

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/model"
	"github.com/gogpu/mesh/ply"
)

// maxSize bounds the scene files Load accepts.
const maxSize = 1 << 20

// Defaults for unset fields.
const (
	DefaultWidth   = 512
	DefaultHeight  = 512
	DefaultBackend = "recorder"
)

// Scene describes one mesh to load and how to paint it.
type Scene struct {
	Mesh      string   `yaml:"mesh"`
	Negate    []string `yaml:"negate"`
	Fit       bool     `yaml:"fit"`
	Policy    string   `yaml:"policy"`
	Color     string   `yaml:"color"`
	Shininess *float32 `yaml:"shininess"` // nil keeps the material default
	Texture   string   `yaml:"texture"`
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	Backend   string   `yaml:"backend"`
}

// Load reads the scene file at path. Relative mesh and texture paths are
// resolved against the file's directory.
func Load(path string) (*Scene, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w: %w", mesh.ErrIO, err)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("config: %s is %d bytes: %w", path, info.Size(), mesh.ErrValidation)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w: %w", mesh.ErrIO, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if s.Mesh != "" && !filepath.IsAbs(s.Mesh) {
		s.Mesh = filepath.Join(dir, s.Mesh)
	}
	if s.Texture != "" && !filepath.IsAbs(s.Texture) {
		s.Texture = filepath.Join(dir, s.Texture)
	}
	mesh.Logger().Debug("config: loaded", "path", path, "mesh", s.Mesh)
	return s, nil
}

// Parse decodes a scene, fills in defaults and validates it.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: %w: %w", mesh.ErrParse, err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) applyDefaults() {
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}
	if s.Policy == "" {
		s.Policy = "preserve"
	}
}

// Validate reports the first invalid field.
func (s *Scene) Validate() error {
	if s.Mesh == "" {
		return fmt.Errorf("config: mesh is required: %w", mesh.ErrValidation)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("config: size %dx%d: %w", s.Width, s.Height, mesh.ErrValidation)
	}
	if _, err := s.Flags(); err != nil {
		return err
	}
	if _, err := s.FitPolicy(); err != nil {
		return err
	}
	if _, err := s.MaterialColor(); err != nil {
		return err
	}
	if _, _, err := s.BackendVariant(); err != nil {
		return err
	}
	return nil
}

// Flags converts Negate to load flags.
func (s *Scene) Flags() (ply.Flags, error) {
	var f ply.Flags
	for _, axis := range s.Negate {
		switch strings.ToLower(axis) {
		case "x":
			f |= ply.NegateX
		case "y":
			f |= ply.NegateY
		case "z":
			f |= ply.NegateZ
		default:
			return 0, fmt.Errorf("config: negate axis %q: %w", axis, mesh.ErrValidation)
		}
	}
	return f, nil
}

// FitPolicy converts Policy to a model fit policy.
func (s *Scene) FitPolicy() (model.FitPolicy, error) {
	switch strings.ToLower(s.Policy) {
	case "", "preserve", "preserve-aspect":
		return model.FitPreserveAspect, nil
	case "stretch":
		return model.FitStretch, nil
	default:
		return 0, fmt.Errorf("config: policy %q: %w", s.Policy, mesh.ErrValidation)
	}
}

// MaterialColor parses Color as #rrggbb or #rrggbbaa. Empty is opaque
// white.
func (s *Scene) MaterialColor() (color.NRGBA, error) {
	if s.Color == "" {
		return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s.Color, "#"))
	if err != nil || (len(raw) != 3 && len(raw) != 4) {
		return color.NRGBA{}, fmt.Errorf("config: color %q: %w", s.Color, mesh.ErrValidation)
	}
	c := color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

// BackendVariant maps Backend to a HAL backend. recorder reports false:
// draws are kept in memory and no device is opened.
func (s *Scene) BackendVariant() (gputypes.Backend, bool, error) {
	switch strings.ToLower(s.Backend) {
	case "recorder":
		return 0, false, nil
	case "noop", "empty":
		return gputypes.BackendEmpty, true, nil
	case "vulkan":
		return gputypes.BackendVulkan, true, nil
	case "metal":
		return gputypes.BackendMetal, true, nil
	case "dx12":
		return gputypes.BackendDX12, true, nil
	case "gl":
		return gputypes.BackendGL, true, nil
	default:
		return 0, false, fmt.Errorf("config: backend %q: %w", s.Backend, mesh.ErrValidation)
	}
}
