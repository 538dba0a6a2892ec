// Package material describes how a mesh surface is colored: a base color,
// a specular shininess and an ordered list of texture layers.
package material

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
	"github.com/gogpu/mesh/texture"
)

// MaxLayers is the number of texture layers a material can hold.
const MaxLayers = 8

// DefaultShininess is the specular exponent of a new material.
const DefaultShininess = 30

// ErrLayer is returned for a layer index outside 0..MaxLayers-1.
var ErrLayer = fmt.Errorf("material: layer index out of range: %w", mesh.ErrArgument)

// Material is the surface description shared by one or more models.
//
// Material is not safe for concurrent mutation.
type Material struct {
	name      string
	color     color.NRGBA
	shininess float32
	layers    []*texture.Texture
}

// Option configures a Material during creation.
type Option func(*Material)

// WithName sets the label used for GPU uploads.
func WithName(name string) Option {
	return func(m *Material) {
		m.name = name
	}
}

// WithColor sets the straight-alpha base color.
func WithColor(c color.NRGBA) Option {
	return func(m *Material) {
		m.color = c
	}
}

// WithShininess sets the specular exponent.
func WithShininess(s float32) Option {
	return func(m *Material) {
		m.shininess = max(s, 0)
	}
}

// WithLayer appends a texture layer.
func WithLayer(t *texture.Texture) Option {
	return func(m *Material) {
		if t != nil && len(m.layers) < MaxLayers {
			m.layers = append(m.layers, t)
		}
	}
}

// New creates an opaque white material.
func New(opts ...Option) *Material {
	m := &Material{
		name:      "material",
		color:     color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		shininess: DefaultShininess,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the upload label.
func (m *Material) Name() string { return m.name }

// Color returns the base color.
func (m *Material) Color() color.NRGBA { return m.color }

// SetColor sets the base color.
func (m *Material) SetColor(c color.NRGBA) { m.color = c }

// Shininess returns the specular exponent.
func (m *Material) Shininess() float32 { return m.shininess }

// SetShininess sets the specular exponent. Negative values are clamped
// to 0.
func (m *Material) SetShininess(s float32) { m.shininess = max(s, 0) }

// Premultiplied returns the base color as premultiplied floats in 0..1,
// the form the shader uniform expects.
func (m *Material) Premultiplied() [4]float32 {
	a := float32(m.color.A) / 255
	return [4]float32{
		float32(m.color.R) / 255 * a,
		float32(m.color.G) / 255 * a,
		float32(m.color.B) / 255 * a,
		a,
	}
}

// Layers returns the texture layers in order.
func (m *Material) Layers() []*texture.Texture { return slices.Clone(m.layers) }

// Layer returns layer i, or nil when unset.
func (m *Material) Layer(i int) *texture.Texture {
	if i < 0 || i >= len(m.layers) {
		return nil
	}
	return m.layers[i]
}

// SetLayer sets layer i. Layers below i that are unset stay nil; a nil
// texture removes layer i and any trailing empty layers.
func (m *Material) SetLayer(i int, t *texture.Texture) error {
	if i < 0 || i >= MaxLayers {
		return fmt.Errorf("%w: %d", ErrLayer, i)
	}
	if t == nil {
		if i < len(m.layers) {
			m.layers[i] = nil
		}
		for len(m.layers) > 0 && m.layers[len(m.layers)-1] == nil {
			m.layers = m.layers[:len(m.layers)-1]
		}
		return nil
	}
	for len(m.layers) <= i {
		m.layers = append(m.layers, nil)
	}
	m.layers[i] = t
	return nil
}

// Dup returns a copy sharing the same textures.
func (m *Material) Dup() *Material {
	c := *m
	c.layers = slices.Clone(m.layers)
	return &c
}

// Upload sends every changed texture layer to b, labelled
// "<name>/layer<i>".
func (m *Material) Upload(b gpu.Backend) error {
	for i, t := range m.layers {
		if t == nil {
			continue
		}
		if err := t.Upload(b, fmt.Sprintf("%s/layer%d", m.name, i)); err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
	}
	return nil
}
