// Package model paints mesh data with a material inside a rectangular
// allocation of the render target.
//
// Mesh coordinates are pixels, with y growing downwards as on screen.
// When fitting is enabled the mesh bounding box is scaled and translated
// onto the allocation instead.
package model

import (
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
	"github.com/gogpu/mesh/material"
	"github.com/gogpu/mesh/ply"
)

// Allocation is the rectangle a model paints into, in pixels.
type Allocation struct {
	X, Y          float32
	Width, Height float32
}

// FitPolicy selects how a mesh is scaled onto its allocation.
type FitPolicy int

const (
	// FitPreserveAspect scales all axes by the same factor so the whole
	// mesh fits, and centers it.
	FitPreserveAspect FitPolicy = iota

	// FitStretch scales X and Y independently so the bounding box fills
	// the allocation exactly.
	FitStretch
)

// String returns the policy name.
func (p FitPolicy) String() string {
	switch p {
	case FitPreserveAspect:
		return "PreserveAspect"
	case FitStretch:
		return "Stretch"
	default:
		return "Unknown"
	}
}

// Model pairs mesh data with a material.
//
// Model is not safe for concurrent use.
type Model struct {
	data     *ply.Data
	material *material.Material
	fit      bool
	policy   FitPolicy
	viewport [2]float32
}

// New creates a model. Without WithData it has empty mesh data.
func New(opts ...Option) *Model {
	m := &Model{}
	for _, opt := range opts {
		opt(m)
	}
	if m.data == nil {
		m.data = ply.NewData()
	}
	return m
}

// NewFromFile creates a model from the PLY file at path.
func NewFromFile(path string, flags ply.Flags, opts ...Option) (*Model, error) {
	d, err := ply.Open(path, flags)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return New(append(opts, WithData(d))...), nil
}

// Data returns the mesh data.
func (m *Model) Data() *ply.Data { return m.data }

// SetData replaces the mesh data. Nil installs empty data.
func (m *Model) SetData(d *ply.Data) {
	if d == nil {
		d = ply.NewData()
	}
	m.data = d
}

// Material returns the material, or nil.
func (m *Model) Material() *material.Material { return m.material }

// SetMaterial replaces the material. Nil paints in opaque white.
func (m *Model) SetMaterial(mat *material.Material) { m.material = mat }

// FitToAllocation reports whether the mesh is scaled to its allocation.
func (m *Model) FitToAllocation() bool { return m.fit }

// SetFitToAllocation enables or disables fitting.
func (m *Model) SetFitToAllocation(fit bool) { m.fit = fit }

// FitPolicy returns the fitting policy.
func (m *Model) FitPolicy() FitPolicy { return m.policy }

// SetFitPolicy sets the fitting policy.
func (m *Model) SetFitPolicy(p FitPolicy) { m.policy = p }

// Transform returns the model matrix for alloc. It is the identity unless
// fitting is enabled and the data has extents.
func (m *Model) Transform(alloc Allocation) f32.Mat4 {
	box, ok := m.data.Extents()
	if !m.fit || !ok {
		return gpu.Identity()
	}
	size := box.Size()
	center := box.Center()

	sx, sy := axisScale(alloc.Width, size.X), axisScale(alloc.Height, size.Y)
	switch {
	case sx == 0 && sy == 0:
		sx, sy = 1, 1
	case sx == 0:
		sx = sy
	case sy == 0:
		sy = sx
	}

	if m.policy == FitStretch {
		sz := (sx + sy) / 2
		return f32.Mat4{
			sx, 0, 0, alloc.X - box.Min.X*sx,
			0, sy, 0, alloc.Y - box.Min.Y*sy,
			0, 0, sz, -center.Z * sz,
			0, 0, 0, 1,
		}
	}
	s := math32.Min(sx, sy)
	return f32.Mat4{
		s, 0, 0, alloc.X + alloc.Width/2 - center.X*s,
		0, s, 0, alloc.Y + alloc.Height/2 - center.Y*s,
		0, 0, s, -center.Z * s,
		0, 0, 0, 1,
	}
}

// axisScale returns extent/size, or 0 for a flat axis.
func axisScale(extent, size float32) float32 {
	if size <= 0 || math32.IsInf(size, 0) {
		return 0
	}
	return extent / size
}

// Projection maps pixels of the viewport to clip space. Depth is mapped
// so a range of the viewport's larger side around z=0 stays visible.
func (m *Model) Projection(alloc Allocation) f32.Mat4 {
	w, h := m.viewport[0], m.viewport[1]
	if w == 0 || h == 0 {
		w, h = alloc.X+alloc.Width, alloc.Y+alloc.Height
	}
	if w <= 0 || h <= 0 {
		return gpu.Identity()
	}
	depth := math32.Max(w, h)
	return f32.Mat4{
		2 / w, 0, 0, -1,
		0, -2 / h, 0, 1,
		0, 0, -1 / (2 * depth), 0.5,
		0, 0, 0, 1,
	}
}

// Paint uploads the material's textures, sets the transform and color
// uniforms and renders the data through b. Painting empty data does
// nothing.
func (m *Model) Paint(b gpu.Backend, alloc Allocation) error {
	if !m.data.Loaded() {
		return nil
	}
	color := [4]float32{1, 1, 1, 1}
	if m.material != nil {
		if err := m.material.Upload(b); err != nil {
			return fmt.Errorf("model: %w", err)
		}
		color = m.material.Premultiplied()
	}
	b.SetUniforms(gpu.Uniforms{
		Transform: mul(m.Projection(alloc), m.Transform(alloc)),
		Color:     color,
	})
	if err := m.data.Render(b); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	mesh.Logger().Debug("model: painted", "fit", m.fit, "policy", m.policy,
		"width", alloc.Width, "height", alloc.Height)
	return nil
}

// mul returns a*b for row-major matrices.
func mul(a, b f32.Mat4) f32.Mat4 {
	var out f32.Mat4
	for r := range 4 {
		for c := range 4 {
			var s float32
			for k := range 4 {
				s += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}
