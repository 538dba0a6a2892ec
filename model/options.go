package model

import (
	"github.com/gogpu/mesh/material"
	"github.com/gogpu/mesh/ply"
)

// Option configures a Model during creation.
//
// Example:
//
//	m, err := model.NewFromFile("bunny.ply", ply.NegateY,
//	    model.WithFitToAllocation(true),
//	    model.WithFitPolicy(model.FitStretch))
type Option func(*Model)

// WithData sets the mesh data.
func WithData(d *ply.Data) Option {
	return func(m *Model) {
		m.data = d
	}
}

// WithMaterial sets the material.
func WithMaterial(mat *material.Material) Option {
	return func(m *Model) {
		m.material = mat
	}
}

// WithFitToAllocation makes Paint scale the mesh to its allocation.
func WithFitToAllocation(fit bool) Option {
	return func(m *Model) {
		m.fit = fit
	}
}

// WithFitPolicy selects how the mesh is scaled when fitting.
func WithFitPolicy(p FitPolicy) Option {
	return func(m *Model) {
		m.policy = p
	}
}

// WithViewport sets the size of the render target in pixels. Without it
// the viewport ends at the allocation's bottom-right corner.
func WithViewport(width, height float32) Option {
	return func(m *Model) {
		if width > 0 && height > 0 {
			m.viewport = [2]float32{width, height}
		}
	}
}
