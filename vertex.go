package mesh

import "github.com/chewxy/math32"

// Vertex is a point in 3D model space.
type Vertex struct {
	X, Y, Z float32
}

// V3 is a convenience function to create a Vertex.
func V3(x, y, z float32) Vertex {
	return Vertex{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum of two vertices.
func (v Vertex) Add(w Vertex) Vertex {
	return Vertex{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the component-wise difference of two vertices.
func (v Vertex) Sub(w Vertex) Vertex {
	return Vertex{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vertex scaled by s.
func (v Vertex) Mul(s float32) Vertex {
	return Vertex{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Min returns the component-wise minimum of two vertices.
func (v Vertex) Min(w Vertex) Vertex {
	return Vertex{X: math32.Min(v.X, w.X), Y: math32.Min(v.Y, w.Y), Z: math32.Min(v.Z, w.Z)}
}

// Max returns the component-wise maximum of two vertices.
func (v Vertex) Max(w Vertex) Vertex {
	return Vertex{X: math32.Max(v.X, w.X), Y: math32.Max(v.Y, w.Y), Z: math32.Max(v.Z, w.Z)}
}

// ApproxEqual reports whether every component of v and w differs by at
// most eps.
func (v Vertex) ApproxEqual(w Vertex, eps float32) bool {
	return math32.Abs(v.X-w.X) <= eps &&
		math32.Abs(v.Y-w.Y) <= eps &&
		math32.Abs(v.Z-w.Z) <= eps
}

// Box is an axis-aligned bounding box. For a non-empty box Min is less
// than or equal to Max on every axis.
type Box struct {
	Min, Max Vertex
}

// EmptyBox returns the box that contains nothing: Min is +Inf and Max is
// -Inf on every axis, so extending it by any vertex yields that vertex.
func EmptyBox() Box {
	inf := math32.Inf(1)
	return Box{
		Min: Vertex{X: inf, Y: inf, Z: inf},
		Max: Vertex{X: -inf, Y: -inf, Z: -inf},
	}
}

// Empty reports whether the box contains no points.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the smallest box containing both b and v.
func (b Box) Extend(v Vertex) Box {
	return Box{Min: b.Min.Min(v), Max: b.Max.Max(v)}
}

// Union returns the smallest box containing both b and c.
func (b Box) Union(c Box) Box {
	if c.Empty() {
		return b
	}
	if b.Empty() {
		return c
	}
	return Box{Min: b.Min.Min(c.Min), Max: b.Max.Max(c.Max)}
}

// Size returns the edge lengths of the box. An empty box has zero size.
func (b Box) Size() Vertex {
	if b.Empty() {
		return Vertex{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box. An empty box has its center at
// the origin.
func (b Box) Center() Vertex {
	if b.Empty() {
		return Vertex{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Contains reports whether v lies inside the box, boundaries included.
func (b Box) Contains(v Vertex) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}
