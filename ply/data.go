// Package ply loads polygon meshes in the PLY format and renders them
// through a vbuf.VertexBuffer.
//
// ASCII and both binary encodings are supported. Vertices need x, y and
// z; normals (nx, ny, nz), texture coordinates (s, t or u, v) and colors
// (red, green, blue and optionally alpha) are picked up when present.
// Faces with more than three corners are fan-triangulated.
package ply

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
	"github.com/gogpu/mesh/vbuf"
)

// Flags adjust geometry while loading.
type Flags uint8

// None loads geometry unchanged.
const None Flags = 0

const (
	// NegateX flips positions and normals along X.
	NegateX Flags = 1 << iota
	// NegateY flips positions and normals along Y.
	NegateY
	// NegateZ flips positions and normals along Z.
	NegateZ
)

// Errors returned by Load. ErrIO wraps mesh.ErrIO; the others wrap
// mesh.ErrParse.
var (
	// ErrIO is returned when the file cannot be opened or read.
	ErrIO = fmt.Errorf("ply: %w", mesh.ErrIO)

	// ErrUnknownFormat is returned when the magic or format line is wrong.
	ErrUnknownFormat = fmt.Errorf("ply: unknown format: %w", mesh.ErrParse)

	// ErrInvalid is returned for a malformed header, or a body that does
	// not match the counts the header declares.
	ErrInvalid = fmt.Errorf("ply: invalid file: %w", mesh.ErrParse)

	// ErrMissingProperty is returned when a required element or property
	// is absent.
	ErrMissingProperty = fmt.Errorf("ply: missing property: %w", mesh.ErrParse)

	// ErrUnsupported is returned for valid PLY this package cannot use,
	// such as face indices stored as floats.
	ErrUnsupported = fmt.Errorf("ply: unsupported: %w", mesh.ErrParse)
)

// Data is a triangulated mesh loaded from a PLY file.
//
// The zero value is empty and ready to use. Data is not safe for
// concurrent use.
type Data struct {
	positions []mesh.Vertex
	normals   []mesh.Vertex
	texCoords [][2]float32
	colors    [][4]uint8
	indices   []uint32
	extents   mesh.Box

	// vb and ix are built on first Render and dropped on Load.
	vb *vbuf.VertexBuffer
	ix *vbuf.Indices
}

// NewData returns empty mesh data.
func NewData() *Data {
	return &Data{extents: mesh.EmptyBox()}
}

// Open loads the PLY file at path into new Data.
func Open(path string, flags Flags) (*Data, error) {
	d := NewData()
	if err := d.Load(path, flags); err != nil {
		return nil, err
	}
	return d, nil
}

// Load replaces the content with the mesh in the file at path. On error
// the previous content is kept.
func (d *Data) Load(path string, flags Flags) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	if err := d.LoadReader(f, flags); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadReader is Load reading from r.
func (d *Data) LoadReader(r io.Reader, flags Flags) error {
	next, err := parse(r, flags)
	if err != nil {
		return err
	}
	if d.vb != nil {
		d.vb.Release()
	}
	*d = *next
	mesh.Logger().Debug("ply: loaded", "vertices", len(d.positions),
		"triangles", len(d.indices)/3, "normals", d.HasNormals(), "colors", d.HasColors())
	return nil
}

// Loaded reports whether a mesh with at least one vertex is loaded.
func (d *Data) Loaded() bool { return len(d.positions) > 0 }

// Extents returns the bounding box of the vertex positions. With nothing
// loaded it returns mesh.EmptyBox() and false.
func (d *Data) Extents() (mesh.Box, bool) {
	if !d.Loaded() {
		return mesh.EmptyBox(), false
	}
	return d.extents, true
}

// VertexCount returns the number of vertices.
func (d *Data) VertexCount() int { return len(d.positions) }

// TriangleCount returns the number of triangles after triangulation.
func (d *Data) TriangleCount() int { return len(d.indices) / 3 }

// Positions returns a copy of the vertex positions.
func (d *Data) Positions() []mesh.Vertex { return slices.Clone(d.positions) }

// Normals returns a copy of the vertex normals, or nil.
func (d *Data) Normals() []mesh.Vertex { return slices.Clone(d.normals) }

// TexCoords returns a copy of the texture coordinates, or nil.
func (d *Data) TexCoords() [][2]float32 { return slices.Clone(d.texCoords) }

// Colors returns a copy of the straight-alpha vertex colors, or nil.
func (d *Data) Colors() [][4]uint8 { return slices.Clone(d.colors) }

// Indices returns a copy of the triangle list.
func (d *Data) Indices() []uint32 { return slices.Clone(d.indices) }

// HasNormals reports whether the mesh has normals.
func (d *Data) HasNormals() bool { return d.normals != nil }

// HasTexCoords reports whether the mesh has texture coordinates.
func (d *Data) HasTexCoords() bool { return d.texCoords != nil }

// HasColors reports whether the mesh has vertex colors.
func (d *Data) HasColors() bool { return d.colors != nil }

// parse reads a whole file into fresh Data.
func parse(r io.Reader, flags Flags) (*Data, error) {
	br := bufio.NewReader(r)
	h, err := parseHeader(br)
	if err != nil {
		return nil, err
	}
	vr := newValueReader(h, br)

	d := NewData()
	var sawVertex, sawFace bool
	for i := range h.elements {
		e := &h.elements[i]
		switch e.name {
		case "vertex":
			if err := d.readVertices(vr, e, flags); err != nil {
				return nil, err
			}
			sawVertex = true
		case "face":
			if !sawVertex {
				return nil, fmt.Errorf("%w: face element before vertex element", ErrInvalid)
			}
			if err := d.readFaces(vr, e); err != nil {
				return nil, err
			}
			sawFace = true
		default:
			if err := skipElement(vr, e); err != nil {
				return nil, err
			}
		}
	}
	if err := vr.end(); err != nil {
		return nil, err
	}
	if !sawVertex {
		return nil, fmt.Errorf("%w: no vertex element", ErrMissingProperty)
	}
	if !sawFace {
		return nil, fmt.Errorf("%w: no face element", ErrMissingProperty)
	}
	return d, nil
}

func skipElement(vr valueReader, e *element) error {
	scalars := make([]float64, len(e.props))
	var list []float64
	for range e.count {
		var err error
		if list, err = readRecord(vr, e, scalars, -1, list); err != nil {
			return fmt.Errorf("element %q: %w", e.name, err)
		}
	}
	return nil
}

// preallocation cap so a lying header cannot force a huge allocation.
const maxPrealloc = 1 << 20

func (d *Data) readVertices(vr valueReader, e *element, flags Flags) error {
	ix, iy, iz := e.find("x"), e.find("y"), e.find("z")
	if ix < 0 || iy < 0 || iz < 0 {
		return fmt.Errorf("%w: vertex needs x, y and z", ErrMissingProperty)
	}
	for _, i := range []int{ix, iy, iz} {
		if e.props[i].list {
			return fmt.Errorf("%w: vertex %s is a list", ErrUnsupported, e.props[i].name)
		}
	}
	inx, iny, inz := e.find("nx"), e.find("ny"), e.find("nz")
	hasNormals := inx >= 0 && iny >= 0 && inz >= 0
	is, it := e.find("s", "u", "texture_u", "texture_s"), e.find("t", "v", "texture_v", "texture_t")
	hasTex := is >= 0 && it >= 0
	ir, ig, ib, ia := e.find("red", "diffuse_red"), e.find("green", "diffuse_green"), e.find("blue", "diffuse_blue"), e.find("alpha")
	hasColor := ir >= 0 && ig >= 0 && ib >= 0

	sign := mesh.V3(1, 1, 1)
	if flags&NegateX != 0 {
		sign.X = -1
	}
	if flags&NegateY != 0 {
		sign.Y = -1
	}
	if flags&NegateZ != 0 {
		sign.Z = -1
	}

	n := e.count
	d.positions = make([]mesh.Vertex, 0, min(n, maxPrealloc))
	if hasNormals {
		d.normals = make([]mesh.Vertex, 0, min(n, maxPrealloc))
	}
	if hasTex {
		d.texCoords = make([][2]float32, 0, min(n, maxPrealloc))
	}
	if hasColor {
		d.colors = make([][4]uint8, 0, min(n, maxPrealloc))
	}

	scalars := make([]float64, len(e.props))
	var list []float64
	for range n {
		var err error
		if list, err = readRecord(vr, e, scalars, -1, list); err != nil {
			return fmt.Errorf("vertex %d: %w", len(d.positions), err)
		}
		p := mesh.V3(float32(scalars[ix])*sign.X, float32(scalars[iy])*sign.Y, float32(scalars[iz])*sign.Z)
		d.positions = append(d.positions, p)
		d.extents = d.extents.Extend(p)
		if hasNormals {
			d.normals = append(d.normals, mesh.V3(
				float32(scalars[inx])*sign.X, float32(scalars[iny])*sign.Y, float32(scalars[inz])*sign.Z))
		}
		if hasTex {
			d.texCoords = append(d.texCoords, [2]float32{float32(scalars[is]), float32(scalars[it])})
		}
		if hasColor {
			c := [4]uint8{
				colorByte(scalars[ir], e.props[ir].typ),
				colorByte(scalars[ig], e.props[ig].typ),
				colorByte(scalars[ib], e.props[ib].typ),
				255,
			}
			if ia >= 0 {
				c[3] = colorByte(scalars[ia], e.props[ia].typ)
			}
			d.colors = append(d.colors, c)
		}
	}
	return nil
}

// colorByte maps a color channel to 0..255. Float channels are in 0..1.
func colorByte(v float64, t scalarType) uint8 {
	if t.isFloat() {
		v *= 255
	}
	return uint8(math.Min(math.Max(math.Round(v), 0), 255))
}

func (d *Data) readFaces(vr valueReader, e *element) error {
	li := e.find("vertex_indices", "vertex_index")
	if li < 0 || !e.props[li].list {
		return fmt.Errorf("%w: face needs a vertex_indices list", ErrMissingProperty)
	}
	if e.props[li].typ.isFloat() || e.props[li].countType.isFloat() {
		return fmt.Errorf("%w: face indices stored as float", ErrUnsupported)
	}

	nv := len(d.positions)
	d.indices = make([]uint32, 0, min(3*e.count, maxPrealloc))
	scalars := make([]float64, len(e.props))
	var list []float64
	for f := range e.count {
		var err error
		if list, err = readRecord(vr, e, scalars, li, list); err != nil {
			return fmt.Errorf("face %d: %w", f, err)
		}
		if len(list) < 3 {
			return fmt.Errorf("face %d: %w: %d corners", f, ErrInvalid, len(list))
		}
		for _, v := range list {
			if v < 0 || int(v) >= nv {
				return fmt.Errorf("face %d: %w: index %v outside %d vertices", f, ErrInvalid, v, nv)
			}
		}
		for k := 1; k+1 < len(list); k++ {
			d.indices = append(d.indices, uint32(list[0]), uint32(list[k]), uint32(list[k+1]))
		}
	}
	return nil
}

// Render draws the mesh as triangles through b. A mesh without faces is
// drawn as points. Rendering empty data does nothing.
func (d *Data) Render(b gpu.Backend) error {
	if !d.Loaded() {
		return nil
	}
	if d.vb == nil {
		if err := d.build(); err != nil {
			return err
		}
	}
	d.vb.SetBackend(b)
	if d.ix == nil {
		return d.vb.DrawAll(vbuf.Points)
	}
	return d.vb.DrawElements(vbuf.Triangles, d.ix, 0, len(d.positions)-1, 0, d.ix.Len())
}

// build stages the attributes and indices.
func (d *Data) build() error {
	n := len(d.positions)
	vb := vbuf.New(n, vbuf.WithLabel("ply"))

	values := make([]float64, 0, 3*n)
	for _, p := range d.positions {
		values = append(values, float64(p.X), float64(p.Y), float64(p.Z))
	}
	if err := vb.AddValues("position", 3, vbuf.Float, false, values); err != nil {
		return err
	}
	if d.normals != nil {
		values = values[:0]
		for _, p := range d.normals {
			values = append(values, float64(p.X), float64(p.Y), float64(p.Z))
		}
		if err := vb.AddValues("normal", 3, vbuf.Float, false, values); err != nil {
			return err
		}
	}
	if d.texCoords != nil {
		values = values[:0]
		for _, t := range d.texCoords {
			values = append(values, float64(t[0]), float64(t[1]))
		}
		if err := vb.AddValues("texcoord", 2, vbuf.Float, false, values); err != nil {
			return err
		}
	}
	if d.colors != nil {
		raw := make([]byte, 0, 4*n)
		for _, c := range d.colors {
			raw = append(raw, c[:]...)
		}
		if err := vb.Add("color", 4, vbuf.UnsignedByte, true, 0, raw); err != nil {
			return err
		}
	}

	var ix *vbuf.Indices
	if len(d.indices) > 0 {
		typ := vbuf.IndicesUnsignedInt
		switch {
		case n <= 0x100:
			typ = vbuf.IndicesUnsignedByte
		case n <= 0x10000:
			typ = vbuf.IndicesUnsignedShort
		}
		var err error
		if ix, err = vbuf.NewIndices(typ, d.indices); err != nil {
			return err
		}
	}
	d.vb, d.ix = vb, ix
	return nil
}

// Clone returns a copy of the mesh without any GPU state.
func (d *Data) Clone() *Data {
	return &Data{
		positions: slices.Clone(d.positions),
		normals:   slices.Clone(d.normals),
		texCoords: slices.Clone(d.texCoords),
		colors:    slices.Clone(d.colors),
		indices:   slices.Clone(d.indices),
		extents:   d.extents,
	}
}
