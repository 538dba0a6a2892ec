// Package vbuf stages named per-vertex attributes for the GPU.
//
// Attributes are declared with Add and validated only when the buffer is
// submitted, so callers may redeclare them freely between draws. Submit
// checks every enabled attribute against the vertex count and either
// uploads all of them, interleaved into one buffer, or none.
//
//	vb := vbuf.New(3, vbuf.WithBackend(backend))
//	vb.AddValues("position", 2, vbuf.Float, false, []float64{0, 0, 1, 0, 0, 1})
//	if err := vb.DrawAll(vbuf.Triangles); err != nil {
//	    return err
//	}
package vbuf

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
)

// Attribute describes one declared attribute. The data itself is private
// to the VertexBuffer.
type Attribute struct {
	Name       string
	Components int
	Type       AttributeType
	Normalized bool

	// Stride is the byte distance between vertices; 0 means tightly
	// packed.
	Stride int
	Offset int

	Enabled bool
}

// ElementSize returns the byte size of one vertex's worth of the attribute.
func (a Attribute) ElementSize() int { return a.Components * a.Type.Size() }

// EffectiveStride returns Stride, or ElementSize when Stride is 0.
func (a Attribute) EffectiveStride() int {
	if a.Stride == 0 {
		return a.ElementSize()
	}
	return a.Stride
}

// Location returns the shader location a name binds to. Well-known names
// and their legacy aliases map to fixed locations; other names return
// false and are assigned locations from gpu.LocationCustom on submit.
func Location(name string) (uint32, bool) {
	switch name {
	case "position", "gl_Vertex":
		return gpu.LocationPosition, true
	case "color", "gl_Color":
		return gpu.LocationColor, true
	case "texcoord", "tex_coord", "gl_MultiTexCoord0":
		return gpu.LocationTexCoord, true
	case "normal", "gl_Normal":
		return gpu.LocationNormal, true
	default:
		return 0, false
	}
}

type attribute struct {
	Attribute
	data []byte
}

// Option configures a VertexBuffer.
type Option func(*VertexBuffer)

// WithBackend sets the backend vertices are submitted to.
func WithBackend(b gpu.Backend) Option {
	return func(vb *VertexBuffer) {
		vb.backend = b
	}
}

// WithLabel sets the label used for uploads.
func WithLabel(label string) Option {
	return func(vb *VertexBuffer) {
		vb.label = label
	}
}

// VertexBuffer holds the attributes of a fixed number of vertices.
//
// A VertexBuffer is not safe for concurrent use.
type VertexBuffer struct {
	n       int
	label   string
	backend gpu.Backend

	attrs map[string]*attribute

	// uploaded is the last successful submission, nil until one exists.
	uploaded gpu.Vertices
	dirty    bool
}

// New creates a vertex buffer for n vertices. Negative n is treated as 0.
func New(n int, opts ...Option) *VertexBuffer {
	vb := &VertexBuffer{
		n:     max(n, 0),
		label: "vbuf",
		attrs: make(map[string]*attribute),
		dirty: true,
	}
	for _, opt := range opts {
		opt(vb)
	}
	return vb
}

// VertexCount returns the number of vertices.
func (vb *VertexBuffer) VertexCount() int { return vb.n }

// Backend returns the backend vertices are submitted to.
func (vb *VertexBuffer) Backend() gpu.Backend { return vb.backend }

// SetBackend switches to b. Data uploaded to the previous backend is
// released and the attributes are submitted again on the next draw.
func (vb *VertexBuffer) SetBackend(b gpu.Backend) {
	if vb.backend == b {
		return
	}
	vb.Release()
	vb.backend = b
}

// Add declares the attribute name, replacing any previous declaration.
// data is copied; its length is checked by Submit, not here.
func (vb *VertexBuffer) Add(name string, components int, typ AttributeType, normalized bool, stride int, data []byte) error {
	return vb.AddOffset(name, components, typ, normalized, stride, 0, data)
}

// AddOffset is Add with the attribute starting offset bytes into data.
func (vb *VertexBuffer) AddOffset(name string, components int, typ AttributeType, normalized bool, stride, offset int, data []byte) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAttribute)
	case components < 1 || components > 4:
		return fmt.Errorf("%w: %q has %d components", ErrInvalidAttribute, name, components)
	case !typ.IsValid():
		return fmt.Errorf("%w: %q has type %d", ErrInvalidAttribute, name, int(typ))
	case stride < 0 || offset < 0:
		return fmt.Errorf("%w: %q has stride %d offset %d", ErrInvalidAttribute, name, stride, offset)
	}
	vb.attrs[name] = &attribute{
		Attribute: Attribute{
			Name:       name,
			Components: components,
			Type:       typ,
			Normalized: normalized,
			Stride:     stride,
			Offset:     offset,
			Enabled:    true,
		},
		data: slices.Clone(data),
	}
	vb.dirty = true
	return nil
}

// AddValues declares name from numeric values, converting each to typ.
// Integer types round and clamp to their range. The data is tightly
// packed.
func (vb *VertexBuffer) AddValues(name string, components int, typ AttributeType, normalized bool, values []float64) error {
	size := typ.Size()
	if size == 0 {
		return fmt.Errorf("%w: %q has type %d", ErrInvalidAttribute, name, int(typ))
	}
	data := make([]byte, len(values)*size)
	for i, v := range values {
		encodeComponent(data[i*size:], typ, v)
	}
	return vb.Add(name, components, typ, normalized, 0, data)
}

// Delete removes name. The data already submitted stays in use until the
// next Submit. Deleting an unknown name returns mesh.ErrNotFound.
func (vb *VertexBuffer) Delete(name string) error {
	if _, ok := vb.attrs[name]; !ok {
		return notFound(name)
	}
	delete(vb.attrs, name)
	vb.dirty = true
	return nil
}

// Enable includes name in the next submission.
func (vb *VertexBuffer) Enable(name string) error { return vb.setEnabled(name, true) }

// Disable excludes name from the next submission without forgetting it.
func (vb *VertexBuffer) Disable(name string) error { return vb.setEnabled(name, false) }

func (vb *VertexBuffer) setEnabled(name string, on bool) error {
	a, ok := vb.attrs[name]
	if !ok {
		return notFound(name)
	}
	if a.Enabled != on {
		a.Enabled = on
		vb.dirty = true
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("vbuf: attribute %q: %w", name, mesh.ErrNotFound)
}

// Attribute returns the declaration of name.
func (vb *VertexBuffer) Attribute(name string) (Attribute, bool) {
	a, ok := vb.attrs[name]
	if !ok {
		return Attribute{}, false
	}
	return a.Attribute, true
}

// Names returns the declared attribute names in sorted order.
func (vb *VertexBuffer) Names() []string {
	names := make([]string, 0, len(vb.attrs))
	for name := range vb.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Submitted reports whether a valid submission is in use, that is the
// last Submit succeeded and nothing changed since.
func (vb *VertexBuffer) Submitted() bool { return vb.uploaded != nil && !vb.dirty }

// Submit validates every enabled attribute and uploads them as one
// interleaved buffer. If any attribute fails validation nothing is
// uploaded and the error wraps ErrSizeMismatch.
func (vb *VertexBuffer) Submit() error {
	enabled := vb.enabled()
	if len(enabled) == 0 || vb.n == 0 {
		return ErrEmpty
	}
	for _, a := range enabled {
		if err := vb.check(a); err != nil {
			return err
		}
	}
	if vb.backend == nil {
		return ErrNoBackend
	}

	layout, data := vb.interleave(enabled)
	v, err := vb.backend.UploadVertices(vb.label, layout, data)
	if err != nil {
		return fmt.Errorf("vbuf: upload: %w", err)
	}
	if vb.uploaded != nil {
		vb.uploaded.Release()
	}
	vb.uploaded = v
	vb.dirty = false
	mesh.Logger().Debug("vbuf: submitted", "label", vb.label, "vertices", vb.n,
		"attributes", len(enabled), "stride", layout.Stride)
	return nil
}

// Release frees the submitted data. The attributes are kept and submitted
// again by the next draw.
func (vb *VertexBuffer) Release() {
	if vb.uploaded != nil {
		vb.uploaded.Release()
		vb.uploaded = nil
	}
	vb.dirty = true
}

// enabled returns the enabled attributes in location order, then by name.
func (vb *VertexBuffer) enabled() []*attribute {
	out := make([]*attribute, 0, len(vb.attrs))
	for _, a := range vb.attrs {
		if a.Enabled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, iok := Location(out[i].Name)
		lj, jok := Location(out[j].Name)
		if iok != jok {
			return iok
		}
		if iok && li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// check verifies a holds n vertices:
// len(data)-offset >= stride*(n-1) + components*size.
// The comparison is done by division so huge strides or offsets cannot
// overflow.
func (vb *VertexBuffer) check(a *attribute) error {
	elem := a.ElementSize()
	stride := a.EffectiveStride()
	if a.Stride != 0 && a.Stride < elem {
		return fmt.Errorf("%w: %q stride %d is less than element size %d", ErrSizeMismatch, a.Name, a.Stride, elem)
	}
	room := len(a.data) - elem
	if a.Offset > room {
		return fmt.Errorf("%w: %q has %d bytes, offset %d leaves no room for a %d byte element",
			ErrSizeMismatch, a.Name, len(a.data), a.Offset, elem)
	}
	room -= a.Offset
	if vb.n > 1 && stride > room/(vb.n-1) {
		return fmt.Errorf("%w: %q has %d bytes, too few for %d vertices at offset %d stride %d",
			ErrSizeMismatch, a.Name, len(a.data), vb.n, a.Offset, stride)
	}
	return nil
}

// packing is how an attribute is laid out in the interleaved buffer.
type packing struct {
	format gputypes.VertexFormat
	// native is set when the source bytes are copied unchanged; otherwise
	// components are converted to float32.
	native bool
	size   int
}

// pack chooses the GPU format for a. Floats and normalized 2/4-component
// integers are copied as-is; everything else is promoted to float32.
func pack(a Attribute) packing {
	floatFormats := [...]gputypes.VertexFormat{
		gputypes.VertexFormatFloat32,
		gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3,
		gputypes.VertexFormatFloat32x4,
	}
	promoted := packing{format: floatFormats[a.Components-1], size: 4 * a.Components}
	if a.Type == Float {
		promoted.native = true
		return promoted
	}
	if !a.Normalized || (a.Components != 2 && a.Components != 4) {
		return promoted
	}
	var f gputypes.VertexFormat
	switch {
	case a.Type == UnsignedByte && a.Components == 2:
		f = gputypes.VertexFormatUnorm8x2
	case a.Type == UnsignedByte:
		f = gputypes.VertexFormatUnorm8x4
	case a.Type == Byte && a.Components == 2:
		f = gputypes.VertexFormatSnorm8x2
	case a.Type == Byte:
		f = gputypes.VertexFormatSnorm8x4
	case a.Type == UnsignedShort && a.Components == 2:
		f = gputypes.VertexFormatUnorm16x2
	case a.Type == UnsignedShort:
		f = gputypes.VertexFormatUnorm16x4
	case a.Type == Short && a.Components == 2:
		f = gputypes.VertexFormatSnorm16x2
	default:
		f = gputypes.VertexFormatSnorm16x4
	}
	return packing{format: f, native: true, size: a.ElementSize()}
}

// interleave packs the attributes into one buffer. Each attribute starts
// on a 4-byte boundary.
func (vb *VertexBuffer) interleave(attrs []*attribute) (gpu.VertexLayout, []byte) {
	packs := make([]packing, len(attrs))
	offsets := make([]uint64, len(attrs))
	var stride uint64
	nextCustom := gpu.LocationCustom
	layout := gpu.VertexLayout{Attributes: make([]gpu.Attribute, len(attrs))}
	for i, a := range attrs {
		packs[i] = pack(a.Attribute)
		offsets[i] = stride
		stride += uint64((packs[i].size + 3) &^ 3)

		loc, ok := Location(a.Name)
		if !ok {
			loc = nextCustom
			nextCustom++
		}
		layout.Attributes[i] = gpu.Attribute{
			Name:     a.Name,
			Format:   packs[i].format,
			Offset:   offsets[i],
			Location: loc,
		}
	}
	layout.Stride = stride

	data := make([]byte, int(stride)*vb.n)
	for i, a := range attrs {
		src := a.EffectiveStride()
		for v := range vb.n {
			in := a.data[a.Offset+v*src : a.Offset+v*src+a.ElementSize()]
			out := data[v*int(stride)+int(offsets[i]):]
			if packs[i].native {
				copy(out, in)
				continue
			}
			for c := range a.Components {
				f := decodeComponent(in[c*a.Type.Size():], a.Type, a.Normalized)
				binary.LittleEndian.PutUint32(out[4*c:], math.Float32bits(f))
			}
		}
	}
	return layout, data
}

func decodeComponent(b []byte, typ AttributeType, normalized bool) float32 {
	switch typ {
	case Byte:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case UnsignedByte:
		v := float32(b[0])
		if normalized {
			return v / 255
		}
		return v
	case Short:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case UnsignedShort:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	default:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
}

func encodeComponent(b []byte, typ AttributeType, v float64) {
	clamp := func(lo, hi float64) float64 { return math.Min(math.Max(math.Round(v), lo), hi) }
	switch typ {
	case Byte:
		b[0] = byte(int8(clamp(math.MinInt8, math.MaxInt8)))
	case UnsignedByte:
		b[0] = byte(clamp(0, math.MaxUint8))
	case Short:
		binary.LittleEndian.PutUint16(b, uint16(int16(clamp(math.MinInt16, math.MaxInt16))))
	case UnsignedShort:
		binary.LittleEndian.PutUint16(b, uint16(clamp(0, math.MaxUint16)))
	default:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	}
}
