// Package gpu defines the draw backend contract used by the vertex stager
// and the mesh renderer, plus two implementations: [HALBackend], which
// drives a wgpu/hal device, and [Recorder], which keeps every call in
// memory for headless use and tests.
package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/mesh"
)

// Shader locations assigned to well-known attributes. Custom attributes
// are placed from LocationCustom upward.
const (
	LocationPosition uint32 = 0
	LocationColor    uint32 = 1
	LocationTexCoord uint32 = 2
	LocationNormal   uint32 = 3
	LocationCustom   uint32 = 4
)

// Errors returned by backends.
var (
	// ErrReleased is returned when drawing from released vertices.
	ErrReleased = fmt.Errorf("gpu: vertices released: %w", mesh.ErrValidation)

	// ErrUnsupportedFormat is returned for a vertex format the backend
	// cannot feed to its shader.
	ErrUnsupportedFormat = fmt.Errorf("gpu: unsupported vertex format: %w", mesh.ErrArgument)

	// ErrUnsupportedTopology is returned for a primitive topology outside
	// the gputypes enumeration.
	ErrUnsupportedTopology = fmt.Errorf("gpu: unsupported topology: %w", mesh.ErrArgument)

	// ErrForeignVertices is returned when vertices uploaded through one
	// backend are drawn through another.
	ErrForeignVertices = fmt.Errorf("gpu: vertices belong to another backend: %w", mesh.ErrArgument)
)

// Attribute places one named attribute inside an interleaved vertex.
type Attribute struct {
	Name     string
	Format   gputypes.VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout describes one interleaved vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []Attribute
}

// Find returns the attribute bound to location.
func (l VertexLayout) Find(location uint32) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return Attribute{}, false
}

// bufferLayout converts the layout to the gputypes form used by pipelines.
func (l VertexLayout) bufferLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: l.Stride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// key identifies layouts that can share a pipeline.
func (l VertexLayout) key() string {
	s := fmt.Sprintf("%d", l.Stride)
	for _, a := range l.Attributes {
		s += fmt.Sprintf("|%d:%d@%d", a.Location, a.Format, a.Offset)
	}
	return s
}

// IndexData is a packed index list tagged with its width.
type IndexData struct {
	Format gputypes.IndexFormat
	Data   []byte
}

// Count returns the number of indices in Data.
func (d IndexData) Count() int {
	switch d.Format {
	case gputypes.IndexFormatUint16:
		return len(d.Data) / 2
	case gputypes.IndexFormatUint32:
		return len(d.Data) / 4
	default:
		return 0
	}
}

// DrawCommand is one draw call. For a non-indexed draw First and Count
// address vertices; when Indices is set they address indices.
type DrawCommand struct {
	Topology gputypes.PrimitiveTopology
	First    uint32
	Count    uint32
	Indices  *IndexData
}

// Uniforms are the per-draw shader constants.
type Uniforms struct {
	// Transform maps model space to clip space. Row-major.
	Transform f32.Mat4

	// Color multiplies the vertex color, or replaces it when the vertices
	// carry none. Premultiplied RGBA.
	Color [4]float32
}

// DefaultUniforms returns the identity transform and opaque white.
func DefaultUniforms() Uniforms {
	return Uniforms{Transform: Identity(), Color: [4]float32{1, 1, 1, 1}}
}

// Identity returns the 4x4 identity matrix.
func Identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Vertices is vertex data resident in a backend.
type Vertices interface {
	// Layout returns the layout the data was uploaded with.
	Layout() VertexLayout

	// Count returns the number of vertices.
	Count() int

	// Release frees the backend storage. Further draws fail with
	// ErrReleased. Release is idempotent.
	Release()
}

// Backend executes uploads and draw calls.
//
// Implementations are not safe for concurrent use.
type Backend interface {
	// UploadVertices copies interleaved vertex data to the backend.
	UploadVertices(label string, layout VertexLayout, data []byte) (Vertices, error)

	// SetUniforms sets the constants for subsequent draws.
	SetUniforms(u Uniforms)

	// Draw dispatches cmd over v. It returns once the command is handed
	// off, not when the GPU finishes it.
	Draw(v Vertices, cmd DrawCommand) error

	// UploadTexture copies tightly packed premultiplied RGBA pixels to a
	// texture identified by label, creating or replacing it.
	UploadTexture(label string, width, height int, rgba []byte) error
}

func checkTopology(t gputypes.PrimitiveTopology) error {
	switch t {
	case gputypes.PrimitiveTopologyPointList,
		gputypes.PrimitiveTopologyLineList,
		gputypes.PrimitiveTopologyLineStrip,
		gputypes.PrimitiveTopologyTriangleList,
		gputypes.PrimitiveTopologyTriangleStrip:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedTopology, t)
	}
}
