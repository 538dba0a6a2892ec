package vbuf

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
)

// AttributeType is the storage type of one attribute component.
type AttributeType int

const (
	// Byte is a signed 8-bit integer.
	Byte AttributeType = iota
	// UnsignedByte is an unsigned 8-bit integer.
	UnsignedByte
	// Short is a signed 16-bit integer.
	Short
	// UnsignedShort is an unsigned 16-bit integer.
	UnsignedShort
	// Float is a 32-bit IEEE float.
	Float
)

// Size returns the byte size of one component, or 0 for an unknown type.
func (t AttributeType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case Float:
		return 4
	default:
		return 0
	}
}

// String returns the type name.
func (t AttributeType) String() string {
	switch t {
	case Byte:
		return "Byte"
	case UnsignedByte:
		return "UnsignedByte"
	case Short:
		return "Short"
	case UnsignedShort:
		return "UnsignedShort"
	case Float:
		return "Float"
	default:
		return "Unknown"
	}
}

// IsValid reports whether t is a known attribute type.
func (t AttributeType) IsValid() bool { return t.Size() != 0 }

// DrawMode is the primitive assembly mode of a draw call.
type DrawMode int

const (
	// Points draws each vertex as a point.
	Points DrawMode = iota
	// Lines draws each pair of vertices as a segment.
	Lines
	// LineStrip connects consecutive vertices.
	LineStrip
	// LineLoop connects consecutive vertices and closes the loop.
	LineLoop
	// Triangles draws each vertex triple as a triangle.
	Triangles
	// TriangleStrip draws a triangle for every vertex after the second,
	// sharing the previous two.
	TriangleStrip
	// TriangleFan draws a triangle for every vertex after the second,
	// sharing the first vertex and the previous one.
	TriangleFan
)

// String returns the mode name.
func (m DrawMode) String() string {
	switch m {
	case Points:
		return "Points"
	case Lines:
		return "Lines"
	case LineStrip:
		return "LineStrip"
	case LineLoop:
		return "LineLoop"
	case Triangles:
		return "Triangles"
	case TriangleStrip:
		return "TriangleStrip"
	case TriangleFan:
		return "TriangleFan"
	default:
		return "Unknown"
	}
}

// topology maps m onto a GPU topology. LineLoop and TriangleFan have no
// GPU equivalent and are drawn as LineStrip and TriangleList over
// generated indices.
func (m DrawMode) topology() (gputypes.PrimitiveTopology, error) {
	switch m {
	case Points:
		return gputypes.PrimitiveTopologyPointList, nil
	case Lines:
		return gputypes.PrimitiveTopologyLineList, nil
	case LineStrip, LineLoop:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case Triangles, TriangleFan:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
}

// expand rewrites a run of vertex indices for modes the GPU cannot draw
// directly. Other modes return idx unchanged.
func (m DrawMode) expand(idx []uint32) []uint32 {
	switch m {
	case LineLoop:
		if len(idx) < 2 {
			return idx
		}
		out := make([]uint32, 0, len(idx)+1)
		out = append(out, idx...)
		return append(out, idx[0])
	case TriangleFan:
		if len(idx) < 3 {
			return nil
		}
		out := make([]uint32, 0, 3*(len(idx)-2))
		for i := 1; i+1 < len(idx); i++ {
			out = append(out, idx[0], idx[i], idx[i+1])
		}
		return out
	default:
		return idx
	}
}

// needsExpansion reports whether m is drawn over generated indices.
func (m DrawMode) needsExpansion() bool {
	return m == LineLoop || m == TriangleFan
}

// IndicesType is the storage width of an index.
type IndicesType int

const (
	// IndicesUnsignedByte stores 8-bit indices.
	IndicesUnsignedByte IndicesType = iota
	// IndicesUnsignedShort stores 16-bit indices.
	IndicesUnsignedShort
	// IndicesUnsignedInt stores 32-bit indices.
	IndicesUnsignedInt
)

// Size returns the byte size of one index, or 0 for an unknown type.
func (t IndicesType) Size() int {
	switch t {
	case IndicesUnsignedByte:
		return 1
	case IndicesUnsignedShort:
		return 2
	case IndicesUnsignedInt:
		return 4
	default:
		return 0
	}
}

// Max returns the largest index t can store.
func (t IndicesType) Max() uint32 {
	switch t {
	case IndicesUnsignedByte:
		return 0xFF
	case IndicesUnsignedShort:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// String returns the type name.
func (t IndicesType) String() string {
	switch t {
	case IndicesUnsignedByte:
		return "UnsignedByte"
	case IndicesUnsignedShort:
		return "UnsignedShort"
	case IndicesUnsignedInt:
		return "UnsignedInt"
	default:
		return "Unknown"
	}
}

// Errors returned by the vertex buffer and indices.
var (
	// ErrSizeMismatch is returned by Submit when an attribute's data is
	// shorter than the vertex count and stride require.
	ErrSizeMismatch = fmt.Errorf("vbuf: attribute size mismatch: %w", mesh.ErrValidation)

	// ErrRange is returned when a draw addresses vertices or indices
	// outside the buffer.
	ErrRange = fmt.Errorf("vbuf: range out of bounds: %w", mesh.ErrValidation)

	// ErrEmpty is returned when there is nothing to submit.
	ErrEmpty = fmt.Errorf("vbuf: no enabled attributes: %w", mesh.ErrValidation)

	// ErrNoBackend is returned when submitting without a backend.
	ErrNoBackend = fmt.Errorf("vbuf: no backend: %w", mesh.ErrValidation)

	// ErrInvalidAttribute is returned for a malformed attribute declaration.
	ErrInvalidAttribute = fmt.Errorf("vbuf: invalid attribute: %w", mesh.ErrArgument)

	// ErrInvalidMode is returned for an unknown DrawMode.
	ErrInvalidMode = fmt.Errorf("vbuf: invalid draw mode: %w", mesh.ErrArgument)

	// ErrInvalidIndices is returned for a malformed index list.
	ErrInvalidIndices = fmt.Errorf("vbuf: invalid indices: %w", mesh.ErrArgument)
)
