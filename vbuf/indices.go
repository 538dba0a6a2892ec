package vbuf

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh/gpu"
)

// Indices is an immutable list of vertex indices for DrawElements.
type Indices struct {
	typ  IndicesType
	data []byte
}

// NewIndices packs values as typ. Values that do not fit typ are rejected.
func NewIndices(typ IndicesType, values []uint32) (*Indices, error) {
	size := typ.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidIndices, int(typ))
	}
	limit := typ.Max()
	data := make([]byte, len(values)*size)
	for i, v := range values {
		if v > limit {
			return nil, fmt.Errorf("%w: index %d at %d exceeds %v", ErrInvalidIndices, v, i, typ)
		}
		putIndex(data[i*size:], typ, v)
	}
	return &Indices{typ: typ, data: data}, nil
}

// NewIndicesBytes copies raw little-endian indices of type typ.
func NewIndicesBytes(typ IndicesType, raw []byte) (*Indices, error) {
	size := typ.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidIndices, int(typ))
	}
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidIndices, len(raw), size)
	}
	return &Indices{typ: typ, data: slices.Clone(raw)}, nil
}

// QuadIndices returns the indices that draw n quads as two triangles
// each: 0,1,2, 2,1,3 offset by four per quad. The narrowest type that
// holds 4n-1 is used.
func QuadIndices(n int) (*Indices, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: quad count %d", ErrInvalidIndices, n)
	}
	maxIndex := uint64(4*n - 1)
	if maxIndex > 0xFFFFFFFF {
		return nil, fmt.Errorf("%w: quad count %d", ErrInvalidIndices, n)
	}
	typ := IndicesUnsignedInt
	switch {
	case maxIndex <= 0xFF:
		typ = IndicesUnsignedByte
	case maxIndex <= 0xFFFF:
		typ = IndicesUnsignedShort
	}
	values := make([]uint32, 0, 6*n)
	for q := range n {
		base := uint32(4 * q)
		values = append(values, base, base+1, base+2, base+2, base+1, base+3)
	}
	return NewIndices(typ, values)
}

// Type returns the index storage type.
func (ix *Indices) Type() IndicesType { return ix.typ }

// Len returns the number of indices.
func (ix *Indices) Len() int { return len(ix.data) / ix.typ.Size() }

// At returns index i.
func (ix *Indices) At(i int) uint32 {
	size := ix.typ.Size()
	return getIndex(ix.data[i*size:], ix.typ)
}

// Values returns a copy of the indices widened to uint32.
func (ix *Indices) Values() []uint32 {
	out := make([]uint32, ix.Len())
	for i := range out {
		out[i] = ix.At(i)
	}
	return out
}

// Bytes returns a copy of the raw little-endian data.
func (ix *Indices) Bytes() []byte { return slices.Clone(ix.data) }

func putIndex(b []byte, typ IndicesType, v uint32) {
	switch typ {
	case IndicesUnsignedByte:
		b[0] = byte(v)
	case IndicesUnsignedShort:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}

func getIndex(b []byte, typ IndicesType) uint32 {
	switch typ {
	case IndicesUnsignedByte:
		return uint32(b[0])
	case IndicesUnsignedShort:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

// gpuIndices packs values for the backend. GPUs have no 8-bit index
// format, so the narrowest width is 16 bits.
func gpuIndices(values []uint32) *gpu.IndexData {
	var maxIndex uint32
	for _, v := range values {
		maxIndex = max(maxIndex, v)
	}
	if maxIndex <= 0xFFFF {
		data := make([]byte, 2*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint16(data[2*i:], uint16(v))
		}
		return &gpu.IndexData{Format: gputypes.IndexFormatUint16, Data: data}
	}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return &gpu.IndexData{Format: gputypes.IndexFormatUint32, Data: data}
}
