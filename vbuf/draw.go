package vbuf

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/gpu"
)

// ensure submits the attributes if they changed since the last Submit.
func (vb *VertexBuffer) ensure() error {
	if vb.Submitted() {
		return nil
	}
	return vb.Submit()
}

// Draw draws count vertices starting at first. The range must lie inside
// the buffer: first >= 0, count >= 0 and first+count <= VertexCount.
// An empty range submits if needed and draws nothing.
func (vb *VertexBuffer) Draw(mode DrawMode, first, count int) error {
	topology, err := mode.topology()
	if err != nil {
		return err
	}
	if first < 0 || count < 0 || first > vb.n || count > vb.n-first {
		return fmt.Errorf("%w: vertices [%d, %d+%d) of %d", ErrRange, first, first, count, vb.n)
	}
	if err := vb.ensure(); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	cmd := gpu.DrawCommand{Topology: topology, First: uint32(first), Count: uint32(count)}
	if mode.needsExpansion() {
		run := make([]uint32, count)
		for i := range run {
			run[i] = uint32(first + i)
		}
		cmd = expandedCommand(mode, topology, run)
	}
	mesh.Logger().Debug("vbuf: draw", "mode", mode, "first", first, "count", count)
	return vb.backend.Draw(vb.uploaded, cmd)
}

// DrawAll draws every vertex.
func (vb *VertexBuffer) DrawAll(mode DrawMode) error {
	return vb.Draw(mode, 0, vb.n)
}

// DrawElements draws count indices starting at indicesOffset. minIndex
// and maxIndex bound the vertices the indices may reference and must
// satisfy 0 <= minIndex <= maxIndex < VertexCount; every referenced index
// is checked against them.
func (vb *VertexBuffer) DrawElements(mode DrawMode, indices *Indices, minIndex, maxIndex, indicesOffset, count int) error {
	topology, err := mode.topology()
	if err != nil {
		return err
	}
	if indices == nil {
		return fmt.Errorf("%w: nil indices", ErrInvalidIndices)
	}
	if minIndex < 0 || minIndex > maxIndex || maxIndex >= vb.n {
		return fmt.Errorf("%w: index bounds [%d, %d] of %d vertices", ErrRange, minIndex, maxIndex, vb.n)
	}
	if indicesOffset < 0 || count < 0 || count > indices.Len()-indicesOffset {
		return fmt.Errorf("%w: indices [%d, %d+%d) of %d", ErrRange, indicesOffset, indicesOffset, count, indices.Len())
	}
	run := make([]uint32, count)
	for i := range run {
		v := indices.At(indicesOffset + i)
		if v < uint32(minIndex) || v > uint32(maxIndex) {
			return fmt.Errorf("%w: index %d at %d outside [%d, %d]", ErrRange, v, indicesOffset+i, minIndex, maxIndex)
		}
		run[i] = v
	}
	if err := vb.ensure(); err != nil {
		return err
	}
	mesh.Logger().Debug("vbuf: draw elements", "mode", mode, "offset", indicesOffset,
		"count", count, "type", indices.Type())
	return vb.backend.Draw(vb.uploaded, expandedCommand(mode, topology, run))
}

func expandedCommand(mode DrawMode, topology gputypes.PrimitiveTopology, run []uint32) gpu.DrawCommand {
	run = mode.expand(run)
	return gpu.DrawCommand{
		Topology: topology,
		Count:    uint32(len(run)),
		Indices:  gpuIndices(run),
	}
}
