package vbuf

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
)

func triangleBuffer(t *testing.T, n int) (*VertexBuffer, func() int) {
	t.Helper()
	vb, rec := newRecorded(n)
	if err := vb.AddValues("position", 2, Float, false, make([]float64, 2*n)); err != nil {
		t.Fatal(err)
	}
	return vb, func() int { return len(rec.Draws) }
}

func TestDrawRange(t *testing.T) {
	tests := []struct {
		name    string
		first   int
		count   int
		wantErr bool
	}{
		{"all", 0, 4, false},
		{"tail", 2, 2, false},
		{"overflow", 2, 3, true},
		{"negative first", -1, 2, true},
		{"negative count", 0, -1, true},
		{"empty at end", 4, 0, false},
		{"first past end", 5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vb, draws := triangleBuffer(t, 4)
			err := vb.Draw(Points, tt.first, tt.count)
			if tt.wantErr {
				if !errors.Is(err, ErrRange) {
					t.Errorf("Draw() error = %v, want ErrRange", err)
				}
				if draws() != 0 {
					t.Error("failed Draw() dispatched")
				}
				return
			}
			if err != nil {
				t.Errorf("Draw() error = %v", err)
			}
		})
	}
}

func TestDrawEmptyRange(t *testing.T) {
	for _, mode := range []DrawMode{Points, LineLoop, TriangleFan} {
		vb, draws := triangleBuffer(t, 4)
		if err := vb.Draw(mode, 4, 0); err != nil {
			t.Errorf("Draw(%v, 4, 0) error = %v, want nil", mode, err)
		}
		if !vb.Submitted() {
			t.Errorf("Draw(%v, 4, 0) did not submit", mode)
		}
		if n := draws(); n != 0 {
			t.Errorf("Draw(%v, 4, 0) dispatched %d draws, want 0", mode, n)
		}
	}
}

func TestDrawInvalidMode(t *testing.T) {
	vb, _ := triangleBuffer(t, 3)
	err := vb.Draw(DrawMode(99), 0, 3)
	if !errors.Is(err, ErrInvalidMode) || !errors.Is(err, mesh.ErrArgument) {
		t.Errorf("Draw(99) error = %v, want ErrInvalidMode", err)
	}
}

func TestDrawTopology(t *testing.T) {
	tests := []struct {
		mode     DrawMode
		topology gputypes.PrimitiveTopology
		indexed  []uint16
	}{
		{Points, gputypes.PrimitiveTopologyPointList, nil},
		{Lines, gputypes.PrimitiveTopologyLineList, nil},
		{LineStrip, gputypes.PrimitiveTopologyLineStrip, nil},
		{LineLoop, gputypes.PrimitiveTopologyLineStrip, []uint16{1, 2, 3, 4, 1}},
		{Triangles, gputypes.PrimitiveTopologyTriangleList, nil},
		{TriangleStrip, gputypes.PrimitiveTopologyTriangleStrip, nil},
		{TriangleFan, gputypes.PrimitiveTopologyTriangleList, []uint16{1, 2, 3, 1, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			vb, rec := newRecorded(5)
			_ = vb.AddValues("position", 2, Float, false, make([]float64, 10))
			if err := vb.Draw(tt.mode, 1, 4); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			cmd := rec.Draws[0].Command
			if cmd.Topology != tt.topology {
				t.Errorf("topology = %v, want %v", cmd.Topology, tt.topology)
			}
			if tt.indexed == nil {
				if cmd.Indices != nil || cmd.First != 1 || cmd.Count != 4 {
					t.Errorf("command = %+v, want direct draw of [1, 5)", cmd)
				}
				return
			}
			if cmd.Indices == nil {
				t.Fatal("expected generated indices")
			}
			got := indexValues(cmd.Indices.Data)
			if len(got) != len(tt.indexed) || int(cmd.Count) != len(tt.indexed) {
				t.Fatalf("indices = %v, want %v", got, tt.indexed)
			}
			for i := range got {
				if got[i] != tt.indexed[i] {
					t.Errorf("indices = %v, want %v", got, tt.indexed)
					break
				}
			}
		})
	}
}

func indexValues(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return out
}

func TestDrawElements(t *testing.T) {
	vb, rec := newRecorded(4)
	_ = vb.AddValues("position", 2, Float, false, make([]float64, 8))
	ix, err := QuadIndices(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := vb.DrawElements(Triangles, ix, 0, 3, 0, ix.Len()); err != nil {
		t.Fatalf("DrawElements() error = %v", err)
	}
	cmd := rec.Draws[0].Command
	if cmd.Indices.Format != gputypes.IndexFormatUint16 {
		t.Errorf("byte indices should widen to uint16, got %v", cmd.Indices.Format)
	}
	want := []uint16{0, 1, 2, 2, 1, 3}
	got := indexValues(cmd.Indices.Data)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices = %v, want %v", got, want)
		}
	}

	// Second triangle only.
	if err := vb.DrawElements(Triangles, ix, 1, 3, 3, 3); err != nil {
		t.Fatalf("DrawElements(offset) error = %v", err)
	}
	if got := indexValues(rec.Draws[1].Command.Indices.Data); got[0] != 2 || len(got) != 3 {
		t.Errorf("offset indices = %v, want [2 1 3]", got)
	}
}

func TestDrawElementsErrors(t *testing.T) {
	ix, _ := NewIndices(IndicesUnsignedShort, []uint32{0, 1, 2, 3})
	tests := []struct {
		name               string
		minIndex, maxIndex int
		offset, count      int
		indices            *Indices
		want               error
	}{
		{"max past vertices", 0, 4, 0, 3, ix, ErrRange},
		{"min above max", 2, 1, 0, 3, ix, ErrRange},
		{"negative min", -1, 3, 0, 3, ix, ErrRange},
		{"indices overflow", 0, 3, 2, 3, ix, ErrRange},
		{"index outside bounds", 0, 2, 0, 4, ix, ErrRange},
		{"nil indices", 0, 3, 0, 0, nil, ErrInvalidIndices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vb, rec := newRecorded(4)
			_ = vb.AddValues("position", 2, Float, false, make([]float64, 8))
			err := vb.DrawElements(Triangles, tt.indices, tt.minIndex, tt.maxIndex, tt.offset, tt.count)
			if !errors.Is(err, tt.want) {
				t.Errorf("DrawElements() error = %v, want %v", err, tt.want)
			}
			if len(rec.Draws) != 0 {
				t.Error("failed DrawElements() dispatched")
			}
		})
	}
}

func TestDrawResubmitsWhenDirty(t *testing.T) {
	vb, rec := newRecorded(3)
	_ = vb.AddValues("position", 2, Float, false, make([]float64, 6))
	_ = vb.DrawAll(Triangles)
	_ = vb.DrawAll(Triangles)
	if len(rec.Uploads) != 1 {
		t.Errorf("uploads = %d, want 1 for unchanged attributes", len(rec.Uploads))
	}
	_ = vb.AddValues("color", 4, UnsignedByte, true, make([]float64, 12))
	if err := vb.DrawAll(Triangles); err != nil {
		t.Fatal(err)
	}
	if len(rec.Uploads) != 2 {
		t.Errorf("uploads = %d, want 2 after redeclaring", len(rec.Uploads))
	}
}
