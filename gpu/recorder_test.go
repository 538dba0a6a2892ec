package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/mesh"
)

func TestRecorderUploadAndDraw(t *testing.T) {
	r := NewRecorder()
	data := make([]byte, 3*16)
	v, err := r.UploadVertices("tri", posColorLayout(), data)
	if err != nil {
		t.Fatalf("UploadVertices() error = %v", err)
	}
	if v.Count() != 3 {
		t.Errorf("Count() = %d, want 3", v.Count())
	}
	data[0] = 0xFF
	if r.Uploads[0].Data[0] != 0 {
		t.Error("recorder should keep a copy of the vertex data")
	}

	u := DefaultUniforms()
	u.Color = [4]float32{1, 0, 0, 1}
	r.SetUniforms(u)

	idx := &IndexData{Format: gputypes.IndexFormatUint16, Data: []byte{0, 0, 1, 0, 2, 0}}
	cmd := DrawCommand{Topology: gputypes.PrimitiveTopologyTriangleList, Count: 3, Indices: idx}
	if err := r.Draw(v, cmd); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	idx.Data[0] = 9
	if len(r.Draws) != 1 {
		t.Fatalf("len(Draws) = %d, want 1", len(r.Draws))
	}
	d := r.Draws[0]
	if d.Label != "tri" || d.Uniforms.Color != u.Color {
		t.Errorf("Draws[0] = %+v", d)
	}
	if d.Command.Indices.Data[0] != 0 {
		t.Error("recorder should keep a copy of the indices")
	}
}

func TestRecorderDrawErrors(t *testing.T) {
	r := NewRecorder()
	other := NewRecorder()
	v, _ := r.UploadVertices("v", posColorLayout(), make([]byte, 16))
	cmd := DrawCommand{Topology: gputypes.PrimitiveTopologyPointList, Count: 1}

	if err := other.Draw(v, cmd); !errors.Is(err, ErrForeignVertices) {
		t.Errorf("foreign Draw() = %v, want ErrForeignVertices", err)
	}
	if err := r.Draw(v, DrawCommand{Topology: 42}); !errors.Is(err, ErrUnsupportedTopology) {
		t.Errorf("Draw(bad topology) = %v, want ErrUnsupportedTopology", err)
	}
	v.Release()
	v.Release()
	if err := r.Draw(v, cmd); !errors.Is(err, ErrReleased) {
		t.Errorf("released Draw() = %v, want ErrReleased", err)
	}
	if !errors.Is(ErrReleased, mesh.ErrValidation) {
		t.Error("ErrReleased should be a validation error")
	}
	if len(r.Draws) != 0 {
		t.Errorf("failed draws were recorded: %d", len(r.Draws))
	}
}

func TestRecorderUploadTexture(t *testing.T) {
	r := NewRecorder()
	if err := r.UploadTexture("t", 2, 2, make([]byte, 15)); !errors.Is(err, mesh.ErrValidation) {
		t.Errorf("short UploadTexture() = %v, want ErrValidation", err)
	}
	if err := r.UploadTexture("t", 2, 2, make([]byte, 16)); err != nil {
		t.Fatalf("UploadTexture() error = %v", err)
	}
	r.Reset()
	if len(r.Textures) != 0 || len(r.Uploads) != 0 || len(r.Draws) != 0 {
		t.Error("Reset() should clear recorded calls")
	}
}
