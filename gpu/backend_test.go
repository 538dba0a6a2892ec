package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestIndexDataCount(t *testing.T) {
	tests := []struct {
		name string
		data IndexData
		want int
	}{
		{"uint16", IndexData{Format: gputypes.IndexFormatUint16, Data: make([]byte, 12)}, 6},
		{"uint32", IndexData{Format: gputypes.IndexFormatUint32, Data: make([]byte, 12)}, 3},
		{"empty", IndexData{Format: gputypes.IndexFormatUint16}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Count(); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVertexLayoutFind(t *testing.T) {
	l := posColorLayout()
	a, ok := l.Find(LocationColor)
	if !ok || a.Name != "color" {
		t.Errorf("Find(LocationColor) = %v, %v", a, ok)
	}
	if _, ok := l.Find(LocationNormal); ok {
		t.Error("Find(LocationNormal) should miss")
	}
}

func TestVertexLayoutKey(t *testing.T) {
	a := posColorLayout()
	b := posColorLayout()
	if a.key() != b.key() {
		t.Error("equal layouts should share a key")
	}
	b.Attributes[1].Offset = 14
	if a.key() == b.key() {
		t.Error("different offsets should produce different keys")
	}
}

func TestCheckTopology(t *testing.T) {
	if err := checkTopology(gputypes.PrimitiveTopologyTriangleStrip); err != nil {
		t.Errorf("checkTopology(TriangleStrip) = %v", err)
	}
	if err := checkTopology(gputypes.PrimitiveTopology(99)); !errors.Is(err, ErrUnsupportedTopology) {
		t.Errorf("checkTopology(99) = %v, want ErrUnsupportedTopology", err)
	}
}

func TestIdentity(t *testing.T) {
	m := Identity()
	for i := range 16 {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		if m[i] != want {
			t.Errorf("Identity()[%d] = %v, want %v", i, m[i], want)
		}
	}
}
