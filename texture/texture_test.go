package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/pixel"
)

func redTexture(t *testing.T) *Texture {
	t.Helper()
	data := bytes.Repeat([]byte{0xff, 0x00, 0x00, 0xff}, 32*16)
	tex, err := NewFromData(32, 16, FlagNone, pixel.FormatRGBA8888, pixel.FormatRGBA8888Pre, 128, data)
	if err != nil {
		t.Fatalf("NewFromData() error = %v", err)
	}
	return tex
}

func pixelAt(t *testing.T, data []byte, rowstride, x, y int) []byte {
	t.Helper()
	off := y*rowstride + x*4
	return data[off : off+4]
}

func TestSetRegion(t *testing.T) {
	tex := redTexture(t)
	if err := tex.SetRegion(0, 0, 3, 4, 1, 1, 1, 1, pixel.FormatRGBA8888, 4, []byte{0x00, 0xff, 0xff, 0xff}); err != nil {
		t.Fatalf("SetRegion() error = %v", err)
	}

	data, err := tex.Data(pixel.FormatRGBA8888, 128)
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if got := pixelAt(t, data, 128, 3, 4); !bytes.Equal(got, []byte{0x00, 0xff, 0xff, 0xff}) {
		t.Errorf("pixel (3,4) = %x, want 00ffffff", got)
	}
	for _, x := range []int{2, 4} {
		if got := pixelAt(t, data, 128, x, 4); !bytes.Equal(got, []byte{0xff, 0x00, 0x00, 0xff}) {
			t.Errorf("pixel (%d,4) = %x, want ff0000ff", x, got)
		}
	}
}

func TestSetRegionFromLargerSource(t *testing.T) {
	tex := redTexture(t)
	src := make([]byte, 3*3*3)
	src[(1*3+2)*3+1] = 0xff // green at (2,1)

	if err := tex.SetRegion(2, 1, 0, 0, 1, 1, 3, 3, pixel.FormatRGB888, 0, src); err != nil {
		t.Fatalf("SetRegion() error = %v", err)
	}
	data, _ := tex.Data(pixel.FormatAny, 0)
	if got := pixelAt(t, data, 128, 0, 0); !bytes.Equal(got, []byte{0, 0xff, 0, 0xff}) {
		t.Errorf("pixel (0,0) = %x, want 00ff00ff", got)
	}
}

func TestSetRegionRejects(t *testing.T) {
	tests := []struct {
		name       string
		dstX, dstY int
		w, h       int
		data       []byte
		wantErr    error
	}{
		{"short data", 0, 0, 1, 1, []byte{1, 2, 3}, pixel.ErrDataTooSmall},
		{"window outside texture", 32, 0, 1, 1, []byte{1, 2, 3, 4}, pixel.ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex := redTexture(t)
			before, _ := tex.Data(pixel.FormatAny, 0)
			err := tex.SetRegion(0, 0, tt.dstX, tt.dstY, tt.w, tt.h, 1, 1, pixel.FormatRGBA8888, 0, tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetRegion() error = %v, want %v", err, tt.wantErr)
			}
			after, _ := tex.Data(pixel.FormatAny, 0)
			if !bytes.Equal(before, after) {
				t.Error("SetRegion() changed pixels on failure")
			}
		})
	}
}

func TestNewFromDataPaddedRGB(t *testing.T) {
	data := []byte{
		0xff, 0x00, 0x00, 0, 0, 0, 0, 0,
		0x00, 0xff, 0x00, 0, 0, 0, 0, 0,
	}
	tex, err := NewFromData(1, 2, FlagNone, pixel.FormatRGB888, pixel.FormatRGBA8888Pre, 8, data)
	if err != nil {
		t.Fatalf("NewFromData() error = %v", err)
	}
	got, err := tex.Data(pixel.FormatRGBA8888Pre, 4)
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	want := []byte{0xff, 0x00, 0x00, 0xff, 0x00, 0xff, 0x00, 0xff}
	if !bytes.Equal(got, want) {
		t.Errorf("Data() = %x, want %x", got, want)
	}
}

func TestNewFromDataShort(t *testing.T) {
	_, err := NewFromData(32, 16, FlagNone, pixel.FormatRGBA8888, pixel.FormatAny, 128, make([]byte, 128*16-1))
	if !errors.Is(err, mesh.ErrValidation) {
		t.Errorf("NewFromData(short) error = %v, want validation error", err)
	}
}

func TestNewWithSize(t *testing.T) {
	tex, err := NewWithSize(8, 4, FlagNoAutoMipmap, pixel.FormatAny)
	if err != nil {
		t.Fatalf("NewWithSize() error = %v", err)
	}
	if tex.Width() != 8 || tex.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", tex.Width(), tex.Height())
	}
	if tex.Format() != pixel.FormatRGBA8888Pre {
		t.Errorf("Format() = %v, want RGBA8888Pre", tex.Format())
	}
	if tex.Flags() != FlagNoAutoMipmap {
		t.Errorf("Flags() = %v, want NoAutoMipmap", tex.Flags())
	}
	if _, err := NewWithSize(0, 4, FlagNone, pixel.FormatAny); !errors.Is(err, mesh.ErrArgument) {
		t.Errorf("NewWithSize(0 width) error = %v, want argument error", err)
	}
}

func TestSubTexture(t *testing.T) {
	tex := redTexture(t)
	sub, err := tex.Sub(8, 8, 4, 4)
	if err != nil {
		t.Fatalf("Sub() error = %v", err)
	}
	if sub.Parent() != tex {
		t.Error("Sub().Parent() is not the source texture")
	}
	if err := sub.UpdateRegion(0, 0, 1, 1, []byte{1, 2, 3, 255}); err != nil {
		t.Fatalf("UpdateRegion() error = %v", err)
	}
	data, _ := tex.Data(pixel.FormatAny, 0)
	if got := pixelAt(t, data, 128, 8, 8); !bytes.Equal(got, []byte{1, 2, 3, 255}) {
		t.Errorf("parent pixel (8,8) = %v, want write through sub-texture", got)
	}
	if _, err := tex.Sub(30, 0, 4, 4); !errors.Is(err, pixel.ErrOutOfBounds) {
		t.Errorf("Sub(out of range) error = %v, want ErrOutOfBounds", err)
	}
}

func TestUpdateData(t *testing.T) {
	tex, _ := NewWithSize(2, 1, FlagNone, pixel.FormatRGBA8888)
	if err := tex.UpdateData([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("UpdateData() error = %v", err)
	}
	if err := tex.UpdateData([]byte{1, 2, 3}); !errors.Is(err, pixel.ErrDataTooSmall) {
		t.Errorf("UpdateData(short) error = %v, want ErrDataTooSmall", err)
	}
}

func TestNewFromFile(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})
	var enc bytes.Buffer
	if err := png.Encode(&enc, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "tex.png")
	if err := os.WriteFile(path, enc.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	tex, err := NewFromFile(path, FlagNone, pixel.FormatAny)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	if tex.Format() != pixel.FormatRGBA8888Pre {
		t.Errorf("Format() = %v, want RGBA8888Pre", tex.Format())
	}
	data, _ := tex.Data(pixel.FormatRGB888, 0)
	if got := data[9:12]; !bytes.Equal(got, []byte{0, 0, 255}) {
		t.Errorf("pixel (1,1) = %v, want blue", got)
	}

	if _, err := NewFromFile(filepath.Join(t.TempDir(), "none.png"), FlagNone, pixel.FormatAny); !errors.Is(err, mesh.ErrIO) {
		t.Errorf("NewFromFile(missing) error = %v, want ErrIO", err)
	}
}

type recordingSink struct {
	uploads int
	last    []byte
}

func (s *recordingSink) UploadTexture(_ string, w, h int, rgba []byte) error {
	s.uploads++
	s.last = rgba
	return nil
}

func TestUploadOnlyWhenDirty(t *testing.T) {
	tex, _ := NewWithSize(1, 1, FlagNone, pixel.FormatBGRA8888)
	_ = tex.UpdateData([]byte{3, 2, 1, 255})
	sink := &recordingSink{}

	if err := tex.Upload(sink, "t"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if err := tex.Upload(sink, "t"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if sink.uploads != 1 {
		t.Errorf("uploads = %d, want 1", sink.uploads)
	}
	if !bytes.Equal(sink.last, []byte{1, 2, 3, 255}) {
		t.Errorf("uploaded = %v, want premultiplied RGBA {1 2 3 255}", sink.last)
	}
	if tex.Dirty() {
		t.Error("Dirty() = true after upload")
	}

	_ = tex.UpdateRegion(0, 0, 1, 1, []byte{0, 0, 0, 255})
	_ = tex.Upload(sink, "t")
	if sink.uploads != 2 {
		t.Errorf("uploads after change = %d, want 2", sink.uploads)
	}
}

func TestFlagsString(t *testing.T) {
	if got := (FlagNoAutoMipmap | FlagNoSlicing).String(); got != "NoAutoMipmap|NoSlicing" {
		t.Errorf("String() = %q", got)
	}
	if got := Flags(64).String(); got != "Flags(64)" {
		t.Errorf("String() = %q, want Flags(64)", got)
	}
}
