package pixel

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
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{G: 255, A: 128})
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return out.Bytes()
}

func TestDecodePNG(t *testing.T) {
	buf, err := Decode(bytes.NewReader(encodePNG(t)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Fatalf("Decode() size = %dx%d, want 3x2", buf.Width(), buf.Height())
	}
	straight, err := buf.ReadRegion(0, 0, 3, 2, FormatRGBA8888)
	if err != nil {
		t.Fatalf("ReadRegion() error = %v", err)
	}
	if got := straight[0:4]; !bytes.Equal(got, []byte{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v, want opaque red", got)
	}
	if got := straight[20:24]; !bytes.Equal(got, []byte{0, 255, 0, 128}) {
		t.Errorf("pixel (2,1) = %v, want half transparent green", got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, mesh.ErrParse) {
		t.Errorf("Decode(garbage) error = %v, want ErrParse", err)
	}
}

func TestLoadAndSizeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitmap.png")
	if err := os.WriteFile(path, encodePNG(t), 0o600); err != nil {
		t.Fatal(err)
	}

	w, h, err := SizeFromFile(path)
	if err != nil {
		t.Fatalf("SizeFromFile() error = %v", err)
	}
	if w != 3 || h != 2 {
		t.Errorf("SizeFromFile() = %dx%d, want 3x2", w, h)
	}

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if buf.Width() != w || buf.Height() != h {
		t.Errorf("Load() size = %dx%d, want %dx%d", buf.Width(), buf.Height(), w, h)
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.png")
	if _, err := Load(missing); !errors.Is(err, mesh.ErrIO) {
		t.Errorf("Load(missing) error = %v, want ErrIO", err)
	}
	if _, _, err := SizeFromFile(missing); !errors.Is(err, mesh.ErrIO) {
		t.Errorf("SizeFromFile(missing) error = %v, want ErrIO", err)
	}
}

func TestFromImageSubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	sub := img.SubImage(image.Rect(2, 2, 4, 4))

	buf, err := FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	if buf.Format() != FormatRGBA8888Pre {
		t.Errorf("Format() = %v, want RGBA8888Pre", buf.Format())
	}
	if got := buf.RGBA(1, 1); got != ([4]uint8{10, 20, 30, 255}) {
		t.Errorf("RGBA(1,1) = %v, want {10 20 30 255}", got)
	}
}

func TestBufferImage(t *testing.T) {
	buf, _ := NewBuffer(2, 1, FormatBGRA8888Pre)
	_ = buf.SetRGBA(1, 0, [4]uint8{0, 64, 0, 128})
	img := buf.Image()
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{G: 128, A: 128}) {
		t.Errorf("Image().NRGBAAt(1,0) = %v, want {0 128 0 128}", got)
	}
	if got := buf.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Errorf("Bounds() = %v, want (0,0)-(2,1)", got)
	}
}
