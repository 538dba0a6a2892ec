package pixel

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/mesh"
)

// Decode decodes an image from r, auto-detecting the file format.
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP. The result uses
// FormatRGBA8888Pre for *image.RGBA sources and FormatRGBA8888 otherwise.
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: pixel: decode: %w", mesh.ErrParse, err)
	}
	return FromImage(img)
}

// Load decodes the image file at path.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: pixel: open file: %w", mesh.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// SizeFromFile reads only the header of the image file at path and returns
// its dimensions.
func SizeFromFile(path string) (width, height int, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: pixel: open file: %w", mesh.ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: pixel: decode config: %w", mesh.ErrParse, err)
	}
	return cfg.Width, cfg.Height, nil
}

// FromImage copies a standard library image into a new Buffer.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.RGBA:
		return copyPix(src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):], w, h, FormatRGBA8888Pre, src.Stride)
	case *image.NRGBA:
		return copyPix(src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):], w, h, FormatRGBA8888, src.Stride)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return FromData(dst.Pix, w, h, FormatRGBA8888, dst.Stride)
}

func copyPix(pix []byte, w, h int, format Format, stride int) (*Buffer, error) {
	in, err := wrap(pix, w, h, format, stride)
	if err != nil {
		return nil, err
	}
	return in.Convert(FormatAny)
}

// Image returns a straight-alpha copy of the buffer as an *image.NRGBA.
func (b *Buffer) Image() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	_ = b.ReadInto(dst.Pix, dst.Stride, 0, 0, b.width, b.height, FormatRGBA8888)
	return dst
}

// ColorModel, Bounds and At let a Buffer be used as an image.Image.
func (b *Buffer) ColorModel() color.Model { return color.NRGBAModel }

// Bounds returns the buffer rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

// At returns the color at (x, y).
func (b *Buffer) At(x, y int) color.Color {
	px := b.RGBA(x, y)
	if b.format.IsPremultiplied() {
		return color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
	}
	return color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}
