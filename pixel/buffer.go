package pixel

import (
	"fmt"

	"github.com/gogpu/mesh"
)

// Errors returned by buffer operations. Each wraps a mesh error class.
var (
	// ErrInvalidDimensions is returned when width or height is negative, or
	// zero where a non-empty buffer is required.
	ErrInvalidDimensions = fmt.Errorf("pixel: invalid dimensions: %w", mesh.ErrArgument)

	// ErrInvalidFormat is returned when the format is not recognized or is
	// FormatAny where a storage layout is required.
	ErrInvalidFormat = fmt.Errorf("pixel: invalid format: %w", mesh.ErrArgument)

	// ErrInvalidStride is returned when a stride is smaller than one
	// packed row.
	ErrInvalidStride = fmt.Errorf("pixel: stride too small for width: %w", mesh.ErrValidation)

	// ErrDataTooSmall is returned when provided data is shorter than the
	// declared dimensions require.
	ErrDataTooSmall = fmt.Errorf("pixel: data buffer too small: %w", mesh.ErrValidation)

	// ErrOutOfBounds is returned when a region extends outside a buffer.
	ErrOutOfBounds = fmt.Errorf("pixel: region out of bounds: %w", mesh.ErrValidation)
)

// Buffer is a rectangular block of pixels in a single format. Rows start
// stride bytes apart; bytes between the end of one row and the start of
// the next are padding and never read.
//
// Buffer is not safe for concurrent mutation.
type Buffer struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// NewBuffer creates a zeroed, tightly packed buffer.
func NewBuffer(width, height int, format Format) (*Buffer, error) {
	if !format.IsConcrete() {
		return nil, ErrInvalidFormat
	}
	return NewBufferWithStride(width, height, format, format.RowBytes(width))
}

// NewBufferWithStride creates a zeroed buffer with a custom row stride.
// Stride must be at least format.RowBytes(width).
func NewBufferWithStride(width, height int, format Format, stride int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsConcrete() {
		return nil, ErrInvalidFormat
	}
	if stride < format.RowBytes(width) {
		return nil, ErrInvalidStride
	}
	return &Buffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// FromData creates a buffer holding a private copy of data. A zero stride
// means tightly packed rows. Data must provide stride*height bytes.
func FromData(data []byte, width, height int, format Format, stride int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsConcrete() {
		return nil, ErrInvalidFormat
	}
	if stride == 0 {
		stride = format.RowBytes(width)
	}
	if stride < format.RowBytes(width) {
		return nil, ErrInvalidStride
	}
	if need := stride * height; len(data) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrDataTooSmall, len(data), need)
	}
	buf := make([]byte, stride*height)
	copy(buf, data)
	return &Buffer{data: buf, width: width, height: height, stride: stride, format: format}, nil
}

// wrap creates a read-only view over data without copying. The last row
// does not need trailing padding.
func wrap(data []byte, width, height int, format Format, stride int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsConcrete() {
		return nil, ErrInvalidFormat
	}
	row := format.RowBytes(width)
	if stride == 0 {
		stride = row
	}
	if stride < row {
		return nil, ErrInvalidStride
	}
	if width == 0 || height == 0 {
		return &Buffer{width: width, height: height, stride: stride, format: format}, nil
	}
	if need := stride*(height-1) + row; len(data) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrDataTooSmall, len(data), need)
	}
	return &Buffer{data: data, width: width, height: height, stride: stride, format: format}, nil
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, width: b.width, height: b.height, stride: b.stride, format: b.format}
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Stride returns the distance in bytes between the starts of two rows.
func (b *Buffer) Stride() int { return b.stride }

// Format returns the pixel format.
func (b *Buffer) Format() Format { return b.format }

// Data returns the underlying pixel bytes. Modifications are visible to the
// buffer.
func (b *Buffer) Data() []byte { return b.data }

// Row returns the packed bytes of row y, or nil if y is out of range.
func (b *Buffer) Row(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.format.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y), or -1 if the
// coordinates are out of bounds.
func (b *Buffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// RGBA returns the pixel at (x, y) in RGBA order without changing its
// premultiplication state. Missing channels read as 0 (color) or 255
// (alpha). Out-of-bounds reads return zero.
func (b *Buffer) RGBA(x, y int) [4]uint8 {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return [4]uint8{}
	}
	info := b.format.Info()
	return unpack(b.data[off:], &info)
}

// SetRGBA stores an RGBA pixel, already in the buffer's premultiplication
// state, at (x, y).
func (b *Buffer) SetRGBA(x, y int, px [4]uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	info := b.format.Info()
	pack(b.data[off:], &info, px)
	return nil
}

// Fill sets every pixel to px, given in the buffer's premultiplication
// state.
func (b *Buffer) Fill(px [4]uint8) {
	info := b.format.Info()
	bpp := info.BytesPerPixel
	for y := range b.height {
		row := b.Row(y)
		for x := range b.width {
			pack(row[x*bpp:], &info, px)
		}
	}
}

// SubBuffer returns a view into a rectangular region. The view shares
// pixel storage with b. Returns ErrOutOfBounds if the region does not fit.
func (b *Buffer) SubBuffer(x, y, width, height int) (*Buffer, error) {
	if err := b.checkRegion(x, y, width, height); err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, ErrInvalidDimensions
	}
	bpp := b.format.BytesPerPixel()
	start := y*b.stride + x*bpp
	end := (y+height-1)*b.stride + (x+width)*bpp
	return &Buffer{
		data:   b.data[start:end],
		width:  width,
		height: height,
		stride: b.stride,
		format: b.format,
	}, nil
}

// Convert returns a tightly packed copy of the buffer in format dst.
// FormatAny yields a plain copy.
func (b *Buffer) Convert(dst Format) (*Buffer, error) {
	dst = dst.resolve(b.format)
	out, err := NewBuffer(b.width, b.height, dst)
	if err != nil {
		return nil, fmt.Errorf("pixel: convert to %v: %w", dst, err)
	}
	if err := out.Blit(0, 0, b, 0, 0, b.width, b.height); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRegion returns the w*h pixels at (x, y) as tightly packed rows in
// format. FormatAny selects the buffer's own format.
func (b *Buffer) ReadRegion(x, y, w, h int, format Format) ([]byte, error) {
	format = format.resolve(b.format)
	if !format.IsConcrete() {
		return nil, ErrInvalidFormat
	}
	if w < 0 || h < 0 {
		return nil, ErrInvalidDimensions
	}
	dst := make([]byte, format.RowBytes(w)*h)
	if err := b.ReadInto(dst, 0, x, y, w, h, format); err != nil {
		return nil, err
	}
	return dst, nil
}

// ReadInto copies the w*h pixels at (x, y) into dst, converting to format,
// with rows dstStride bytes apart. A zero dstStride means tightly packed.
func (b *Buffer) ReadInto(dst []byte, dstStride, x, y, w, h int, format Format) error {
	format = format.resolve(b.format)
	out, err := wrap(dst, w, h, format, dstStride)
	if err != nil {
		return fmt.Errorf("pixel: read region: %w", err)
	}
	return out.Blit(0, 0, b, x, y, w, h)
}

// WriteRegion copies a w*h block from src, whose rows are srcStride bytes
// apart in srcFormat, to (x, y). The source is converted to the buffer's
// format. A zero srcStride means tightly packed; FormatAny means the
// buffer's own format. The source length and the destination window are
// validated before any byte is written.
func (b *Buffer) WriteRegion(x, y, w, h int, src []byte, srcFormat Format, srcStride int) error {
	in, err := wrap(src, w, h, srcFormat.resolve(b.format), srcStride)
	if err != nil {
		return fmt.Errorf("pixel: write region: %w", err)
	}
	return b.Blit(x, y, in, 0, 0, w, h)
}

// Blit copies the w*h pixels at (srcX, srcY) in src to (dstX, dstY) in b,
// converting formats as needed. Zero width or height is a no-op. Both
// windows are checked before any pixel is written; pixels outside the
// destination window are never touched.
func (b *Buffer) Blit(dstX, dstY int, src *Buffer, srcX, srcY, w, h int) error {
	if w < 0 || h < 0 {
		return ErrInvalidDimensions
	}
	if w == 0 || h == 0 {
		return nil
	}
	if err := b.checkRegion(dstX, dstY, w, h); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if err := src.checkRegion(srcX, srcY, w, h); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	sbpp := src.format.BytesPerPixel()
	dbpp := b.format.BytesPerPixel()
	for row := range h {
		s := src.data[(srcY+row)*src.stride+srcX*sbpp:]
		d := b.data[(dstY+row)*b.stride+dstX*dbpp:]
		if err := ConvertPixels(d, b.format, s, src.format, w); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buffer) checkRegion(x, y, w, h int) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > b.width || y+h > b.height {
		return fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d", ErrOutOfBounds, w, h, x, y, b.width, b.height)
	}
	return nil
}
