// Package texture provides CPU-side texture objects backed by pixel
// buffers, with format conversion on the way in and out and optional
// upload to a GPU backend.
package texture

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/mesh"
	"github.com/gogpu/mesh/pixel"
)

// Flags tune how a texture is created.
type Flags uint8

const (
	// FlagNone selects the defaults.
	FlagNone Flags = 0

	// FlagNoAutoMipmap disables mipmap generation on upload.
	FlagNoAutoMipmap Flags = 1 << (iota - 1)

	// FlagNoSlicing requests a single GPU texture even when the size
	// exceeds device limits.
	FlagNoSlicing
)

// String returns a string representation of the flags.
func (f Flags) String() string {
	switch f {
	case FlagNone:
		return "None"
	case FlagNoAutoMipmap:
		return "NoAutoMipmap"
	case FlagNoSlicing:
		return "NoSlicing"
	case FlagNoAutoMipmap | FlagNoSlicing:
		return "NoAutoMipmap|NoSlicing"
	default:
		return fmt.Sprintf("Flags(%d)", uint8(f))
	}
}

// Sink receives texture pixels for GPU upload. The data is tightly packed
// premultiplied RGBA.
type Sink interface {
	UploadTexture(label string, width, height int, rgba []byte) error
}

// Texture is a rectangle of pixels stored in an internal format.
// Sub-textures share storage with their parent.
//
// Texture implements gpucontext.Texture, gpucontext.TextureUpdater and
// gpucontext.TextureRegionUpdater.
type Texture struct {
	buf    *pixel.Buffer
	flags  Flags
	parent *Texture
	dirty  bool
}

var (
	_ gpucontext.Texture              = (*Texture)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

// NewWithSize creates a zeroed texture. FormatAny selects premultiplied RGBA.
func NewWithSize(width, height int, flags Flags, internal pixel.Format) (*Texture, error) {
	if internal == pixel.FormatAny {
		internal = pixel.FormatRGBA8888Pre
	}
	buf, err := pixel.NewBuffer(width, height, internal)
	if err != nil {
		return nil, fmt.Errorf("texture: new %dx%d: %w", width, height, err)
	}
	return &Texture{buf: buf, flags: flags, dirty: true}, nil
}

// NewFromData creates a texture from caller-supplied pixels in src format.
// A zero rowstride means tightly packed rows. Data must supply
// rowstride*height bytes. FormatAny as the internal format keeps the
// source format.
func NewFromData(width, height int, flags Flags, src, internal pixel.Format, rowstride int, data []byte) (*Texture, error) {
	in, err := pixel.FromData(data, width, height, src, rowstride)
	if err != nil {
		return nil, fmt.Errorf("texture: from data: %w", err)
	}
	return fromBuffer(in, flags, internal)
}

// NewFromBuffer creates a texture from a pixel buffer, converting it to the
// internal format. The buffer is copied.
func NewFromBuffer(buf *pixel.Buffer, flags Flags, internal pixel.Format) (*Texture, error) {
	return fromBuffer(buf, flags, internal)
}

// NewFromFile decodes an image file into a texture. FormatAny as the
// internal format selects premultiplied RGBA.
func NewFromFile(path string, flags Flags, internal pixel.Format) (*Texture, error) {
	buf, err := pixel.Load(path)
	if err != nil {
		return nil, fmt.Errorf("texture: from file: %w", err)
	}
	if internal == pixel.FormatAny {
		internal = pixel.FormatRGBA8888Pre
	}
	return fromBuffer(buf, flags, internal)
}

func fromBuffer(in *pixel.Buffer, flags Flags, internal pixel.Format) (*Texture, error) {
	buf, err := in.Convert(internal)
	if err != nil {
		return nil, fmt.Errorf("texture: convert: %w", err)
	}
	mesh.Logger().Debug("texture created",
		"width", buf.Width(), "height", buf.Height(), "format", buf.Format())
	return &Texture{buf: buf, flags: flags, dirty: true}, nil
}

// Sub returns a texture that views a rectangle of t. Writes through either
// texture are visible in both.
func (t *Texture) Sub(x, y, width, height int) (*Texture, error) {
	buf, err := t.buf.SubBuffer(x, y, width, height)
	if err != nil {
		return nil, fmt.Errorf("texture: sub-texture: %w", err)
	}
	return &Texture{buf: buf, flags: t.flags, parent: t, dirty: true}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.buf.Width() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.buf.Height() }

// Format returns the internal pixel format.
func (t *Texture) Format() pixel.Format { return t.buf.Format() }

// Flags returns the creation flags.
func (t *Texture) Flags() Flags { return t.flags }

// Parent returns the texture this one was cut from, or nil.
func (t *Texture) Parent() *Texture { return t.parent }

// Rowstride returns the byte distance between rows of the internal storage.
func (t *Texture) Rowstride() int { return t.buf.Stride() }

// Buffer returns the backing pixel buffer.
func (t *Texture) Buffer() *pixel.Buffer { return t.buf }

// Data returns the texture pixels converted to format with rows rowstride
// bytes apart. FormatAny selects the internal format; a zero rowstride
// means tightly packed rows.
func (t *Texture) Data(format pixel.Format, rowstride int) ([]byte, error) {
	format = resolve(format, t.buf.Format())
	row := format.RowBytes(t.Width())
	if rowstride == 0 {
		rowstride = row
	}
	if rowstride < row {
		return nil, fmt.Errorf("texture: data: %w", pixel.ErrInvalidStride)
	}
	out := make([]byte, rowstride*t.Height())
	if err := t.buf.ReadInto(out, rowstride, 0, 0, t.Width(), t.Height(), format); err != nil {
		return nil, fmt.Errorf("texture: data: %w", err)
	}
	return out, nil
}

// SetRegion copies a dstWidth*dstHeight block starting at (srcX, srcY) of
// data to (dstX, dstY). data is a width*height image laid out in format
// with rows rowstride bytes apart; a zero rowstride means tightly packed.
// The write is rejected before any pixel changes if data is too short or
// either window falls outside its image.
func (t *Texture) SetRegion(srcX, srcY, dstX, dstY, dstWidth, dstHeight, width, height int,
	format pixel.Format, rowstride int, data []byte) error {
	if dstWidth == 0 || dstHeight == 0 {
		return nil
	}
	format = resolve(format, t.buf.Format())
	src, err := pixel.FromData(data, width, height, format, rowstride)
	if err != nil {
		return fmt.Errorf("texture: set region: %w", err)
	}
	if err := t.buf.Blit(dstX, dstY, src, srcX, srcY, dstWidth, dstHeight); err != nil {
		return fmt.Errorf("texture: set region: %w", err)
	}
	t.markDirty()
	return nil
}

// UpdateRegion writes tightly packed pixels in the internal format to the
// w*h rectangle at (x, y).
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if err := t.buf.WriteRegion(x, y, w, h, data, pixel.FormatAny, 0); err != nil {
		return fmt.Errorf("texture: update region: %w", err)
	}
	t.markDirty()
	return nil
}

// UpdateData replaces every pixel with tightly packed data in the internal
// format.
func (t *Texture) UpdateData(data []byte) error {
	return t.UpdateRegion(0, 0, t.Width(), t.Height(), data)
}

// Dirty reports whether the pixels changed since the last upload.
func (t *Texture) Dirty() bool { return t.dirty }

// Upload sends the pixels to sink as premultiplied RGBA if they changed
// since the previous upload.
func (t *Texture) Upload(sink Sink, label string) error {
	if !t.dirty {
		return nil
	}
	rgba, err := t.Data(pixel.FormatRGBA8888Pre, 0)
	if err != nil {
		return err
	}
	if err := sink.UploadTexture(label, t.Width(), t.Height(), rgba); err != nil {
		return fmt.Errorf("texture: upload %q: %w", label, err)
	}
	t.dirty = false
	return nil
}

func (t *Texture) markDirty() {
	for p := t; p != nil; p = p.parent {
		p.dirty = true
	}
}

func resolve(f, fallback pixel.Format) pixel.Format {
	if f == pixel.FormatAny {
		return fallback
	}
	return f
}
