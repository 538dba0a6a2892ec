// Package pixel converts packed 8-bit pixel data between formats and
// copies rectangular regions between buffers.
//
// A [Buffer] stores rows of pixels with an explicit stride. Conversions
// handle 3/4 channel expansion, channel reordering and premultiplied
// alpha, using round-to-nearest arithmetic so that fully opaque pixels
// survive any round trip unchanged.
package pixel

// Format represents a packed 8-bit-per-channel pixel layout.
type Format uint8

const (
	// FormatAny is a sentinel meaning "infer from context, do not convert".
	// It is accepted where a conversion target or source may be omitted and
	// resolves to the format of the buffer involved.
	FormatAny Format = iota

	// FormatA8 is 8-bit alpha only. Unpacked color channels are zero.
	FormatA8

	// FormatG8 is 8-bit luminance. Packing uses (76R + 150G + 29B) / 256.
	FormatG8

	// FormatRGB888 is 24-bit RGB, no alpha.
	FormatRGB888

	// FormatBGR888 is 24-bit BGR, no alpha.
	FormatBGR888

	// FormatRGBA8888 is 32-bit RGBA with straight alpha.
	FormatRGBA8888

	// FormatBGRA8888 is 32-bit BGRA with straight alpha.
	FormatBGRA8888

	// FormatARGB8888 is 32-bit ARGB with straight alpha.
	FormatARGB8888

	// FormatABGR8888 is 32-bit ABGR with straight alpha.
	FormatABGR8888

	// FormatRGBA8888Pre is 32-bit RGBA with premultiplied alpha.
	FormatRGBA8888Pre

	// FormatBGRA8888Pre is 32-bit BGRA with premultiplied alpha.
	FormatBGRA8888Pre

	// FormatARGB8888Pre is 32-bit ARGB with premultiplied alpha.
	FormatARGB8888Pre

	// FormatABGR8888Pre is 32-bit ABGR with premultiplied alpha.
	FormatABGR8888Pre

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// Name is the human readable format name.
	Name string

	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsPremultiplied indicates if alpha is premultiplied.
	IsPremultiplied bool

	// IsGrayscale indicates a single luminance channel.
	IsGrayscale bool

	// Order gives the byte index of R, G, B and A within a pixel.
	// A negative index marks a channel the format does not store.
	Order [4]int8
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatAny:         {Name: "Any", Order: [4]int8{-1, -1, -1, -1}},
	FormatA8:          {Name: "A8", BytesPerPixel: 1, HasAlpha: true, Order: [4]int8{-1, -1, -1, 0}},
	FormatG8:          {Name: "G8", BytesPerPixel: 1, IsGrayscale: true, Order: [4]int8{0, 0, 0, -1}},
	FormatRGB888:      {Name: "RGB888", BytesPerPixel: 3, Order: [4]int8{0, 1, 2, -1}},
	FormatBGR888:      {Name: "BGR888", BytesPerPixel: 3, Order: [4]int8{2, 1, 0, -1}},
	FormatRGBA8888:    {Name: "RGBA8888", BytesPerPixel: 4, HasAlpha: true, Order: [4]int8{0, 1, 2, 3}},
	FormatBGRA8888:    {Name: "BGRA8888", BytesPerPixel: 4, HasAlpha: true, Order: [4]int8{2, 1, 0, 3}},
	FormatARGB8888:    {Name: "ARGB8888", BytesPerPixel: 4, HasAlpha: true, Order: [4]int8{1, 2, 3, 0}},
	FormatABGR8888:    {Name: "ABGR8888", BytesPerPixel: 4, HasAlpha: true, Order: [4]int8{3, 2, 1, 0}},
	FormatRGBA8888Pre: {Name: "RGBA8888Pre", BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true, Order: [4]int8{0, 1, 2, 3}},
	FormatBGRA8888Pre: {Name: "BGRA8888Pre", BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true, Order: [4]int8{2, 1, 0, 3}},
	FormatARGB8888Pre: {Name: "ARGB8888Pre", BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true, Order: [4]int8{1, 2, 3, 0}},
	FormatABGR8888Pre: {Name: "ABGR8888Pre", BytesPerPixel: 4, HasAlpha: true, IsPremultiplied: true, Order: [4]int8{3, 2, 1, 0}},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{Order: [4]int8{-1, -1, -1, -1}}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
// FormatAny reports zero.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsPremultiplied returns true if alpha is premultiplied.
func (f Format) IsPremultiplied() bool {
	return f.Info().IsPremultiplied
}

// String returns a string representation of the format.
func (f Format) String() string {
	if f >= formatCount {
		return "Unknown"
	}
	return formatInfoTable[f].Name
}

// IsValid returns true for every known format, including FormatAny.
func (f Format) IsValid() bool {
	return f < formatCount
}

// IsConcrete returns true for a known format that describes a storage
// layout, i.e. any valid format except FormatAny.
func (f Format) IsConcrete() bool {
	return f > FormatAny && f < formatCount
}

// RowBytes returns the number of bytes in a tightly packed row.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// Premultiplied returns the premultiplied variant of this format, or the
// format itself if it is already premultiplied or has no color+alpha pair.
func (f Format) Premultiplied() Format {
	switch f {
	case FormatRGBA8888:
		return FormatRGBA8888Pre
	case FormatBGRA8888:
		return FormatBGRA8888Pre
	case FormatARGB8888:
		return FormatARGB8888Pre
	case FormatABGR8888:
		return FormatABGR8888Pre
	default:
		return f
	}
}

// Unpremultiplied returns the straight-alpha variant of this format, or the
// format itself if it is not premultiplied.
func (f Format) Unpremultiplied() Format {
	switch f {
	case FormatRGBA8888Pre:
		return FormatRGBA8888
	case FormatBGRA8888Pre:
		return FormatBGRA8888
	case FormatARGB8888Pre:
		return FormatARGB8888
	case FormatABGR8888Pre:
		return FormatABGR8888
	default:
		return f
	}
}

// resolve maps FormatAny to fallback.
func (f Format) resolve(fallback Format) Format {
	if f == FormatAny {
		return fallback
	}
	return f
}
