package pixel

import "fmt"

// Premultiply scales a color channel by alpha: c*a/255 rounded to nearest.
func Premultiply(c, a uint8) uint8 {
	return uint8((uint16(c)*uint16(a) + 127) / 255)
}

// Unpremultiply reverses Premultiply: c*255/a rounded to nearest and
// clamped to 255. A zero alpha yields zero.
func Unpremultiply(c, a uint8) uint8 {
	if a == 0 {
		return 0
	}
	if a == 255 {
		return c
	}
	v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// unpack reads one pixel into RGBA order. Channels the format does not
// store become 0 for color and 255 for alpha. Premultiplication is left
// as stored.
func unpack(p []byte, info *FormatInfo) (px [4]uint8) {
	for c := range 4 {
		switch idx := info.Order[c]; {
		case idx >= 0:
			px[c] = p[idx]
		case c == 3:
			px[c] = 255
		}
	}
	return px
}

// pack writes an RGBA pixel into the format's byte order.
func pack(p []byte, info *FormatInfo, px [4]uint8) {
	if info.IsGrayscale {
		p[0] = uint8((76*uint32(px[0]) + 150*uint32(px[1]) + 29*uint32(px[2])) >> 8)
		return
	}
	for c := range 4 {
		if idx := info.Order[c]; idx >= 0 {
			p[idx] = px[c]
		}
	}
}

// ConvertPixels converts n pixels from src in srcFormat into dst in
// dstFormat. Both slices must hold at least n pixels of their format.
// Converting between formats of equal premultiplication state is lossless
// for the channels both formats store.
func ConvertPixels(dst []byte, dstFormat Format, src []byte, srcFormat Format, n int) error {
	if !srcFormat.IsConcrete() {
		return fmt.Errorf("%w: source %v", ErrInvalidFormat, srcFormat)
	}
	if !dstFormat.IsConcrete() {
		return fmt.Errorf("%w: destination %v", ErrInvalidFormat, dstFormat)
	}
	if n <= 0 {
		return nil
	}
	srcInfo := srcFormat.Info()
	dstInfo := dstFormat.Info()
	if len(src) < n*srcInfo.BytesPerPixel || len(dst) < n*dstInfo.BytesPerPixel {
		return ErrDataTooSmall
	}

	if srcFormat == dstFormat {
		copy(dst[:n*dstInfo.BytesPerPixel], src)
		return nil
	}

	premul := dstInfo.IsPremultiplied && !srcInfo.IsPremultiplied
	unpremul := srcInfo.IsPremultiplied && !dstInfo.IsPremultiplied
	sbpp, dbpp := srcInfo.BytesPerPixel, dstInfo.BytesPerPixel

	for i := range n {
		px := unpack(src[i*sbpp:], &srcInfo)
		switch {
		case premul:
			px[0] = Premultiply(px[0], px[3])
			px[1] = Premultiply(px[1], px[3])
			px[2] = Premultiply(px[2], px[3])
		case unpremul:
			px[0] = Unpremultiply(px[0], px[3])
			px[1] = Unpremultiply(px[1], px[3])
			px[2] = Unpremultiply(px[2], px[3])
		}
		pack(dst[i*dbpp:], &dstInfo, px)
	}
	return nil
}
