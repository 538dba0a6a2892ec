package gpu

import "github.com/gogpu/gputypes"

// HALOption configures a HALBackend during creation.
//
// Example:
//
//	b, err := gpu.NewHALBackend(device, queue,
//	    gpu.WithTargetSize(1024, 768),
//	    gpu.WithClearColor(gputypes.Color{A: 1}))
type HALOption func(*halOptions)

type halOptions struct {
	width, height uint32
	format        gputypes.TextureFormat
	clear         gputypes.Color
	label         string
}

func defaultHALOptions() halOptions {
	return halOptions{
		width:  512,
		height: 512,
		format: gputypes.TextureFormatRGBA8Unorm,
		label:  "mesh",
	}
}

// WithTargetSize sets the size of the offscreen render target.
func WithTargetSize(width, height uint32) HALOption {
	return func(o *halOptions) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithTargetFormat sets the render target format. The default is
// TextureFormatRGBA8Unorm.
func WithTargetFormat(f gputypes.TextureFormat) HALOption {
	return func(o *halOptions) {
		if f != gputypes.TextureFormatUndefined {
			o.format = f
		}
	}
}

// WithClearColor sets the color the target is cleared to at the start of
// each frame.
func WithClearColor(c gputypes.Color) HALOption {
	return func(o *halOptions) {
		o.clear = c
	}
}

// WithLabel prefixes the debug labels of every GPU object.
func WithLabel(label string) HALOption {
	return func(o *halOptions) {
		o.label = label
	}
}
