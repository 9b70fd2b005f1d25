// Package pixel provides the typed image model used by the rendering
// core: pixel formats and component types, strided images with shared
// or owned storage, format conversion, and PNG/JPEG codecs.
package pixel

import "fmt"

// Type is the component type of a pixel.
type Type uint8

const (
	// U8 is 8-bit linear.
	U8 Type = iota
	// U8Gamma is 8-bit with the sRGB transfer applied.
	U8Gamma
	// F32 is 32-bit float linear.
	F32
)

// Size returns the byte size of one component.
func (t Type) Size() int {
	if t == F32 {
		return 4
	}
	return 1
}

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case U8:
		return "U8"
	case U8Gamma:
		return "U8Gamma"
	case F32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Format is the channel layout of a pixel.
type Format uint8

const (
	RGB Format = iota
	RGBA
	ARGB
	BGR
	BGRA
	ABGR
	Greyscale
	GreyscaleAlpha
	Alpha
)

// Channels returns the number of components per pixel.
func (f Format) Channels() int {
	switch f {
	case RGB, BGR:
		return 3
	case RGBA, ARGB, BGRA, ABGR:
		return 4
	case Greyscale, Alpha:
		return 1
	case GreyscaleAlpha:
		return 2
	default:
		return 0
	}
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	switch f {
	case RGBA, ARGB, BGRA, ABGR, GreyscaleAlpha, Alpha:
		return true
	default:
		return false
	}
}

// HasColor reports whether the format carries color components.
func (f Format) HasColor() bool {
	switch f {
	case RGB, RGBA, ARGB, BGR, BGRA, ABGR:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	case ARGB:
		return "ARGB"
	case BGR:
		return "BGR"
	case BGRA:
		return "BGRA"
	case ABGR:
		return "ABGR"
	case Greyscale:
		return "Greyscale"
	case GreyscaleAlpha:
		return "GreyscaleAlpha"
	case Alpha:
		return "Alpha"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the byte size of one pixel for the given type
// and format.
func BytesPerPixel(t Type, f Format) int {
	return t.Size() * f.Channels()
}

// channelOrder returns the component index of R, G, B, A within the
// format. Missing channels are -1; Greyscale maps luminance to index 0.
func channelOrder(f Format) (r, g, b, a int) {
	switch f {
	case RGB:
		return 0, 1, 2, -1
	case RGBA:
		return 0, 1, 2, 3
	case ARGB:
		return 1, 2, 3, 0
	case BGR:
		return 2, 1, 0, -1
	case BGRA:
		return 2, 1, 0, 3
	case ABGR:
		return 3, 2, 1, 0
	case Greyscale:
		return 0, 0, 0, -1
	case GreyscaleAlpha:
		return 0, 0, 0, 1
	case Alpha:
		return -1, -1, -1, 0
	default:
		return -1, -1, -1, -1
	}
}
