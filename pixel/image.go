package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
)

// Image errors.
var (
	// ErrInvalidSize is returned for non-positive dimensions.
	ErrInvalidSize = errors.New("pixel: invalid image size")

	// ErrFormatMismatch is returned when an operation is not defined
	// for the image's type/format combination.
	ErrFormatMismatch = errors.New("pixel: operation not defined for this pixel format")
)

// Backend is the lazily attached GPU-side backing of an image. The
// render device creates one on first GPU use; Close detaches it when
// the image is destroyed.
type Backend interface {
	Close()
}

// imageID hands out unique image handles.
var imageID atomic.Uint64

// Image is a strided pixel buffer. Rows are contiguous and may be
// padded to Stride bytes. Storage is owned by default; SubImage
// returns a view sharing the parent's storage.
type Image struct {
	width  int
	height int
	stride int // bytes per row
	typ    Type
	format Format
	data   []byte

	id uint64

	// backendMu guards the lazily attached GPU backend.
	backendMu sync.Mutex
	backend   Backend
}

// New creates an image with tightly packed rows.
func New(width, height int, t Type, f Format) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	stride := width * BytesPerPixel(t, f)
	return &Image{
		width:  width,
		height: height,
		stride: stride,
		typ:    t,
		format: f,
		data:   make([]byte, stride*height),
		id:     imageID.Add(1),
	}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Stride returns the byte distance between rows.
func (m *Image) Stride() int { return m.stride }

// Type returns the component type.
func (m *Image) Type() Type { return m.typ }

// Format returns the channel layout.
func (m *Image) Format() Format { return m.format }

// ID returns the unique handle of this image. Views share the parent's
// storage but carry their own ID.
func (m *Image) ID() uint64 { return m.id }

// Data returns the raw bytes, including row padding.
func (m *Image) Data() []byte { return m.data }

// Row returns the bytes of row y without padding.
func (m *Image) Row(y int) []byte {
	start := y * m.stride
	return m.data[start : start+m.width*BytesPerPixel(m.typ, m.format)]
}

// SetBackend attaches the GPU backing, replacing and closing any
// previous one.
func (m *Image) SetBackend(b Backend) {
	m.backendMu.Lock()
	old := m.backend
	m.backend = b
	m.backendMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// GetBackend returns the attached GPU backing, or nil.
func (m *Image) GetBackend() Backend {
	m.backendMu.Lock()
	defer m.backendMu.Unlock()
	return m.backend
}

// Close detaches and closes the GPU backing, if any.
func (m *Image) Close() {
	m.SetBackend(nil)
}

// SubImage returns a view of the rectangle sharing this image's
// storage. Mutations through either are visible in both.
func (m *Image) SubImage(x, y, w, h int) (*Image, error) {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > m.width || y+h > m.height {
		return nil, fmt.Errorf("%w: sub %dx%d at (%d,%d) of %dx%d",
			ErrInvalidSize, w, h, x, y, m.width, m.height)
	}
	bpp := BytesPerPixel(m.typ, m.format)
	offset := y*m.stride + x*bpp
	return &Image{
		width:  w,
		height: h,
		stride: m.stride,
		typ:    m.typ,
		format: m.format,
		data:   m.data[offset:],
		id:     imageID.Add(1),
	}, nil
}

// Clear fills the whole image with the given linear RGBA value.
func (m *Image) Clear(r, g, b, a float32) {
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.Set(x, y, r, g, b, a)
		}
	}
}

// At returns the pixel at (x, y) as linear float RGBA. Greyscale
// formats replicate luminance into all color channels; Alpha-only
// formats return zero color.
func (m *Image) At(x, y int) (r, g, b, a float32) {
	bpp := BytesPerPixel(m.typ, m.format)
	base := y*m.stride + x*bpp
	ri, gi, bi, ai := channelOrder(m.format)

	load := func(ch int) float32 {
		if ch < 0 {
			return 0
		}
		switch m.typ {
		case F32:
			off := base + ch*4
			return math32.Float32frombits(uint32(m.data[off]) |
				uint32(m.data[off+1])<<8 |
				uint32(m.data[off+2])<<16 |
				uint32(m.data[off+3])<<24)
		case U8Gamma:
			return SRGBToLinear(float32(m.data[base+ch]) / 255)
		default:
			return float32(m.data[base+ch]) / 255
		}
	}

	r, g, b = load(ri), load(gi), load(bi)
	if ai < 0 {
		a = 1
	} else {
		// Alpha is stored linearly even under U8Gamma.
		if m.typ == U8Gamma {
			a = float32(m.data[base+ai]) / 255
		} else {
			a = load(ai)
		}
	}
	return r, g, b, a
}

// Set stores a linear float RGBA value at (x, y), converting into the
// image's type and format. Out-of-format channels are dropped;
// greyscale takes the BT.709 luminance.
func (m *Image) Set(x, y int, r, g, b, a float32) {
	bpp := BytesPerPixel(m.typ, m.format)
	base := y*m.stride + x*bpp
	ri, gi, bi, ai := channelOrder(m.format)

	store := func(ch int, v float32) {
		if ch < 0 {
			return
		}
		switch m.typ {
		case F32:
			bits := math32.Float32bits(v)
			off := base + ch*4
			m.data[off] = byte(bits)
			m.data[off+1] = byte(bits >> 8)
			m.data[off+2] = byte(bits >> 16)
			m.data[off+3] = byte(bits >> 24)
		case U8Gamma:
			m.data[base+ch] = quantize(LinearToSRGB(v))
		default:
			m.data[base+ch] = quantize(v)
		}
	}

	switch m.format {
	case Greyscale, GreyscaleAlpha:
		store(ri, luminance(r, g, b))
	default:
		store(ri, r)
		store(gi, g)
		store(bi, b)
	}
	if ai >= 0 {
		// Alpha bypasses the transfer function.
		if m.typ == U8Gamma {
			m.data[base+ai] = quantize(a)
		} else {
			store(ai, a)
		}
	}
}

// luminance is the BT.709 luma of a linear RGB triple.
func luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func quantize(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

// SRGBToLinear applies the inverse sRGB transfer function.
func SRGBToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the sRGB transfer function.
func LinearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1/2.4) - 0.055
}

// Convert returns a copy of the image in the requested type and
// format, converting through linear float RGBA.
func (m *Image) Convert(t Type, f Format) (*Image, error) {
	out, err := New(m.width, m.height, t, f)
	if err != nil {
		return nil, err
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			r, g, b, a := m.At(x, y)
			out.Set(x, y, r, g, b, a)
		}
	}
	return out, nil
}

// FromImage converts a stdlib image into a U8Gamma RGBA Image.
func FromImage(src image.Image) (*Image, error) {
	bounds := src.Bounds()
	out, err := New(bounds.Dx(), bounds.Dy(), U8Gamma, RGBA)
	if err != nil {
		return nil, err
	}
	for y := 0; y < out.height; y++ {
		row := out.data[y*out.stride:]
		for x := 0; x < out.width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := x * 4
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
	return out, nil
}

// ToNRGBA converts the image to a stdlib *image.NRGBA in sRGB gamma.
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.width, m.height))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			r, g, b, a := m.At(x, y)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = quantize(LinearToSRGB(r))
			out.Pix[i+1] = quantize(LinearToSRGB(g))
			out.Pix[i+2] = quantize(LinearToSRGB(b))
			out.Pix[i+3] = quantize(a)
		}
	}
	return out
}
