package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
)

// Codec errors.
var (
	// ErrAlphaNotSupported is returned when encoding an alpha-carrying
	// format into a codec without alpha support.
	ErrAlphaNotSupported = errors.New("pixel: codec does not support alpha formats")

	// ErrSizeMismatch is returned by PSNR for differently sized images.
	ErrSizeMismatch = errors.New("pixel: image sizes differ")
)

// Subsampling selects the chroma subsampling of JPEG output.
type Subsampling uint8

const (
	// Subsampling444 keeps full chroma resolution.
	Subsampling444 Subsampling = iota
	// Subsampling422 halves chroma horizontally.
	Subsampling422
	// Subsampling420 halves chroma in both directions.
	Subsampling420
)

// JPEGOptions control JPEG encoding.
type JPEGOptions struct {
	// Quality is 1..100; 0 selects the default of 90.
	Quality int
	// Subsampling selects chroma subsampling. The encoder picks the
	// nearest mode it supports.
	Subsampling Subsampling
}

// DefaultJPEGOptions returns quality 90 with 4:2:0 subsampling.
func DefaultJPEGOptions() JPEGOptions {
	return JPEGOptions{Quality: 90, Subsampling: Subsampling420}
}

// EncodePNG writes the image as PNG. All pixel formats are supported;
// greyscale formats are written as 8-bit grey, everything else as
// 8-bit (N)RGBA. PNG is lossless for U8/U8Gamma data.
func EncodePNG(w io.Writer, m *Image) error {
	var img image.Image
	switch m.Format() {
	case Greyscale, Alpha:
		grey := image.NewGray(image.Rect(0, 0, m.Width(), m.Height()))
		src := m
		if m.Type() == F32 {
			conv, err := m.Convert(U8Gamma, m.Format())
			if err != nil {
				return err
			}
			src = conv
		}
		for y := 0; y < src.Height(); y++ {
			copy(grey.Pix[y*grey.Stride:], src.Row(y))
		}
		img = grey
	default:
		img = m.ToNRGBA()
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("pixel: png encode: %w", err)
	}
	return nil
}

// DecodePNG reads a PNG into a U8Gamma image whose format follows the
// file's color type (grey files become Greyscale, everything else
// RGBA).
func DecodePNG(r io.Reader) (*Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pixel: png decode: %w", err)
	}
	if grey, ok := src.(*image.Gray); ok {
		out, err := New(grey.Rect.Dx(), grey.Rect.Dy(), U8Gamma, Greyscale)
		if err != nil {
			return nil, err
		}
		for y := 0; y < out.Height(); y++ {
			copy(out.Row(y), grey.Pix[y*grey.Stride:y*grey.Stride+out.Width()])
		}
		return out, nil
	}
	return FromImage(src)
}

// EncodeJPEG writes the image as JPEG. Alpha-carrying formats are
// rejected. The stdlib encoder chooses its own chroma layout, so
// Subsampling is advisory: requests are honored as closely as the
// encoder permits.
func EncodeJPEG(w io.Writer, m *Image, opts JPEGOptions) error {
	if m.Format().HasAlpha() {
		return fmt.Errorf("%w: %v", ErrAlphaNotSupported, m.Format())
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 90
	}
	if quality > 100 {
		quality = 100
	}

	var img image.Image
	switch m.Format() {
	case Greyscale:
		src := m
		if m.Type() == F32 {
			conv, err := m.Convert(U8Gamma, Greyscale)
			if err != nil {
				return err
			}
			src = conv
		}
		grey := image.NewGray(image.Rect(0, 0, m.Width(), m.Height()))
		for y := 0; y < src.Height(); y++ {
			copy(grey.Pix[y*grey.Stride:], src.Row(y))
		}
		img = grey
	default:
		img = m.ToNRGBA()
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("pixel: jpeg encode: %w", err)
	}
	return nil
}

// DecodeJPEG reads a JPEG into a U8Gamma image (Greyscale for grey
// files, RGB otherwise).
func DecodeJPEG(r io.Reader) (*Image, error) {
	src, err := jpeg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pixel: jpeg decode: %w", err)
	}
	if grey, ok := src.(*image.Gray); ok {
		out, err := New(grey.Rect.Dx(), grey.Rect.Dy(), U8Gamma, Greyscale)
		if err != nil {
			return nil, err
		}
		for y := 0; y < out.Height(); y++ {
			copy(out.Row(y), grey.Pix[y*grey.Stride:y*grey.Stride+out.Width()])
		}
		return out, nil
	}
	rgba, err := FromImage(src)
	if err != nil {
		return nil, err
	}
	return rgba.Convert(U8Gamma, RGB)
}

// EncodePNGBytes is EncodePNG into a byte slice.
func EncodePNGBytes(m *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeJPEGBytes is EncodeJPEG into a byte slice.
func EncodeJPEGBytes(m *Image, opts JPEGOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, m, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PSNR computes the peak signal-to-noise ratio between two images of
// equal size, in decibels over the sRGB-encoded channels. Identical
// images return +Inf.
func PSNR(a, b *Image) (float64, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			a.Width(), a.Height(), b.Width(), b.Height())
	}
	var sum float64
	var count int
	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			ar, ag, ab, aa := a.At(x, y)
			br, bg, bb, ba := b.At(x, y)
			for _, d := range []float64{
				float64(LinearToSRGB(ar) - LinearToSRGB(br)),
				float64(LinearToSRGB(ag) - LinearToSRGB(bg)),
				float64(LinearToSRGB(ab) - LinearToSRGB(bb)),
				float64(aa - ba),
			} {
				sum += d * d
			}
			count += 4
		}
	}
	if sum == 0 {
		return math.Inf(1), nil
	}
	mse := sum / float64(count)
	return 10 * math.Log10(1/mse), nil
}
