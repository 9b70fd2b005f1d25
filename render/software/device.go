// Package software is the CPU reference backend: it interprets encoded
// command batches directly against pixel images. It exists for
// headless rendering, tests and as the fallback when no GPU backend is
// available.
package software

import (
	"fmt"
	"sync/atomic"

	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

func init() {
	render.Register(render.RendererSoftware, func(opts render.Options) (render.Device, error) {
		return NewDevice(opts)
	})
}

// Device is the software render device. It has no GPU state; all
// resources live in the shared atlas pair.
type Device struct {
	res    *render.Resources
	limits render.Limits
	closed atomic.Bool
}

// NewDevice creates a software device with the given atlas options.
func NewDevice(opts render.Options) (*Device, error) {
	opts = opts.WithDefaults()
	return &Device{
		res: render.NewResources(opts.AtlasSize, opts.MaxAtlasSize, opts.AtlasGrowth, opts.GradientSlots),
		limits: render.Limits{
			MaxDataSize:  1 << 20,
			MaxAtlasSize: int(opts.MaxAtlasSize),
			MaxGradients: opts.GradientSlots,
		},
	}, nil
}

func (d *Device) Info() render.DeviceInfo {
	return render.DeviceInfo{
		API:    "Software",
		Vendor: "CPU",
		Device: "reference rasterizer",
	}
}

func (d *Device) Limits() render.Limits { return d.limits }

func (d *Device) Resources() *render.Resources { return d.res }

func (d *Device) CreateEncoder() (render.Encoder, error) {
	if d.closed.Load() {
		return nil, render.ErrDeviceClosed
	}
	return &Encoder{
		device:   d,
		settings: render.DefaultVisualSettings(),
	}, nil
}

func (d *Device) CreateImageTarget(width, height int, typ pixel.Type) (render.ImageTarget, error) {
	if d.closed.Load() {
		return nil, render.ErrDeviceClosed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", render.ErrTargetSize, width, height)
	}
	img, err := pixel.New(width, height, typ, pixel.RGBA)
	if err != nil {
		return nil, err
	}
	return &imageTarget{img: img}, nil
}

// CreateWindowTarget is not supported: the software backend has no
// presentation path.
func (d *Device) CreateWindowTarget(surface any, typ pixel.Type) (render.WindowTarget, error) {
	return nil, fmt.Errorf("render/software: window targets not supported")
}

// CreateImageBackend is a no-op: the software encoder samples images
// directly from host memory.
func (d *Device) CreateImageBackend(img *pixel.Image) error {
	if d.closed.Load() {
		return render.ErrDeviceClosed
	}
	return nil
}

func (d *Device) Close() error {
	d.closed.Store(true)
	return nil
}

// imageTarget is an offscreen target backed by a host image.
type imageTarget struct {
	img *pixel.Image
}

func (t *imageTarget) Size() (int, int) {
	return t.img.Width(), t.img.Height()
}

func (t *imageTarget) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", render.ErrTargetSize, width, height)
	}
	if width == t.img.Width() && height == t.img.Height() {
		return nil
	}
	img, err := pixel.New(width, height, t.img.Type(), t.img.Format())
	if err != nil {
		return err
	}
	t.img = img
	return nil
}

func (t *imageTarget) Image() *pixel.Image { return t.img }
