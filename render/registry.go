package render

import (
	"fmt"
	"sync"

	"github.com/dancazarin/brisk-sub002/internal/logging"
)

// Renderer names the backend a device is created from.
type Renderer string

const (
	// RendererDefault picks the best available backend.
	RendererDefault Renderer = ""
	// RendererWebGPU is the GPU backend over wgpu.
	RendererWebGPU Renderer = "webgpu"
	// RendererSoftware is the CPU reference backend.
	RendererSoftware Renderer = "software"
)

// PowerPreference biases GPU adapter selection.
type PowerPreference int

const (
	PowerDefault PowerPreference = iota
	PowerHighPerformance
	PowerLowPower
)

// Options configure device creation.
type Options struct {
	Renderer Renderer
	Power    PowerPreference

	// AtlasSize, MaxAtlasSize, AtlasGrowth size the sprite atlas in
	// bytes. Zero fields take backend defaults.
	AtlasSize    uint32
	MaxAtlasSize uint32
	AtlasGrowth  uint32
	// GradientSlots caps the gradient atlas. Zero takes the backend
	// default.
	GradientSlots int
}

// Default atlas sizing used when Options fields are zero.
const (
	DefaultAtlasSize     = 4 << 20
	DefaultMaxAtlasSize  = 64 << 20
	DefaultAtlasGrowth   = 4 << 20
	DefaultGradientSlots = 1024
)

// WithDefaults returns a copy with zero sizing fields filled in.
func (o Options) WithDefaults() Options {
	if o.AtlasSize == 0 {
		o.AtlasSize = DefaultAtlasSize
	}
	if o.MaxAtlasSize == 0 {
		o.MaxAtlasSize = DefaultMaxAtlasSize
	}
	if o.AtlasGrowth == 0 {
		o.AtlasGrowth = DefaultAtlasGrowth
	}
	if o.GradientSlots == 0 {
		o.GradientSlots = DefaultGradientSlots
	}
	return o
}

// DeviceFactory creates a device for one backend.
type DeviceFactory func(Options) (Device, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[Renderer]DeviceFactory)
	// Priority order for default selection (first available wins).
	priority = []Renderer{RendererWebGPU, RendererSoftware}
)

// Register registers a backend factory. Typically called from init()
// in backend packages. Re-registering a name replaces the factory.
func Register(name Renderer, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Available returns the registered backend names.
func Available() []Renderer {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]Renderer, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// CreateDevice creates a device per the options. With
// RendererDefault, backends are tried in priority order and the first
// that initializes wins.
func CreateDevice(opts Options) (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if opts.Renderer != RendererDefault {
		factory, ok := factories[opts.Renderer]
		if !ok {
			return nil, fmt.Errorf("render: backend %q not registered: %w", opts.Renderer, ErrNoBackend)
		}
		return factory(opts)
	}

	var firstErr error
	for _, name := range priority {
		factory, ok := factories[name]
		if !ok {
			continue
		}
		dev, err := factory(opts)
		if err != nil {
			logging.Logger().Warn("render: backend unavailable",
				"backend", string(name), "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logging.Logger().Info("render: device created",
			"backend", string(name), "device", dev.Info().Device)
		return dev, nil
	}
	if firstErr != nil {
		return nil, fmt.Errorf("render: no backend succeeded: %w", firstErr)
	}
	return nil, ErrNoBackend
}
