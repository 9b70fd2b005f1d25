// Package wgpu is the GPU backend over gogpu/wgpu. The command stream
// is executed by a compute shader that interprets state records against
// a linear-color pixel buffer, one pass per command instance; image
// targets are read back through a staging buffer after the frame fence
// signals.
package wgpu

import (
	_ "embed"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Vulkan registers itself with the HAL on import.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/dancazarin/brisk-sub002/internal/logging"
	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

//go:embed shader.wgsl
var shaderWGSL string

func init() {
	render.Register(render.RendererWebGPU, func(opts render.Options) (render.Device, error) {
		return NewDevice(opts)
	})
}

// maxDataFloats is the data stream capacity of one batch. 64K floats
// is far below any storage buffer binding limit and keeps batches
// flushing at a granularity the atlas generations can track.
const maxDataFloats = 64 * 1024

// Device is the wgpu render device: a HAL device/queue pair plus the
// compiled command-interpreter pipelines shared by its encoders.
type Device struct {
	res    *render.Resources
	limits render.Limits
	info   render.DeviceInfo

	instance hal.Instance
	dev      hal.Device
	queue    hal.Queue
	owns     bool

	prog program

	// Atlas mirror buffers, re-uploaded when the Changed stamp moves.
	mu          sync.Mutex
	spriteBuf   hal.Buffer
	spriteCap   int
	spriteStamp uint64
	gradBuf     hal.Buffer
	gradStamp   uint64

	closed atomic.Bool
}

// program holds the compiled shader and pipelines.
type program struct {
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	cmd        hal.ComputePipeline
	finish     hal.ComputePipeline
}

// NewDevice opens a GPU adapter honoring the power preference and
// builds the command pipelines.
func NewDevice(opts render.Options) (*Device, error) {
	opts = opts.WithDefaults()

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("render/wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("render/wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("render/wgpu: no GPU adapters found")
	}
	selected := &adapters[0]
	best := adapterScore(selected.Info.DeviceType, opts.Power)
	for i := 1; i < len(adapters); i++ {
		if s := adapterScore(adapters[i].Info.DeviceType, opts.Power); s > best {
			selected = &adapters[i]
			best = s
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("render/wgpu: open device: %w", err)
	}

	d := &Device{
		res: render.NewResources(opts.AtlasSize, opts.MaxAtlasSize, opts.AtlasGrowth, opts.GradientSlots),
		limits: render.Limits{
			MaxDataSize:  maxDataFloats,
			MaxAtlasSize: int(opts.MaxAtlasSize),
			MaxGradients: opts.GradientSlots,
		},
		info: render.DeviceInfo{
			API:    "WebGPU",
			Vendor: deviceTypeLabel(selected.Info.DeviceType),
			Device: selected.Info.Name,
		},
		instance: instance,
		dev:      openDev.Device,
		queue:    openDev.Queue,
		owns:     true,
	}
	if err := d.createProgram(); err != nil {
		d.dev.Destroy()
		instance.Destroy()
		return nil, err
	}
	logging.Logger().Info("render/wgpu: device opened",
		"adapter", selected.Info.Name)
	return d, nil
}

// NewDeviceFromContext builds a device over a host-owned GPU shared
// through a gpucontext provider. The provider must expose the HAL
// handles; the device and instance are not destroyed on Close.
func NewDeviceFromContext(provider gpucontext.DeviceProvider, opts render.Options) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("render/wgpu: nil device provider")
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("render/wgpu: provider does not expose HAL handles")
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("render/wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("render/wgpu: provider HalQueue is not hal.Queue")
	}

	opts = opts.WithDefaults()
	d := &Device{
		res: render.NewResources(opts.AtlasSize, opts.MaxAtlasSize, opts.AtlasGrowth, opts.GradientSlots),
		limits: render.Limits{
			MaxDataSize:  maxDataFloats,
			MaxAtlasSize: int(opts.MaxAtlasSize),
			MaxGradients: opts.GradientSlots,
		},
		info: render.DeviceInfo{
			API:    "WebGPU",
			Vendor: "shared",
			Device: "host device",
		},
		dev:   dev,
		queue: queue,
	}
	if err := d.createProgram(); err != nil {
		return nil, err
	}
	return d, nil
}

// adapterScore ranks adapters for the given power preference; the
// highest score wins.
func adapterScore(t gputypes.DeviceType, pref render.PowerPreference) int {
	switch pref {
	case render.PowerLowPower:
		switch t {
		case gputypes.DeviceTypeIntegratedGPU:
			return 3
		case gputypes.DeviceTypeDiscreteGPU:
			return 2
		}
	default:
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 3
		case gputypes.DeviceTypeIntegratedGPU:
			return 2
		}
	}
	return 1
}

func deviceTypeLabel(t gputypes.DeviceType) string {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return "discrete GPU"
	case gputypes.DeviceTypeIntegratedGPU:
		return "integrated GPU"
	default:
		return "GPU"
	}
}

// createProgram compiles the embedded WGSL to SPIR-V and builds both
// compute pipelines.
func (d *Device) createProgram() error {
	spirvBytes, err := naga.Compile(shaderWGSL)
	if err != nil {
		return fmt.Errorf("render/wgpu: compile shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "render_commands",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create shader module: %w", err)
	}
	d.prog.module = module

	storage := func(binding uint32, typ gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		}
	}
	bindLayout, err := d.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "render_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(3, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(4, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(5, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create bind group layout: %w", err)
	}
	d.prog.bindLayout = bindLayout

	pipeLayout, err := d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "render_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create pipeline layout: %w", err)
	}
	d.prog.pipeLayout = pipeLayout

	cmd, err := d.dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "render_cmd",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "cs_cmd"},
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create command pipeline: %w", err)
	}
	d.prog.cmd = cmd

	finish, err := d.dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "render_finish",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "cs_finish"},
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create finish pipeline: %w", err)
	}
	d.prog.finish = finish
	return nil
}

func (d *Device) Info() render.DeviceInfo { return d.info }

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

// CreateWindowTarget is not implemented here: window presentation runs
// through the host's gpucontext surface, not through this device.
func (d *Device) CreateWindowTarget(surface any, typ pixel.Type) (render.WindowTarget, error) {
	return nil, fmt.Errorf("render/wgpu: window targets are presented by the host context")
}

// CreateImageBackend is a no-op: the encoder uploads the bound image
// per batch.
func (d *Device) CreateImageBackend(img *pixel.Image) error {
	if d.closed.Load() {
		return render.ErrDeviceClosed
	}
	return nil
}

func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.mu.Lock()
	if d.spriteBuf != nil {
		d.dev.DestroyBuffer(d.spriteBuf)
		d.spriteBuf = nil
	}
	if d.gradBuf != nil {
		d.dev.DestroyBuffer(d.gradBuf)
		d.gradBuf = nil
	}
	d.mu.Unlock()

	if d.prog.cmd != nil {
		d.dev.DestroyComputePipeline(d.prog.cmd)
	}
	if d.prog.finish != nil {
		d.dev.DestroyComputePipeline(d.prog.finish)
	}
	if d.prog.pipeLayout != nil {
		d.dev.DestroyPipelineLayout(d.prog.pipeLayout)
	}
	if d.prog.bindLayout != nil {
		d.dev.DestroyBindGroupLayout(d.prog.bindLayout)
	}
	if d.prog.module != nil {
		d.dev.DestroyShaderModule(d.prog.module)
	}
	if d.owns {
		d.dev.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	return nil
}

// syncAtlases mirrors the shared atlases into GPU buffers when their
// change stamps have moved. Callers hold res.Mu.
func (d *Device) syncAtlases() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sprites := d.res.Sprites
	if d.spriteBuf == nil || d.spriteStamp != sprites.Changed() || d.spriteCap < sprites.Size() {
		data := sprites.Data()
		if d.spriteBuf == nil || d.spriteCap < len(data) {
			if d.spriteBuf != nil {
				d.dev.DestroyBuffer(d.spriteBuf)
			}
			size := len(data)
			if size < 16 {
				size = 16
			}
			buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
				Label: "sprite_atlas", Size: uint64(size),
				Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("render/wgpu: create sprite atlas buffer: %w", err)
			}
			d.spriteBuf = buf
			d.spriteCap = size
		}
		if len(data) > 0 {
			d.queue.WriteBuffer(d.spriteBuf, 0, data)
		}
		d.spriteStamp = sprites.Changed()
	}

	gradients := d.res.Gradients
	if d.gradBuf == nil || d.gradStamp != gradients.Changed() {
		data := gradients.Data()
		if d.gradBuf == nil {
			buf, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
				Label: "gradient_atlas", Size: uint64(len(data) * 4),
				Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("render/wgpu: create gradient atlas buffer: %w", err)
			}
			d.gradBuf = buf
		}
		d.queue.WriteBuffer(d.gradBuf, 0, floatsToBytes(data))
		d.gradStamp = gradients.Changed()
	}
	return nil
}

// imageTarget is an offscreen target backed by a host image filled by
// the frame readback.
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
