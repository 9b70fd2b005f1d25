package render

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/pixel"
)

var (
	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("render: device closed")
	// ErrNoBackend is returned when no registered backend can produce
	// a device.
	ErrNoBackend = errors.New("render: no backend available")
	// ErrTargetSize is returned for non-positive target dimensions.
	ErrTargetSize = errors.New("render: invalid target size")
)

// DeviceInfo describes the backend a device runs on.
type DeviceInfo struct {
	API        string // "WebGPU", "Software"
	APIVersion string
	Vendor     string
	Device     string
}

// Limits are the backend resource bounds the pipeline batches against.
type Limits struct {
	// MaxDataSize is the data stream capacity of one batch, in floats.
	MaxDataSize int
	// MaxAtlasSize is the sprite atlas byte capacity.
	MaxAtlasSize int
	// MaxGradients is the gradient atlas slot count.
	MaxGradients int
}

// VisualSettings are the per-frame display knobs applied by encoders.
type VisualSettings struct {
	// BlueLightFilter shifts output warm, 0 (off) to 1.
	BlueLightFilter float32
	// Gamma adjusts output gamma, 1 means no adjustment.
	Gamma float32
	// SubPixelText enables RGB subpixel text rendering. Ignored on
	// linear-color targets, where component alpha is meaningless.
	SubPixelText bool
}

// DefaultVisualSettings returns neutral settings.
func DefaultVisualSettings() VisualSettings {
	return VisualSettings{Gamma: 1}
}

// Resources is the atlas state shared by every encoder of a device.
// Mu guards both atlases; the pipeline holds it for the duration of a
// command's resource pinning.
type Resources struct {
	Mu        sync.Mutex
	Sprites   *atlas.SpriteAtlas
	Gradients *atlas.GradientAtlas

	generation atomic.Uint64
}

// NewResources builds the shared atlas pair for a device.
func NewResources(atlasSize, maxAtlasSize, atlasGrowth uint32, gradientSlots int) *Resources {
	return &Resources{
		Sprites:   atlas.NewSpriteAtlas(atlasSize, maxAtlasSize, atlasGrowth),
		Gradients: atlas.NewGradientAtlas(gradientSlots),
	}
}

// NextGeneration advances and returns the monotonic batch generation
// counter.
func (r *Resources) NextGeneration() uint64 {
	return r.generation.Add(1)
}

// Generation returns the current generation without advancing it.
func (r *Resources) Generation() uint64 {
	return r.generation.Load()
}

// Target is a render destination. Both window and image targets
// implement it.
type Target interface {
	// Size returns the target's current pixel dimensions.
	Size() (width, height int)
}

// WindowTarget is a presentable target bound to an OS window surface.
type WindowTarget interface {
	Target
	// Present flips the most recently ended frame to the window.
	Present() error
	// SetVSyncInterval sets the presentation interval (0 = immediate).
	SetVSyncInterval(n int)
}

// ImageTarget is an offscreen target backed by an image that can be
// read back after Wait.
type ImageTarget interface {
	Target
	// SetSize resizes the backing image. Takes effect on the next
	// encoder Begin.
	SetSize(width, height int) error
	// Image returns the backing image. Valid after encoder Wait.
	Image() *pixel.Image
}

// Encoder records one frame: Begin, one or more Batch calls, End.
// Encoders are not safe for concurrent use.
type Encoder interface {
	// SetVisualSettings applies display knobs to the frame uniforms.
	SetVisualSettings(VisualSettings)
	// Begin opens a frame on the target, clearing it to clear (RGBA,
	// straight alpha). Scissors beyond MaxScissors degrade to a
	// single full-target scissor.
	Begin(target Target, clear [4]float32, scissors [][4]float32) error
	// Batch executes encoded commands against the open frame. The
	// image, if non-nil, is the single texture the batch's
	// texture-fill commands sample.
	Batch(commands []State, data []float32, image *pixel.Image) error
	// End closes the frame and records a completion fence.
	End() error
	// Wait blocks until the frame's fence signals.
	Wait() error
}

// Device creates targets and encoders for one backend instance.
type Device interface {
	Info() DeviceInfo
	Limits() Limits
	Resources() *Resources

	CreateEncoder() (Encoder, error)
	CreateImageTarget(width, height int, typ pixel.Type) (ImageTarget, error)
	CreateWindowTarget(surface any, typ pixel.Type) (WindowTarget, error)
	// CreateImageBackend attaches a GPU-side backing to the image so
	// texture-fill commands can sample it without per-batch uploads.
	CreateImageBackend(img *pixel.Image) error

	Close() error
}
