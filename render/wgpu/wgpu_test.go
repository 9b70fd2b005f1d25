package wgpu

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

// The WGSL is validated at device creation; compiling it here catches
// shader regressions without a GPU.
func TestShaderCompiles(t *testing.T) {
	spirv, err := naga.Compile(shaderWGSL)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		t.Fatalf("SPIR-V length = %d, want nonzero multiple of 4", len(spirv))
	}
}

func TestAdapterScore(t *testing.T) {
	tests := []struct {
		name string
		typ  gputypes.DeviceType
		pref render.PowerPreference
		want int
	}{
		{"default prefers discrete", gputypes.DeviceTypeDiscreteGPU, render.PowerDefault, 3},
		{"default integrated second", gputypes.DeviceTypeIntegratedGPU, render.PowerDefault, 2},
		{"low power prefers integrated", gputypes.DeviceTypeIntegratedGPU, render.PowerLowPower, 3},
		{"low power discrete second", gputypes.DeviceTypeDiscreteGPU, render.PowerLowPower, 2},
		{"other types rank last", gputypes.DeviceType(99), render.PowerDefault, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapterScore(tt.typ, tt.pref); got != tt.want {
				t.Errorf("adapterScore(%v, %v) = %d, want %d", tt.typ, tt.pref, got, tt.want)
			}
		})
	}
}

func TestPackUniform(t *testing.T) {
	state := make([]float32, render.StateFloats)
	state[0] = 5 // shader
	state[63] = 7

	buf := packUniform(
		[4]float32{128, 64, 2.2, 0.5},
		[4]uint32{10, 20, 3, 0},
		[4]uint32{32, 16, 0, 0},
		state,
	)
	if len(buf) != uniformBytes {
		t.Fatalf("len = %d, want %d", len(buf), uniformBytes)
	}
	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	u32 := func(off int) uint32 {
		return binary.LittleEndian.Uint32(buf[off:])
	}
	if got := f32(0); got != 128 {
		t.Errorf("frame.x = %v, want 128", got)
	}
	if got := f32(8); got != 2.2 {
		t.Errorf("frame.z (gamma) = %v, want 2.2", got)
	}
	if got := u32(16); got != 10 {
		t.Errorf("meta.x = %d, want 10", got)
	}
	if got := u32(24); got != 3 {
		t.Errorf("meta.z (instance) = %d, want 3", got)
	}
	if got := u32(32); got != 32 {
		t.Errorf("image.x = %d, want 32", got)
	}
	if got := f32(48); got != 5 {
		t.Errorf("state[0] = %v, want 5", got)
	}
	if got := f32(48 + 63*4); got != 7 {
		t.Errorf("state[63] = %v, want 7", got)
	}
}

func TestClearedPixels(t *testing.T) {
	buf := clearedPixels(3, [4]float32{0.5, 0, 1, 0.25})
	if len(buf) != 3*16 {
		t.Fatalf("len = %d, want 48", len(buf))
	}
	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	// Color channels pass through the sRGB transfer, alpha does not.
	if got, want := f32(0), pixel.SRGBToLinear(0.5); got != want {
		t.Errorf("r = %v, want %v", got, want)
	}
	if got := f32(8); got != 1 {
		t.Errorf("b = %v, want 1", got)
	}
	if got := f32(12); got != 0.25 {
		t.Errorf("a = %v, want 0.25", got)
	}
	// All texels identical.
	if f32(16) != f32(0) || f32(32) != f32(0) {
		t.Error("texels differ")
	}
}

func TestUnpackPixels(t *testing.T) {
	img, err := pixel.New(2, 2, pixel.F32, pixel.RGBA)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := [][4]float32{
		{1, 0, 0, 1},
		{0, 1, 0, 0.5},
		{0, 0, 1, 0.25},
		{0.5, 0.5, 0.5, 1},
	}
	buf := make([]byte, 0, 64)
	for _, px := range want {
		for _, f := range px {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	unpackPixels(buf, img)

	i := 0
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b, a := img.At(x, y)
			w := want[i]
			if r != w[0] || g != w[1] || b != w[2] || a != w[3] {
				t.Errorf("pixel (%d,%d) = (%v %v %v %v), want %v", x, y, r, g, b, a, w)
			}
			i++
		}
	}
}

func TestBoundRect(t *testing.T) {
	// Zero matrix means identity.
	x0, y0, x1, y1 := boundRect([6]float32{}, 10, 20, 30, 40)
	if x0 != 10 || y0 != 20 || x1 != 30 || y1 != 40 {
		t.Errorf("identity bounds = (%v %v %v %v)", x0, y0, x1, y1)
	}

	// Translation.
	x0, y0, x1, y1 = boundRect([6]float32{1, 0, 0, 1, 5, -5}, 0, 0, 10, 10)
	if x0 != 5 || y0 != -5 || x1 != 15 || y1 != 5 {
		t.Errorf("translated bounds = (%v %v %v %v)", x0, y0, x1, y1)
	}

	// 90 degree rotation maps the unit rect onto the other axis.
	x0, y0, x1, y1 = boundRect([6]float32{0, 1, -1, 0, 0, 0}, 0, 0, 10, 4)
	if x0 != -4 || y0 != 0 || x1 != 0 || y1 != 10 {
		t.Errorf("rotated bounds = (%v %v %v %v)", x0, y0, x1, y1)
	}
}

func TestInstanceBounds(t *testing.T) {
	e := &Encoder{
		width: 64, height: 64,
		scissors: [][4]float32{{0, 0, 64, 64}, {0, 0, 16, 16}},
	}
	data := []float32{10, 10, 20, 20}

	cmd := &render.State{
		Shader: render.ShaderRectangle, Instances: 1, DataSize: 4,
	}
	x0, y0, x1, y1 := e.instanceBounds(cmd, data, 0)
	if x0 != 9 || y0 != 9 || x1 != 21 || y1 != 21 {
		t.Errorf("plain bounds = (%d %d %d %d), want 1px pad", x0, y0, x1, y1)
	}

	// Stroke widens the pad by half the width.
	cmd.StrokeWidth = 4
	x0, y0, x1, y1 = e.instanceBounds(cmd, data, 0)
	if x0 != 7 || y0 != 7 || x1 != 23 || y1 != 23 {
		t.Errorf("stroked bounds = (%d %d %d %d)", x0, y0, x1, y1)
	}
	cmd.StrokeWidth = 0

	// Scissor index 1 clamps to its rect.
	cmd.Scissor = 1
	x0, y0, x1, y1 = e.instanceBounds(cmd, data, 0)
	if x0 != 9 || y0 != 9 || x1 != 16 || y1 != 16 {
		t.Errorf("scissored bounds = (%d %d %d %d)", x0, y0, x1, y1)
	}
	cmd.Scissor = 0

	// A valid clip rect intersects.
	cmd.ClipRect = [4]float32{12, 12, 18, 18}
	x0, y0, x1, y1 = e.instanceBounds(cmd, data, 0)
	if x0 != 12 || y0 != 12 || x1 != 18 || y1 != 18 {
		t.Errorf("clipped bounds = (%d %d %d %d)", x0, y0, x1, y1)
	}
	cmd.ClipRect = [4]float32{}

	// The transform moves the dispatch region.
	cmd.Transform = [6]float32{1, 0, 0, 1, 30, 0}
	x0, _, x1, _ = e.instanceBounds(cmd, data, 0)
	if x0 != 39 || x1 != 51 {
		t.Errorf("translated bounds x = (%d %d), want (39 51)", x0, x1)
	}

	// Off-target regions collapse to empty.
	cmd.Transform = [6]float32{1, 0, 0, 1, 200, 0}
	x0, y0, x1, y1 = e.instanceBounds(cmd, data, 0)
	if x0 < x1 && y0 < y1 {
		t.Errorf("off-target bounds not empty: (%d %d %d %d)", x0, y0, x1, y1)
	}
}

func TestFloatsToBytes(t *testing.T) {
	b := floatsToBytes([]float32{1, 0.5})
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b)); got != 1 {
		t.Errorf("first = %v, want 1", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[4:])); got != 0.5 {
		t.Errorf("second = %v, want 0.5", got)
	}
}

// plainProvider implements gpucontext.DeviceProvider without exposing
// HAL handles.
type plainDevice struct{}

func (plainDevice) Poll(wait bool) {}
func (plainDevice) Destroy()       {}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return plainDevice{} }
func (plainProvider) Queue() gpucontext.Queue               { return struct{}{} }
func (plainProvider) Adapter() gpucontext.Adapter           { return struct{}{} }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func TestNewDeviceFromContext(t *testing.T) {
	if _, err := NewDeviceFromContext(nil, render.Options{}); err == nil {
		t.Error("nil provider accepted")
	}
	_, err := NewDeviceFromContext(plainProvider{}, render.Options{})
	if err == nil {
		t.Fatal("provider without HAL handles accepted")
	}
	if !strings.Contains(err.Error(), "HAL") {
		t.Errorf("err = %v, want HAL handle complaint", err)
	}
}
