package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/dancazarin/brisk-sub002/pixel"
	"github.com/dancazarin/brisk-sub002/render"
)

// uniformBytes is the size of the shader Params block: frame vec4f,
// meta vec4u, image vec4u, 16 vec4f of state.
const uniformBytes = (4 + 4 + 4 + 64) * 4

// fenceTimeout bounds the frame wait.
const fenceTimeout = 5 * time.Second

// Encoder records one frame as a sequence of compute passes, one per
// command instance, and reads the pixel buffer back into the target
// image when the frame fence signals.
type Encoder struct {
	device   *Device
	settings render.VisualSettings

	img      *pixel.Image
	width    int
	height   int
	scissors [][4]float32

	enc       hal.CommandEncoder
	pixelBuf  hal.Buffer
	staging   hal.Buffer
	pixelSize uint64

	// Per-frame transients, released after Wait.
	buffers []hal.Buffer
	groups  []hal.BindGroup
	cmdBuf  hal.CommandBuffer
	fence   hal.Fence

	open    bool
	pending bool
}

func (e *Encoder) SetVisualSettings(s render.VisualSettings) {
	e.settings = s
}

func (e *Encoder) Begin(target render.Target, clear [4]float32, scissors [][4]float32) error {
	if e.open || e.pending {
		return fmt.Errorf("render/wgpu: begin with frame in flight")
	}
	it, ok := target.(interface{ Image() *pixel.Image })
	if !ok {
		return fmt.Errorf("render/wgpu: unsupported target %T", target)
	}
	e.img = it.Image()
	e.width, e.height = target.Size()

	full := [4]float32{0, 0, float32(e.width), float32(e.height)}
	if len(scissors) == 0 || len(scissors) > render.MaxScissors {
		e.scissors = [][4]float32{full}
	} else {
		e.scissors = append(e.scissors[:0], scissors...)
	}

	dev := e.device.dev
	e.pixelSize = uint64(e.width*e.height) * 16
	pixelBuf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_pixels", Size: e.pixelSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render/wgpu: create pixel buffer: %w", err)
	}
	staging, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_staging", Size: e.pixelSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		dev.DestroyBuffer(pixelBuf)
		return fmt.Errorf("render/wgpu: create staging buffer: %w", err)
	}
	e.pixelBuf = pixelBuf
	e.staging = staging

	e.device.queue.WriteBuffer(pixelBuf, 0, clearedPixels(e.width*e.height, clear))

	enc, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		e.releaseFrame()
		return fmt.Errorf("render/wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("frame"); err != nil {
		e.releaseFrame()
		return fmt.Errorf("render/wgpu: begin encoding: %w", err)
	}
	e.enc = enc
	e.open = true
	return nil
}

func (e *Encoder) Batch(commands []render.State, data []float32, image *pixel.Image) error {
	if !e.open {
		return fmt.Errorf("render/wgpu: batch outside frame")
	}
	res := e.device.res
	res.Mu.Lock()
	defer res.Mu.Unlock()

	if err := e.device.syncAtlases(); err != nil {
		return err
	}

	dataBuf, dataSize, err := e.uploadFloats("batch_data", data)
	if err != nil {
		return err
	}
	imageBuf, imageSize, imgW, imgH, err := e.uploadImage(image)
	if err != nil {
		return err
	}

	var state []float32
	for i := range commands {
		cmd := &commands[i]
		state = cmd.EncodeTo(state[:0])

		for inst := int32(0); inst < cmd.Instances; inst++ {
			ix0, iy0, ix1, iy1 := e.instanceBounds(cmd, data, inst)
			if ix0 >= ix1 || iy0 >= iy1 {
				continue
			}
			uniform := packUniform(
				[4]float32{float32(e.width), float32(e.height), e.settings.Gamma, e.settings.BlueLightFilter},
				[4]uint32{uint32(ix0), uint32(iy0), uint32(inst), 0},
				[4]uint32{uint32(imgW), uint32(imgH), 0, 0},
				state,
			)
			bg, err := e.bindPass(uniform, dataBuf, dataSize, imageBuf, imageSize)
			if err != nil {
				return err
			}
			pass := e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "render_cmd"})
			pass.SetPipeline(e.device.prog.cmd)
			pass.SetBindGroup(0, bg, nil)
			pass.Dispatch(uint32(ix1-ix0+7)/8, uint32(iy1-iy0+7)/8, 1)
			pass.End()
		}
	}
	return nil
}

func (e *Encoder) End() error {
	if !e.open {
		return fmt.Errorf("render/wgpu: end outside frame")
	}

	s := e.settings
	gammaNeutral := s.Gamma == 1 || s.Gamma == 0
	if !gammaNeutral || s.BlueLightFilter > 0 {
		if err := e.encodeFinish(); err != nil {
			return err
		}
	}

	e.enc.CopyBufferToBuffer(e.pixelBuf, e.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: e.pixelSize},
	})
	cmdBuf, err := e.enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("render/wgpu: end encoding: %w", err)
	}
	e.cmdBuf = cmdBuf
	e.enc = nil

	fence, err := e.device.dev.CreateFence()
	if err != nil {
		return fmt.Errorf("render/wgpu: create fence: %w", err)
	}
	e.fence = fence

	if err := e.device.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("render/wgpu: submit: %w", err)
	}
	e.open = false
	e.pending = true
	return nil
}

func (e *Encoder) Wait() error {
	if !e.pending {
		return nil
	}
	defer e.releaseFrame()

	ok, err := e.device.dev.Wait(e.fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("render/wgpu: wait for frame: ok=%v err=%w", ok, err)
	}

	readback := make([]byte, e.pixelSize)
	if err := e.device.queue.ReadBuffer(e.staging, 0, readback); err != nil {
		return fmt.Errorf("render/wgpu: readback: %w", err)
	}
	unpackPixels(readback, e.img)
	return nil
}

// encodeFinish appends the visual-settings post pass over the whole
// target.
func (e *Encoder) encodeFinish() error {
	var state [render.StateFloats]float32
	uniform := packUniform(
		[4]float32{float32(e.width), float32(e.height), e.settings.Gamma, e.settings.BlueLightFilter},
		[4]uint32{}, [4]uint32{1, 1, 0, 0}, state[:],
	)
	dummy, dummySize, err := e.uploadFloats("finish_dummy", nil)
	if err != nil {
		return err
	}
	bg, err := e.bindPass(uniform, dummy, dummySize, dummy, dummySize)
	if err != nil {
		return err
	}
	pass := e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "render_finish"})
	pass.SetPipeline(e.device.prog.finish)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(uint32(e.width+7)/8, uint32(e.height+7)/8, 1)
	pass.End()
	return nil
}

// bindPass creates the uniform buffer and bind group for one pass and
// tracks both for end-of-frame release.
func (e *Encoder) bindPass(uniform []byte, dataBuf hal.Buffer, dataSize uint64, imageBuf hal.Buffer, imageSize uint64) (hal.BindGroup, error) {
	dev := e.device.dev
	ub, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "pass_uniform", Size: uint64(len(uniform)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render/wgpu: create uniform buffer: %w", err)
	}
	e.buffers = append(e.buffers, ub)
	e.device.queue.WriteBuffer(ub, 0, uniform)

	entry := func(binding uint32, buf hal.Buffer, size uint64) gputypes.BindGroupEntry {
		return gputypes.BindGroupEntry{
			Binding:  binding,
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size},
		}
	}
	bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "pass_bind",
		Layout: e.device.prog.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, ub, uint64(len(uniform))),
			entry(1, dataBuf, dataSize),
			entry(2, e.device.spriteBuf, uint64(e.device.spriteCap)),
			entry(3, e.device.gradBuf, uint64(len(e.device.res.Gradients.Data())*4)),
			entry(4, imageBuf, imageSize),
			entry(5, e.pixelBuf, e.pixelSize),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render/wgpu: create bind group: %w", err)
	}
	e.groups = append(e.groups, bg)
	return bg, nil
}

// uploadFloats creates a transient read-only storage buffer holding the
// floats. Empty input gets a small zeroed buffer so the binding stays
// valid.
func (e *Encoder) uploadFloats(label string, data []float32) (hal.Buffer, uint64, error) {
	size := uint64(len(data) * 4)
	if size < 16 {
		size = 16
	}
	buf, err := e.device.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("render/wgpu: create %s buffer: %w", label, err)
	}
	e.buffers = append(e.buffers, buf)
	if len(data) > 0 {
		e.device.queue.WriteBuffer(buf, 0, floatsToBytes(data))
	}
	return buf, size, nil
}

// uploadImage packs the batch's bound image as a vec4f texel buffer.
func (e *Encoder) uploadImage(image *pixel.Image) (hal.Buffer, uint64, int, int, error) {
	if image == nil {
		buf, size, err := e.uploadFloats("batch_image", nil)
		return buf, size, 1, 1, err
	}
	w, h := image.Width(), image.Height()
	texels := make([]float32, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := image.At(x, y)
			texels = append(texels, r, g, b, a)
		}
	}
	buf, size, err := e.uploadFloats("batch_image", texels)
	return buf, size, w, h, err
}

// instanceBounds computes the dispatch region of one command instance:
// the transformed payload rect, padded for stroke and antialiasing,
// intersected with the command's scissor, clip and the target.
func (e *Encoder) instanceBounds(cmd *render.State, data []float32, inst int32) (int, int, int, int) {
	payload := data[cmd.DataOffset*render.DataAlignment:]
	if cmd.DataSize > 0 {
		payload = payload[:cmd.DataSize]
	}
	var stride int32
	switch cmd.Shader {
	case render.ShaderRectangle:
		stride = 4
	case render.ShaderGradient:
		stride = render.GradientRecordFloats
	default:
		stride = render.GlyphFloats
	}
	rec := payload[inst*stride:]
	if len(rec) < 4 {
		return 0, 0, 0, 0
	}
	bx0, by0, bx1, by1 := boundRect(cmd.Transform, rec[0], rec[1], rec[2], rec[3])

	pad := float32(1)
	if cmd.Shader == render.ShaderRectangle {
		pad += cmd.StrokeWidth / 2
	}
	x0, y0, x1, y1 := bx0-pad, by0-pad, bx1+pad, by1+pad

	si := int(cmd.Scissor)
	if si < 0 || si >= len(e.scissors) {
		si = 0
	}
	s := e.scissors[si]
	x0 = math32.Max(x0, s[0])
	y0 = math32.Max(y0, s[1])
	x1 = math32.Min(x1, s[2])
	y1 = math32.Min(y1, s[3])

	if cmd.ClipRect[2] > cmd.ClipRect[0] && cmd.ClipRect[3] > cmd.ClipRect[1] {
		x0 = math32.Max(x0, cmd.ClipRect[0])
		y0 = math32.Max(y0, cmd.ClipRect[1])
		x1 = math32.Min(x1, cmd.ClipRect[2])
		y1 = math32.Min(y1, cmd.ClipRect[3])
	}

	ix0 := maxInt(int(math32.Floor(x0)), 0)
	iy0 := maxInt(int(math32.Floor(y0)), 0)
	ix1 := minInt(int(math32.Ceil(x1)), e.width)
	iy1 := minInt(int(math32.Ceil(y1)), e.height)
	return ix0, iy0, ix1, iy1
}

// releaseFrame destroys all per-frame GPU resources.
func (e *Encoder) releaseFrame() {
	dev := e.device.dev
	if e.fence != nil {
		dev.DestroyFence(e.fence)
		e.fence = nil
	}
	if e.cmdBuf != nil {
		dev.FreeCommandBuffer(e.cmdBuf)
		e.cmdBuf = nil
	}
	for _, g := range e.groups {
		dev.DestroyBindGroup(g)
	}
	e.groups = e.groups[:0]
	for _, b := range e.buffers {
		dev.DestroyBuffer(b)
	}
	e.buffers = e.buffers[:0]
	if e.pixelBuf != nil {
		dev.DestroyBuffer(e.pixelBuf)
		e.pixelBuf = nil
	}
	if e.staging != nil {
		dev.DestroyBuffer(e.staging)
		e.staging = nil
	}
	e.open = false
	e.pending = false
}

// boundRect transforms a local rect by the 2x3 affine and returns its
// device-space bounding box. A zero matrix means identity.
func boundRect(t [6]float32, x0, y0, x1, y1 float32) (float32, float32, float32, float32) {
	a, b, c, d, tx, ty := t[0], t[1], t[2], t[3], t[4], t[5]
	if a == 0 && b == 0 && c == 0 && d == 0 && tx == 0 && ty == 0 {
		a, d = 1, 1
	}
	px := [4]float32{x0, x1, x0, x1}
	py := [4]float32{y0, y0, y1, y1}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for i := 0; i < 4; i++ {
		dx := a*px[i] + c*py[i] + tx
		dy := b*px[i] + d*py[i] + ty
		minX = math32.Min(minX, dx)
		minY = math32.Min(minY, dy)
		maxX = math32.Max(maxX, dx)
		maxY = math32.Max(maxY, dy)
	}
	return minX, minY, maxX, maxY
}

// packUniform serializes the shader Params block.
func packUniform(frame [4]float32, meta [4]uint32, imageDim [4]uint32, state []float32) []byte {
	buf := make([]byte, 0, uniformBytes)
	for _, f := range frame {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, u := range meta {
		buf = binary.LittleEndian.AppendUint32(buf, u)
	}
	for _, u := range imageDim {
		buf = binary.LittleEndian.AppendUint32(buf, u)
	}
	for _, f := range state {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// clearedPixels builds the initial pixel buffer contents: the clear
// color converted to linear, straight alpha.
func clearedPixels(count int, clear [4]float32) []byte {
	texel := [4]float32{
		pixel.SRGBToLinear(clear[0]),
		pixel.SRGBToLinear(clear[1]),
		pixel.SRGBToLinear(clear[2]),
		clear[3],
	}
	one := make([]byte, 0, 16)
	for _, f := range texel {
		one = binary.LittleEndian.AppendUint32(one, math.Float32bits(f))
	}
	buf := make([]byte, 0, count*16)
	for i := 0; i < count; i++ {
		buf = append(buf, one...)
	}
	return buf
}

// unpackPixels copies the vec4f readback into the target image.
func unpackPixels(readback []byte, img *pixel.Image) {
	w, h := img.Width(), img.Height()
	off := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := math.Float32frombits(binary.LittleEndian.Uint32(readback[off:]))
			g := math.Float32frombits(binary.LittleEndian.Uint32(readback[off+4:]))
			b := math.Float32frombits(binary.LittleEndian.Uint32(readback[off+8:]))
			a := math.Float32frombits(binary.LittleEndian.Uint32(readback[off+12:]))
			img.Set(x, y, r, g, b, a)
			off += 16
		}
	}
}

func floatsToBytes(data []float32) []byte {
	buf := make([]byte, 0, len(data)*4)
	for _, f := range data {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
