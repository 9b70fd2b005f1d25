package render

import (
	"fmt"

	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/internal/logging"
	"github.com/dancazarin/brisk-sub002/pixel"
)

// Pipeline batches render commands against one frame. Canvases append
// commands through Command; the pipeline pins the sprites and
// gradients each command references into the device atlases, captures
// the bound texture, and flushes accumulated commands to the encoder
// whenever a resource limit is reached.
//
// A Pipeline is single-frame and single-goroutine: create, draw,
// Close.
type Pipeline struct {
	device  Device
	encoder Encoder
	target  Target

	commands []State
	data     []float32
	texture  *pixel.Image

	firstGen uint64
	batches  int
	closed   bool
}

// NewPipeline opens a frame on the target via the encoder. The clear
// color is straight-alpha sRGB; scissors beyond MaxScissors degrade to
// one full-target scissor (the encoder enforces this).
func NewPipeline(device Device, encoder Encoder, target Target, clear [4]float32, scissors ...[4]float32) (*Pipeline, error) {
	if err := encoder.Begin(target, clear, scissors); err != nil {
		return nil, fmt.Errorf("render: begin frame: %w", err)
	}
	p := &Pipeline{
		device:  device,
		encoder: encoder,
		target:  target,
	}
	p.firstGen = device.Resources().NextGeneration()
	return p, nil
}

// NumBatches returns how many batches have been flushed so far.
func (p *Pipeline) NumBatches() int { return p.batches }

// Command admits one command. The payload is copied into the batch
// data stream aligned to DataAlignment floats; DataOffset and
// DataSize are filled in by the pipeline. Sprite references in glyph
// payloads are patched to atlas offsets.
//
// A command may carry a gradient or a texture, not both. Violating
// that, referencing a sprite or gradient that cannot fit the atlas
// even after a flush, or submitting a payload larger than the batch
// data budget, is a caller bug and panics.
func (p *Pipeline) Command(cmd StateEx, payload []float32) error {
	if p.closed {
		return ErrDeviceClosed
	}
	if cmd.Image != nil && cmd.GradientRamp != nil {
		panic("render: command carries both a gradient and a texture")
	}

	limits := p.device.Limits()

	if len(payload)+DataAlignment > limits.MaxDataSize {
		panic("render: command payload exceeds the batch data budget")
	}
	if len(p.data)+len(payload)+DataAlignment > limits.MaxDataSize {
		if err := p.Flush(); err != nil {
			return err
		}
	}

	// Resolve the command's resources: bind the texture, pin the
	// gradient, pin the sprites. A pin can flush the batch, which
	// advances firstGen and unpins everything resolved so far for this
	// command; when that happened, resolve again so every reference is
	// pinned under the new generation. The second pass cannot flush: the
	// batch is empty, so pin retries no longer advance the generation.
	var offsets []atlas.SpriteOffset
	for {
		epoch := p.batches

		// A batch binds at most one distinct texture.
		if cmd.Image != nil {
			if p.texture != nil && p.texture.ID() != cmd.Image.ID() {
				if err := p.Flush(); err != nil {
					return err
				}
			}
			if err := p.device.CreateImageBackend(cmd.Image); err != nil {
				return fmt.Errorf("render: image backend: %w", err)
			}
			p.texture = cmd.Image
			cmd.Texture = BoundTexture
		} else {
			cmd.Texture = NoTexture
		}

		if cmd.GradientRamp != nil {
			idx, err := p.pinGradient(cmd.GradientID, cmd.GradientRamp)
			if err != nil {
				return err
			}
			cmd.Gradient = int32(idx)
		} else {
			cmd.Gradient = NoGradient
		}

		offsets = offsets[:0]
		for i := range cmd.Sprites {
			off, err := p.pinSprite(&cmd.Sprites[i])
			if err != nil {
				return err
			}
			offsets = append(offsets, off)
		}

		if p.batches == epoch {
			break
		}
	}

	// Patch glyph records from sprite-list indices to atlas offsets.
	if len(offsets) > 0 {
		for i := 0; i < len(payload)/GlyphFloats; i++ {
			ref := int(GlyphSprite(payload, i))
			if ref >= 0 && ref < len(offsets) {
				PatchGlyphSprite(payload, i, offsets[ref])
			}
		}
	}

	// Align, copy, record.
	for len(p.data)%DataAlignment != 0 {
		p.data = append(p.data, 0)
	}
	cmd.DataOffset = int32(len(p.data) / DataAlignment)
	cmd.DataSize = int32(len(payload))
	p.data = append(p.data, payload...)

	if cmd.Instances < 1 {
		cmd.Instances = 1
	}
	p.commands = append(p.commands, cmd.State)
	return nil
}

// pinGradient inserts the ramp into the gradient atlas, flushing and
// retrying once when the atlas is full of current-batch entries.
func (p *Pipeline) pinGradient(id uint64, ramp *atlas.GradientRamp) (atlas.GradientIndex, error) {
	res := p.device.Resources()
	for attempt := 0; ; attempt++ {
		res.Mu.Lock()
		idx := res.Gradients.AddEntry(id, ramp, p.firstGen, res.Generation())
		res.Mu.Unlock()
		if idx != atlas.GradientNull {
			return idx, nil
		}
		if attempt > 0 {
			panic("render: resource too large for atlas")
		}
		if err := p.Flush(); err != nil {
			return atlas.GradientNull, err
		}
	}
}

// pinSprite inserts the sprite into the sprite atlas with the same
// flush-and-retry policy as gradients.
func (p *Pipeline) pinSprite(s *atlas.Sprite) (atlas.SpriteOffset, error) {
	res := p.device.Resources()
	for attempt := 0; ; attempt++ {
		res.Mu.Lock()
		off := res.Sprites.AddEntry(s, p.firstGen, res.Generation())
		res.Mu.Unlock()
		if off != atlas.SpriteNull {
			return off, nil
		}
		if attempt > 0 {
			panic("render: resource too large for atlas")
		}
		if err := p.Flush(); err != nil {
			return atlas.SpriteNull, err
		}
	}
}

// Flush sends the accumulated batch to the encoder and resets the
// pipeline for the next one. Flushing an empty batch is a no-op.
func (p *Pipeline) Flush() error {
	if len(p.commands) == 0 {
		return nil
	}
	logging.Logger().Debug("render: flush batch",
		"commands", len(p.commands), "dataFloats", len(p.data))

	if err := p.encoder.Batch(p.commands, p.data, p.texture); err != nil {
		return fmt.Errorf("render: batch: %w", err)
	}
	p.batches++
	p.commands = nil
	p.data = nil
	p.texture = nil
	p.firstGen = p.device.Resources().NextGeneration()
	return nil
}

// Close flushes the final batch and ends the frame. The pipeline must
// not be used afterwards.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.Flush(); err != nil {
		return err
	}
	return p.encoder.End()
}
