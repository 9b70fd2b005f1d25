// Package render defines the command model shared by every backend: the
// fixed-size RenderState record, the device/encoder interfaces, the
// batching pipeline and the backend registry.
package render

import (
	"github.com/dancazarin/brisk-sub002/atlas"
	"github.com/dancazarin/brisk-sub002/pixel"
)

// ShaderType selects which shader a command runs. The set is closed:
// backends switch over it exhaustively.
type ShaderType int32

const (
	// ShaderRectangle fills a (possibly rounded, possibly stroked)
	// rectangle.
	ShaderRectangle ShaderType = iota
	// ShaderPath fills a path lowered to a coverage mask sprite.
	ShaderPath
	// ShaderText draws glyph coverage sprites with the fill color.
	ShaderText
	// ShaderMask modulates the fill with an arbitrary coverage sprite.
	ShaderMask
	// ShaderTextureFill samples the bound image texture.
	ShaderTextureFill
	// ShaderGradient fills geometry from a gradient atlas ramp.
	ShaderGradient
)

func (s ShaderType) String() string {
	switch s {
	case ShaderRectangle:
		return "rectangle"
	case ShaderPath:
		return "path"
	case ShaderText:
		return "text"
	case ShaderMask:
		return "mask"
	case ShaderTextureFill:
		return "texture-fill"
	case ShaderGradient:
		return "gradient"
	default:
		return "unknown"
	}
}

const (
	// StateFloats is the size of one encoded RenderState in floats.
	// 64 floats = 256 bytes, a whole number of 16-byte uniform blocks.
	StateFloats = 64
	// StateBytes is the size of one encoded RenderState in bytes.
	StateBytes = StateFloats * 4

	// GlyphFloats is the size of one encoded GeometryGlyph in floats.
	GlyphFloats = 8

	// DataAlignment is the data stream alignment in floats. Command
	// payloads start on 4-float boundaries so dataOffset fits in
	// 4-float units.
	DataAlignment = 4

	// MaxScissors is the largest scissor list a frame can carry;
	// longer lists degrade to one full-target scissor.
	MaxScissors = 16
)

// NoTexture and BoundTexture are the only valid TextureID values: a
// batch binds at most one image texture.
const (
	NoTexture    int32 = -1
	BoundTexture int32 = 1
)

// NoGradient marks a command that does not sample the gradient atlas.
const NoGradient int32 = -1

// State is one render command. The encoded form is the only per-draw
// state the shader sees; fields that a given shader kind does not
// consume are left zero.
type State struct {
	Shader     ShaderType
	Instances  int32 // instance count for the draw, >= 1
	DataOffset int32 // into the batch data stream, in 4-float units
	DataSize   int32 // payload length in floats

	Gradient int32 // gradient atlas slot, or NoGradient
	Texture  int32 // NoTexture or BoundTexture

	Transform [6]float32 // 2x3 row-major affine, device space

	FillColor   [4]float32 // straight-alpha sRGB
	StrokeColor [4]float32

	CornerRadius float32
	StrokeWidth  float32
	Subpixel     float32 // 0 off, 1 on; backends may ignore

	ClipRect [4]float32 // x0, y0, x1, y1 in device pixels
	Scissor  int32      // index into the frame scissor list
}

// EncodeTo appends the 64-float wire form of the state to dst and
// returns the extended slice. Layout, in 4-float blocks:
//
//	0: shader, instances, dataOffset, dataSize
//	1: gradient, texture, subpixel, scissor
//	2: transform[0..3]
//	3: transform[4..5], cornerRadius, strokeWidth
//	4: fillColor
//	5: strokeColor
//	6: clipRect
//	7..15: reserved
func (s *State) EncodeTo(dst []float32) []float32 {
	base := len(dst)
	dst = append(dst, make([]float32, StateFloats)...)
	w := dst[base : base+StateFloats]

	w[0] = float32(s.Shader)
	w[1] = float32(s.Instances)
	w[2] = float32(s.DataOffset)
	w[3] = float32(s.DataSize)

	w[4] = float32(s.Gradient)
	w[5] = float32(s.Texture)
	w[6] = s.Subpixel
	w[7] = float32(s.Scissor)

	copy(w[8:14], s.Transform[:])
	w[14] = s.CornerRadius
	w[15] = s.StrokeWidth

	copy(w[16:20], s.FillColor[:])
	copy(w[20:24], s.StrokeColor[:])
	copy(w[24:28], s.ClipRect[:])
	return dst
}

// DecodeState reads one encoded state record back. Backends that
// interpret commands on the CPU use this; GPU backends read the same
// layout from the constant buffer.
func DecodeState(src []float32) State {
	var s State
	s.Shader = ShaderType(src[0])
	s.Instances = int32(src[1])
	s.DataOffset = int32(src[2])
	s.DataSize = int32(src[3])
	s.Gradient = int32(src[4])
	s.Texture = int32(src[5])
	s.Subpixel = src[6]
	s.Scissor = int32(src[7])
	copy(s.Transform[:], src[8:14])
	s.CornerRadius = src[14]
	s.StrokeWidth = src[15]
	copy(s.FillColor[:], src[16:20])
	copy(s.StrokeColor[:], src[20:24])
	copy(s.ClipRect[:], src[24:28])
	return s
}

// Gradient payload record: rect(4), kind(1), reserved(3), params(4).
// Linear params are the start and end points, radial are center x, y
// and radius, conic are center x, y and the start angle.
const (
	GradientRecordFloats = 12

	GradientKindLinear float32 = 0
	GradientKindRadial float32 = 1
	GradientKindConic  float32 = 2
)

// GeometryGlyph is the per-glyph sub-record text and mask commands pack
// into the data stream: a device-space rect, the sprite it samples and
// the sprite's row stride in atlas units.
type GeometryGlyph struct {
	X0, Y0, X1, Y1 float32
	Sprite         float32 // pre-patch: index into StateEx.Sprites; post-patch: atlas.SpriteOffset
	Stride         float32 // sprite row width in bytes
}

// EncodeTo appends the 8-float wire form (2 blocks, last 2 floats
// reserved).
func (g *GeometryGlyph) EncodeTo(dst []float32) []float32 {
	return append(dst, g.X0, g.Y0, g.X1, g.Y1, g.Sprite, g.Stride, 0, 0)
}

// PatchGlyphSprite rewrites the sprite field of the i-th glyph record
// inside an encoded payload.
func PatchGlyphSprite(data []float32, i int, offset atlas.SpriteOffset) {
	data[i*GlyphFloats+4] = float32(offset)
}

// GlyphSprite reads the sprite field of the i-th glyph record of an
// encoded payload.
func GlyphSprite(data []float32, i int) float32 {
	return data[i*GlyphFloats+4]
}

// StateEx is a State plus the resource handles the pipeline resolves
// before the command reaches a backend: the image to bind, the
// gradient ramp to pin and the sprites referenced by the payload's
// glyph records (GeometryGlyph.Sprite indexes this list until the
// pipeline patches it to an atlas offset).
type StateEx struct {
	State

	Image        *pixel.Image
	GradientID   uint64
	GradientRamp *atlas.GradientRamp
	Sprites      []atlas.Sprite
}
