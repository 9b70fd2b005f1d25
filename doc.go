// Package brisk is a resolution-independent 2D rendering library.
//
// Drawing is expressed as a stream of fixed-size render commands plus a
// shared float data stream, batched by a [render.Pipeline] and executed by a
// pluggable backend (render/wgpu for GPU output, render/software for a
// CPU reference with readback). Text is shaped and laid out by the
// fonts package and drawn as coverage-mask sprites from a shared
// sprite atlas.
//
// The high-level entry point is [Canvas], which carries a transform
// stack and paints. [RawCanvas] exposes the command encoding directly
// for callers that manage their own geometry.
package brisk
