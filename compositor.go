package focuspeak

import (
	"fmt"

	"github.com/gogpu/focuspeak/internal/blend"
)

// CanvasCompositor is the host implementation of Compositor. It renders the
// final display image in two passes over a pooled canvas:
//
//  1. Draw the original frame (BGRA source order, RGBA canvas order).
//  2. Color-key the edge map against the mask color to get per-texel
//     coverage, then paint the highlight color through that coverage with
//     the darken blend mode.
//
// An edge texel equal to the mask color has zero coverage and leaves the
// canvas byte untouched, so a frame with an empty edge map composites to
// an exact copy of itself.
type CanvasCompositor struct {
	cfg Config

	// strength is HighlightStrength in 8.8 fixed point, so coverage
	// scaling stays integer and deterministic.
	strength uint32
}

var _ Compositor = (*CanvasCompositor)(nil)

// NewCanvasCompositor creates a host compositor with the given
// configuration.
func NewCanvasCompositor(cfg Config) *CanvasCompositor {
	s := cfg.HighlightStrength
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return &CanvasCompositor{
		cfg:      cfg,
		strength: uint32(s*256 + 0.5),
	}
}

// Composite blends the edge map over the frame. The returned bitmap comes
// from the shared pool; release it with ReleaseBitmap when done.
func (c *CanvasCompositor) Composite(frame *Frame, edge *Bitmap) (*Bitmap, error) {
	if frame == nil || edge == nil {
		return nil, fmt.Errorf("%w: nil input", ErrCompositeFailed)
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositeFailed, err)
	}
	if edge.width != frame.Width || edge.height != frame.Height {
		return nil, fmt.Errorf("%w: edge map %dx%d does not match frame %dx%d",
			ErrCompositeFailed, edge.width, edge.height, frame.Width, frame.Height)
	}

	canvas := GetBitmap(frame.Width, frame.Height)

	c.drawFrame(canvas, frame)
	c.paintHighlight(canvas, edge)

	return canvas, nil
}

// drawFrame copies the frame onto the canvas, swizzling BGRA to RGBA and
// forcing alpha opaque.
func (c *CanvasCompositor) drawFrame(canvas *Bitmap, frame *Frame) {
	src := frame.Pix
	dst := canvas.pix
	for i := 0; i < frame.Width*frame.Height; i++ {
		o := i * 4
		dst[o+0] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o+0]
		dst[o+3] = 0xFF
	}
}

// paintHighlight applies the color-keyed darken overlay in place.
func (c *CanvasCompositor) paintHighlight(canvas *Bitmap, edge *Bitmap) {
	mask := c.cfg.MaskColor
	hl := c.cfg.HighlightColor
	src := edge.pix
	dst := canvas.pix

	for i := 0; i < canvas.width*canvas.height; i++ {
		o := i * 4

		cov := blend.MaxDist(src[o+0], src[o+1], src[o+2], mask.R, mask.G, mask.B)
		if cov == 0 || c.strength == 0 {
			continue
		}
		cov = byte(uint32(cov) * c.strength >> 8)
		if cov == 0 {
			continue
		}

		dst[o+0] = blend.Lerp(dst[o+0], blend.Darken(hl.R, dst[o+0]), cov)
		dst[o+1] = blend.Lerp(dst[o+1], blend.Darken(hl.G, dst[o+1]), cov)
		dst[o+2] = blend.Lerp(dst[o+2], blend.Darken(hl.B, dst[o+2]), cov)
	}
}
