package focuspeak

import (
	"errors"
	"testing"
)

// gradientFrame builds a BGRA frame with per-pixel varying content.
func gradientFrame(w, h int) *Frame {
	f := NewFrameBGRA(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.SetBGRA(x, y, byte(x*16), byte(y*16), byte((x+y)*8), 0xFF)
		}
	}
	return f
}

func TestCompositeEmptyEdgeMapIsIdentity(t *testing.T) {
	const w, h = 8, 6
	frame := gradientFrame(w, h)
	edge := NewBitmap(w, h) // all zero = mask color

	c := NewCanvasCompositor(DefaultConfig())
	out, err := c.Composite(frame, edge)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer ReleaseBitmap(out)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := out.RGBA(x, y)
			i := (y*w + x) * 4
			if r != frame.Pix[i+2] || g != frame.Pix[i+1] || b != frame.Pix[i+0] {
				t.Fatalf("pixel (%d,%d) = [%d %d %d], want frame copy [%d %d %d]",
					x, y, r, g, b, frame.Pix[i+2], frame.Pix[i+1], frame.Pix[i+0])
			}
			if a != 0xFF {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, a)
			}
		}
	}
}

func TestCompositeFullCoverageDarkens(t *testing.T) {
	const w, h = 4, 4
	frame := NewFrameBGRA(w, h)
	frame.Fill(200, 200, 200, 0xFF) // light gray

	edge := NewBitmap(w, h)
	edge.Clear(0xFF, 0xFF, 0xFF, 0xFF) // full-strength edge everywhere

	c := NewCanvasCompositor(DefaultConfig()) // red highlight
	out, err := c.Composite(frame, edge)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer ReleaseBitmap(out)

	// Darken with pure red over gray 200: R = min(255,200) = 200 stays,
	// G and B = min(0,200) = 0.
	r, g, b, _ := out.RGBA(2, 2)
	if r != 200 || g != 0 || b != 0 {
		t.Fatalf("highlighted pixel = [%d %d %d], want [200 0 0]", r, g, b)
	}
}

func TestCompositeNeverBrightens(t *testing.T) {
	const w, h = 6, 6
	frame := gradientFrame(w, h)

	edge := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			edge.SetRGBA(x, y, byte(x*40), byte(x*40), byte(x*40), 0xFF)
		}
	}

	cfg := DefaultConfig()
	cfg.HighlightColor = RGB{R: 255, G: 255, B: 0}
	c := NewCanvasCompositor(cfg)
	out, err := c.Composite(frame, edge)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer ReleaseBitmap(out)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := out.RGBA(x, y)
			i := (y*w + x) * 4
			fr, fg, fb := frame.Pix[i+2], frame.Pix[i+1], frame.Pix[i+0]
			if r > fr || g > fg || b > fb {
				t.Fatalf("pixel (%d,%d) = [%d %d %d] brighter than source [%d %d %d]",
					x, y, r, g, b, fr, fg, fb)
			}
		}
	}
}

func TestCompositeZeroStrengthIsIdentity(t *testing.T) {
	const w, h = 5, 5
	frame := gradientFrame(w, h)
	edge := NewBitmap(w, h)
	edge.Clear(0xFF, 0xFF, 0xFF, 0xFF)

	cfg := DefaultConfig()
	cfg.HighlightStrength = 0
	c := NewCanvasCompositor(cfg)
	out, err := c.Composite(frame, edge)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer ReleaseBitmap(out)

	r, g, b, _ := out.RGBA(1, 1)
	i := (1*w + 1) * 4
	if r != frame.Pix[i+2] || g != frame.Pix[i+1] || b != frame.Pix[i+0] {
		t.Fatalf("zero strength changed pixel: [%d %d %d]", r, g, b)
	}
}

func TestCompositeCustomMaskColor(t *testing.T) {
	const w, h = 3, 3
	frame := NewFrameBGRA(w, h)
	frame.Fill(100, 100, 100, 0xFF)

	// Edge map painted entirely in the mask color: zero coverage.
	edge := NewBitmap(w, h)
	edge.Clear(10, 20, 30, 0xFF)

	cfg := DefaultConfig()
	cfg.MaskColor = RGB{R: 10, G: 20, B: 30}
	c := NewCanvasCompositor(cfg)
	out, err := c.Composite(frame, edge)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer ReleaseBitmap(out)

	r, g, b, _ := out.RGBA(1, 1)
	if r != 100 || g != 100 || b != 100 {
		t.Fatalf("mask-colored edge map changed pixel: [%d %d %d]", r, g, b)
	}
}

func TestCompositeDimensionMismatch(t *testing.T) {
	frame := NewFrameBGRA(8, 8)
	edge := NewBitmap(4, 4)

	c := NewCanvasCompositor(DefaultConfig())
	if _, err := c.Composite(frame, edge); !errors.Is(err, ErrCompositeFailed) {
		t.Fatalf("mismatched dimensions: got %v, want ErrCompositeFailed", err)
	}
}

func TestCompositeNilInputs(t *testing.T) {
	c := NewCanvasCompositor(DefaultConfig())
	if _, err := c.Composite(nil, NewBitmap(2, 2)); !errors.Is(err, ErrCompositeFailed) {
		t.Fatalf("nil frame: got %v, want ErrCompositeFailed", err)
	}
	if _, err := c.Composite(NewFrameBGRA(2, 2), nil); !errors.Is(err, ErrCompositeFailed) {
		t.Fatalf("nil edge map: got %v, want ErrCompositeFailed", err)
	}
}
