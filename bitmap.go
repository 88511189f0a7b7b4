package focuspeak

import (
	"image"
	"image/color"
)

// Bitmap is a host-addressable RGBA8 pixel buffer with explicit stride.
//
// Readback produces a Bitmap holding the edge map; the compositor produces
// a Bitmap holding the final overlay image. Rows are tightly packed
// (stride = width * 4).
type Bitmap struct {
	width  int
	height int
	stride int
	pix    []byte
}

// NewBitmap creates a zeroed bitmap with the given dimensions.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		width:  width,
		height: height,
		stride: width * 4,
		pix:    make([]byte, width*height*4),
	}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// Stride returns the number of bytes per row.
func (b *Bitmap) Stride() int { return b.stride }

// Pix returns the raw RGBA pixel bytes.
func (b *Bitmap) Pix() []byte { return b.pix }

// SetRGBA sets a single pixel. Out-of-bounds coordinates are ignored.
func (b *Bitmap) SetRGBA(x, y int, r, g, bl, a byte) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := y*b.stride + x*4
	b.pix[i+0] = r
	b.pix[i+1] = g
	b.pix[i+2] = bl
	b.pix[i+3] = a
}

// RGBA returns the four channel bytes of a pixel.
// Out-of-bounds coordinates return zeros.
func (b *Bitmap) RGBA(x, y int) (r, g, bl, a byte) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, 0, 0, 0
	}
	i := y*b.stride + x*4
	return b.pix[i+0], b.pix[i+1], b.pix[i+2], b.pix[i+3]
}

// Clear fills the bitmap with a single color.
func (b *Bitmap) Clear(r, g, bl, a byte) {
	for i := 0; i < len(b.pix); i += 4 {
		b.pix[i+0] = r
		b.pix[i+1] = g
		b.pix[i+2] = bl
		b.pix[i+3] = a
	}
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	out := NewBitmap(b.width, b.height)
	copy(out.pix, b.pix)
	return out
}

// Equal reports whether two bitmaps have identical dimensions and bytes.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	if len(b.pix) != len(other.pix) {
		return false
	}
	for i := range b.pix {
		if b.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// ToImage converts the bitmap to an image.RGBA copy.
func (b *Bitmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.pix)
	return img
}

// At implements the image.Image interface.
func (b *Bitmap) At(x, y int) color.Color {
	r, g, bl, a := b.RGBA(x, y)
	return color.RGBA{R: r, G: g, B: bl, A: a}
}

// Bounds implements the image.Image interface.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Bitmap) ColorModel() color.Model {
	return color.RGBAModel
}
