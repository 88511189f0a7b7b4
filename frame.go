package focuspeak

import "fmt"

// PixelFormat identifies the memory layout of a raw frame.
type PixelFormat uint8

const (
	// FormatBGRA8 is 32-bit packed BGRA, 8 bits per channel, no padding.
	// This is the only format the pipeline accepts for staging.
	FormatBGRA8 PixelFormat = iota

	// FormatRGBA8 is 32-bit packed RGBA, 8 bits per channel. Used for host
	// bitmaps produced by readback and compositing.
	FormatRGBA8

	// FormatYUV420 is planar YUV 4:2:0 as delivered by some capture stacks.
	// Not supported by the pipeline; staging such a frame fails with
	// ErrUnsupportedFormat.
	FormatYUV420
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA8:
		return "BGRA8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatYUV420:
		return "YUV420"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for packed formats.
// Planar formats return 0.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatBGRA8, FormatRGBA8:
		return 4
	default:
		return 0
	}
}

// Frame is a raw pixel frame as delivered by a capture source.
//
// The Pix buffer is owned by the frame source for the duration of the
// delivery callback; pipeline stages copy what they need and never retain
// the slice beyond the call.
type Frame struct {
	// Width is the frame width in pixels.
	Width int

	// Height is the frame height in pixels.
	Height int

	// Format is the pixel memory layout. The pipeline accepts FormatBGRA8.
	Format PixelFormat

	// Pix holds the packed pixel bytes, tightly packed rows
	// (stride = Width * 4 for BGRA8).
	Pix []byte
}

// NewFrameBGRA allocates a zeroed BGRA-8 frame with the given dimensions.
// Intended for tests and synthetic sources; capture stacks deliver their
// own buffers.
func NewFrameBGRA(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Format: FormatBGRA8,
		Pix:    make([]byte, width*height*4),
	}
}

// Validate checks that the frame can enter the pipeline.
// It returns ErrUnsupportedFormat for non-BGRA8 frames and
// ErrInvalidDimensions for bad sizes or short buffers.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, f.Width, f.Height)
	}
	if f.Format != FormatBGRA8 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	if len(f.Pix) < f.Width*f.Height*4 {
		return fmt.Errorf("%w: pix buffer %d bytes, need %d",
			ErrInvalidDimensions, len(f.Pix), f.Width*f.Height*4)
	}
	return nil
}

// SetBGRA sets a single pixel. Out-of-bounds coordinates are ignored.
func (f *Frame) SetBGRA(x, y int, b, g, r, a byte) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	i := (y*f.Width + x) * 4
	f.Pix[i+0] = b
	f.Pix[i+1] = g
	f.Pix[i+2] = r
	f.Pix[i+3] = a
}

// Fill sets every pixel of a BGRA frame to the given color.
func (f *Frame) Fill(b, g, r, a byte) {
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i+0] = b
		f.Pix[i+1] = g
		f.Pix[i+2] = r
		f.Pix[i+3] = a
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Format: f.Format, Pix: pix}
}
