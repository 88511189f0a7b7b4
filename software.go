package focuspeak

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/focuspeak/internal/kernel"
)

// softwareTexture is a host-memory stand-in for a device image. It exists
// so the software engine satisfies the same per-frame handle contract as
// the device engine: created by one stage, consumed by the next, released
// on every path.
type softwareTexture struct {
	width    int
	height   int
	format   PixelFormat
	pix      []byte
	released bool
}

func (t *softwareTexture) Width() int          { return t.width }
func (t *softwareTexture) Height() int         { return t.height }
func (t *softwareTexture) Format() PixelFormat { return t.format }

// Release frees the backing store. Idempotent.
func (t *softwareTexture) Release() {
	t.pix = nil
	t.released = true
}

// softwareEngine implements Engine entirely on host memory using the CPU
// kernels. It is fully deterministic: identical frames and configuration
// produce bit-identical edge maps on every run.
//
// Device-side stages have nothing to defer here, so each call executes
// eagerly; Readback has no queue to drain and returns immediately.
type softwareEngine struct {
	closed bool
}

var _ Engine = (*softwareEngine)(nil)

// NewSoftwareEngine returns the deterministic host-memory engine. It is
// the default when no engine option is given and serves as the reference
// implementation the device engine is validated against.
func NewSoftwareEngine() Engine {
	return &softwareEngine{}
}

func (e *softwareEngine) Stage(frame *Frame) (Texture, error) {
	if e.closed {
		return nil, ErrPipelineClosed
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	pix := make([]byte, frame.Width*frame.Height*4)
	copy(pix, frame.Pix)

	Logger().Debug("staged frame",
		slog.Int("width", frame.Width),
		slog.Int("height", frame.Height))

	return &softwareTexture{
		width:  frame.Width,
		height: frame.Height,
		format: FormatBGRA8,
		pix:    pix,
	}, nil
}

func (e *softwareEngine) DetectEdges(src Texture, op Operator, cfg Config) (Texture, error) {
	if e.closed {
		return nil, ErrPipelineClosed
	}

	st, ok := src.(*softwareTexture)
	if !ok || st.released || st.format != FormatBGRA8 {
		return nil, fmt.Errorf("%w: detect input must be a staged frame", ErrUnsupportedFormat)
	}
	defer st.Release()

	dst := make([]byte, st.width*st.height*4)
	switch op {
	case OperatorLaplacian:
		kernel.Laplacian(dst, st.pix, st.width, st.height)
	case OperatorCannyLike:
		kernel.CannyLike(dst, st.pix, st.width, st.height, cfg.CannyLow, cfg.CannyHigh)
	case opIdentity:
		kernel.Identity(dst, st.pix, st.width, st.height)
	default:
		return nil, fmt.Errorf("%w: operator %s", ErrUnsupportedFormat, op)
	}

	return &softwareTexture{
		width:  st.width,
		height: st.height,
		format: FormatRGBA8,
		pix:    dst,
	}, nil
}

func (e *softwareEngine) Readback(src Texture) (*Bitmap, error) {
	if e.closed {
		return nil, ErrPipelineClosed
	}

	st, ok := src.(*softwareTexture)
	if !ok || st.released || st.format != FormatRGBA8 {
		return nil, fmt.Errorf("%w: readback input must be a detect result", ErrUnsupportedFormat)
	}
	defer st.Release()

	bm := GetBitmap(st.width, st.height)
	copy(bm.pix, st.pix)

	// The computed alpha never reaches the caller.
	for i := 3; i < len(bm.pix); i += 4 {
		bm.pix[i] = 0xFF
	}

	return bm, nil
}

func (e *softwareEngine) Close() {
	e.closed = true
}
