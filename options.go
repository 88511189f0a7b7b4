package focuspeak

import "fmt"

// Operator selects the gradient operator used for edge detection.
type Operator uint8

const (
	// OperatorLaplacian runs a discrete 3x3 second-derivative convolution.
	// Border texels are replicated rather than treated as zero.
	OperatorLaplacian Operator = iota

	// OperatorCannyLike runs Sobel gradient magnitude followed by
	// non-maximum thinning and double thresholding, clamped at borders.
	OperatorCannyLike

	// opIdentity copies the staged pixels through unchanged. Internal;
	// exists so staging can be verified to be lossless.
	opIdentity
)

// String returns a human-readable name for the operator.
func (o Operator) String() string {
	switch o {
	case OperatorLaplacian:
		return "Laplacian"
	case OperatorCannyLike:
		return "CannyLike"
	case opIdentity:
		return "Identity"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// RGB is an opaque 8-bit color triple used for the mask and highlight colors.
type RGB struct {
	R, G, B uint8
}

// Config holds the immutable per-pipeline configuration.
//
// MaskColor is the edge-map color treated as "no edge"; HighlightColor is
// painted where an edge is detected. HighlightStrength scales how strongly
// edge magnitude translates into highlight coverage; the tone mapping
// between magnitude encoding and the darken overlay is configurable
// rather than fixed.
type Config struct {
	Operator          Operator
	MaskColor         RGB
	HighlightColor    RGB
	HighlightStrength float64

	// CannyLow and CannyHigh are the double-threshold bounds for
	// OperatorCannyLike, in magnitude units (0-255).
	CannyLow  uint8
	CannyHigh uint8
}

// DefaultConfig returns the default pipeline configuration: Laplacian
// operator, black mask, opaque red highlight, full highlight strength.
func DefaultConfig() Config {
	return Config{
		Operator:          OperatorLaplacian,
		MaskColor:         RGB{0, 0, 0},
		HighlightColor:    RGB{255, 0, 0},
		HighlightStrength: 1.0,
		CannyLow:          40,
		CannyHigh:         100,
	}
}

// Option configures a Pipeline during creation.
//
// Example:
//
//	p, err := focuspeak.New(
//		focuspeak.WithOperator(focuspeak.OperatorCannyLike),
//		focuspeak.WithHighlightColor(focuspeak.RGB{R: 255, G: 255}),
//	)
type Option func(*pipelineOptions)

type pipelineOptions struct {
	cfg        Config
	engine     Engine
	compositor Compositor
}

func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		cfg: DefaultConfig(),
		// engine and compositor default to the host implementations
		// when left nil; see New.
	}
}

// WithOperator selects the edge detection operator.
func WithOperator(op Operator) Option {
	return func(o *pipelineOptions) {
		o.cfg.Operator = op
	}
}

// WithMaskColor sets the edge-map color treated as "no edge".
func WithMaskColor(c RGB) Option {
	return func(o *pipelineOptions) {
		o.cfg.MaskColor = c
	}
}

// WithHighlightColor sets the color painted where an edge is detected.
func WithHighlightColor(c RGB) Option {
	return func(o *pipelineOptions) {
		o.cfg.HighlightColor = c
	}
}

// WithHighlightStrength scales edge magnitude to highlight coverage.
// Values are clamped to [0, 1]. The default is 1.
func WithHighlightStrength(s float64) Option {
	return func(o *pipelineOptions) {
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		o.cfg.HighlightStrength = s
	}
}

// WithCannyThresholds sets the double-threshold bounds for the Canny-like
// operator. low must not exceed high; out-of-order values are swapped.
func WithCannyThresholds(low, high uint8) Option {
	return func(o *pipelineOptions) {
		if low > high {
			low, high = high, low
		}
		o.cfg.CannyLow = low
		o.cfg.CannyHigh = high
	}
}

// WithEngine injects a custom staging/detection/readback engine, typically
// gpu.NewEngine(). The default is the deterministic host-memory engine.
func WithEngine(e Engine) Option {
	return func(o *pipelineOptions) {
		o.engine = e
	}
}

// WithCompositor injects a custom compositor implementation, e.g. the
// device-side compositor from the gpu subpackage. The default is the host
// canvas compositor.
func WithCompositor(c Compositor) Option {
	return func(o *pipelineOptions) {
		o.compositor = c
	}
}
