package focuspeak

import "errors"

// Per-frame and pipeline errors.
//
// Every error except ErrDeviceLost is scoped to a single frame: the frame is
// dropped, the pipeline returns to idle and stays usable. ErrDeviceLost means
// the device context has been invalidated and the pipeline must be rebuilt.
var (
	// ErrUnsupportedFormat is returned when an input frame is not BGRA-8.
	ErrUnsupportedFormat = errors.New("focuspeak: unsupported pixel format")

	// ErrDeviceResourceExhausted is returned when device image or buffer
	// allocation fails. The frame is dropped; the pipeline stays usable.
	ErrDeviceResourceExhausted = errors.New("focuspeak: device resource exhausted")

	// ErrFrameSubmissionFailed is returned when submitting the frame's
	// command stream fails. Recoverable: only this frame is lost.
	ErrFrameSubmissionFailed = errors.New("focuspeak: frame submission failed")

	// ErrDeviceLost is returned when the device context has been invalidated
	// (or a bounded completion wait timed out). Fatal: the pipeline must be
	// reinitialized before it accepts frames again.
	ErrDeviceLost = errors.New("focuspeak: device lost")

	// ErrCompositeFailed is returned when host canvas allocation fails
	// during compositing. The frame is dropped.
	ErrCompositeFailed = errors.New("focuspeak: composite failed")

	// ErrPipelineBusy is returned when a frame arrives while another frame
	// is still in flight. The new frame is discarded, never queued.
	ErrPipelineBusy = errors.New("focuspeak: frame already in flight")

	// ErrPipelineClosed is returned when processing is attempted on a
	// closed pipeline.
	ErrPipelineClosed = errors.New("focuspeak: pipeline is closed")

	// ErrInvalidDimensions is returned when frame width or height is
	// non-positive or the pixel buffer is too small.
	ErrInvalidDimensions = errors.New("focuspeak: invalid frame dimensions")
)
