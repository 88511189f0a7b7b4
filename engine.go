package focuspeak

// Texture is a device-resident 2D image owned by the pipeline stage that
// produced it, until it is consumed by the next stage. Per-frame lifetime:
// every texture is created, consumed and released within one frame.
type Texture interface {
	// Width returns the image width in pixels.
	Width() int

	// Height returns the image height in pixels.
	Height() int

	// Format returns the texel format.
	Format() PixelFormat

	// Release frees the device resources backing the image. Release is
	// idempotent; the pipeline calls it on every stage-error path so no
	// partial state outlives a dropped frame.
	Release()
}

// Engine is the device context threaded explicitly through every pipeline
// stage. It owns the device/queue handles and the compiled kernels; all
// per-frame objects are created through it.
//
// Two implementations exist: the deterministic host-memory engine returned
// by NewSoftwareEngine, and the wgpu/hal compute engine in the gpu
// subpackage. Engines are safe for use by one frame at a time; the pipeline
// guarantees a single in-flight frame.
type Engine interface {
	// Stage uploads a raw BGRA-8 frame into device-resident storage and
	// opens the frame's command stream. It queues the upload without
	// waiting for device execution. Non-BGRA8 frames fail with
	// ErrUnsupportedFormat; allocation failure surfaces as
	// ErrDeviceResourceExhausted.
	Stage(frame *Frame) (Texture, error)

	// DetectEdges enqueues the selected gradient kernel over a staged
	// texture onto the frame's command stream, producing the edge
	// magnitude image. RGBA8 output, magnitude replicated across channels,
	// borders clamped. The call does not block on device execution.
	DetectEdges(src Texture, op Operator, cfg Config) (Texture, error)

	// Readback submits the frame's accumulated command stream and blocks
	// until device execution completes, then copies the texels into a host
	// bitmap with stride = width*4, discarding the computed alpha channel
	// (forced opaque). Submission failure is ErrFrameSubmissionFailed;
	// device invalidation or wait timeout is ErrDeviceLost.
	Readback(src Texture) (*Bitmap, error)

	// Close releases the engine's device resources. The engine must not
	// be used afterwards.
	Close()
}

// Compositor blends an edge bitmap over the original frame, producing the
// final display image with the same dimensions as the frame.
type Compositor interface {
	Composite(frame *Frame, edge *Bitmap) (*Bitmap, error)
}
