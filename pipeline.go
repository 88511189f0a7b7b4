package focuspeak

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

// State identifies where the single in-flight frame currently is.
type State uint32

const (
	// StateIdle means no frame is in flight; the next offered frame is
	// accepted.
	StateIdle State = iota

	// StateStaging means the frame is being uploaded to device storage.
	StateStaging

	// StateDetecting means the edge kernel is queued over the staged frame.
	StateDetecting

	// StateReadingBack means the command stream has been submitted and the
	// pipeline is blocked on device completion.
	StateReadingBack

	// StateCompositing means the edge map is being blended over the frame.
	StateCompositing

	// StateClosed means Close was called; no further frames are accepted.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStaging:
		return "Staging"
	case StateDetecting:
		return "Detecting"
	case StateReadingBack:
		return "ReadingBack"
	case StateCompositing:
		return "Compositing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Pipeline runs the focus peaking chain: stage, detect edges, read back,
// composite. At most one frame is ever in flight; a frame offered while
// another is processing is rejected with ErrPipelineBusy and discarded,
// never queued and never retried. Live video makes dropped frames cheap:
// the next one arrives in a few dozen milliseconds.
//
// A Pipeline is safe for concurrent Process calls (all but one will be
// rejected as busy), but Close must not race an in-flight Process.
type Pipeline struct {
	cfg        Config
	engine     Engine
	compositor Compositor

	state  atomic.Uint32
	lost   atomic.Bool
	latest atomic.Pointer[Bitmap]
}

// New creates a pipeline. Without options it uses the deterministic
// software engine, the host canvas compositor and DefaultConfig.
func New(opts ...Option) (*Pipeline, error) {
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.engine == nil {
		o.engine = NewSoftwareEngine()
	}
	if o.compositor == nil {
		o.compositor = NewCanvasCompositor(o.cfg)
	}

	return &Pipeline{
		cfg:        o.cfg,
		engine:     o.engine,
		compositor: o.compositor,
	}, nil
}

// State returns the pipeline's current stage.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Latest returns the most recently completed composite, or nil if no frame
// has completed yet. Publication is latest-wins: the returned bitmap stays
// valid but is superseded as soon as the next frame completes.
func (p *Pipeline) Latest() *Bitmap {
	return p.latest.Load()
}

// Process runs one frame through the full chain and returns the composite.
//
// The returned bitmap is owned by the pipeline (it is also published via
// Latest); callers must not release it. The frame's Pix buffer is only
// read for the duration of the call.
//
// Per-frame errors (unsupported format, allocation failure, submission
// failure, composite failure) drop the frame and leave the pipeline idle
// and usable. ErrDeviceLost is fatal and latches: every subsequent call
// fails until a new pipeline is built. ErrPipelineBusy means another frame
// was in flight; the offered frame was discarded.
func (p *Pipeline) Process(frame *Frame) (*Bitmap, error) {
	if p.lost.Load() {
		return nil, ErrDeviceLost
	}
	if !p.state.CompareAndSwap(uint32(StateIdle), uint32(StateStaging)) {
		if p.State() == StateClosed {
			return nil, ErrPipelineClosed
		}
		return nil, ErrPipelineBusy
	}
	defer func() { p.state.Store(uint32(StateIdle)) }()

	tex, err := p.engine.Stage(frame)
	if err != nil {
		return nil, p.frameError("stage", err)
	}

	p.state.Store(uint32(StateDetecting))
	edgeTex, err := p.engine.DetectEdges(tex, p.cfg.Operator, p.cfg)
	if err != nil {
		tex.Release()
		return nil, p.frameError("detect", err)
	}

	p.state.Store(uint32(StateReadingBack))
	edgeMap, err := p.engine.Readback(edgeTex)
	if err != nil {
		edgeTex.Release()
		return nil, p.frameError("readback", err)
	}

	p.state.Store(uint32(StateCompositing))
	out, err := p.compositor.Composite(frame, edgeMap)
	ReleaseBitmap(edgeMap)
	if err != nil {
		return nil, p.frameError("composite", err)
	}

	p.latest.Store(out)
	return out, nil
}

// frameError logs a dropped frame and latches the pipeline on device loss.
func (p *Pipeline) frameError(stage string, err error) error {
	if errors.Is(err, ErrDeviceLost) {
		p.lost.Store(true)
		Logger().Warn("device lost, pipeline disabled", slog.String("stage", stage))
	} else {
		Logger().Warn("frame dropped",
			slog.String("stage", stage),
			slog.String("error", err.Error()))
	}
	return err
}

// Close releases the engine and rejects all further frames. It must not be
// called while a Process call is in flight.
func (p *Pipeline) Close() {
	if State(p.state.Swap(uint32(StateClosed))) == StateClosed {
		return
	}
	p.engine.Close()
}
