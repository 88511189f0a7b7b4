// Package focuspeak implements a focus peaking overlay pipeline for live
// video preview.
//
// For every incoming camera frame the pipeline computes a map of
// high-gradient (in-focus) regions and composites that map over the original
// frame, so a viewer can see in real time which parts of the image are
// sharply in focus.
//
// The per-frame flow is:
//
//	frame source → Stage → DetectEdges → Readback → Composite → sink
//
// Staging uploads the raw BGRA frame to device-resident storage, edge
// detection runs a gradient operator over it, readback drains the edge map
// into host memory, and the compositor paints the highlight color over the
// live frame using a color-key darken blend.
//
// By default frames are processed by a deterministic host-memory engine.
// GPU execution via wgpu/hal compute shaders is available through the gpu
// subpackage:
//
//	engine, err := gpu.NewEngine()
//	if err != nil { ... }
//	p, err := focuspeak.New(focuspeak.WithEngine(engine))
//
// Exactly one frame is in flight at a time; the pipeline is not reentrant.
// Frames arriving while a frame is being processed are dropped, not queued
// (see Feed for the conflating delivery channel). The only blocking point is
// Readback, which waits for device execution to complete before the
// compositor touches the bytes.
package focuspeak
