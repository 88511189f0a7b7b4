// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/focuspeak"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// compositeParamsSize is the compositor uniform block: width, height,
// packed mask color, packed highlight color, fixed-point strength and
// three padding words to satisfy uniform block alignment.
const compositeParamsSize = 32

// Compositor implements focuspeak.Compositor as a single compute pass on
// the engine's device. It is an alternative to the host canvas compositor
// for hosts that want the composite to stay device-side as long as
// possible; the arithmetic matches the host compositor exactly.
type Compositor struct {
	mu sync.Mutex

	eng *Engine
	cfg focuspeak.Config

	// strength is HighlightStrength in 8.8 fixed point.
	strength uint32

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	closed bool
}

var _ focuspeak.Compositor = (*Compositor)(nil)

// NewCompositor creates a device compositor sharing the engine's device.
// Close the compositor before closing the engine.
func NewCompositor(eng *Engine, cfg focuspeak.Config) (*Compositor, error) {
	c := &Compositor{
		eng:      eng,
		cfg:      cfg,
		strength: fixedStrength(cfg.HighlightStrength),
	}
	if err := c.createPipeline(); err != nil {
		c.destroyPipeline()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) createPipeline() error {
	device := c.eng.dc.device

	shader, err := newShaderModule(device, "peak_composite", compositeShaderSource)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	c.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "peak_composite_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create composite bind group layout: %w", err)
	}
	c.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "peak_composite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create composite pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "peak_composite_pipeline",
		Layout:  c.pipeLayout,
		Compute: hal.ComputeState{Module: c.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create composite pipeline: %w", err)
	}
	c.pipeline = pipeline
	return nil
}

func (c *Compositor) destroyPipeline() {
	device := c.eng.dc.device
	if device == nil {
		return
	}
	if c.pipeline != nil {
		device.DestroyComputePipeline(c.pipeline)
	}
	if c.pipeLayout != nil {
		device.DestroyPipelineLayout(c.pipeLayout)
	}
	if c.bindLayout != nil {
		device.DestroyBindGroupLayout(c.bindLayout)
	}
	if c.shader != nil {
		device.DestroyShaderModule(c.shader)
	}
}

// Composite blends the edge bitmap over the frame in one compute dispatch
// and reads the result back. The returned bitmap comes from the shared
// pool; release it with focuspeak.ReleaseBitmap when done.
func (c *Compositor) Composite(frame *focuspeak.Frame, edge *focuspeak.Bitmap) (*focuspeak.Bitmap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("%w: compositor closed", focuspeak.ErrCompositeFailed)
	}
	if frame == nil || edge == nil {
		return nil, fmt.Errorf("%w: nil input", focuspeak.ErrCompositeFailed)
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", focuspeak.ErrCompositeFailed, err)
	}
	if edge.Width() != frame.Width || edge.Height() != frame.Height {
		return nil, fmt.Errorf("%w: edge map %dx%d does not match frame %dx%d",
			focuspeak.ErrCompositeFailed, edge.Width(), edge.Height(), frame.Width, frame.Height)
	}

	device, queue := c.eng.dc.device, c.eng.dc.queue
	w, h := uint32(frame.Width), uint32(frame.Height)
	size := uint64(w) * uint64(h) * 4

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "peak_composite_encoder"})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %v", focuspeak.ErrCompositeFailed, err)
	}
	if err := encoder.BeginEncoding("peak_composite"); err != nil {
		return nil, fmt.Errorf("%w: begin encoding: %v", focuspeak.ErrCompositeFailed, err)
	}
	stream := &frameStream{device: device, encoder: encoder, open: true}
	defer stream.abort()

	paramsBuf, err := c.eng.createParamsBuffer(stream, c.packParams(w, h))
	if err != nil {
		return nil, err
	}
	frameBuf, err := c.eng.createStorageBuffer(stream, "peak_composite_frame", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	edgeBuf, err := c.eng.createStorageBuffer(stream, "peak_composite_edge", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	dstBuf, err := c.eng.createStorageBuffer(stream, "peak_composite_out", size,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	stagingBuf, err := c.eng.createStorageBuffer(stream, "peak_composite_staging", size,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	queue.WriteBuffer(frameBuf, 0, frame.Pix[:size])
	queue.WriteBuffer(edgeBuf, 0, edge.Pix()[:size])

	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "peak_composite_bind",
		Layout: c.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: compositeParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: frameBuf.NativeHandle(), Offset: 0, Size: size}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: edgeBuf.NativeHandle(), Offset: 0, Size: size}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create bind group: %v", focuspeak.ErrCompositeFailed, err)
	}
	stream.trackBindGroup(bg)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "peak_composite_pass"})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})

	cmdBuf, err := encoder.EndEncoding()
	stream.open = false
	if err != nil {
		return nil, fmt.Errorf("%w: end encoding: %v", focuspeak.ErrCompositeFailed, err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("%w: create fence: %v", focuspeak.ErrCompositeFailed, err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", focuspeak.ErrFrameSubmissionFailed, err)
	}
	fenceOK, err := device.Wait(fence, 1, readbackTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("%w: fence wait ok=%v err=%v", focuspeak.ErrDeviceLost, fenceOK, err)
	}

	readback := make([]byte, size)
	if err := queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("%w: read staging buffer: %v", focuspeak.ErrDeviceLost, err)
	}

	out := focuspeak.GetBitmap(frame.Width, frame.Height)
	copy(out.Pix(), readback)
	return out, nil
}

// Close destroys the compositor's pipeline. The shared device is left to
// the engine.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.destroyPipeline()
}

// fixedStrength converts a highlight strength in [0, 1] to 8.8 fixed
// point, clamping out-of-range values.
func fixedStrength(s float64) uint32 {
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return uint32(s*256 + 0.5)
}

// packParams serializes the compositor uniform block.
func (c *Compositor) packParams(w, h uint32) []byte {
	mask := uint32(c.cfg.MaskColor.R) | uint32(c.cfg.MaskColor.G)<<8 | uint32(c.cfg.MaskColor.B)<<16
	highlight := uint32(c.cfg.HighlightColor.R) | uint32(c.cfg.HighlightColor.G)<<8 | uint32(c.cfg.HighlightColor.B)<<16

	out := make([]byte, compositeParamsSize)
	binary.LittleEndian.PutUint32(out[0:], w)
	binary.LittleEndian.PutUint32(out[4:], h)
	binary.LittleEndian.PutUint32(out[8:], mask)
	binary.LittleEndian.PutUint32(out[12:], highlight)
	binary.LittleEndian.PutUint32(out[16:], c.strength)
	return out
}
