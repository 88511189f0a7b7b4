// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/focuspeak"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// readbackTimeout bounds the fence wait in Readback. A device that has not
// finished a single frame's kernel within this window is treated as lost
// rather than blocking the pipeline forever.
const readbackTimeout = 5 * time.Second

// kernelParamsSize is the uniform block shared by all kernel shaders:
// width, height, low and high threshold as four u32s.
const kernelParamsSize = 16

// Engine implements focuspeak.Engine on wgpu/hal compute shaders. All
// pipelines are compiled once at creation; per-frame work only allocates
// buffers and records passes.
type Engine struct {
	mu sync.Mutex

	dc *deviceContext

	// Kernel pipelines share one uniform + src + dst layout.
	kernelBindLayout hal.BindGroupLayout
	kernelPipeLayout hal.PipelineLayout

	identityShader  hal.ShaderModule
	laplacianShader hal.ShaderModule
	sobelShader     hal.ShaderModule
	thresholdShader hal.ShaderModule

	identityPipeline  hal.ComputePipeline
	laplacianPipeline hal.ComputePipeline
	sobelPipeline     hal.ComputePipeline
	thresholdPipeline hal.ComputePipeline

	closed bool
}

var _ focuspeak.Engine = (*Engine)(nil)

// NewEngine creates an engine on its own Vulkan device.
func NewEngine() (*Engine, error) {
	dc, err := openDevice()
	if err != nil {
		return nil, err
	}
	return newEngine(dc)
}

// NewEngineFromProvider creates an engine on a device shared with the host
// application. The provider must be backed by wgpu/hal. Close never
// destroys the shared device.
func NewEngineFromProvider(provider DeviceHandle) (*Engine, error) {
	dc, err := sharedDevice(provider)
	if err != nil {
		return nil, err
	}
	return newEngine(dc)
}

func newEngine(dc *deviceContext) (*Engine, error) {
	e := &Engine{dc: dc}
	if err := e.createPipelines(); err != nil {
		e.destroyPipelines()
		dc.close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) createPipelines() error {
	device := e.dc.device

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "peak_kernel_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create kernel bind group layout: %w", err)
	}
	e.kernelBindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "peak_kernel_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{e.kernelBindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create kernel pipeline layout: %w", err)
	}
	e.kernelPipeLayout = pipeLayout

	kernels := []struct {
		label    string
		source   string
		shader   *hal.ShaderModule
		pipeline *hal.ComputePipeline
	}{
		{"peak_identity", identityShaderSource, &e.identityShader, &e.identityPipeline},
		{"peak_laplacian", laplacianShaderSource, &e.laplacianShader, &e.laplacianPipeline},
		{"peak_sobel", sobelShaderSource, &e.sobelShader, &e.sobelPipeline},
		{"peak_threshold", thresholdShaderSource, &e.thresholdShader, &e.thresholdPipeline},
	}
	for _, k := range kernels {
		shader, err := newShaderModule(device, k.label, k.source)
		if err != nil {
			return fmt.Errorf("gpu: %w", err)
		}
		*k.shader = shader

		pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:   k.label + "_pipeline",
			Layout:  e.kernelPipeLayout,
			Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s pipeline: %w", k.label, err)
		}
		*k.pipeline = pipeline
	}

	return nil
}

func (e *Engine) destroyPipelines() {
	device := e.dc.device
	if device == nil {
		return
	}
	for _, p := range []hal.ComputePipeline{
		e.identityPipeline, e.laplacianPipeline, e.sobelPipeline, e.thresholdPipeline,
	} {
		if p != nil {
			device.DestroyComputePipeline(p)
		}
	}
	if e.kernelPipeLayout != nil {
		device.DestroyPipelineLayout(e.kernelPipeLayout)
	}
	if e.kernelBindLayout != nil {
		device.DestroyBindGroupLayout(e.kernelBindLayout)
	}
	for _, s := range []hal.ShaderModule{
		e.identityShader, e.laplacianShader, e.sobelShader, e.thresholdShader,
	} {
		if s != nil {
			device.DestroyShaderModule(s)
		}
	}
}

// Stage uploads the frame into a device storage buffer and opens the
// frame's command stream.
func (e *Engine) Stage(frame *focuspeak.Frame) (focuspeak.Texture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, focuspeak.ErrPipelineClosed
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	size := uint64(frame.Width) * uint64(frame.Height) * 4

	encoder, err := e.dc.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "peak_frame_encoder"})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %v", focuspeak.ErrDeviceResourceExhausted, err)
	}
	if err := encoder.BeginEncoding("peak_frame"); err != nil {
		return nil, fmt.Errorf("%w: begin encoding: %v", focuspeak.ErrFrameSubmissionFailed, err)
	}

	stream := &frameStream{device: e.dc.device, encoder: encoder, open: true}

	srcBuf, err := e.dc.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "peak_frame_src", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		stream.abort()
		return nil, fmt.Errorf("%w: create frame buffer: %v", focuspeak.ErrDeviceResourceExhausted, err)
	}
	stream.track(srcBuf)

	e.dc.queue.WriteBuffer(srcBuf, 0, frame.Pix[:size])

	focuspeak.Logger().Debug("staged frame",
		slog.Int("width", frame.Width),
		slog.Int("height", frame.Height))

	return &texture{
		stream: stream,
		buf:    srcBuf,
		width:  frame.Width,
		height: frame.Height,
		format: focuspeak.FormatBGRA8,
	}, nil
}

// DetectEdges appends the kernel passes for the selected operator to the
// frame's command stream.
func (e *Engine) DetectEdges(src focuspeak.Texture, op focuspeak.Operator, cfg focuspeak.Config) (focuspeak.Texture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, focuspeak.ErrPipelineClosed
	}

	st, ok := src.(*texture)
	if !ok || st.released || st.consumed || st.format != focuspeak.FormatBGRA8 || !st.stream.open {
		return nil, fmt.Errorf("%w: detect input must be a staged frame", focuspeak.ErrUnsupportedFormat)
	}
	st.consumed = true
	stream := st.stream

	params := packKernelParams(uint32(st.width), uint32(st.height),
		uint32(cfg.CannyLow), uint32(cfg.CannyHigh))
	paramsBuf, err := e.createParamsBuffer(stream, params)
	if err != nil {
		stream.abort()
		return nil, err
	}

	dstBuf, err := e.createStorageBuffer(stream, "peak_edge_map", st.byteSize(),
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		stream.abort()
		return nil, err
	}

	switch op {
	case focuspeak.OperatorCannyLike:
		// Two passes with an intermediate magnitude/direction buffer;
		// the pass boundary is the storage barrier between them.
		magdirBuf, err := e.createStorageBuffer(stream, "peak_magdir", st.byteSize(),
			gputypes.BufferUsageStorage)
		if err != nil {
			stream.abort()
			return nil, err
		}
		if err := e.encodeKernelPass(stream, e.sobelPipeline, paramsBuf, st.buf, magdirBuf, st); err != nil {
			stream.abort()
			return nil, err
		}
		if err := e.encodeKernelPass(stream, e.thresholdPipeline, paramsBuf, magdirBuf, dstBuf, st); err != nil {
			stream.abort()
			return nil, err
		}
	default:
		pipeline := e.laplacianPipeline
		if op != focuspeak.OperatorLaplacian {
			pipeline = e.identityPipeline
		}
		if err := e.encodeKernelPass(stream, pipeline, paramsBuf, st.buf, dstBuf, st); err != nil {
			stream.abort()
			return nil, err
		}
	}

	return &texture{
		stream: stream,
		buf:    dstBuf,
		width:  st.width,
		height: st.height,
		format: focuspeak.FormatRGBA8,
	}, nil
}

// Readback submits the frame's command stream, blocks on the fence and
// copies the edge map into a host bitmap.
func (e *Engine) Readback(src focuspeak.Texture) (*focuspeak.Bitmap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, focuspeak.ErrPipelineClosed
	}

	st, ok := src.(*texture)
	if !ok || st.released || st.format != focuspeak.FormatRGBA8 || !st.stream.open {
		return nil, fmt.Errorf("%w: readback input must be a detect result", focuspeak.ErrUnsupportedFormat)
	}
	stream := st.stream
	defer stream.finish()
	size := st.byteSize()

	stagingBuf, err := e.createStorageBuffer(stream, "peak_staging", size,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	stream.encoder.CopyBufferToBuffer(st.buf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})

	cmdBuf, err := stream.encoder.EndEncoding()
	stream.open = false
	if err != nil {
		return nil, fmt.Errorf("%w: end encoding: %v", focuspeak.ErrFrameSubmissionFailed, err)
	}
	defer e.dc.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.dc.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("%w: create fence: %v", focuspeak.ErrFrameSubmissionFailed, err)
	}
	defer e.dc.device.DestroyFence(fence)

	if err := e.dc.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", focuspeak.ErrFrameSubmissionFailed, err)
	}

	fenceOK, err := e.dc.device.Wait(fence, 1, readbackTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("%w: fence wait ok=%v err=%v", focuspeak.ErrDeviceLost, fenceOK, err)
	}

	readback := make([]byte, size)
	if err := e.dc.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("%w: read staging buffer: %v", focuspeak.ErrDeviceLost, err)
	}

	bm := focuspeak.GetBitmap(st.width, st.height)
	copy(bm.Pix(), readback)
	// The computed alpha never reaches the caller.
	pix := bm.Pix()
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xFF
	}
	return bm, nil
}

// Close destroys the pipelines and the owned device.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.destroyPipelines()
	e.dc.close()
}

// createParamsBuffer allocates and fills a uniform buffer on the stream.
func (e *Engine) createParamsBuffer(stream *frameStream, params []byte) (hal.Buffer, error) {
	buf, err := e.dc.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "peak_params", Size: uint64(len(params)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create params buffer: %v", focuspeak.ErrDeviceResourceExhausted, err)
	}
	stream.track(buf)
	e.dc.queue.WriteBuffer(buf, 0, params)
	return buf, nil
}

// createStorageBuffer allocates a per-frame device buffer on the stream.
func (e *Engine) createStorageBuffer(stream *frameStream, label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := e.dc.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label, Size: size, Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s buffer: %v", focuspeak.ErrDeviceResourceExhausted, label, err)
	}
	stream.track(buf)
	return buf, nil
}

// encodeKernelPass records one compute pass binding params, a read-only
// source and a writable destination.
func (e *Engine) encodeKernelPass(stream *frameStream, pipeline hal.ComputePipeline, paramsBuf, srcBuf, dstBuf hal.Buffer, st *texture) error {
	bg, err := e.dc.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "peak_kernel_bind",
		Layout: e.kernelBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: kernelParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: st.byteSize()}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: st.byteSize()}},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %v", focuspeak.ErrDeviceResourceExhausted, err)
	}
	stream.trackBindGroup(bg)

	w, h := uint32(st.width), uint32(st.height)
	pass := stream.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "peak_kernel_pass"})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()
	return nil
}

// packKernelParams serializes the shared kernel uniform block.
func packKernelParams(width, height, low, high uint32) []byte {
	out := make([]byte, kernelParamsSize)
	binary.LittleEndian.PutUint32(out[0:], width)
	binary.LittleEndian.PutUint32(out[4:], height)
	binary.LittleEndian.PutUint32(out[8:], low)
	binary.LittleEndian.PutUint32(out[12:], high)
	return out
}
