// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu implements the focus peaking engine and compositor on
// wgpu/hal compute shaders.
//
// The engine keeps frames in device storage buffers and runs the edge
// kernels as WGSL compute passes, one command stream per frame: Stage
// opens the stream and uploads the frame, DetectEdges appends the kernel
// passes, Readback submits the stream and blocks on the fence. Nothing
// survives across frames except the compiled pipelines and the device
// itself.
//
// The WGSL kernels mirror the integer arithmetic of the CPU kernels in
// internal/kernel exactly, so the two engines produce identical output
// for identical input.
//
// The device is either created by the engine (Vulkan backend) or shared
// with a host application through a gpucontext.DeviceProvider:
//
//	eng, err := gpu.NewEngine()
//	if err != nil {
//		// no usable adapter; fall back to focuspeak.NewSoftwareEngine()
//	}
//	p, err := focuspeak.New(focuspeak.WithEngine(eng))
package gpu
