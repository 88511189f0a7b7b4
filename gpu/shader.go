// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/identity.wgsl
var identityShaderSource string

//go:embed shaders/laplacian.wgsl
var laplacianShaderSource string

//go:embed shaders/sobel.wgsl
var sobelShaderSource string

//go:embed shaders/threshold.wgsl
var thresholdShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string

// compileToSPIRV compiles WGSL source to little-endian SPIR-V words via
// naga, so shader errors surface at engine creation instead of first
// dispatch.
func compileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// newShaderModule compiles WGSL and wraps it in a hal shader module.
func newShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	spirvCode, err := compileToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
}
