// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from a host application.
//
// A host that already owns a device (a windowing framework, another
// renderer) implements DeviceHandle and passes it to NewEngineFromProvider,
// so the engine shares the device instead of creating its own. The engine
// then never destroys the device on Close.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so any provider
// from the gpucontext ecosystem works unchanged.
type DeviceHandle = gpucontext.DeviceProvider

// halProvider is the optional backdoor a provider exposes when its device
// is backed by wgpu/hal. The compute engine needs the raw hal handles.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// halHandles extracts the hal device and queue from a provider.
func halHandles(provider DeviceHandle) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}
