// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/focuspeak"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// deviceContext holds the hal handles the engine runs on and whether it
// owns them.
type deviceContext struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// external is true when the device came from a provider. Shared
	// resources are never destroyed here.
	external bool
}

// openDevice creates an owned device on the Vulkan backend, preferring a
// discrete or integrated GPU adapter.
func openDevice() (*deviceContext, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	focuspeak.Logger().Info("device opened",
		slog.String("adapter", selected.Info.Name))

	return &deviceContext{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}

// sharedDevice wraps hal handles obtained from a provider.
func sharedDevice(provider DeviceHandle) (*deviceContext, error) {
	device, queue, err := halHandles(provider)
	if err != nil {
		return nil, err
	}
	return &deviceContext{device: device, queue: queue, external: true}, nil
}

// close releases owned device resources. Shared handles are only dropped.
func (dc *deviceContext) close() {
	if !dc.external {
		if dc.device != nil {
			dc.device.Destroy()
		}
		if dc.instance != nil {
			dc.instance.Destroy()
		}
	}
	dc.device = nil
	dc.queue = nil
	dc.instance = nil
}
