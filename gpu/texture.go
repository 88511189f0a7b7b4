// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/focuspeak"
	"github.com/gogpu/wgpu/hal"
)

// frameStream is the per-frame command stream: one encoder plus every
// device buffer created for the frame. Stage opens it, DetectEdges appends
// passes, Readback submits it. finish or abort tears the whole thing down,
// so nothing device-side survives a frame on any path.
type frameStream struct {
	device     hal.Device
	encoder    hal.CommandEncoder
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
	open       bool // encoding not yet ended
	done       bool
}

// track registers a per-frame buffer for teardown.
func (s *frameStream) track(buf hal.Buffer) {
	s.buffers = append(s.buffers, buf)
}

// trackBindGroup registers a per-frame bind group for teardown. Bind
// groups stay alive until the stream has executed.
func (s *frameStream) trackBindGroup(bg hal.BindGroup) {
	s.bindGroups = append(s.bindGroups, bg)
}

// finish destroys all per-frame resources. Idempotent.
func (s *frameStream) finish() {
	if s.done {
		return
	}
	s.done = true
	s.open = false
	for _, bg := range s.bindGroups {
		if bg != nil {
			s.device.DestroyBindGroup(bg)
		}
	}
	for _, buf := range s.buffers {
		if buf != nil {
			s.device.DestroyBuffer(buf)
		}
	}
	s.bindGroups = nil
	s.buffers = nil
	s.encoder = nil
}

// abort discards a stream that was never submitted: the encoding is closed
// and its command buffer freed unexecuted, then all buffers are destroyed.
func (s *frameStream) abort() {
	if s.done {
		return
	}
	if s.open && s.encoder != nil {
		if cmdBuf, err := s.encoder.EndEncoding(); err == nil {
			s.device.FreeCommandBuffer(cmdBuf)
		}
	}
	s.finish()
}

// texture is a device storage buffer holding one image of the in-flight
// frame, packed as one little-endian u32 per texel.
type texture struct {
	stream   *frameStream
	buf      hal.Buffer
	width    int
	height   int
	format   focuspeak.PixelFormat
	consumed bool
	released bool
}

var _ focuspeak.Texture = (*texture)(nil)

func (t *texture) Width() int                    { return t.width }
func (t *texture) Height() int                   { return t.height }
func (t *texture) Format() focuspeak.PixelFormat { return t.format }

// Release drops the texture and aborts its frame stream if the stream was
// never submitted. Idempotent.
func (t *texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.stream.abort()
}

// byteSize returns the packed texel buffer size.
func (t *texture) byteSize() uint64 {
	return uint64(t.width) * uint64(t.height) * 4
}
