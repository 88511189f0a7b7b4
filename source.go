package focuspeak

import (
	"context"
	"errors"
)

// Feed is the hand-off point between a capture callback and the pipeline
// loop. It holds at most one pending frame and conflates: offering a frame
// while one is already pending replaces the stale frame, so the loop always
// wakes up on the newest frame and never works through a backlog.
type Feed struct {
	ch chan *Frame
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{ch: make(chan *Frame, 1)}
}

// Offer makes a frame available to the pipeline loop without ever
// blocking, replacing any not-yet-consumed frame. It reports whether a
// stale frame was displaced. Safe to call from the capture thread.
//
// The feed retains the frame until the loop consumes it, so the caller
// must hand over ownership of the Pix buffer (clone if the capture stack
// recycles buffers).
func (f *Feed) Offer(frame *Frame) (displaced bool) {
	for {
		select {
		case f.ch <- frame:
			return displaced
		default:
		}
		select {
		case <-f.ch:
			displaced = true
		default:
		}
	}
}

// Sink receives each completed composite. The bitmap is the pipeline's
// latest-wins publication; it remains readable but is superseded when the
// next frame completes.
type Sink func(*Bitmap)

// Run consumes frames from the feed until the context is canceled or the
// device is lost. Per-frame errors drop the frame and the loop keeps
// going; ErrDeviceLost ends the loop, since the pipeline cannot recover
// without being rebuilt.
//
// Run is the pipeline's single consumer: because it processes one frame at
// a time off a conflating feed, it never observes ErrPipelineBusy from its
// own frames.
func (p *Pipeline) Run(ctx context.Context, feed *Feed, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-feed.ch:
			out, err := p.Process(frame)
			if err != nil {
				if errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrPipelineClosed) {
					return err
				}
				continue
			}
			if sink != nil {
				sink(out)
			}
		}
	}
}
