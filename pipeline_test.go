package focuspeak

import (
	"errors"
	"testing"
)

// stubEngine wraps the software engine with failure injection and stage
// hooks, for exercising the pipeline's error and concurrency paths.
type stubEngine struct {
	inner Engine

	stageErr    error
	detectErr   error
	readbackErr error

	// detectStarted/detectRelease gate DetectEdges so a test can hold a
	// frame in flight while probing the pipeline from another goroutine.
	detectStarted chan struct{}
	detectRelease chan struct{}
}

func newStubEngine() *stubEngine {
	return &stubEngine{inner: NewSoftwareEngine()}
}

func (s *stubEngine) Stage(frame *Frame) (Texture, error) {
	if s.stageErr != nil {
		return nil, s.stageErr
	}
	return s.inner.Stage(frame)
}

func (s *stubEngine) DetectEdges(src Texture, op Operator, cfg Config) (Texture, error) {
	if s.detectStarted != nil {
		close(s.detectStarted)
		s.detectStarted = nil
		<-s.detectRelease
	}
	if s.detectErr != nil {
		return nil, s.detectErr
	}
	return s.inner.DetectEdges(src, op, cfg)
}

func (s *stubEngine) Readback(src Texture) (*Bitmap, error) {
	if s.readbackErr != nil {
		return nil, s.readbackErr
	}
	return s.inner.Readback(src)
}

func (s *stubEngine) Close() { s.inner.Close() }

func TestPipelineFlatFrameCompositesToOriginal(t *testing.T) {
	const w, h = 16, 12
	frame := NewFrameBGRA(w, h)
	frame.Fill(80, 120, 160, 0xFF)

	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	out, err := p.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// No luma variation anywhere: the edge map is empty and the composite
	// must be a byte-exact copy of the frame.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := out.RGBA(x, y)
			if r != 160 || g != 120 || b != 80 {
				t.Fatalf("pixel (%d,%d) = [%d %d %d], want untouched [160 120 80]",
					x, y, r, g, b)
			}
		}
	}
}

func TestPipelineHighlightsBoundary(t *testing.T) {
	const w, h, split = 16, 8, 8
	frame := NewFrameBGRA(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < split {
				frame.SetBGRA(x, y, 0, 0, 0, 0xFF)
			} else {
				frame.SetBGRA(x, y, 255, 255, 255, 0xFF)
			}
		}
	}

	p, err := New(WithOperator(OperatorLaplacian))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	out, err := p.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	changed := 0
	for y := 0; y < h; y++ {
		for x := split - 1; x <= split; x++ {
			r, g, b, _ := out.RGBA(x, y)
			var fr, fg, fb byte
			if x >= split {
				fr, fg, fb = 255, 255, 255
			}
			if r != fr || g != fg || b != fb {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatal("boundary produced no highlight")
	}
}

func TestPipelineUnsupportedFormatReturnsToIdle(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	yuv := &Frame{Width: 8, Height: 8, Format: FormatYUV420, Pix: make([]byte, 96)}
	if _, err := p.Process(yuv); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Process(YUV420) = %v, want ErrUnsupportedFormat", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("state after dropped frame = %s, want Idle", p.State())
	}

	// The pipeline must stay usable.
	if _, err := p.Process(NewFrameBGRA(8, 8)); err != nil {
		t.Fatalf("Process after dropped frame: %v", err)
	}
}

func TestPipelineBusyRejection(t *testing.T) {
	stub := newStubEngine()
	stub.detectStarted = make(chan struct{})
	stub.detectRelease = make(chan struct{})

	p, err := New(WithEngine(stub))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	type result struct {
		out *Bitmap
		err error
	}
	done := make(chan result, 1)
	started := stub.detectStarted
	go func() {
		out, err := p.Process(NewFrameBGRA(8, 8))
		done <- result{out, err}
	}()

	<-started
	if got := p.State(); got != StateDetecting {
		t.Errorf("in-flight state = %s, want Detecting", got)
	}

	// A second frame offered while the first is in flight must be
	// rejected immediately, not queued.
	if _, err := p.Process(NewFrameBGRA(8, 8)); !errors.Is(err, ErrPipelineBusy) {
		t.Errorf("concurrent Process = %v, want ErrPipelineBusy", err)
	}

	close(stub.detectRelease)
	res := <-done
	if res.err != nil {
		t.Fatalf("in-flight frame failed: %v", res.err)
	}
	if res.out == nil {
		t.Fatal("in-flight frame completed without output")
	}
	if p.State() != StateIdle {
		t.Fatalf("state after completion = %s, want Idle", p.State())
	}

	// The rejected frame was discarded, never retried: the next offer is
	// accepted as a fresh frame.
	if _, err := p.Process(NewFrameBGRA(8, 8)); err != nil {
		t.Fatalf("Process after busy rejection: %v", err)
	}
}

func TestPipelineDeviceLostLatches(t *testing.T) {
	stub := newStubEngine()
	stub.readbackErr = ErrDeviceLost

	p, err := New(WithEngine(stub))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if _, err := p.Process(NewFrameBGRA(4, 4)); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("Process = %v, want ErrDeviceLost", err)
	}

	// Fatal: even though the engine would now succeed, the pipeline
	// refuses further frames until rebuilt.
	stub.readbackErr = nil
	if _, err := p.Process(NewFrameBGRA(4, 4)); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("Process after device loss = %v, want latched ErrDeviceLost", err)
	}
}

func TestPipelinePerFrameErrorsRecoverable(t *testing.T) {
	tests := []struct {
		name   string
		inject func(*stubEngine)
		want   error
	}{
		{"allocation failure", func(s *stubEngine) { s.stageErr = ErrDeviceResourceExhausted }, ErrDeviceResourceExhausted},
		{"kernel failure", func(s *stubEngine) { s.detectErr = ErrDeviceResourceExhausted }, ErrDeviceResourceExhausted},
		{"submission failure", func(s *stubEngine) { s.readbackErr = ErrFrameSubmissionFailed }, ErrFrameSubmissionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubEngine()
			tt.inject(stub)

			p, err := New(WithEngine(stub))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer p.Close()

			if _, err := p.Process(NewFrameBGRA(4, 4)); !errors.Is(err, tt.want) {
				t.Fatalf("Process = %v, want %v", err, tt.want)
			}
			if p.State() != StateIdle {
				t.Fatalf("state = %s, want Idle", p.State())
			}

			// Clear the fault; the next frame must go through.
			stub.stageErr, stub.detectErr, stub.readbackErr = nil, nil, nil
			if _, err := p.Process(NewFrameBGRA(4, 4)); err != nil {
				t.Fatalf("Process after recovery: %v", err)
			}
		})
	}
}

func TestPipelineDeterministic(t *testing.T) {
	const w, h = 24, 18
	frame := gradientFrame(w, h)

	for _, op := range []Operator{OperatorLaplacian, OperatorCannyLike} {
		t.Run(op.String(), func(t *testing.T) {
			p, err := New(WithOperator(op))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer p.Close()

			// Bit-identical frames through the full chain, including the
			// pooled compositing canvas, must yield bit-identical output.
			first, err := p.Process(frame)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			second, err := p.Process(frame.Clone())
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !first.Equal(second) {
				t.Error("identical frames produced different composites")
			}
		})
	}
}

func TestPipelineLatestWins(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if p.Latest() != nil {
		t.Fatal("Latest before any frame should be nil")
	}

	frame := NewFrameBGRA(4, 4)
	frame.Fill(10, 10, 10, 0xFF)
	first, err := p.Process(frame)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if p.Latest() != first {
		t.Fatal("Latest does not match first composite")
	}

	frame2 := NewFrameBGRA(4, 4)
	frame2.Fill(20, 20, 20, 0xFF)
	second, err := p.Process(frame2)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if p.Latest() != second {
		t.Fatal("Latest not superseded by second composite")
	}
}

func TestPipelineClosed(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Close()

	if _, err := p.Process(NewFrameBGRA(2, 2)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("Process after Close = %v, want ErrPipelineClosed", err)
	}

	// Closing twice is a no-op.
	p.Close()
}
