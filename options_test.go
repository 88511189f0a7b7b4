package focuspeak

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Operator != OperatorLaplacian {
		t.Errorf("default operator = %s, want Laplacian", cfg.Operator)
	}
	if cfg.MaskColor != (RGB{}) {
		t.Errorf("default mask color = %+v, want black", cfg.MaskColor)
	}
	if cfg.HighlightColor != (RGB{R: 255}) {
		t.Errorf("default highlight color = %+v, want red", cfg.HighlightColor)
	}
	if cfg.HighlightStrength != 1.0 {
		t.Errorf("default highlight strength = %v, want 1", cfg.HighlightStrength)
	}
}

func TestOptionsApply(t *testing.T) {
	o := defaultPipelineOptions()
	for _, opt := range []Option{
		WithOperator(OperatorCannyLike),
		WithMaskColor(RGB{R: 1, G: 2, B: 3}),
		WithHighlightColor(RGB{G: 255}),
		WithHighlightStrength(0.5),
		WithCannyThresholds(30, 90),
	} {
		opt(&o)
	}

	if o.cfg.Operator != OperatorCannyLike {
		t.Errorf("operator = %s", o.cfg.Operator)
	}
	if o.cfg.MaskColor != (RGB{R: 1, G: 2, B: 3}) {
		t.Errorf("mask color = %+v", o.cfg.MaskColor)
	}
	if o.cfg.HighlightColor != (RGB{G: 255}) {
		t.Errorf("highlight color = %+v", o.cfg.HighlightColor)
	}
	if o.cfg.HighlightStrength != 0.5 {
		t.Errorf("highlight strength = %v", o.cfg.HighlightStrength)
	}
	if o.cfg.CannyLow != 30 || o.cfg.CannyHigh != 90 {
		t.Errorf("canny thresholds = %d/%d", o.cfg.CannyLow, o.cfg.CannyHigh)
	}
}

func TestHighlightStrengthClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.75, 0.75},
		{1, 1},
		{3.2, 1},
	}
	for _, tt := range tests {
		o := defaultPipelineOptions()
		WithHighlightStrength(tt.in)(&o)
		if o.cfg.HighlightStrength != tt.want {
			t.Errorf("WithHighlightStrength(%v) = %v, want %v",
				tt.in, o.cfg.HighlightStrength, tt.want)
		}
	}
}

func TestCannyThresholdsSwapped(t *testing.T) {
	o := defaultPipelineOptions()
	WithCannyThresholds(200, 50)(&o)
	if o.cfg.CannyLow != 50 || o.cfg.CannyHigh != 200 {
		t.Errorf("out-of-order thresholds = %d/%d, want 50/200", o.cfg.CannyLow, o.cfg.CannyHigh)
	}
}

func TestOperatorString(t *testing.T) {
	if OperatorLaplacian.String() != "Laplacian" {
		t.Error("Laplacian name")
	}
	if OperatorCannyLike.String() != "CannyLike" {
		t.Error("CannyLike name")
	}
	if Operator(99).String() != "Unknown(99)" {
		t.Error("unknown operator name")
	}
}
