package benefit

import (
	"errors"
	"math"
	"testing"
)

func TestComputeIRR(t *testing.T) {
	// -100 + 60/(1+r) + 60/(1+r)^2 = 0  =>  r ~ 0.13066
	irr, err := ComputeIRR([]float64{-100, 60, 60}, DefaultIRRConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(irr-0.13066) > 1e-4 {
		t.Errorf("got %g, want ~0.13066", irr)
	}

	// At the found rate the NPV is ~0.
	if npv := npvAtRate([]float64{-100, 60, 60}, irr); math.Abs(npv) > 1e-4 {
		t.Errorf("npv at irr: got %g, want ~0", npv)
	}
}

func TestComputeIRRBreakEven(t *testing.T) {
	// Investment exactly repaid without growth: IRR = 0.
	irr, err := ComputeIRR([]float64{-100, 50, 50}, DefaultIRRConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(irr) > 1e-5 {
		t.Errorf("got %g, want 0", irr)
	}
}

func TestComputeIRRDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
	}{
		{"all positive", []float64{10, 20, 30}},
		{"all negative", []float64{-10, -20}},
		{"all zero", []float64{0, 0, 0}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeIRR(tt.flows, DefaultIRRConfig())
			if !errors.Is(err, ErrDegenerateCashflow) {
				t.Errorf("expected ErrDegenerateCashflow, got %v", err)
			}
		})
	}
}

func TestComputeIRRNoSignChangeInRange(t *testing.T) {
	cfg := DefaultIRRConfig()
	cfg.MinRate = 5
	cfg.MaxRate = 10
	_, err := ComputeIRR([]float64{-100, 60, 60}, cfg)
	if !errors.Is(err, ErrNoConvergence) {
		t.Errorf("expected ErrNoConvergence, got %v", err)
	}
}

func TestIRRConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IRRConfig)
		wantErr bool
	}{
		{"default", func(*IRRConfig) {}, false},
		{"min rate at -1", func(c *IRRConfig) { c.MinRate = -1 }, true},
		{"inverted range", func(c *IRRConfig) { c.MinRate = 2; c.MaxRate = 1 }, true},
		{"no iterations", func(c *IRRConfig) { c.MaxIterations = 0 }, true},
		{"zero tolerance", func(c *IRRConfig) { c.Tolerance = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultIRRConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
