package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/tidewater-labs/floodrisk/internal/curve"
)

// damage curve at return periods 2, 10, 100 years
func testDamageCurve() []curve.Point {
	return []curve.Point{
		{Frequency: 0.5, Value: 1000},
		{Frequency: 0.1, Value: 5000},
		{Frequency: 0.01, Value: 20000},
	}
}

func TestExpectedAnnualDamage(t *testing.T) {
	// Trapezoids: (0.5-0.1)*3000 + (0.1-0.01)*12500 = 1200 + 1125
	// Frequent tail held: (1-0.5)*1000 = 500
	// Rare tail held: 0.01*20000 = 200
	tests := []struct {
		name   string
		policy TailPolicy
		want   float64
	}{
		{"hold both", TailPolicy{Frequent: TailHold, Rare: TailHold}, 1200 + 1125 + 500 + 200},
		{"zero both", TailPolicy{Frequent: TailZero, Rare: TailZero}, 1200 + 1125},
		{"hold frequent only", TailPolicy{Frequent: TailHold, Rare: TailZero}, 1200 + 1125 + 500},
		{"hold rare only", TailPolicy{Frequent: TailZero, Rare: TailHold}, 1200 + 1125 + 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ead, err := ExpectedAnnualDamage(testDamageCurve(), tt.policy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(ead-tt.want) > 1e-9 {
				t.Errorf("got %g, want %g", ead, tt.want)
			}
		})
	}
}

func TestExpectedAnnualDamageUnsortedInput(t *testing.T) {
	pts := []curve.Point{
		{Frequency: 0.01, Value: 20000},
		{Frequency: 0.5, Value: 1000},
		{Frequency: 0.1, Value: 5000},
	}
	a, err := ExpectedAnnualDamage(pts, DefaultTailPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ExpectedAnnualDamage(testDamageCurve(), DefaultTailPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("order-dependent result: %g vs %g", a, b)
	}
}

func TestExpectedAnnualDamageScalesLinearly(t *testing.T) {
	const k = 3.5
	scaled := make([]curve.Point, 0, 3)
	for _, p := range testDamageCurve() {
		scaled = append(scaled, curve.Point{Frequency: p.Frequency, Value: p.Value * k})
	}
	base, err := ExpectedAnnualDamage(testDamageCurve(), DefaultTailPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ExpectedAnnualDamage(scaled, DefaultTailPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-k*base) > 1e-9 {
		t.Errorf("scaling damages by %g: got %g, want %g", k, got, k*base)
	}
}

func TestExpectedAnnualDamageInsufficientPoints(t *testing.T) {
	t.Run("single point", func(t *testing.T) {
		_, err := ExpectedAnnualDamage([]curve.Point{{Frequency: 0.1, Value: 100}}, DefaultTailPolicy())
		if !errors.Is(err, ErrInsufficientCurvePoints) {
			t.Errorf("expected ErrInsufficientCurvePoints, got %v", err)
		}
	})

	t.Run("duplicate frequencies collapse", func(t *testing.T) {
		pts := []curve.Point{
			{Frequency: 0.1, Value: 100},
			{Frequency: 0.1, Value: 200},
		}
		_, err := ExpectedAnnualDamage(pts, DefaultTailPolicy())
		if !errors.Is(err, ErrInsufficientCurvePoints) {
			t.Errorf("expected ErrInsufficientCurvePoints, got %v", err)
		}
	})
}

func TestTailPolicyValidate(t *testing.T) {
	if err := DefaultTailPolicy().Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	bad := TailPolicy{Frequent: "linear", Rare: TailHold}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown tail rule")
	}
}

func TestDamageCurveFromReturnPeriods(t *testing.T) {
	pts, err := DamageCurveFromReturnPeriods(map[float64]float64{2: 1000, 100: 20000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	for _, p := range pts {
		if p.Frequency != 0.5 && p.Frequency != 0.01 {
			t.Errorf("unexpected frequency %g", p.Frequency)
		}
	}

	if _, err := DamageCurveFromReturnPeriods(map[float64]float64{-5: 100}); err == nil {
		t.Error("expected error for non-positive return period")
	}
}
