package curve

import (
	"errors"
	"math"
	"testing"
)

func TestBuildCumulativeFrequencies(t *testing.T) {
	records := []EventRecord{
		{EventID: "rp100", Frequency: 0.01, Value: 3.2},
		{EventID: "rp2", Frequency: 0.5, Value: 0.4},
		{EventID: "rp10", Frequency: 0.1, Value: 1.5},
	}
	c, err := Build(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(c.Points))
	}
	// Exceedance frequency of the lowest value includes all rarer events.
	want := []Point{
		{Frequency: 0.61, Value: 0.4},
		{Frequency: 0.11, Value: 1.5},
		{Frequency: 0.01, Value: 3.2},
	}
	for i, p := range c.Points {
		if math.Abs(p.Frequency-want[i].Frequency) > 1e-12 || p.Value != want[i].Value {
			t.Errorf("point %d: got (%g, %g), want (%g, %g)",
				i, p.Frequency, p.Value, want[i].Frequency, want[i].Value)
		}
	}
}

func TestBuildMonotonicity(t *testing.T) {
	records := []EventRecord{
		{EventID: "a", Frequency: 0.2, Value: 1.0},
		{EventID: "b", Frequency: 0.05, Value: 2.5},
		{EventID: "c", Frequency: 0.01, Value: 4.0},
		{EventID: "d", Frequency: 0.002, Value: 5.5},
	}
	c, err := Build(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].Frequency > c.Points[i-1].Frequency {
			t.Errorf("frequency increased at point %d: %g > %g",
				i, c.Points[i].Frequency, c.Points[i-1].Frequency)
		}
		if c.Points[i].Value < c.Points[i-1].Value {
			t.Errorf("value decreased at point %d", i)
		}
	}
}

func TestBuildMergesValueTies(t *testing.T) {
	records := []EventRecord{
		{EventID: "a", Frequency: 0.1, Value: 2.0},
		{EventID: "b", Frequency: 0.05, Value: 2.0},
		{EventID: "c", Frequency: 0.01, Value: 3.0},
	}
	c, err := Build(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Points) != 2 {
		t.Fatalf("expected tied values merged into 2 points, got %d", len(c.Points))
	}
	if math.Abs(c.Points[0].Frequency-0.16) > 1e-12 {
		t.Errorf("merged frequency: got %g, want 0.16", c.Points[0].Frequency)
	}
}

func TestBuildInvalidInput(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Build(nil)
		if !errors.Is(err, ErrInvalidEventSet) {
			t.Errorf("expected ErrInvalidEventSet, got %v", err)
		}
	})

	t.Run("zero frequency", func(t *testing.T) {
		_, err := Build([]EventRecord{{EventID: "x", Frequency: 0, Value: 1}})
		if !errors.Is(err, ErrInvalidEventSet) {
			t.Errorf("expected ErrInvalidEventSet, got %v", err)
		}
	})

	t.Run("negative frequency", func(t *testing.T) {
		_, err := Build([]EventRecord{
			{EventID: "ok", Frequency: 0.1, Value: 1},
			{EventID: "bad", Frequency: -0.5, Value: 2},
		})
		if !errors.Is(err, ErrInvalidEventSet) {
			t.Errorf("expected ErrInvalidEventSet, got %v", err)
		}
	})
}
