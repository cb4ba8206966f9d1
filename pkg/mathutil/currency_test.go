package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(-1.23456, 3); math.Abs(got-(-1.235)) > 1e-9 {
		t.Errorf("RoundTo(-1.23456, 3) = %v, expected -1.235", got)
	}
	if got := RoundTo(64.94, 0); got != 65 {
		t.Errorf("RoundTo(64.94, 0) = %v, expected 65", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name             string
		val, lo, hi, exp float64
	}{
		{"Inside", -1.0, -2.0, -0.5, -1.0},
		{"Below", -3.0, -2.0, -0.5, -2.0},
		{"Above", -0.1, -2.0, -0.5, -0.5},
		{"At edge", -15.0, -15.0, -0.2, -15.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.exp {
				t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.val, tt.lo, tt.hi, got, tt.exp)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name        string
		base, value float64
		expected    float64
	}{
		{"Increase", 100, 110, 10},
		{"Decrease", 20, 15, -25},
		{"Zero base", 0, 50, 0},
		{"Negative base", -5, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentChange(tt.base, tt.value); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("PercentChange(%v, %v) = %v, expected %v", tt.base, tt.value, got, tt.expected)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	if got := CalculatePercentage(25, 200); got != 12.5 {
		t.Errorf("CalculatePercentage(25, 200) = %v, expected 12.5", got)
	}
	if got := CalculatePercentage(25, 0); got != 0 {
		t.Errorf("CalculatePercentage(25, 0) = %v, expected 0", got)
	}
}

func TestLinspace(t *testing.T) {
	values := Linspace(10, 20, 50)
	if len(values) != 50 {
		t.Fatalf("expected 50 values, got %d", len(values))
	}
	if values[0] != 10 || values[49] != 20 {
		t.Fatalf("expected inclusive endpoints, got %v and %v", values[0], values[49])
	}
	step := values[1] - values[0]
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]-values[i-1]-step) > 1e-9 {
			t.Fatalf("uneven spacing at %d", i)
		}
	}

	if got := Linspace(5, 9, 1); len(got) != 1 || got[0] != 5 {
		t.Errorf("Linspace(5, 9, 1) = %v", got)
	}
	if got := Linspace(5, 9, 0); got != nil {
		t.Errorf("Linspace(5, 9, 0) = %v, expected nil", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(10.004, 10.0, 0.01) {
		t.Error("expected values within tolerance")
	}
	if WithinTolerance(10.02, 10.0, 0.01) {
		t.Error("expected values outside tolerance")
	}
	if WithinTolerance(10.5, 10.0, 0.5) {
		t.Error("a difference equal to the tolerance is not within it")
	}
	if !IsZero(0.005) || IsZero(0.5) {
		t.Error("IsZero mismatch")
	}
}
