package domain_test

import (
	"math"
	"testing"

	"biomarkers/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestConvertWeight(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		want     float64
	}{
		{"kg to lb", 100.0, "kg", "lb", 220.46226218},
		{"lb to kg", 220.46226218, "lb", "kg", 100.0},
		{"same unit kg", 80.0, "kg", "kg", 80.0},
		{"same unit lb", 180.0, "lb", "lb", 180.0},
		{"unknown units", 50.0, "st", "kg", 50.0},
		{"zero value", 0, "kg", "lb", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertWeight(tc.value, tc.from, tc.to)
			if !almostEqual(got, tc.want, 0.001) {
				t.Errorf("ConvertWeight(%v, %q, %q) = %v; want %v",
					tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestMmolToMgDl(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"fasting normal", 5.5, 99.1},
		{"hypoglycemic", 3.0, 54.05},
		{"zero", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.MmolToMgDl(tc.value)
			if !almostEqual(got, tc.want, 0.1) {
				t.Errorf("MmolToMgDl(%v) = %v; want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestFahrenheitToCelsius(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"freezing", 32, 0},
		{"body temperature", 98.6, 37},
		{"below zero", -40, -40},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.FahrenheitToCelsius(tc.value)
			if !almostEqual(got, tc.want, 0.001) {
				t.Errorf("FahrenheitToCelsius(%v) = %v; want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestHzToBPM(t *testing.T) {
	if got := domain.HzToBPM(1.0); !almostEqual(got, 60, 0.001) {
		t.Errorf("HzToBPM(1.0) = %v; want 60", got)
	}
	if got := domain.HzToBPM(0.9); !almostEqual(got, 54, 0.001) {
		t.Errorf("HzToBPM(0.9) = %v; want 54", got)
	}
}
