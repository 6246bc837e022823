package search

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		wantErr  bool
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"scaled vectors", []float32{1, 2, 3}, []float32{2, 4, 6}, 1, false},
		{"different length vectors", []float32{1, 2}, []float32{1, 2, 3}, 0, true},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0, true},
		{"empty vectors", []float32{}, []float32{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CosineSimilarity(tt.a, tt.b)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize([]float32{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(Magnitude(got)-1) > 1e-6 {
		t.Errorf("expected unit length, got %f", Magnitude(got))
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("unexpected components %v", got)
	}

	if _, err := Normalize(nil); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := Normalize([]float32{0, 0}); err == nil {
		t.Error("expected error for zero vector")
	}
}

func TestDotProduct(t *testing.T) {
	got, err := DotProduct([]float32{1, 2, 3}, []float32{4, 5, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 32 {
		t.Errorf("expected 32, got %f", got)
	}

	if _, err := DotProduct([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestMagnitude(t *testing.T) {
	tests := []struct {
		v    []float32
		want float64
	}{
		{[]float32{3, 4}, 5},
		{[]float32{}, 0},
		{[]float32{0, 0, 0}, 0},
	}
	for _, tt := range tests {
		if got := Magnitude(tt.v); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Magnitude(%v) = %f, want %f", tt.v, got, tt.want)
		}
	}
}
