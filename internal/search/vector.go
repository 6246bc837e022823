package search

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction
func CosineSimilarity(a, b []float32) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vector norm cannot be zero")
	}

	// clamp floating point drift
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB)))), nil
}

// Normalize scales a vector to unit length
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("vector cannot be empty")
	}
	norm := Magnitude(v)
	if norm == 0 {
		return nil, fmt.Errorf("cannot normalize zero vector")
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// DotProduct calculates the dot product of two vectors
func DotProduct(a, b []float32) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Magnitude returns the Euclidean norm, 0 for an empty vector
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func sameShape(a, b []float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("vectors must have same length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return fmt.Errorf("vectors cannot be empty")
	}
	return nil
}
