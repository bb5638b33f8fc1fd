package core

import "math"

// NormalizeVector returns v scaled to unit length. The sum of squares is
// accumulated in float64. A zero vector yields a zero vector of the same
// length; v is never modified.
func NormalizeVector(v []float32) []float32 {
	result := make([]float32, len(v))

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return result
	}

	inv := 1 / math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) * inv)
	}
	return result
}
