package similarity

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of u and v in [-1, 1].
// A zero-norm input yields 0. Non-finite components also yield 0.
func Cosine(u, v []float32) (float64, error) {
	if len(u) != len(v) {
		return 0, fmt.Errorf("cosine: length mismatch %d != %d", len(u), len(v))
	}

	var dot, normU, normV float64
	for i := range u {
		a, b := float64(u[i]), float64(v[i])
		dot += a * b
		normU += a * a
		normV += b * b
	}
	if normU == 0 || normV == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normU) * math.Sqrt(normV))
	switch {
	case math.IsNaN(sim) || math.IsInf(sim, 0):
		return 0, nil
	case sim > 1:
		return 1, nil
	case sim < -1:
		return -1, nil
	}
	return sim, nil
}
