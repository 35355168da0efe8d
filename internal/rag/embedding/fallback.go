package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Fallback derives a deterministic vector from the SHA-256 of text: each
// little-endian 4-byte group of the digest is reinterpreted as a float32,
// then the vector is zero-padded (or truncated) to dim. NaN and Inf bit
// patterns are kept as-is.
func Fallback(text string, dim int) []float32 {
	if dim <= 0 {
		return []float32{}
	}
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	for i := 0; i < len(sum)/4 && i < dim; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(sum[i*4 : i*4+4]))
	}
	return vec
}

// JSONSafe copies v into float64s, replacing NaN and Inf with 0 because
// encoding/json cannot represent them.
func JSONSafe(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		x := float64(f)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			x = 0
		}
		out[i] = x
	}
	return out
}
