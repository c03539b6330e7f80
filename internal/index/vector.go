package index

import "math"

// Cosine computes cosine similarity between two vectors of equal length.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLengthMismatch
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0, nil
	}
	return dot / den, nil
}

// NormalizeL2 returns a new vector normalized to unit L2 norm.
func NormalizeL2(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	n := math.Sqrt(sum)
	out := make([]float64, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := 1.0 / n
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}
