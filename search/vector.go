package search

import "math"

// cosineSimilarity returns dot(a,b) / (|a| |b|). Vectors of unequal
// length are compared over their shared prefix. A zero-norm input
// yields 0, never NaN.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot float32
	for i := 0; i < minLen; i++ {
		dot += a[i] * b[i]
	}

	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

// norm returns the Euclidean length of v.
func norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}
