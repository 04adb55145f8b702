// Package similarity computes bounded similarity scores between vectors.
package similarity

import (
	"errors"
	"math"

	"github.com/spigell/jd-gatekeeper/internal/vectorize"
)

// ErrDimensionMismatch is returned when two vectors do not share a feature space.
var ErrDimensionMismatch = errors.New("vectors have different dimensions")

// Score returns the cosine similarity of a and b. A zero-norm vector on
// either side scores 0.
func Score(a, b vectorize.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	return Cosine(a, b), nil
}

// IsZero reports whether v has zero norm.
func IsZero(v vectorize.Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine is Score without the error: vectors of different dimension score 0.
func Cosine(a, b vectorize.Vector) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 || dot == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0
	}
	// rounding can push |score| slightly past 1
	return math.Max(-1, math.Min(1, score))
}
