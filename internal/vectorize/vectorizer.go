// Package vectorize turns pairs of normalized documents into feature vectors
// that live in a shared space and can be compared with cosine similarity.
package vectorize

import (
	"context"
	"errors"
	"fmt"
)

// Vector is a dense feature vector.
type Vector []float64

// Vectorizer maps two normalized texts into comparable vectors.
type Vectorizer interface {
	Name() string
	VectorizePair(ctx context.Context, a, b string) (Vector, Vector, error)
}

// ErrEmptyEmbedding is returned when an encoder produces no usable output.
var ErrEmptyEmbedding = errors.New("encoder returned no embedding")

// VectorizationError reports that a strategy could not produce usable vectors
// for a pair of documents.
type VectorizationError struct {
	Strategy string
	Cause    error
}

func (e *VectorizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s vectorization failed: %v", e.Strategy, e.Cause)
	}
	return fmt.Sprintf("%s vectorization failed", e.Strategy)
}

func (e *VectorizationError) Unwrap() error {
	return e.Cause
}
