package vectorize

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxTokens bounds how much of each document reaches the encoder.
const DefaultMaxTokens = 512

// Encoder turns texts into sequences of contextual vectors, one sequence per
// input text. Implementations must be safe for concurrent use.
type Encoder interface {
	Name() string
	Encode(ctx context.Context, texts []string) ([][]Vector, error)
}

// Embedding vectorizes documents with a pretrained encoder and mean-pools the
// encoder's sequence output into one vector per document.
type Embedding struct {
	encoder   Encoder
	maxTokens int
}

// NewEmbedding wraps encoder. A non-positive maxTokens falls back to
// DefaultMaxTokens.
func NewEmbedding(encoder Encoder, maxTokens int) *Embedding {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Embedding{encoder: encoder, maxTokens: maxTokens}
}

func (e *Embedding) Name() string { return "embedding" }

// VectorizePair encodes both texts in a single encoder call.
func (e *Embedding) VectorizePair(ctx context.Context, a, b string) (Vector, Vector, error) {
	texts := []string{Truncate(a, e.maxTokens), Truncate(b, e.maxTokens)}

	sequences, err := e.encoder.Encode(ctx, texts)
	if err != nil {
		return nil, nil, e.fail(fmt.Errorf("encode with %s: %w", e.encoder.Name(), err))
	}
	if len(sequences) != len(texts) {
		return nil, nil, e.fail(fmt.Errorf("expected %d sequences, got %d", len(texts), len(sequences)))
	}

	va, err := MeanPool(sequences[0])
	if err != nil {
		return nil, nil, e.fail(err)
	}
	vb, err := MeanPool(sequences[1])
	if err != nil {
		return nil, nil, e.fail(err)
	}
	if len(va) != len(vb) {
		return nil, nil, e.fail(fmt.Errorf("embedding sizes differ: %d and %d", len(va), len(vb)))
	}

	return va, vb, nil
}

func (e *Embedding) fail(err error) error {
	return &VectorizationError{Strategy: e.Name(), Cause: err}
}

// MeanPool averages a sequence of equally sized vectors.
func MeanPool(sequence []Vector) (Vector, error) {
	if len(sequence) == 0 || len(sequence[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}

	size := len(sequence[0])
	pooled := make(Vector, size)
	for i, v := range sequence {
		if len(v) != size {
			return nil, fmt.Errorf("sequence item %d has size %d, want %d", i, len(v), size)
		}
		for j, x := range v {
			pooled[j] += x
		}
	}

	n := float64(len(sequence))
	for j := range pooled {
		pooled[j] /= n
	}
	return pooled, nil
}

// Truncate keeps at most limit whitespace-separated tokens of text.
func Truncate(text string, limit int) string {
	fields := strings.Fields(text)
	if limit <= 0 || len(fields) <= limit {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:limit], " ")
}
