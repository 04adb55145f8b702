package vectorize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEncoder struct {
	calls  int
	texts  []string
	output [][]Vector
	err    error
}

func (f *fakeEncoder) Name() string { return "fake" }

func (f *fakeEncoder) Encode(_ context.Context, texts []string) ([][]Vector, error) {
	f.calls++
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func TestEmbeddingMeanPoolsBothTextsInOneCall(t *testing.T) {
	t.Parallel()

	enc := &fakeEncoder{output: [][]Vector{
		{{1, 0}, {3, 2}},
		{{0, 4}},
	}}
	a, b, err := NewEmbedding(enc, 0).VectorizePair(context.Background(), "python api", "golang")
	require.NoError(t, err)

	assert.Equal(t, 1, enc.calls)
	assert.Equal(t, []string{"python api", "golang"}, enc.texts)
	assert.Equal(t, Vector{2, 1}, a)
	assert.Equal(t, Vector{0, 4}, b)
}

func TestEmbeddingTruncatesInput(t *testing.T) {
	t.Parallel()

	enc := &fakeEncoder{output: [][]Vector{{{1}}, {{1}}}}
	_, _, err := NewEmbedding(enc, 2).VectorizePair(context.Background(), "one two three", "four")
	require.NoError(t, err)

	assert.Equal(t, []string{"one two", "four"}, enc.texts)
}

func TestEmbeddingFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cases := []struct {
		name    string
		encoder *fakeEncoder
		target  error
	}{
		{name: "encoder error", encoder: &fakeEncoder{err: boom}, target: boom},
		{name: "missing sequence", encoder: &fakeEncoder{output: [][]Vector{{{1}}}}},
		{name: "empty sequence", encoder: &fakeEncoder{output: [][]Vector{{}, {{1}}}}, target: ErrEmptyEmbedding},
		{name: "size mismatch", encoder: &fakeEncoder{output: [][]Vector{{{1, 2}}, {{1}}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := NewEmbedding(tc.encoder, 0).VectorizePair(context.Background(), "a", "b")
			require.Error(t, err)

			var verr *VectorizationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "embedding", verr.Strategy)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}
}

func TestMeanPoolRejectsRaggedSequence(t *testing.T) {
	t.Parallel()

	_, err := MeanPool([]Vector{{1, 2}, {1}})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", Truncate(" a  b ", 5))
	assert.Equal(t, "a", Truncate("a b c", 1))
	assert.Equal(t, "", Truncate("", 3))
}
