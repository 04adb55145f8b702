package eligibility

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/logger"
	"github.com/spigell/jd-gatekeeper/internal/vectorize"
)

// scriptedVectorizer returns fixed vectors keyed by the second text, so a test
// can decide the score of every reference.
type scriptedVectorizer struct {
	mu      sync.Mutex
	vectors map[string]vectorize.Vector
	fail    map[string]error
	calls   int
}

func (s *scriptedVectorizer) Name() string { return "scripted" }

func (s *scriptedVectorizer) VectorizePair(_ context.Context, _, b string) (vectorize.Vector, vectorize.Vector, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err, ok := s.fail[b]; ok {
		return nil, nil, err
	}
	v, ok := s.vectors[b]
	if !ok {
		return nil, nil, errors.New("unexpected text " + b)
	}
	return vectorize.Vector{1, 0}, v, nil
}

func refs(ids ...string) []keywords.Reference {
	out := make([]keywords.Reference, 0, len(ids))
	for _, id := range ids {
		out = append(out, keywords.Reference{ID: id + ".json", Keywords: keywords.Document{id}})
	}
	return out
}

func TestRankFrequencyScenarios(t *testing.T) {
	t.Parallel()

	engine := New(vectorize.NewTFIDF(), zap.NewNop())

	tests := []struct {
		name      string
		candidate keywords.Document
		batch     []keywords.Reference
		expect    []string
	}{
		{
			name:      "shared terms are eligible",
			candidate: keywords.Document{"python", "django", "api"},
			batch:     []keywords.Reference{{ID: "backend.json", Keywords: keywords.Document{"python", "flask", "api"}}},
			expect:    []string{"backend.json"},
		},
		{
			name:      "no shared vocabulary",
			candidate: keywords.Document{"sculpture", "clay"},
			batch:     []keywords.Reference{{ID: "backend.json", Keywords: keywords.Document{"python", "django", "api"}}},
			expect:    []string{},
		},
		{
			name:      "empty candidate",
			candidate: keywords.Document{},
			batch: []keywords.Reference{
				{ID: "a.json", Keywords: keywords.Document{"python"}},
				{ID: "b.json", Keywords: keywords.Document{"go"}},
			},
			expect: []string{},
		},
		{
			name:      "empty batch",
			candidate: keywords.Document{"python"},
			expect:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := engine.Rank(context.Background(), tt.candidate, tt.batch)
			require.NotNil(t, result)
			assert.Equal(t, tt.expect, result.Eligible)
			assert.Len(t, result.Assessments, len(tt.batch))
		})
	}
}

func TestRankSharedTermsScore(t *testing.T) {
	t.Parallel()

	engine := New(vectorize.NewTFIDF(), zap.NewNop())
	score, err := engine.Score(context.Background(),
		keywords.Document{"python", "django", "api"},
		keywords.Document{"Python,", "flask", "API"},
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.503, score, 0.001)
}

func TestRankKeepsScanOrder(t *testing.T) {
	t.Parallel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{
		"one":   {1, 0.2},
		"two":   {0, 1},
		"three": {1, 0.9},
	}}
	result := New(vec, zap.NewNop()).Rank(context.Background(), keywords.Document{"resume"}, refs("one", "two", "three"))

	assert.Equal(t, []string{"one.json", "three.json"}, result.Eligible)
	assert.Equal(t, 2, result.Len())
}

func TestRankWithRanking(t *testing.T) {
	t.Parallel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{
		"one":   {1, 0.9},
		"two":   {1, 0},
		"three": {1, 0.1},
		"four":  {1, 0},
	}}
	result := New(vec, zap.NewNop(), WithRanking(true)).
		Rank(context.Background(), keywords.Document{"resume"}, refs("one", "two", "three", "four"))

	assert.Equal(t, []string{"two.json", "four.json", "three.json", "one.json"}, result.Eligible)
	for i := 1; i < len(result.Matches); i++ {
		assert.GreaterOrEqual(t, result.Matches[i-1].Score, result.Matches[i].Score)
	}
}

func TestRankThresholdIsStrict(t *testing.T) {
	t.Parallel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{
		"exact": {1, 0},
	}}
	result := New(vec, zap.NewNop(), WithThreshold(1)).
		Rank(context.Background(), keywords.Document{"resume"}, refs("exact"))

	assert.Empty(t, result.Eligible)
	require.Len(t, result.Assessments, 1)
	assert.InDelta(t, 1, result.Assessments[0].Score, 1e-12)
}

func TestRankDegeneratePairsNeverEligible(t *testing.T) {
	t.Parallel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{
		"zero": {0, 0},
	}}
	batch := append(refs("zero"), keywords.Reference{ID: "punct.json", Keywords: keywords.Document{"!!", "--"}})

	result := New(vec, zap.NewNop(), WithThreshold(-1)).Rank(context.Background(), keywords.Document{"resume"}, batch)

	assert.Empty(t, result.Eligible)
	for _, a := range result.Assessments {
		assert.True(t, a.Degenerate, a.ID)
		assert.True(t, a.Scored, a.ID)
		assert.Zero(t, a.Score, a.ID)
	}
	assert.Equal(t, 1, vec.calls, "empty texts are not vectorized")
}

func TestRankIsolatesFailures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	boom := errors.New("encoder unavailable")
	vec := &scriptedVectorizer{
		vectors: map[string]vectorize.Vector{"one": {1, 0}, "three": {1, 1}},
		fail:    map[string]error{"two": boom},
	}

	result := New(vec, zap.New(core)).Rank(context.Background(), keywords.Document{"resume"}, refs("one", "two", "three"))

	assert.Equal(t, []string{"one.json", "three.json"}, result.Eligible)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "two.json", failed[0].ID)
	assert.False(t, failed[0].Scored)
	assert.ErrorIs(t, failed[0].Err, boom)

	var verr *vectorize.VectorizationError
	require.ErrorAs(t, failed[0].Err, &verr)
	assert.Equal(t, "scripted", verr.Strategy)

	entries := logs.FilterMessage("scoring failed, skipping reference").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "two.json", entries[0].ContextMap()["reference"])
	assert.Equal(t, "scripted", entries[0].ContextMap()["vectorizer"])
}

func TestEngineLogFieldsDoNotRepeatStrategy(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.WithCommonFields(zap.New(core), "run-1", "tfidf")

	New(vectorize.NewTFIDF(), log).Rank(context.Background(), keywords.Document{"python"}, refs("python"))

	entries := logs.FilterMessage("eligibility computed").All()
	require.Len(t, entries, 1)

	keys := map[string]int{}
	for _, field := range entries[0].Context {
		keys[field.Key]++
	}
	assert.Equal(t, 1, keys[logger.FieldStrategy])
	assert.Equal(t, 1, keys[logger.FieldVectorizer])
	assert.Equal(t, "tfidf", entries[0].ContextMap()[logger.FieldStrategy])
	assert.Equal(t, "tfidf", entries[0].ContextMap()[logger.FieldVectorizer])
}

func TestRankDimensionMismatchIsAFailure(t *testing.T) {
	t.Parallel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{"odd": {1, 0, 1}}}
	result := New(vec, zap.NewNop()).Rank(context.Background(), keywords.Document{"resume"}, refs("odd"))

	require.Len(t, result.Failed(), 1)
	assert.Empty(t, result.Eligible)
}

func TestRankParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	ids := []string{"python flask", "java spring", "python api", "sculpture", "django api", "golang grpc"}
	batch := make([]keywords.Reference, 0, len(ids))
	for i, id := range ids {
		batch = append(batch, keywords.Reference{ID: string(rune('a'+i)) + ".json", Keywords: strings.Fields(id)})
	}
	candidate := keywords.Document{"python", "django", "api"}

	sequential := New(vectorize.NewTFIDF(), zap.NewNop()).Rank(context.Background(), candidate, batch)
	parallel := New(vectorize.NewTFIDF(), zap.NewNop(), WithWorkers(4)).Rank(context.Background(), candidate, batch)

	assert.Equal(t, sequential.Eligible, parallel.Eligible)
	assert.Equal(t, sequential.Assessments, parallel.Assessments)
	assert.Equal(t, []string{"a.json", "c.json", "e.json"}, sequential.Eligible)
}

func TestRankResultIsSubsetAboveThreshold(t *testing.T) {
	t.Parallel()

	batch := []keywords.Reference{
		{ID: "1", Keywords: keywords.Document{"python", "api"}},
		{ID: "2", Keywords: keywords.Document{"rust"}},
		{ID: "3", Keywords: keywords.Document{"python", "django", "rest"}},
	}
	engine := New(vectorize.NewTFIDF(), zap.NewNop(), WithThreshold(0.2))
	result := engine.Rank(context.Background(), keywords.Document{"python", "django"}, batch)

	scores := make(map[string]float64)
	for _, a := range result.Assessments {
		scores[a.ID] = a.Score
	}
	for _, id := range result.Eligible {
		_, ok := scores[id]
		require.True(t, ok, id)
		assert.Greater(t, scores[id], 0.2)
	}
}

func TestRankCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vec := &scriptedVectorizer{vectors: map[string]vectorize.Vector{"one": {1, 0}}}
	result := New(vec, zap.NewNop()).Rank(ctx, keywords.Document{"resume"}, refs("one"))

	assert.Empty(t, result.Eligible)
	require.Len(t, result.Failed(), 1)
	assert.ErrorIs(t, result.Failed()[0].Err, context.Canceled)
	assert.Zero(t, vec.calls)
}

func TestRankWithGlobalVocabulary(t *testing.T) {
	t.Parallel()

	candidate := keywords.Document{"python", "django", "api"}
	batch := []keywords.Reference{
		{ID: "backend.json", Keywords: keywords.Document{"python", "flask", "api"}},
		{ID: "art.json", Keywords: keywords.Document{"sculpture", "clay"}},
	}

	corpus := vectorize.NewCorpus(CorpusTexts(candidate, batch))
	result := New(corpus, zap.NewNop()).Rank(context.Background(), candidate, batch)

	assert.Equal(t, []string{"backend.json"}, result.Eligible)
}

func TestScoreDegenerateAndFailure(t *testing.T) {
	t.Parallel()

	engine := New(vectorize.NewTFIDF(), zap.NewNop())
	score, err := engine.Score(context.Background(), keywords.Document{}, keywords.Document{"python"})
	require.NoError(t, err)
	assert.Zero(t, score)

	self, err := engine.Score(context.Background(), keywords.Document{"python", "go"}, keywords.Document{"python", "go"})
	require.NoError(t, err)
	assert.InDelta(t, 1, self, 1e-9)

	failing := New(&scriptedVectorizer{fail: map[string]error{"python": errors.New("down")}}, zap.NewNop())
	_, err = failing.Score(context.Background(), keywords.Document{"go"}, keywords.Document{"python"})
	var verr *vectorize.VectorizationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	engine := New(vectorize.NewTFIDF(), nil, WithWorkers(-3))
	assert.Equal(t, DefaultThreshold, engine.Threshold())
	assert.Equal(t, 1, engine.workers)
}
