// Package eligibility decides which job descriptions a resume qualifies for.
package eligibility

import (
	"context"
	"errors"
	"sort"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/logger"
	"github.com/spigell/jd-gatekeeper/internal/similarity"
	"github.com/spigell/jd-gatekeeper/internal/textnorm"
	"github.com/spigell/jd-gatekeeper/internal/vectorize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the minimum similarity a job must exceed.
const DefaultThreshold = 0.1

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the strict lower bound on similarity.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// WithRanking orders eligible jobs by descending score instead of scan order.
func WithRanking(rank bool) Option {
	return func(e *Engine) { e.rank = rank }
}

// WithWorkers scores up to n pairs concurrently. Values below 2 keep the
// scan sequential.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// Engine scores a candidate against a batch of references.
type Engine struct {
	vectorizer vectorize.Vectorizer
	logger     *zap.Logger
	threshold  float64
	rank       bool
	workers    int
}

// New creates an engine backed by vectorizer.
func New(vectorizer vectorize.Vectorizer, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		vectorizer: vectorizer,
		threshold:  DefaultThreshold,
		workers:    1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.WithFields(log, zap.String(logger.FieldVectorizer, vectorizer.Name()))
	return e
}

// Threshold returns the score a reference has to exceed to be eligible.
func (e *Engine) Threshold() float64 { return e.threshold }

// Assessment is the outcome for one reference.
type Assessment struct {
	ID    string
	Score float64
	// Scored is false when no score could be computed; Err holds the reason.
	Scored bool
	// Degenerate marks pairs with an empty text or a zero vector. They score 0.
	Degenerate bool
	Eligible   bool
	Err        error
}

// Result holds the eligible identifiers and the assessment of every reference.
type Result struct {
	Threshold   float64
	Eligible    []string
	Matches     []Assessment
	Assessments []Assessment
}

// Len returns the number of eligible references.
func (r *Result) Len() int { return len(r.Eligible) }

// Failed returns the assessments that could not be scored.
func (r *Result) Failed() []Assessment {
	var failed []Assessment
	for _, a := range r.Assessments {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// Rank returns the references whose similarity with candidate is strictly
// above the threshold. Identifiers keep the batch order unless ranking is
// enabled. Per-pair failures are logged and the reference is skipped.
func (e *Engine) Rank(ctx context.Context, candidate keywords.Document, batch []keywords.Reference) *Result {
	assessments := e.Evaluate(ctx, candidate, batch)

	matches := make([]Assessment, 0, len(assessments))
	for _, a := range assessments {
		if a.Eligible {
			matches = append(matches, a)
		}
	}
	if e.rank {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	}

	eligible := make([]string, 0, len(matches))
	for _, a := range matches {
		eligible = append(eligible, a.ID)
	}

	e.logger.Info("eligibility computed",
		zap.Int("references", len(batch)),
		zap.Int("eligible", len(eligible)),
		zap.Float64("threshold", e.threshold),
		zap.Bool("ranked", e.rank),
	)

	return &Result{
		Threshold:   e.threshold,
		Eligible:    eligible,
		Matches:     matches,
		Assessments: assessments,
	}
}

// Evaluate scores every reference against candidate and returns the
// assessments in batch order.
func (e *Engine) Evaluate(ctx context.Context, candidate keywords.Document, batch []keywords.Reference) []Assessment {
	assessments := make([]Assessment, len(batch))
	if len(batch) == 0 {
		return assessments
	}

	candidateText := textnorm.Normalize(candidate)
	if candidateText == "" {
		e.logger.Warn("candidate has no usable keywords, nothing can match")
	}

	if e.workers <= 1 {
		for i, ref := range batch {
			assessments[i] = e.assess(ctx, candidateText, ref)
		}
		return assessments
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, ref := range batch {
		g.Go(func() error {
			assessments[i] = e.assess(gctx, candidateText, ref)
			return nil
		})
	}
	_ = g.Wait()

	return assessments
}

// Score computes the similarity of two keyword documents. Degenerate pairs
// score 0 without error.
func (e *Engine) Score(ctx context.Context, a, b keywords.Document) (float64, error) {
	textA, textB := textnorm.Normalize(a), textnorm.Normalize(b)
	if textA == "" || textB == "" {
		return 0, nil
	}

	score, _, err := e.score(ctx, textA, textB)
	return score, err
}

func (e *Engine) assess(ctx context.Context, candidateText string, ref keywords.Reference) Assessment {
	result := Assessment{ID: ref.ID}

	refText := textnorm.Normalize(ref.Keywords)
	if candidateText == "" || refText == "" {
		result.Scored = true
		result.Degenerate = true
		e.logger.Debug("empty keyword text, scoring 0", zap.String("reference", ref.ID))
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	score, degenerate, err := e.score(ctx, candidateText, refText)
	if err != nil {
		result.Err = err
		e.logger.Warn("scoring failed, skipping reference",
			zap.String("reference", ref.ID),
			zap.Error(err),
		)
		return result
	}

	result.Score = score
	result.Scored = true
	result.Degenerate = degenerate
	result.Eligible = !degenerate && score > e.threshold

	e.logger.Debug("reference scored",
		zap.String("reference", ref.ID),
		zap.Float64("score", score),
		zap.Bool("eligible", result.Eligible),
	)

	return result
}

func (e *Engine) score(ctx context.Context, textA, textB string) (float64, bool, error) {
	va, vb, err := e.vectorizer.VectorizePair(ctx, textA, textB)
	if err != nil {
		var verr *vectorize.VectorizationError
		if errors.As(err, &verr) {
			return 0, false, err
		}
		return 0, false, &vectorize.VectorizationError{Strategy: e.vectorizer.Name(), Cause: err}
	}

	if similarity.IsZero(va) || similarity.IsZero(vb) {
		return 0, true, nil
	}

	score, err := similarity.Score(va, vb)
	if err != nil {
		return 0, false, &vectorize.VectorizationError{Strategy: e.vectorizer.Name(), Cause: err}
	}
	return score, false, nil
}

// CorpusTexts returns the normalized candidate followed by every normalized
// reference, the input for fitting a global vocabulary.
func CorpusTexts(candidate keywords.Document, batch []keywords.Reference) []string {
	texts := make([]string, 0, len(batch)+1)
	texts = append(texts, textnorm.Normalize(candidate))
	for _, ref := range batch {
		texts = append(texts, textnorm.Normalize(ref.Keywords))
	}
	return texts
}
