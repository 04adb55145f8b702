package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/eligibility"
	"github.com/spigell/jd-gatekeeper/internal/gemini"
	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/secrets"
	"github.com/spigell/jd-gatekeeper/internal/vectorize"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

// newEncoder is replaced in tests.
var newEncoder = func(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (vectorize.Encoder, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   geminiAPIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or %s)", err, geminiAPIKeyEnv)
	}

	return gemini.NewEncoder(ctx, gemini.Config{
		APIKey:        apiKey,
		Model:         cfg.Model,
		MaxRetries:    cfg.MaxRetries,
		SegmentTokens: cfg.SegmentTokens,
	}, logger)
}

// buildVectorizer picks the vectorization strategy from the config. The
// candidate and batch are only used to fit a global vocabulary.
func buildVectorizer(ctx context.Context, cfg *Config, logger *zap.Logger, candidate keywords.Document, batch []keywords.Reference) (vectorize.Vectorizer, error) {
	switch cfg.Matching.Strategy {
	case strategyEmbedding:
		encoder, err := newEncoder(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("building embedding encoder: %w", err)
		}
		return vectorize.NewEmbedding(encoder, cfg.Matching.MaxTokens), nil
	case strategyTFIDF, "":
		if cfg.Matching.Vocabulary == vocabularyGlobal {
			corpus := vectorize.NewCorpus(eligibility.CorpusTexts(candidate, batch))
			logger.Debug("fitted global vocabulary", zap.Int("terms", corpus.Dimension()))
			return corpus, nil
		}
		return vectorize.NewTFIDF(), nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %s", cfg.Matching.Strategy)
	}
}

func newEngine(vectorizer vectorize.Vectorizer, cfg *MatchingConfig, logger *zap.Logger) *eligibility.Engine {
	return eligibility.New(vectorizer, logger,
		eligibility.WithThreshold(cfg.Threshold),
		eligibility.WithRanking(cfg.Rank),
		eligibility.WithWorkers(cfg.Workers),
	)
}
