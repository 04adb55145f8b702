package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/jd-gatekeeper/internal/logger"
	"github.com/spigell/jd-gatekeeper/internal/utils"
	"github.com/spigell/jd-gatekeeper/internal/vectorize"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel         = "gemini-embedding-001"
	DefaultMaxRetries    = 3
	DefaultSegmentTokens = 128

	// maxBatchSize is the number of contents accepted by one EmbedContent request.
	maxBatchSize = 100

	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 30 * time.Second
	maxQuotaDelay  = 30 * time.Second

	taskType      = "SEMANTIC_SIMILARITY"
	previewLength = 80
)

var (
	wait = utils.WaitFor

	quotaDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)
)

type embedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config holds the encoder settings.
type Config struct {
	APIKey        string
	Model         string
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries    int
	SegmentTokens int
}

// Encoder embeds documents with the Gemini embedding API. Every document is
// cut into segments and each segment becomes one element of the document's
// sequence output.
type Encoder struct {
	embedder      embedder
	model         string
	maxRetries    int
	segmentTokens int
	logger        *zap.Logger
}

// NewEncoder creates an Encoder configured for the Gemini API backend.
func NewEncoder(ctx context.Context, cfg Config, log *zap.Logger) (*Encoder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newEncoder(client.Models, cfg, log), nil
}

func newEncoder(e embedder, cfg Config, log *zap.Logger) *Encoder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	segment := cfg.SegmentTokens
	if segment <= 0 {
		segment = DefaultSegmentTokens
	}

	return &Encoder{
		embedder:      e,
		model:         model,
		maxRetries:    retries,
		segmentTokens: segment,
		logger: logger.WithFields(log,
			zap.String(logger.FieldEncoder, "gemini"),
			zap.String(logger.FieldModel, model),
		),
	}
}

// Name returns the backend and model identifier.
func (e *Encoder) Name() string {
	return "gemini/" + e.model
}


// Encode returns one sequence of segment embeddings per text. Empty texts get
// an empty sequence.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]vectorize.Vector, error) {
	owners := make([]int, 0, len(texts))
	contents := make([]*genai.Content, 0, len(texts))
	for i, text := range texts {
		for _, seg := range Segment(text, e.segmentTokens) {
			owners = append(owners, i)
			contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: seg}}})
		}
	}

	out := make([][]vectorize.Vector, len(texts))
	if len(contents) == 0 {
		return out, nil
	}

	e.logger.Debug("embedding segments",
		zap.Int("texts", len(texts)),
		zap.Int("segments", len(contents)),
		zap.String("preview", utils.TruncateForLog(texts[0], previewLength)),
	)

	for start := 0; start < len(contents); start += maxBatchSize {
		end := min(start+maxBatchSize, len(contents))

		embeddings, err := e.embed(ctx, contents[start:end])
		if err != nil {
			return nil, err
		}

		for i, values := range embeddings {
			owner := owners[start+i]
			out[owner] = append(out[owner], values)
		}
	}

	return out, nil
}

func (e *Encoder) embed(ctx context.Context, contents []*genai.Content) ([]vectorize.Vector, error) {
	cfg := &genai.EmbedContentConfig{TaskType: taskType}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		resp, err := e.embedder.EmbedContent(ctx, e.model, contents, cfg)
		if err == nil {
			return toVectors(resp, len(contents))
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == e.maxRetries {
			break
		}

		e.logger.Warn("embedding request failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func toVectors(resp *genai.EmbedContentResponse, want int) ([]vectorize.Vector, error) {
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, vectorize.ErrEmptyEmbedding
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Embeddings))
	}

	vectors := make([]vectorize.Vector, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding %d: %w", i, vectorize.ErrEmptyEmbedding)
		}
		v := make(vectorize.Vector, len(emb.Values))
		for j, x := range emb.Values {
			v[j] = float64(x)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// retryDelay reports whether err is transient and how long to wait before the
// next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	code, message, ok := apiError(err)
	if !ok {
		return 0, false
	}

	switch {
	case code == http.StatusTooManyRequests:
		if d, found := quotaDelay(message); found {
			if d > maxQuotaDelay {
				return 0, false
			}
			return d, true
		}
		return utils.Backoff(retryBaseDelay, retryMaxDelay, attempt), true
	case code >= http.StatusInternalServerError:
		return utils.Backoff(retryBaseDelay, retryMaxDelay, attempt), true
	default:
		return 0, false
	}
}

func apiError(err error) (int, string, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value.Code, value.Message, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, ptr.Message, true
	}
	return 0, "", false
}

func quotaDelay(message string) (time.Duration, bool) {
	m := quotaDelayPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// Segment splits text into chunks of at most size whitespace tokens.
func Segment(text string, size int) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{strings.Join(fields, " ")}
	}

	segments := make([]string, 0, (len(fields)+size-1)/size)
	for start := 0; start < len(fields); start += size {
		end := min(start+size, len(fields))
		segments = append(segments, strings.Join(fields[start:end], " "))
	}
	return segments
}
