package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID identifies a single CLI invocation.
	FieldRunID = "run_id"
	// FieldStrategy is the name of the vectorization strategy in use.
	FieldStrategy = "strategy"
	// FieldVectorizer is the concrete vectorizer scoring the pairs.
	FieldVectorizer = "vectorizer"
	// FieldEncoder names the embedding backend.
	FieldEncoder = "encoder"
	// FieldModel is the embedding model identifier.
	FieldModel = "model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields attached to every log entry of a run.
// Empty values are skipped.
func CommonFields(runID, strategy string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldStrategy, Value: strategy},
	)
}

// WithCommonFields attaches the run fields to the provided logger.
func WithCommonFields(logger *zap.Logger, runID, strategy string) *zap.Logger {
	return WithFields(logger, CommonFields(runID, strategy)...)
}
