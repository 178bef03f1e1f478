package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldJobID is the structured log field key for the job identifier.
	FieldJobID = "job_id"
	// FieldCandidate is the structured log field key for a candidate email.
	FieldCandidate = "candidate_email"
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
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// JobFields returns standard zap fields describing the job a log entry refers to.
// The title is ignored when empty to keep entries compact.
func JobFields(jobID int, title string) []zap.Field {
	fields := []zap.Field{zap.Int(FieldJobID, jobID)}
	fields = append(fields, StringFields(StringField{Key: "job_title", Value: title})...)
	return fields
}

// WithJobFields attaches the common job fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithJobFields(logger *zap.Logger, jobID int, title string) *zap.Logger {
	return WithFields(logger, JobFields(jobID, title)...)
}

// CandidateField returns the standard zap field for a candidate email.
func CandidateField(email string) zap.Field {
	return zap.String(FieldCandidate, strings.TrimSpace(email))
}
