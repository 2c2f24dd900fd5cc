package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// TextProcessor prepares message text for the classification payload.
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor.
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{logger: logger}
}

// Redact flattens line breaks to spaces and trims surrounding whitespace so
// the body fits a single JSON string field.
func (tp *TextProcessor) Redact(text string) string {
	return strings.TrimSpace(lineBreaks.Replace(text))
}

// Truncate caps text at maxChars bytes without splitting a UTF-8 sequence.
// A non-positive limit disables truncation.
func (tp *TextProcessor) Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Message body truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxChars))

	return truncated
}
