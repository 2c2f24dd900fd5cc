package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// spamLabel is the only label value treated as spam; anything else fails
// safe to not-spam.
const spamLabel = "SPAM"

// modelResponse is the one-line JSON object the model is instructed to
// return.
type modelResponse struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// parsedResult tags the outcome of response parsing: a usable label/reason
// pair, or the fallback taken when no JSON object could be recovered.
type parsedResult struct {
	ok     bool
	label  string
	reason string
}

// ModelClassifier wraps a generative text service as a spam classifier. It
// owns the prompt contract: a fixed system instruction plus a JSON payload of
// the message fields, answered with {"label":"SPAM"|"NOT_SPAM","reason":...}.
type ModelClassifier struct {
	generator         TextGenerator
	systemInstruction string
	logger            *zap.Logger
}

// NewModelClassifier creates a model classifier. An empty system instruction
// selects the built-in default policy.
func NewModelClassifier(generator TextGenerator, systemInstruction string, logger *zap.Logger) *ModelClassifier {
	if systemInstruction == "" {
		systemInstruction = DefaultSystemInstruction
	}
	return &ModelClassifier{
		generator:         generator,
		systemInstruction: systemInstruction,
		logger:            logger,
	}
}

// Classify sends one request to the text service and converts the response
// into a verdict. Transport errors propagate to the caller's retry policy;
// unparseable output degrades to a not-spam fallback verdict instead of an
// error.
func (c *ModelClassifier) Classify(ctx context.Context, req *ClassificationRequest) (*Verdict, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classification payload: %w", err)
	}

	raw, err := c.generator.Generate(ctx, c.systemInstruction, string(payload))
	if err != nil {
		return nil, err
	}

	parsed := parseModelResponse(raw)
	if !parsed.ok {
		c.logger.Warn("Model returned non-JSON output, defaulting to not-spam",
			zap.String("from", req.From),
			zap.String("response", preview(raw, 200)))
		return &Verdict{IsSpam: false, Reason: parsed.reason}, nil
	}

	reason := parsed.reason
	if reason == "" {
		reason = "Model classification"
	}
	label := strings.ToUpper(strings.TrimSpace(parsed.label))
	return &Verdict{IsSpam: label == spamLabel, Reason: reason}, nil
}

// parseModelResponse tries a strict parse of the full response first, then a
// recovery parse of the outermost brace-delimited object found inside it.
func parseModelResponse(raw string) parsedResult {
	text := strings.TrimSpace(raw)

	var resp modelResponse
	if err := json.Unmarshal([]byte(text), &resp); err == nil {
		return parsedResult{ok: true, label: resp.Label, reason: resp.Reason}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err == nil {
			return parsedResult{ok: true, label: resp.Label, reason: resp.Reason}
		}
	}

	return parsedResult{reason: "non-json response"}
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
