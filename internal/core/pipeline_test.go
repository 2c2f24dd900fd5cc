package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailgate/internal/utils"
	"mailgate/internal/whitelist"
)

// fakeBodies serves a canned body tree and counts fetches.
type fakeBodies struct {
	body  *MessageBody
	err   error
	calls int
}

func (f *fakeBodies) GetBody(_ context.Context, _ string) (*MessageBody, error) {
	f.calls++
	return f.body, f.err
}

func plainBody(text string) *MessageBody {
	return &MessageBody{MimeType: "text/plain", Data: b64url(text)}
}

func newTestPipeline(gen TextGenerator, allowedDomains []string) *Pipeline {
	logger := zap.NewNop()
	return NewPipeline(
		testRuleEngine(),
		NewModelClassifier(gen, "", logger),
		whitelist.NewChecker(allowedDomains, logger),
		utils.NewTextProcessor(logger),
		PipelineConfig{
			MaxBodyChars: 2000,
			Retry: RetryPolicy{
				MaxAttempts: 3,
				MinBackoff:  time.Millisecond,
				MaxBackoff:  4 * time.Millisecond,
			},
		},
		logger,
	)
}

func TestPipelineRuleShortCircuitSkipsModel(t *testing.T) {
	gen := respondWith(`{"label":"NOT_SPAM","reason":"never used"}`)
	bodies := &fakeBodies{body: plainBody("ignored")}
	pipeline := newTestPipeline(gen, nil)

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m1",
		From: "Updates <news@THEGIVINGBLOCK.com>",
	}, bodies)
	require.NoError(t, err)
	assert.True(t, verdict.IsSpam)
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0, bodies.calls)
}

func TestPipelineSurveyRuleSkipsModel(t *testing.T) {
	gen := respondWith(`{"label":"NOT_SPAM","reason":"never used"}`)
	pipeline := newTestPipeline(gen, nil)

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:      "m2",
		From:    "shop@store.com",
		Subject: "Rate your experience with us",
	}, &fakeBodies{body: plainBody("ignored")})
	require.NoError(t, err)
	assert.True(t, verdict.IsSpam)
	assert.Equal(t, 0, gen.calls)
}

func TestPipelineFallsThroughToModel(t *testing.T) {
	gen := respondWith(`{"label":"SPAM","reason":"crypto pitch"}`)
	bodies := &fakeBodies{body: plainBody("buy the dip\r\ntoday only")}
	pipeline := newTestPipeline(gen, nil)

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:      "m3",
		From:    "unknown@example.com",
		Subject: "hello",
	}, bodies)
	require.NoError(t, err)
	assert.True(t, verdict.IsSpam)
	assert.Equal(t, "crypto pitch", verdict.Reason)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, bodies.calls)

	// Line breaks were flattened before the body went into the payload.
	require.Len(t, gen.payloads, 1)
	assert.Contains(t, gen.payloads[0], `"body":"buy the dip  today only"`)
}

func TestPipelineTruncatesBody(t *testing.T) {
	gen := respondWith(`{"label":"NOT_SPAM","reason":"ok"}`)
	logger := zap.NewNop()
	pipeline := NewPipeline(
		testRuleEngine(),
		NewModelClassifier(gen, "", logger),
		nil,
		utils.NewTextProcessor(logger),
		PipelineConfig{
			MaxBodyChars: 10,
			Retry:        RetryPolicy{MaxAttempts: 1},
		},
		logger,
	)

	long := strings.Repeat("a", 3000)
	_, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m4",
		From: "unknown@example.com",
	}, &fakeBodies{body: plainBody(long)})
	require.NoError(t, err)
	assert.Contains(t, gen.payloads[0], `"body":"`+strings.Repeat("a", 10)+`"`)
	assert.NotContains(t, gen.payloads[0], strings.Repeat("a", 11))
}

func TestPipelineRetriesTransportFailures(t *testing.T) {
	transportErr := errors.New("text service unavailable")
	gen := &spyGenerator{script: []generatorStep{
		{err: transportErr},
		{err: transportErr},
		{text: `{"label":"NOT_SPAM","reason":"fine"}`},
	}}
	pipeline := newTestPipeline(gen, nil)

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m5",
		From: "unknown@example.com",
	}, &fakeBodies{body: plainBody("hello")})
	require.NoError(t, err)
	assert.False(t, verdict.IsSpam)
	assert.Equal(t, "fine", verdict.Reason)
	assert.Equal(t, 3, gen.calls)
}

func TestPipelineSurfacesUnavailableAfterExhaustion(t *testing.T) {
	transportErr := errors.New("text service unavailable")
	gen := &spyGenerator{script: []generatorStep{{err: transportErr}}}
	pipeline := newTestPipeline(gen, nil)

	_, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m6",
		From: "unknown@example.com",
	}, &fakeBodies{body: plainBody("hello")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
	assert.Equal(t, 3, gen.calls)
}

func TestPipelineParseFallbackIsTerminal(t *testing.T) {
	// A successfully transported but unparseable response must not retry.
	gen := respondWith("complete nonsense")
	pipeline := newTestPipeline(gen, nil)

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m7",
		From: "unknown@example.com",
	}, &fakeBodies{body: plainBody("hello")})
	require.NoError(t, err)
	assert.False(t, verdict.IsSpam)
	assert.Equal(t, 1, gen.calls)
}

func TestPipelineBodyFetchErrorPropagates(t *testing.T) {
	gen := respondWith(`{"label":"NOT_SPAM","reason":"ok"}`)
	fetchErr := errors.New("message not found")
	pipeline := newTestPipeline(gen, nil)

	_, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m8",
		From: "unknown@example.com",
	}, &fakeBodies{err: fetchErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 0, gen.calls)
}

func TestPipelineAllowlistBypass(t *testing.T) {
	gen := respondWith(`{"label":"SPAM","reason":"never used"}`)
	pipeline := newTestPipeline(gen, []string{"example.com"})

	verdict, err := pipeline.Classify(context.Background(), &Message{
		ID:   "m9",
		From: "Colleague <person@example.com>",
	}, &fakeBodies{body: plainBody("ignored")})
	require.NoError(t, err)
	assert.False(t, verdict.IsSpam)
	assert.Equal(t, 0, gen.calls)
}

func TestPipelineIdempotent(t *testing.T) {
	gen := respondWith(`{"label":"SPAM","reason":"same every time"}`)
	pipeline := newTestPipeline(gen, nil)
	msg := &Message{ID: "m10", From: "unknown@example.com", Subject: "hi"}

	first, err := pipeline.Classify(context.Background(), msg, &fakeBodies{body: plainBody("hello")})
	require.NoError(t, err)
	second, err := pipeline.Classify(context.Background(), msg, &fakeBodies{body: plainBody("hello")})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
