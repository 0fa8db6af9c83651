package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/careerpath-api/internal/config"
	"github.com/phrazzld/careerpath-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []fakeReply
	calls     int
	models    []string
	configs   []*genai.GenerateContentConfig
	deadlines []bool
}

type fakeReply struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	_ []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	f.models = append(f.models, model)
	f.configs = append(f.configs, cfg)
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx].resp, f.responses[idx].err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:        "test-key",
		ModelName:           "gemini-test",
		MaxRetries:          2,
		RetryDelaySeconds:   1,
		RequestTimeout:      time.Second,
		Temperature:         0.7,
		TopP:                0.9,
		MaxOutputTokens:     2048,
		GoalMaxOutputTokens: 300,
	}
}

func newTestGenerator(t *testing.T, cfg config.LLMConfig, models modelsAPI) *GeminiGenerator {
	t.Helper()
	g, err := newGeneratorWithAPI(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, models)
	require.NoError(t, err)
	g.backoff = func(int) time.Duration { return time.Millisecond }
	return g
}

func TestNewGeneratorWithAPI_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	models := &fakeModels{}

	tests := []struct {
		name    string
		logger  *slog.Logger
		mutate  func(*config.LLMConfig)
		wantErr error
	}{
		{name: "nil logger", logger: nil, mutate: func(*config.LLMConfig) {}, wantErr: ErrNilLogger},
		{
			name:    "missing api key",
			logger:  logger,
			mutate:  func(c *config.LLMConfig) { c.GeminiAPIKey = "" },
			wantErr: generation.ErrInvalidConfig,
		},
		{
			name:    "missing model",
			logger:  logger,
			mutate:  func(c *config.LLMConfig) { c.ModelName = "" },
			wantErr: generation.ErrInvalidConfig,
		},
		{
			name:    "negative retries",
			logger:  logger,
			mutate:  func(c *config.LLMConfig) { c.MaxRetries = -1 },
			wantErr: generation.ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := newGeneratorWithAPI(tc.logger, cfg, models)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGenerate_Success(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{resp: textResponse("  Software Engineer \n")}}}
	g := newTestGenerator(t, testConfig(), models)

	text, err := g.Generate(context.Background(), "prompt", generation.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", text)

	require.Len(t, models.configs, 1)
	assert.Equal(t, "gemini-test", models.models[0])
	assert.Equal(t, int32(2048), models.configs[0].MaxOutputTokens)
	assert.InDelta(t, 0.7, float64(*models.configs[0].Temperature), 1e-6)
	assert.InDelta(t, 0.9, float64(*models.configs[0].TopP), 1e-6)
	assert.True(t, models.deadlines[0], "each attempt should carry the request timeout")
}

func TestGenerate_OptionsOverrideDefaults(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{resp: textResponse("ok")}}}
	g := newTestGenerator(t, testConfig(), models)

	_, err := g.Generate(context.Background(), "prompt", generation.Options{MaxOutputTokens: 300, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, int32(300), models.configs[0].MaxOutputTokens)
	assert.InDelta(t, 0.2, float64(*models.configs[0].Temperature), 1e-6)
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{resp: textResponse("ok")}}}
	g := newTestGenerator(t, testConfig(), models)

	_, err := g.Generate(context.Background(), "   ", generation.Options{})
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
	assert.Equal(t, 0, models.calls)
}

func TestGenerate_EmptyReplyIsNotAnError(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{resp: &genai.GenerateContentResponse{}}}}
	g := newTestGenerator(t, testConfig(), models)

	text, err := g.Generate(context.Background(), "prompt", generation.Options{})
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 1, models.calls)
}

func TestGenerate_RetriesTransientErrors(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{
		{err: genai.APIError{Code: 503, Message: "unavailable"}},
		{err: &genai.APIError{Code: 429, Message: "rate limited"}},
		{resp: textResponse("recovered")},
	}}
	g := newTestGenerator(t, testConfig(), models)

	text, err := g.Generate(context.Background(), "prompt", generation.Options{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 3, models.calls)
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{err: genai.APIError{Code: 500, Message: "boom"}}}}
	g := newTestGenerator(t, testConfig(), models)

	_, err := g.Generate(context.Background(), "prompt", generation.Options{})
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 3, models.calls, "one attempt plus MaxRetries retries")
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{err: genai.APIError{Code: 400, Message: "bad request"}}}}
	g := newTestGenerator(t, testConfig(), models)

	_, err := g.Generate(context.Background(), "prompt", generation.Options{})
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Equal(t, 1, models.calls)
}

func TestGenerate_SafetyBlockNotRetried(t *testing.T) {
	blocked := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}
	models := &fakeModels{responses: []fakeReply{{resp: blocked}}}
	g := newTestGenerator(t, testConfig(), models)

	_, err := g.Generate(context.Background(), "prompt", generation.Options{})
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Equal(t, 1, models.calls)
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	models := &fakeModels{responses: []fakeReply{{err: errors.New("connection reset by peer")}}}
	g := newTestGenerator(t, testConfig(), models)
	g.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := g.Generate(ctx, "prompt", generation.Options{})
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, models.calls)
}

func TestIsTransient(t *testing.T) {
	ctx := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, isTransient(ctx, context.DeadlineExceeded))
	assert.True(t, isTransient(ctx, errors.New("unexpected EOF")))
	assert.False(t, isTransient(ctx, errors.New("invalid argument")))
	assert.False(t, isTransient(ctx, genai.APIError{Code: 403}))
	assert.False(t, isTransient(cancelled, genai.APIError{Code: 503}))
}

func TestJitteredBackoff(t *testing.T) {
	backoff := jitteredBackoff(time.Second)
	for attempt := 0; attempt < 4; attempt++ {
		d := backoff(attempt)
		upper := time.Second << attempt
		assert.GreaterOrEqual(t, d, upper/2)
		assert.Less(t, d, upper)
	}
}
