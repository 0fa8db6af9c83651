package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/careerpath-api/internal/config"
	"github.com/phrazzld/careerpath-api/internal/generation"
	"google.golang.org/genai"
)

// modelsAPI is the subset of the genai client the generator calls.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements generation.ContentGenerator using Google's
// Gemini API.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	models modelsAPI

	// backoff returns the wait before retry number attempt (0-based).
	backoff func(attempt int) time.Duration
}

var _ generation.ContentGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator with a genai client for the Gemini API backend.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGeneratorWithAPI(logger, cfg, client.Models)
}

func newGeneratorWithAPI(logger *slog.Logger, cfg config.LLMConfig, models modelsAPI) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if models == nil {
		return nil, fmt.Errorf("%w: models client cannot be nil", generation.ErrInvalidConfig)
	}

	return &GeminiGenerator{
		logger:  logger,
		config:  cfg,
		models:  models,
		backoff: jitteredBackoff(time.Duration(cfg.RetryDelaySeconds) * time.Second),
	}, nil
}

func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", generation.ErrInvalidConfig)
	}
	return nil
}

// Generate sends prompt to the configured model, retrying transient failures.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts generation.Options) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", generation.ErrEmptyPrompt
	}

	reqConfig := g.requestConfig(opts)
	maxRetries := g.config.MaxRetries

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.DebugContext(ctx, "Making Gemini API call",
			"model", g.config.ModelName,
			"attempt", attemptNum,
			"max_attempts", maxRetries+1,
			"prompt_length", len(prompt))

		text, err := g.callOnce(ctx, prompt, reqConfig)
		if err == nil {
			g.logger.DebugContext(ctx, "Gemini API call successful",
				"attempt", attemptNum,
				"response_length", len(text))
			return text, nil
		}

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "Permanent error occurred, not retrying",
				"attempt", attemptNum,
				"error", err)
			return "", err
		}

		if !isTransient(ctx, err) {
			g.logger.ErrorContext(ctx, "Gemini API call failed",
				"attempt", attemptNum,
				"error", err)
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
			}
			return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}

		if attempt >= maxRetries {
			g.logger.WarnContext(ctx, "Maximum retry attempts reached",
				"max_retries", maxRetries,
				"error", err)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := g.backoff(attempt)
		g.logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			g.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single request under the configured request timeout.
func (g *GeminiGenerator) callOnce(
	ctx context.Context,
	prompt string,
	reqConfig *genai.GenerateContentConfig,
) (string, error) {
	callCtx := ctx
	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(callCtx, g.config.ModelName, genai.Text(prompt), reqConfig)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func (g *GeminiGenerator) requestConfig(opts generation.Options) *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	maxTokens := g.config.MaxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxTokens,
	}
	if g.config.TopP > 0 {
		cfg.TopP = genai.Ptr(g.config.TopP)
	}
	return cfg
}

// responseText maps a reply to its text. A reply with no candidates or no
// parts yields an empty string; safety blocks are errors.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s",
			generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if resp.Candidates[0].Content == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text()), nil
}

// jitteredBackoff returns base * 2^attempt scaled by a random factor in [0.5, 1.0).
func jitteredBackoff(base time.Duration) func(int) time.Duration {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(attempt int) time.Duration {
		mu.Lock()
		jitter := 0.5 + rng.Float64()*0.5
		mu.Unlock()
		return time.Duration(float64(base) * math.Pow(2, float64(attempt)) * jitter)
	}
}
