package generation

import "context"

// Options tunes a single generation request. Zero values select the
// generator's configured defaults.
type Options struct {
	MaxOutputTokens int32
	Temperature     float32
}

// ContentGenerator defines the boundary to the external text generation
// service. Implementations apply their own retry policy and request timeout;
// callers treat any returned error as a single failure kind.
type ContentGenerator interface {
	// Generate returns the text produced for prompt. An empty string with a
	// nil error means the service answered with no content.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to the ContentGenerator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Generate implements ContentGenerator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
