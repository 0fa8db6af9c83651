package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/careerpath-api/internal/generation"
)

// MockContentGenerator implements generation.ContentGenerator for testing
type MockContentGenerator struct {
	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, prompt string, opts generation.Options) (string, error)

	// Default response values
	Text string
	Err  error

	// Call tracking for verification
	mu      sync.Mutex
	prompts []string
	options []generation.Options
}

// Generate implements the generation.ContentGenerator interface
func (m *MockContentGenerator) Generate(ctx context.Context, prompt string, opts generation.Options) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt, opts)
	}
	return m.Text, m.Err
}

// CallCount returns how many times Generate was called
func (m *MockContentGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt passed to Generate, in call order
func (m *MockContentGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Options returns the options of every call, in call order
func (m *MockContentGenerator) Options() []generation.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generation.Options, len(m.options))
	copy(out, m.options)
	return out
}

// Reset resets the call tracking state
func (m *MockContentGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.options = nil
}

// NewMockContentGeneratorWithText creates a generator that always returns text
func NewMockContentGeneratorWithText(text string) *MockContentGenerator {
	return &MockContentGenerator{Text: text}
}

// NewMockContentGeneratorWithError creates a generator that always fails with err
func NewMockContentGeneratorWithError(err error) *MockContentGenerator {
	return &MockContentGenerator{Err: err}
}

// MockGeneratorThatFails creates a generator that simulates a generation failure
func MockGeneratorThatFails() *MockContentGenerator {
	return &MockContentGenerator{Err: generation.ErrGenerationFailed}
}
