package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

const goalPromptFormat = "Identify primary career goal from these answers: %s\n" +
	"Focus on: direct mentions, implied interests, strongest professional direction.\n" +
	"Respond ONLY with the career goal name."

// GoalExtractor derives a short career goal label from raw answers.
type GoalExtractor struct {
	generator ContentGenerator
	logger    *slog.Logger
	maxTokens int32
}

// NewGoalExtractor creates a GoalExtractor. maxTokens bounds the label request.
func NewGoalExtractor(generator ContentGenerator, logger *slog.Logger, maxTokens int32) (*GoalExtractor, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &GoalExtractor{
		generator: generator,
		logger:    logger.With("component", "goal_extractor"),
		maxTokens: maxTokens,
	}, nil
}

// GoalPrompt builds the label request for the given answer values.
func GoalPrompt(values []string) string {
	return fmt.Sprintf(goalPromptFormat, strings.Join(values, " "))
}

// ExtractCareerGoal returns the career goal implied by values. It never
// fails: no input, a generator error, an empty reply or a panic in the
// generator all yield domain.DefaultCareerGoal.
func (e *GoalExtractor) ExtractCareerGoal(ctx context.Context, values []string) (goal string) {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return domain.DefaultCareerGoal
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "career goal extraction panicked", "panic", fmt.Sprint(r))
			goal = domain.DefaultCareerGoal
		}
	}()

	result, err := e.generator.Generate(ctx, GoalPrompt(nonEmpty), Options{MaxOutputTokens: e.maxTokens})
	if err != nil {
		e.logger.ErrorContext(ctx, "career goal extraction failed", "error", err)
		return domain.DefaultCareerGoal
	}

	result = strings.TrimSpace(result)
	if result == "" {
		e.logger.WarnContext(ctx, "career goal extraction returned no content")
		return domain.DefaultCareerGoal
	}
	return result
}
