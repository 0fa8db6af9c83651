package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// Placeholders recorded in place of generated text.
const (
	InvalidTemplatePlaceholder = "Invalid prompt template"
	failurePlaceholderPrefix   = "Report generation failed: "
)

// Topic outcomes reported to a TopicObserver.
const (
	TopicOutcomeSuccess         = "success"
	TopicOutcomeEmpty           = "empty"
	TopicOutcomeError           = "error"
	TopicOutcomeInvalidTemplate = "invalid_template"
)

// FailurePlaceholder is the text recorded for a topic whose generation failed.
func FailurePlaceholder(err error) string {
	return failurePlaceholderPrefix + err.Error()
}

// IsFailurePlaceholder reports whether content is a placeholder rather than
// generated text.
func IsFailurePlaceholder(content string) bool {
	return content == InvalidTemplatePlaceholder || strings.HasPrefix(content, failurePlaceholderPrefix)
}

// TopicObserver is notified after every topic attempt.
type TopicObserver interface {
	ObserveTopic(topic, outcome string, elapsed time.Duration)
}

// TopicGeneratorConfig tunes a TopicReportGenerator.
type TopicGeneratorConfig struct {
	// Delay is the fixed pause after each topic attempt.
	Delay time.Duration
	// Options are passed to every topic request.
	Options Options
}

// TopicReportGenerator expands the topic catalog into prompts and generates
// each topic independently.
type TopicReportGenerator struct {
	generator ContentGenerator
	catalog   *TopicCatalog
	config    TopicGeneratorConfig
	logger    *slog.Logger
	observer  TopicObserver
}

// NewTopicReportGenerator creates a TopicReportGenerator. observer may be nil.
func NewTopicReportGenerator(
	generator ContentGenerator,
	catalog *TopicCatalog,
	config TopicGeneratorConfig,
	logger *slog.Logger,
	observer TopicObserver,
) (*TopicReportGenerator, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", ErrInvalidConfig)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: topic catalog cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	if config.Delay < 0 {
		return nil, fmt.Errorf("%w: delay cannot be negative", ErrInvalidConfig)
	}

	return &TopicReportGenerator{
		generator: generator,
		catalog:   catalog,
		config:    config,
		logger:    logger.With("component", "topic_generator"),
		observer:  observer,
	}, nil
}

// GenerateTopicReports returns exactly one entry per catalog topic, in catalog
// order. Individual topic failures are recorded as placeholders. If any
// argument is blank nothing is generated and the result is empty.
func (g *TopicReportGenerator) GenerateTopicReports(
	ctx context.Context,
	assessmentContext, careerGoal, studentName string,
) domain.TopicReports {
	data := PromptData{
		StudentName: strings.TrimSpace(studentName),
		CareerGoal:  strings.TrimSpace(careerGoal),
		Context:     strings.TrimSpace(assessmentContext),
	}
	if data.Context == "" || data.CareerGoal == "" || data.StudentName == "" {
		g.logger.ErrorContext(ctx, "missing required parameters for report generation",
			"has_context", data.Context != "",
			"has_career_goal", data.CareerGoal != "",
			"has_student_name", data.StudentName != "")
		return domain.TopicReports{}
	}

	topics := g.catalog.Topics()
	reports := make(domain.TopicReports, 0, len(topics))

	for i, topic := range topics {
		logger := g.logger.With("topic", topic, "position", i+1, "total", len(topics))
		start := time.Now()

		prompt, err := g.catalog.Render(topic, data)
		if err != nil {
			logger.WarnContext(ctx, "no usable prompt template for topic", "error", err)
			reports = append(reports, domain.TopicReport{Topic: topic, Content: InvalidTemplatePlaceholder})
			g.observe(topic, TopicOutcomeInvalidTemplate, start)
			continue
		}

		content, outcome := g.generateTopic(ctx, logger, topic, prompt)
		reports = append(reports, domain.TopicReport{Topic: topic, Content: content})
		g.observe(topic, outcome, start)

		g.pause(ctx)
	}

	return reports
}

func (g *TopicReportGenerator) generateTopic(
	ctx context.Context,
	logger *slog.Logger,
	topic, prompt string,
) (content, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "topic generation panicked", "panic", fmt.Sprint(r))
			content = FailurePlaceholder(fmt.Errorf("panic: %v", r))
			outcome = TopicOutcomeError
		}
	}()

	logger.DebugContext(ctx, "generating topic", "prompt_length", len(prompt))

	text, err := g.generator.Generate(ctx, prompt, g.config.Options)
	if err != nil {
		logger.ErrorContext(ctx, "error generating report for topic", "error", err)
		return FailurePlaceholder(err), TopicOutcomeError
	}
	if strings.TrimSpace(text) == "" {
		logger.WarnContext(ctx, "no content generated for topic")
		return FailurePlaceholder(fmt.Errorf("No content generated for %s", topic)), TopicOutcomeEmpty
	}

	logger.InfoContext(ctx, "topic generated", "content_length", len(text))
	return text, TopicOutcomeSuccess
}

// pause waits out the inter-call delay, returning early if ctx ends.
func (g *TopicReportGenerator) pause(ctx context.Context) {
	if g.config.Delay <= 0 {
		return
	}
	timer := time.NewTimer(g.config.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (g *TopicReportGenerator) observe(topic, outcome string, start time.Time) {
	if g.observer != nil {
		g.observer.ObserveTopic(topic, outcome, time.Since(start))
	}
}
