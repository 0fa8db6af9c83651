package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/generation"
)

// Report generation errors. Their text is what a polling client sees.
var (
	ErrGoalExtraction = errors.New("failed to extract career goal")
	ErrNoSections     = errors.New("failed to generate report sections")
	ErrRenderFailed   = errors.New("failed to render report")
	ErrNilDependency  = errors.New("report generation dependency cannot be nil")
	ErrNilAnswers     = errors.New("answers cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
)

// Scorer computes trait scores from an answer set.
type Scorer interface {
	CalculateScores(answers *domain.AnswerSet) domain.TraitScores
}

// GoalExtractor infers a career goal label from answer values.
type GoalExtractor interface {
	ExtractCareerGoal(ctx context.Context, values []string) string
}

// TopicGenerator produces the per-topic report texts.
type TopicGenerator interface {
	GenerateTopicReports(ctx context.Context, assessment, careerGoal, studentName string) domain.TopicReports
}

// Assembler builds the ordered report document.
type Assembler interface {
	BuildReport(studentName, careerGoal string, reports domain.TopicReports) domain.ReportDocument
}

// Renderer writes a report document to a file.
type Renderer interface {
	Render(ctx context.Context, doc domain.ReportDocument, destPath string) (string, error)
	Extension() string
}

// ReportLocator decides where the report for a student is written.
type ReportLocator interface {
	Destination(studentName, ext string) (filename, path string, err error)
}

// ReportGenerationDeps bundles the collaborators of a report generation task.
type ReportGenerationDeps struct {
	Scorer               Scorer
	Goals                GoalExtractor
	Topics               TopicGenerator
	Assembler            Assembler
	Renderer             Renderer
	Locator              ReportLocator
	AchievementQuestions []string
	// DownloadPrefix is prepended to the report file name to form the
	// completion reference, e.g. "/api/download-report/".
	DownloadPrefix string
}

func (d ReportGenerationDeps) validate() error {
	switch {
	case d.Scorer == nil:
		return fmt.Errorf("%w: scorer", ErrNilDependency)
	case d.Goals == nil:
		return fmt.Errorf("%w: goal extractor", ErrNilDependency)
	case d.Topics == nil:
		return fmt.Errorf("%w: topic generator", ErrNilDependency)
	case d.Assembler == nil:
		return fmt.Errorf("%w: assembler", ErrNilDependency)
	case d.Renderer == nil:
		return fmt.Errorf("%w: renderer", ErrNilDependency)
	case d.Locator == nil:
		return fmt.Errorf("%w: report locator", ErrNilDependency)
	}
	return nil
}

// ReportGenerationTask turns one assessment submission into a rendered report.
type ReportGenerationTask struct {
	id      uuid.UUID
	answers *domain.AnswerSet
	details domain.StudentDetails
	deps    ReportGenerationDeps
	logger  *slog.Logger
}

// NewReportGenerationTask creates a task with a fresh identifier.
func NewReportGenerationTask(
	answers *domain.AnswerSet,
	details domain.StudentDetails,
	deps ReportGenerationDeps,
	logger *slog.Logger,
) (*ReportGenerationTask, error) {
	if answers == nil {
		return nil, ErrNilAnswers
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	return &ReportGenerationTask{
		id:      id,
		answers: answers,
		details: details,
		deps:    deps,
		logger:  logger.With("task_id", id, "task_type", TaskTypeReportGeneration),
	}, nil
}

// ID returns the task's unique identifier
func (t *ReportGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ReportGenerationTask) Type() string {
	return TaskTypeReportGeneration
}

// Execute runs scoring, goal extraction, topic generation, assembly and
// rendering in order. Any failure ends the task.
func (t *ReportGenerationTask) Execute(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Score the answers
	scores := t.deps.Scorer.CalculateScores(t.answers)
	student := domain.NewStudentInfo(t.details, t.answers, t.deps.AchievementQuestions)
	t.logger.InfoContext(ctx, "calculated trait scores", "trait_count", len(scores))

	// 2. Extract the career goal
	goal := strings.TrimSpace(t.deps.Goals.ExtractCareerGoal(ctx, t.answers.MeaningfulValues()))
	if goal == "" {
		t.logger.ErrorContext(ctx, "career goal extraction returned nothing")
		return Result{}, ErrGoalExtraction
	}
	t.logger.InfoContext(ctx, "extracted career goal", "career_goal", goal)

	// 3. Generate topic reports
	assessment, err := generation.BuildAssessmentContext(scores, student)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build assessment context: %w", err)
	}
	reports := t.deps.Topics.GenerateTopicReports(ctx, assessment, goal, student.Name)
	if len(reports) == 0 {
		t.logger.ErrorContext(ctx, "no report sections generated")
		return Result{}, ErrNoSections
	}
	t.logger.InfoContext(ctx, "generated report sections", "section_count", len(reports))

	// 4. Assemble and render
	doc := t.deps.Assembler.BuildReport(student.Name, goal, reports)

	filename, dest, err := t.deps.Locator.Destination(student.Name, t.deps.Renderer.Extension())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	written, err := t.deps.Renderer.Render(ctx, doc, dest)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if written != "" {
		filename = filepath.Base(written)
	}

	t.logger.InfoContext(ctx, "report rendered", "filename", filename)
	return Result{ReportURL: t.deps.DownloadPrefix + filename}, nil
}

// ReportGenerationTaskFactory creates ReportGenerationTask instances
type ReportGenerationTaskFactory struct {
	deps   ReportGenerationDeps
	logger *slog.Logger
}

// NewReportGenerationTaskFactory creates a new factory for ReportGenerationTasks
func NewReportGenerationTaskFactory(deps ReportGenerationDeps, logger *slog.Logger) (*ReportGenerationTaskFactory, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &ReportGenerationTaskFactory{
		deps:   deps,
		logger: logger,
	}, nil
}

// CreateTask creates a new ReportGenerationTask for the submission
func (f *ReportGenerationTaskFactory) CreateTask(answers *domain.AnswerSet, details domain.StudentDetails) (Task, error) {
	return NewReportGenerationTask(answers, details, f.deps, f.logger)
}
