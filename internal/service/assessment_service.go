package service

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/redact"
	"github.com/phrazzld/careerpath-api/internal/task"
)

const assessmentService = "assessment"

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit registers a task and queues it for processing
	Submit(ctx context.Context, task task.Task) error
}

// TaskReader reads task state from the registry.
type TaskReader interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (task.Record, error)
}

// ReportTaskFactory creates report generation tasks
type ReportTaskFactory interface {
	// CreateTask creates a task for one assessment submission
	CreateTask(answers *domain.AnswerSet, details domain.StudentDetails) (task.Task, error)
}

// Scorer computes trait scores.
type Scorer interface {
	CalculateScores(answers *domain.AnswerSet) domain.TraitScores
}

// ReportFiles opens finished reports by file name.
type ReportFiles interface {
	Open(filename string) (*os.File, os.FileInfo, error)
}

// AssessmentService provides the assessment use cases.
type AssessmentService interface {
	// SubmitAssessment starts background report generation and returns the task id
	// without waiting for it.
	SubmitAssessment(ctx context.Context, answers *domain.AnswerSet, details domain.StudentDetails) (uuid.UUID, error)

	// CalculateScores returns normalized trait scores synchronously.
	CalculateScores(ctx context.Context, answers *domain.AnswerSet) (domain.TraitScores, error)

	// GetTaskStatus returns the current state of a task.
	GetTaskStatus(ctx context.Context, taskID string) (task.Record, error)

	// OpenReport opens a finished report for download.
	OpenReport(ctx context.Context, filename string) (*os.File, os.FileInfo, error)
}

// assessmentServiceImpl implements AssessmentService
type assessmentServiceImpl struct {
	runner  TaskRunner
	tasks   TaskReader
	factory ReportTaskFactory
	scorer  Scorer
	reports ReportFiles
	logger  *slog.Logger
}

// AssessmentDeps lists the collaborators of the assessment service.
type AssessmentDeps struct {
	Runner  TaskRunner
	Tasks   TaskReader
	Factory ReportTaskFactory
	Scorer  Scorer
	Reports ReportFiles
}

// NewAssessmentService creates a new AssessmentService.
// It returns an error if any of the required dependencies are nil.
func NewAssessmentService(deps AssessmentDeps, logger *slog.Logger) (AssessmentService, error) {
	switch {
	case deps.Runner == nil:
		return nil, &ServiceError{Service: assessmentService, Op: "create_service", Err: errors.New("runner cannot be nil")}
	case deps.Tasks == nil:
		return nil, &ServiceError{Service: assessmentService, Op: "create_service", Err: errors.New("task reader cannot be nil")}
	case deps.Factory == nil:
		return nil, &ServiceError{Service: assessmentService, Op: "create_service", Err: errors.New("task factory cannot be nil")}
	case deps.Scorer == nil:
		return nil, &ServiceError{Service: assessmentService, Op: "create_service", Err: errors.New("scorer cannot be nil")}
	case deps.Reports == nil:
		return nil, &ServiceError{Service: assessmentService, Op: "create_service", Err: errors.New("report files cannot be nil")}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &assessmentServiceImpl{
		runner:  deps.Runner,
		tasks:   deps.Tasks,
		factory: deps.Factory,
		scorer:  deps.Scorer,
		reports: deps.Reports,
		logger:  logger.With("component", "assessment_service"),
	}, nil
}

func validateAnswers(answers *domain.AnswerSet) error {
	if answers == nil {
		return domain.ErrMissingAnswers
	}
	return nil
}

// SubmitAssessment creates a report generation task and hands it to the
// runner. A task that was registered but could not be queued has already
// been moved to the error state, so its id is still returned.
func (s *assessmentServiceImpl) SubmitAssessment(
	ctx context.Context,
	answers *domain.AnswerSet,
	details domain.StudentDetails,
) (uuid.UUID, error) {
	if err := validateAnswers(answers); err != nil {
		return uuid.Nil, err
	}

	t, err := s.factory.CreateTask(answers, details)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create report task", "error", redact.Error(err))
		return uuid.Nil, NewServiceError(assessmentService, "submit_assessment", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		if errors.Is(err, task.ErrQueueFull) || errors.Is(err, task.ErrRunnerStopped) {
			s.logger.WarnContext(ctx, "report task registered but not queued",
				"task_id", t.ID(),
				"error", err)
			return t.ID(), nil
		}
		s.logger.ErrorContext(ctx, "failed to submit report task",
			"task_id", t.ID(),
			"error", redact.Error(err))
		return uuid.Nil, NewServiceError(assessmentService, "submit_assessment", err)
	}

	s.logger.InfoContext(ctx, "report generation started",
		"task_id", t.ID(),
		"answer_count", answers.Len())
	return t.ID(), nil
}

// CalculateScores scores answers without creating a task.
func (s *assessmentServiceImpl) CalculateScores(
	ctx context.Context,
	answers *domain.AnswerSet,
) (domain.TraitScores, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	scores := s.scorer.CalculateScores(answers)
	s.logger.DebugContext(ctx, "calculated trait scores",
		"answer_count", answers.Len(),
		"trait_count", len(scores))
	return scores, nil
}

// GetTaskStatus looks up a task. Identifiers that are not valid UUIDs cannot
// name a task and are reported as not found.
func (s *assessmentServiceImpl) GetTaskStatus(ctx context.Context, taskID string) (task.Record, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return task.Record{}, task.ErrTaskNotFound
	}

	rec, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return task.Record{}, NewServiceError(assessmentService, "get_task_status", err)
	}
	return rec, nil
}

// OpenReport opens a report by its bare file name.
func (s *assessmentServiceImpl) OpenReport(ctx context.Context, filename string) (*os.File, os.FileInfo, error) {
	f, info, err := s.reports.Open(filename)
	if err != nil {
		s.logger.DebugContext(ctx, "report not served",
			"filename", redact.String(filename),
			"error", err)
		return nil, nil, NewServiceError(assessmentService, "open_report", err)
	}
	return f, info, nil
}
