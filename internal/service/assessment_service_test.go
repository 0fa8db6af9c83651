package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/storage"
	"github.com/phrazzld/careerpath-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	SubmitFn func(ctx context.Context, t task.Task) error
	calls    int
}

func (m *mockRunner) Submit(ctx context.Context, t task.Task) error {
	m.calls++
	return m.SubmitFn(ctx, t)
}

type mockTaskReader struct {
	GetTaskFn func(ctx context.Context, id uuid.UUID) (task.Record, error)
}

func (m *mockTaskReader) GetTask(ctx context.Context, id uuid.UUID) (task.Record, error) {
	return m.GetTaskFn(ctx, id)
}

type mockFactory struct {
	CreateTaskFn func(answers *domain.AnswerSet, details domain.StudentDetails) (task.Task, error)
}

func (m *mockFactory) CreateTask(answers *domain.AnswerSet, details domain.StudentDetails) (task.Task, error) {
	return m.CreateTaskFn(answers, details)
}

type mockScorer struct {
	CalculateScoresFn func(answers *domain.AnswerSet) domain.TraitScores
}

func (m *mockScorer) CalculateScores(answers *domain.AnswerSet) domain.TraitScores {
	return m.CalculateScoresFn(answers)
}

type mockReports struct {
	OpenFn func(filename string) (*os.File, os.FileInfo, error)
}

func (m *mockReports) Open(filename string) (*os.File, os.FileInfo, error) {
	return m.OpenFn(filename)
}

type fixture struct {
	runner  *mockRunner
	tasks   *mockTaskReader
	factory *mockFactory
	scorer  *mockScorer
	reports *mockReports
	created *task.MockTask
}

func newFixture() *fixture {
	created := task.NewMockTask(task.TaskTypeReportGeneration)
	return &fixture{
		runner: &mockRunner{SubmitFn: func(context.Context, task.Task) error { return nil }},
		tasks: &mockTaskReader{GetTaskFn: func(context.Context, uuid.UUID) (task.Record, error) {
			return task.Record{}, task.ErrTaskNotFound
		}},
		factory: &mockFactory{CreateTaskFn: func(*domain.AnswerSet, domain.StudentDetails) (task.Task, error) {
			return created, nil
		}},
		scorer: &mockScorer{CalculateScoresFn: func(*domain.AnswerSet) domain.TraitScores {
			return domain.TraitScores{"Leadership": 50}
		}},
		reports: &mockReports{OpenFn: func(string) (*os.File, os.FileInfo, error) {
			return nil, nil, storage.ErrReportNotFound
		}},
		created: created,
	}
}

func (f *fixture) service(t *testing.T) AssessmentService {
	t.Helper()
	svc, err := NewAssessmentService(AssessmentDeps{
		Runner:  f.runner,
		Tasks:   f.tasks,
		Factory: f.factory,
		Scorer:  f.scorer,
		Reports: f.reports,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc
}

func sampleAnswers() *domain.AnswerSet {
	answers := domain.NewAnswerSet()
	answers.Set("question1", domain.Single("A"))
	return answers
}

func TestNewAssessmentService_RequiresDependencies(t *testing.T) {
	f := newFixture()
	deps := AssessmentDeps{Runner: f.runner, Tasks: f.tasks, Factory: f.factory, Scorer: f.scorer}

	_, err := NewAssessmentService(deps, nil)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_service", serviceErr.Op)
}

func TestSubmitAssessment(t *testing.T) {
	t.Run("returns task id", func(t *testing.T) {
		f := newFixture()
		var submitted task.Task
		f.runner.SubmitFn = func(_ context.Context, tk task.Task) error {
			submitted = tk
			return nil
		}

		id, err := f.service(t).SubmitAssessment(context.Background(), sampleAnswers(), domain.StudentDetails{})
		require.NoError(t, err)
		assert.Equal(t, f.created.ID(), id)
		assert.Equal(t, f.created, submitted)
	})

	t.Run("missing answers", func(t *testing.T) {
		f := newFixture()
		svc := f.service(t)

		_, err := svc.SubmitAssessment(context.Background(), nil, domain.StudentDetails{})
		assert.ErrorIs(t, err, domain.ErrMissingAnswers)
		assert.Equal(t, 0, f.runner.calls, "no task for invalid submissions")
	})

	t.Run("empty answer set is accepted", func(t *testing.T) {
		f := newFixture()

		id, err := f.service(t).SubmitAssessment(context.Background(), domain.NewAnswerSet(), domain.StudentDetails{})
		require.NoError(t, err)
		assert.Equal(t, f.created.ID(), id)
		assert.Equal(t, 1, f.runner.calls)
	})

	t.Run("queue full still returns id", func(t *testing.T) {
		f := newFixture()
		f.runner.SubmitFn = func(context.Context, task.Task) error { return task.ErrQueueFull }

		id, err := f.service(t).SubmitAssessment(context.Background(), sampleAnswers(), domain.StudentDetails{})
		require.NoError(t, err)
		assert.Equal(t, f.created.ID(), id)
	})

	t.Run("registry failure", func(t *testing.T) {
		f := newFixture()
		f.runner.SubmitFn = func(context.Context, task.Task) error { return task.ErrStoreClosed }

		id, err := f.service(t).SubmitAssessment(context.Background(), sampleAnswers(), domain.StudentDetails{})
		assert.Equal(t, uuid.Nil, id)
		var serviceErr *ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, "submit_assessment", serviceErr.Op)
		assert.ErrorIs(t, err, task.ErrStoreClosed)
	})

	t.Run("factory failure", func(t *testing.T) {
		f := newFixture()
		f.factory.CreateTaskFn = func(*domain.AnswerSet, domain.StudentDetails) (task.Task, error) {
			return nil, errors.New("boom")
		}

		_, err := f.service(t).SubmitAssessment(context.Background(), sampleAnswers(), domain.StudentDetails{})
		var serviceErr *ServiceError
		assert.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, 0, f.runner.calls)
	})
}

func TestCalculateScores(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	scores, err := svc.CalculateScores(context.Background(), sampleAnswers())
	require.NoError(t, err)
	assert.Equal(t, domain.TraitScores{"Leadership": 50}, scores)

	_, err = svc.CalculateScores(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrMissingAnswers)

	scores, err = svc.CalculateScores(context.Background(), domain.NewAnswerSet())
	require.NoError(t, err)
	assert.NotNil(t, scores)
}

func TestGetTaskStatus(t *testing.T) {
	f := newFixture()
	known := uuid.New()
	f.tasks.GetTaskFn = func(_ context.Context, id uuid.UUID) (task.Record, error) {
		if id == known {
			return task.Record{ID: id, Status: task.TaskStatusProcessing}, nil
		}
		return task.Record{}, task.ErrTaskNotFound
	}
	svc := f.service(t)

	rec, err := svc.GetTaskStatus(context.Background(), known.String())
	require.NoError(t, err)
	assert.Equal(t, task.TaskStatusProcessing, rec.Status)

	_, err = svc.GetTaskStatus(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetTaskStatus(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestOpenReport(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewReportStore(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Ana_Career_Report.pdf"), []byte("%PDF"), 0o600))

	f := newFixture()
	f.reports.OpenFn = store.Open
	svc := f.service(t)

	file, info, err := svc.OpenReport(context.Background(), "Ana_Career_Report.pdf")
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, int64(4), info.Size())

	_, _, err = svc.OpenReport(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)

	_, _, err = svc.OpenReport(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidFilename)
}
