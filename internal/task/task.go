package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values. A task starts in processing and moves to
// exactly one terminal state.
const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Task type constants
const (
	// TaskTypeReportGeneration represents the task type for producing a career report
	TaskTypeReportGeneration = "report_generation"
)

// Result is what a successfully executed task hands back to the runner.
type Result struct {
	// ReportURL references the produced report file.
	ReportURL string
}

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) (Result, error)
}

// Record is the registry entry for a task.
type Record struct {
	ID        uuid.UUID
	Type      string
	Status    TaskStatus
	ReportURL string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskStore defines the interface for tracking task state
type TaskStore interface {
	// SaveTask registers a task in the processing state
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus moves a processing task to a terminal state
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, result Result, errorMsg string) error

	// GetTask returns a snapshot of a task's state
	GetTask(ctx context.Context, taskID uuid.UUID) (Record, error)
}
