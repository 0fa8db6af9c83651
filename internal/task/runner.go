package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/phrazzld/careerpath-api/internal/redact"
)

// Runner errors
var (
	ErrQueueFull       = errors.New("task queue is full")
	ErrRunnerStopped   = errors.New("task runner is shutting down")
	ErrAlreadyStarted  = errors.New("task runner already started")
	ErrInvalidPoolSize = errors.New("worker count must be positive")
)

// Observer receives task lifecycle notifications.
type Observer interface {
	TaskSubmitted(taskType string)
	TaskFinished(taskType string, status TaskStatus, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) TaskSubmitted(string) {}
func (noopObserver) TaskFinished(string, TaskStatus, time.Duration) {}

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 4,
		QueueSize:   100,
	}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	observer   Observer

	// mu guards started/stopped and serializes sends against close(taskChan).
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "task_runner"),
		observer:   noopObserver{},
	}
}

// SetObserver installs an observer for task lifecycle events.
func (r *TaskRunner) SetObserver(observer Observer) {
	if observer == nil {
		observer = noopObserver{}
	}
	r.observer = observer
}

// Submit registers the task as processing and queues it. When the task is
// registered but cannot be queued it is moved to the error state and the
// returned error says why.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	r.observer.TaskSubmitted(task.Type())

	r.mu.RLock()
	if r.stopped {
		r.mu.RUnlock()
		r.fail(ctx, task, ErrRunnerStopped.Error(), 0)
		return ErrRunnerStopped
	}
	select {
	case r.taskChan <- task:
		r.mu.RUnlock()
		return nil
	default:
		r.mu.RUnlock()
		r.logger.WarnContext(ctx, "task queue is full",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_size", r.config.QueueSize)
		r.fail(ctx, task, ErrQueueFull.Error(), 0)
		return ErrQueueFull
	}
}

// Start launches the worker goroutines.
func (r *TaskRunner) Start() error {
	if r.config.WorkerCount < 1 {
		return ErrInvalidPoolSize
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
	return nil
}

// Stop cancels running tasks, fails queued ones and waits for the workers to
// exit. Calling Stop more than once is safe.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.cancelFunc()
	close(r.taskChan)
	r.mu.Unlock()

	if !started {
		// No workers to drain the queue.
		for task := range r.taskChan {
			r.fail(context.Background(), task, ErrRunnerStopped.Error(), 0)
		}
	}
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// QueueDepth returns the number of tasks waiting for a worker.
func (r *TaskRunner) QueueDepth() int {
	return len(r.taskChan)
}

// worker processes tasks from the queue until it is closed
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for task := range r.taskChan {
		if r.ctx.Err() != nil {
			r.fail(context.Background(), task, ErrRunnerStopped.Error(), 0)
			continue
		}
		r.processTask(task, id)
	}

	r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
}

// processTask executes a single task and records its terminal state.
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)
	ctx := r.ctx
	start := time.Now()

	logger.Info("processing task")

	result, err := r.execute(ctx, task)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("task execution failed",
			"error", redact.Error(err),
			"duration_ms", elapsed.Milliseconds())
		r.fail(context.Background(), task, redact.Error(err), elapsed)
		return
	}

	if updateErr := r.store.UpdateTaskStatus(
		context.Background(), task.ID(), TaskStatusCompleted, result, "",
	); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
		return
	}
	r.observer.TaskFinished(task.Type(), TaskStatusCompleted, elapsed)
	logger.Info("task completed successfully",
		"report_url", result.ReportURL,
		"duration_ms", elapsed.Milliseconds())
}

// execute runs task.Execute, converting a panic into an error.
func (r *TaskRunner) execute(ctx context.Context, task Task) (result Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task panicked",
				"task_id", task.ID(),
				"panic", rec,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return task.Execute(ctx)
}

func (r *TaskRunner) fail(ctx context.Context, task Task, msg string, elapsed time.Duration) {
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusError, Result{}, msg); err != nil {
		r.logger.Error("failed to update task status to error",
			"task_id", task.ID(),
			"error", err)
		return
	}
	r.observer.TaskFinished(task.Type(), TaskStatusError, elapsed)
}
