package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/careerpath-api/internal/domain"
)

// Store errors
var (
	ErrTaskNotFound      = fmt.Errorf("task %w", domain.ErrNotFound)
	ErrDuplicateTask     = errors.New("task already registered")
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrStoreClosed       = errors.New("task store is closed")
)

// MemoryTaskStore keeps task records in a mutex-guarded map. Every write
// replaces the whole record for one task.
type MemoryTaskStore struct {
	mu     sync.RWMutex
	tasks  map[uuid.UUID]Record
	closed bool
	now    func() time.Time
}

var _ TaskStore = (*MemoryTaskStore)(nil)

// NewMemoryTaskStore creates an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[uuid.UUID]Record),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SaveTask registers task in the processing state.
func (s *MemoryTaskStore) SaveTask(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.tasks[task.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID())
	}

	now := s.now()
	s.tasks[task.ID()] = Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Status:    TaskStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// UpdateTaskStatus moves a processing task to completed or error.
func (s *MemoryTaskStore) UpdateTaskStatus(
	_ context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	result Result,
	errorMsg string,
) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	current, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if current.Status != TaskStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	next := Record{
		ID:        current.ID,
		Type:      current.Type,
		Status:    status,
		CreatedAt: current.CreatedAt,
		UpdatedAt: s.now(),
	}
	if status == TaskStatusCompleted {
		next.ReportURL = result.ReportURL
	} else {
		next.Error = errorMsg
	}
	s.tasks[taskID] = next
	return nil
}

// GetTask returns a copy of the task's record.
func (s *MemoryTaskStore) GetTask(_ context.Context, taskID uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return Record{}, ErrTaskNotFound
	}
	return rec, nil
}

// Len returns the number of registered tasks.
func (s *MemoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Close drops all records. Later calls fail with ErrStoreClosed.
func (s *MemoryTaskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tasks = make(map[uuid.UUID]Record)
	return nil
}
