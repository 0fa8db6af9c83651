package task

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTaskStore_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()

	task := NewMockTask(TaskTypeReportGeneration)
	require.NoError(t, store.SaveTask(ctx, task))

	rec, err := store.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusProcessing, rec.Status)
	assert.Equal(t, TaskTypeReportGeneration, rec.Type)
	assert.Empty(t, rec.ReportURL)
	assert.Empty(t, rec.Error)

	err = store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted,
		Result{ReportURL: "/api/download-report/Ana_Career_Report.pdf"}, "ignored")
	require.NoError(t, err)

	rec, err = store.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, rec.Status)
	assert.Equal(t, "/api/download-report/Ana_Career_Report.pdf", rec.ReportURL)
	assert.Empty(t, rec.Error, "completed tasks carry no error text")
	assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))
}

func TestMemoryTaskStore_ErrorState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()

	task := NewMockTask(TaskTypeReportGeneration)
	require.NoError(t, store.SaveTask(ctx, task))
	require.NoError(t, store.UpdateTaskStatus(ctx, task.ID(), TaskStatusError,
		Result{ReportURL: "/ignored"}, "failed to extract career goal"))

	rec, err := store.GetTask(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusError, rec.Status)
	assert.Equal(t, "failed to extract career goal", rec.Error)
	assert.Empty(t, rec.ReportURL)
}

func TestMemoryTaskStore_InvalidTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		first TaskStatus
		next  TaskStatus
	}{
		{name: "completed to error", first: TaskStatusCompleted, next: TaskStatusError},
		{name: "error to completed", first: TaskStatusError, next: TaskStatusCompleted},
		{name: "completed to completed", first: TaskStatusCompleted, next: TaskStatusCompleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := NewMemoryTaskStore()
			task := NewMockTask(TaskTypeReportGeneration)
			require.NoError(t, store.SaveTask(ctx, task))
			require.NoError(t, store.UpdateTaskStatus(ctx, task.ID(), tc.first, Result{}, "x"))

			err := store.UpdateTaskStatus(ctx, task.ID(), tc.next, Result{}, "y")
			assert.ErrorIs(t, err, ErrInvalidTransition)

			rec, err := store.GetTask(ctx, task.ID())
			require.NoError(t, err)
			assert.Equal(t, tc.first, rec.Status, "terminal state must not change")
		})
	}

	t.Run("back to processing", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryTaskStore()
		task := NewMockTask(TaskTypeReportGeneration)
		require.NoError(t, store.SaveTask(ctx, task))

		err := store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, Result{}, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestMemoryTaskStore_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()

	_, err := store.GetTask(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.UpdateTaskStatus(ctx, uuid.New(), TaskStatusCompleted, Result{}, "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryTaskStore_DuplicateAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()

	task := NewMockTask(TaskTypeReportGeneration)
	require.NoError(t, store.SaveTask(ctx, task))
	assert.ErrorIs(t, store.SaveTask(ctx, task), ErrDuplicateTask)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Close())
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, store.SaveTask(ctx, NewMockTask("x")), ErrStoreClosed)
	_, err := store.GetTask(ctx, task.ID())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryTaskStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryTaskStore()

	const n = 50
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		task := NewMockTask(TaskTypeReportGeneration)
		ids[i] = task.ID()
		wg.Add(1)
		go func(i int, task *MockTask) {
			defer wg.Done()
			if err := store.SaveTask(ctx, task); err != nil {
				t.Errorf("save %d: %v", i, err)
				return
			}
			_, _ = store.GetTask(ctx, task.ID())
			status := TaskStatusCompleted
			if i%2 == 0 {
				status = TaskStatusError
			}
			if err := store.UpdateTaskStatus(ctx, task.ID(), status, Result{ReportURL: fmt.Sprint(i)}, "e"); err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i, task)
	}
	wg.Wait()

	assert.Equal(t, n, store.Len())
	for i, id := range ids {
		rec, err := store.GetTask(ctx, id)
		require.NoError(t, err)
		assert.True(t, rec.Status.IsTerminal(), "task %d left in %s", i, rec.Status)
	}
}
