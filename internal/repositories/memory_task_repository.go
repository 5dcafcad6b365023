package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"immitrack/internal/models"
)

// MemoryTaskRepository keeps tasks in process memory, in insertion order.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]models.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[string]models.Task)}
}

func (r *MemoryTaskRepository) AddTask(_ context.Context, in models.NewTask) (*models.Task, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := in.Task(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[id]; exists {
		return nil, fmt.Errorf("add task %s: %w", id, ErrDuplicateID)
	}
	r.order = append(r.order, id)
	r.tasks[id] = t
	out := t.Clone()
	return &out, nil
}

func (r *MemoryTaskRepository) GetTasks(_ context.Context) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].Clone())
	}
	return out, nil
}

func (r *MemoryTaskRepository) UpdateTask(_ context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = t.Clone()
	patch.Apply(&t)
	r.tasks[id] = t
	out := t.Clone()
	return &out, nil
}

func (r *MemoryTaskRepository) BulkInsert(_ context.Context, tasks []models.Task) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, t := range tasks {
		if _, exists := r.tasks[t.ID]; exists {
			continue
		}
		if t.Subtasks == nil {
			t.Subtasks = []models.Subtask{}
		}
		if t.Priority == "" {
			t.Priority = models.PriorityNormal
		}
		r.order = append(r.order, t.ID)
		r.tasks[t.ID] = t.Clone()
		inserted++
	}
	return inserted, nil
}
