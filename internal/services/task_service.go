// internal/services/task_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"immitrack/internal/models"
	"immitrack/internal/repositories"
)

var ErrInvalidTask = errors.New("invalid task")

// TaskService is the use-case layer between callers and the concrete repository.
type TaskService interface {
	AddTask(ctx context.Context, task models.NewTask) (*models.Task, error)
	GetTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
}

type taskService struct {
	repo repositories.TaskRepository
}

func NewTaskService(repo repositories.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) AddTask(ctx context.Context, task models.NewTask) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	task.Description = strings.TrimSpace(task.Description)
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	if err := ValidateNewTask(task); err != nil {
		return nil, err
	}
	return s.repo.AddTask(ctx, task)
}

func (s *taskService) GetTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.GetTasks(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *taskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdateTask(ctx, id, patch)
}

func ValidateNewTask(t models.NewTask) error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if t.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidTask)
	}
	if _, err := time.Parse(models.DateLayout, t.Deadline); err != nil {
		return fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrInvalidTask)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	if t.Cost < 0 {
		return fmt.Errorf("%w: cost must be non-negative", ErrInvalidTask)
	}
	return nil
}

func ValidatePatch(p models.TaskPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTask)
	}
	if p.Deadline != nil {
		if _, err := time.Parse(models.DateLayout, *p.Deadline); err != nil {
			return fmt.Errorf("%w: deadline must be YYYY-MM-DD", ErrInvalidTask)
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *p.Priority)
	}
	if p.Cost != nil && *p.Cost < 0 {
		return fmt.Errorf("%w: cost must be non-negative", ErrInvalidTask)
	}
	return nil
}
