package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"immitrack/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrSubtaskIndex = errors.New("subtask index out of range")
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersist marks a store failure after the in-memory change was applied.
	ErrPersist = errors.New("persist failed")
)

// Publisher receives every change applied to the state.
type Publisher interface {
	Publish(ev models.TaskEvent)
}

type StateOptions struct {
	FundsTaskID string
	// ReconcileOnFailure re-fetches the whole list after a failed write.
	ReconcileOnFailure bool
}

// TaskState owns the in-memory task list. Its methods are the only write
// paths; reads hand out copies.
type TaskState struct {
	mu    sync.RWMutex
	tasks []models.Task

	svc       TaskService
	notifier  Notifier
	publisher Publisher
	opts      StateOptions

	notices sync.WaitGroup // completion notices in flight
}

func NewTaskState(svc TaskService, notifier Notifier, publisher Publisher, opts StateOptions) *TaskState {
	if opts.FundsTaskID == "" {
		opts.FundsTaskID = DefaultFundsTaskID
	}
	return &TaskState{
		tasks:     []models.Task{},
		svc:       svc,
		notifier:  notifier,
		publisher: publisher,
		opts:      opts,
	}
}

// Load replaces the list with the store contents. On failure the current list is kept.
func (s *TaskState) Load(ctx context.Context) error {
	tasks, err := s.svc.GetTasks(ctx)
	if err != nil {
		log.Printf("[state][load][err] %v", err)
		return err
	}
	s.mu.Lock()
	prev := s.expandedByID()
	for i := range tasks {
		if v, ok := prev[tasks[i].ID]; ok {
			tasks[i].Expanded = v
		}
	}
	s.tasks = tasks
	s.mu.Unlock()

	log.Printf("[state][load][ok] count=%d", len(tasks))
	s.publish(models.TaskEvent{Type: models.EventReloaded})
	return nil
}

// expandedByID keeps the local panel state across reloads. Caller holds mu.
func (s *TaskState) expandedByID() map[string]bool {
	m := make(map[string]bool, len(s.tasks))
	for _, t := range s.tasks {
		m[t.ID] = t.Expanded
	}
	return m
}

func (s *TaskState) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tasks)
}

func (s *TaskState) Find(id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	t := s.tasks[i].Clone()
	return &t, nil
}

func (s *TaskState) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.tasks, s.opts.FundsTaskID)
}

func (s *TaskState) FundsTaskID() string {
	return s.opts.FundsTaskID
}

// Filtered is the list view: search + status filter, optionally sorted by deadline.
func (s *TaskState) Filtered(query string, status models.FilterStatus, order models.SortOrder) []models.Task {
	out := FilterTasks(s.Tasks(), query, status)
	if order != "" {
		out = SortByDeadline(out, order)
	}
	return out
}

func (s *TaskState) Board(query string, status models.FilterStatus) models.Board {
	return GroupKanban(FilterTasks(s.Tasks(), query, status))
}

// AddTask persists first because the store assigns the identifier.
func (s *TaskState) AddTask(ctx context.Context, in models.NewTask) (*models.Task, error) {
	created, err := s.svc.AddTask(ctx, in)
	if err != nil {
		log.Printf("[state][add][err] title=%q: %v", in.Title, err)
		return nil, err
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, created.Clone())
	s.mu.Unlock()

	log.Printf("[state][add][ok] id=%s", created.ID)
	s.publish(models.TaskEvent{Type: models.EventTaskAdded, Task: created})
	return created, nil
}

// EditTask writes the patch and then adopts the stored record.
func (s *TaskState) EditTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	before, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		log.Printf("[state][edit][err] id=%s: %v", id, err)
		if errors.Is(err, ErrInvalidTask) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if patch.Expanded == nil {
		updated.Expanded = before.Expanded
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.tasks[i] = updated.Clone()
	}
	s.mu.Unlock()

	log.Printf("[state][edit][ok] id=%s", id)
	s.publish(models.TaskEvent{Type: models.EventTaskUpdated, Task: updated})
	s.afterChange(ctx, *before, *updated)
	return updated, nil
}

func (s *TaskState) ToggleOwner(ctx context.Context, id string, person models.Person) (*models.Task, error) {
	if !person.Valid() {
		return nil, fmt.Errorf("%w: unknown person %q", ErrInvalidInput, person)
	}
	return s.mutate(ctx, id, "toggle-owner", func(t models.Task) (models.TaskPatch, error) {
		return ownerPatch(t, person), nil
	})
}

func (s *TaskState) ToggleSubtask(ctx context.Context, id string, index int) (*models.Task, error) {
	return s.mutate(ctx, id, "toggle-subtask", func(t models.Task) (models.TaskPatch, error) {
		return subtaskPatch(t, index)
	})
}

// ToggleExpanded flips the checklist panel. Display state only, never persisted.
func (s *TaskState) ToggleExpanded(id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	s.tasks[i].Expanded = !s.tasks[i].Expanded
	t := s.tasks[i].Clone()
	return &t, nil
}

func (s *TaskState) Drop(ctx context.Context, id string, to models.Column) (*models.Task, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidInput, to)
	}
	return s.mutate(ctx, id, "drop", func(t models.Task) (models.TaskPatch, error) {
		return dropPatch(t, to), nil
	})
}

// mutate applies the patch in memory first, then persists it. A failed write
// is not rolled back.
func (s *TaskState) mutate(ctx context.Context, id, tag string, build func(models.Task) (models.TaskPatch, error)) (*models.Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrTaskNotFound
	}
	before := s.tasks[i].Clone()
	patch, err := build(before)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	after := before.Clone()
	patch.Apply(&after)
	s.tasks[i] = after.Clone()
	s.mu.Unlock()

	if patch.Empty() {
		return &after, nil
	}
	s.publish(models.TaskEvent{Type: models.EventTaskUpdated, Task: &after})

	if _, err := s.svc.UpdateTask(ctx, id, patch); err != nil {
		log.Printf("[state][%s][err] id=%s: %v", tag, id, err)
		if s.opts.ReconcileOnFailure {
			if rerr := s.Load(ctx); rerr != nil {
				log.Printf("[state][%s][reconcile][err] %v", tag, rerr)
			}
		}
		return &after, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.Printf("[state][%s][ok] id=%s", tag, id)
	s.afterChange(ctx, before, after)
	return &after, nil
}

// afterChange sends the completion notice in the background: a slow SMTP or
// Telegram endpoint must not hold the caller, and the request context may end first.
func (s *TaskState) afterChange(ctx context.Context, before, after models.Task) {
	if before.Complete() || !after.Complete() || s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.notices.Add(1)
	go func() {
		defer s.notices.Done()
		if err := s.notifier.TaskCompleted(ctx, after); err != nil {
			log.Printf("[state][notify][err] id=%s: %v", after.ID, err)
		}
	}()
}

// Wait blocks until every pending completion notice has been sent or failed.
func (s *TaskState) Wait() {
	s.notices.Wait()
}

func (s *TaskState) publish(ev models.TaskEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

// indexOf scans the list; caller holds mu.
func (s *TaskState) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
