package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"immitrack/internal/models"
	"immitrack/internal/repositories"
)

// flakyRepo wraps the memory repository and lets a test fail writes.
type flakyRepo struct {
	*repositories.MemoryTaskRepository
	UpdateFunc func(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	GetFunc    func(ctx context.Context) ([]models.Task, error)
	updates    int
}

func (r *flakyRepo) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	r.updates++
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, id, patch)
	}
	return r.MemoryTaskRepository.UpdateTask(ctx, id, patch)
}

func (r *flakyRepo) GetTasks(ctx context.Context) ([]models.Task, error) {
	if r.GetFunc != nil {
		return r.GetFunc(ctx)
	}
	return r.MemoryTaskRepository.GetTasks(ctx)
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
}

func (n *recordingNotifier) TaskCompleted(_ context.Context, t models.Task) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, t.ID)
	return nil
}

func (n *recordingNotifier) Digest(context.Context, Digest) error { return nil }

type recordingPublisher struct {
	events []models.TaskEvent
}

func (p *recordingPublisher) Publish(ev models.TaskEvent) { p.events = append(p.events, ev) }

func newTestState(t *testing.T, fixture ...models.Task) (*TaskState, *flakyRepo, *recordingNotifier, *recordingPublisher) {
	t.Helper()
	mem := repositories.NewMemoryTaskRepository()
	if _, err := mem.BulkInsert(context.Background(), fixture); err != nil {
		t.Fatal(err)
	}
	repo := &flakyRepo{MemoryTaskRepository: mem}
	n := &recordingNotifier{}
	p := &recordingPublisher{}
	st := NewTaskState(NewTaskService(repo), n, p, StateOptions{})
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return st, repo, n, p
}

func sharedTask(id string) models.Task {
	return models.Task{ID: id, Title: "t" + id, Shared: true,
		Subtasks: []models.Subtask{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
}

func storedTask(t *testing.T, repo *flakyRepo, id string) models.Task {
	t.Helper()
	tasks, _ := repo.MemoryTaskRepository.GetTasks(context.Background())
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not in store", id)
	return models.Task{}
}

func TestToggleOwner_SharedBothFlipsTogether(t *testing.T) {
	st, repo, _, _ := newTestState(t, sharedTask("01"))
	ctx := context.Background()

	got, err := st.ToggleOwner(ctx, "01", models.PersonBoth)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Ariane || !got.Pavel {
		t.Fatalf("both flags should be set: %+v", got)
	}
	if s := storedTask(t, repo, "01"); !s.Ariane || !s.Pavel {
		t.Fatalf("store not updated: %+v", s)
	}

	got, _ = st.ToggleOwner(ctx, "01", models.PersonBoth)
	if got.Ariane || got.Pavel {
		t.Fatalf("double application should restore the original state: %+v", got)
	}
}

func TestToggleOwner_SharedBothFromHalfDone(t *testing.T) {
	half := sharedTask("01")
	half.Ariane = true
	st, _, _, _ := newTestState(t, half)

	got, err := st.ToggleOwner(context.Background(), "01", models.PersonBoth)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Ariane || !got.Pavel {
		t.Fatalf("not both done -> both become true, got %+v", got)
	}
}

func TestToggleOwner_IndividualIgnoresBoth(t *testing.T) {
	ind := models.Task{ID: "08", Title: "Preuves", Shared: false}
	st, repo, _, _ := newTestState(t, ind)
	ctx := context.Background()

	got, err := st.ToggleOwner(ctx, "08", models.PersonBoth)
	if err != nil {
		t.Fatal(err)
	}
	if got.Ariane || got.Pavel {
		t.Fatalf("both on an individual task must change nothing: %+v", got)
	}
	if repo.updates != 0 {
		t.Fatalf("an empty change must not be persisted")
	}

	got, _ = st.ToggleOwner(ctx, "08", models.PersonPavel)
	if got.Ariane || !got.Pavel {
		t.Fatalf("only pavel should flip: %+v", got)
	}
}

func TestToggleOwner_UnknownPerson(t *testing.T) {
	st, _, _, _ := newTestState(t, sharedTask("01"))
	if _, err := st.ToggleOwner(context.Background(), "01", "bob"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestToggleSubtask_OnlyThatIndex(t *testing.T) {
	st, repo, _, _ := newTestState(t, sharedTask("01"))
	got, err := st.ToggleSubtask(context.Background(), "01", 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, false}
	for i, s := range got.Subtasks {
		if s.Completed != want[i] {
			t.Fatalf("subtasks = %+v", got.Subtasks)
		}
	}
	stored := storedTask(t, repo, "01")
	for i, s := range stored.Subtasks {
		if s.Completed != want[i] {
			t.Fatalf("stored subtasks = %+v", stored.Subtasks)
		}
	}
}

func TestToggleSubtask_OutOfRange(t *testing.T) {
	st, _, _, _ := newTestState(t, sharedTask("01"))
	for _, idx := range []int{-1, 3} {
		if _, err := st.ToggleSubtask(context.Background(), "01", idx); !errors.Is(err, ErrSubtaskIndex) {
			t.Fatalf("index %d: err = %v, want ErrSubtaskIndex", idx, err)
		}
	}
}

func TestToggleExpanded_NotPersisted(t *testing.T) {
	st, repo, _, _ := newTestState(t, sharedTask("01"))
	got, err := st.ToggleExpanded("01")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Expanded {
		t.Fatalf("expected expanded")
	}
	if repo.updates != 0 || storedTask(t, repo, "01").Expanded {
		t.Fatalf("expanded must stay local")
	}
}

func TestToggleExpanded_SurvivesReload(t *testing.T) {
	st, _, _, _ := newTestState(t, sharedTask("01"))
	_, _ = st.ToggleExpanded("01")
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Find("01")
	if !got.Expanded {
		t.Fatalf("reload should keep the local panel state")
	}
}

func TestDrop(t *testing.T) {
	mixed := sharedTask("01")
	mixed.Ariane = true
	mixed.Subtasks[0].Completed = true
	ctx := context.Background()

	t.Run("done", func(t *testing.T) {
		st, repo, _, _ := newTestState(t, mixed)
		got, err := st.Drop(ctx, "01", models.ColumnDone)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Ariane || !got.Pavel {
			t.Fatalf("flags = %+v", got)
		}
		for _, s := range got.Subtasks {
			if !s.Completed {
				t.Fatalf("all subtasks should be complete: %+v", got.Subtasks)
			}
		}
		if ColumnOf(*got) != models.ColumnDone || !storedTask(t, repo, "01").Pavel {
			t.Fatalf("not persisted as done")
		}
	})

	t.Run("todo", func(t *testing.T) {
		st, _, _, _ := newTestState(t, mixed)
		got, err := st.Drop(ctx, "01", models.ColumnTodo)
		if err != nil {
			t.Fatal(err)
		}
		if got.Ariane || got.Pavel {
			t.Fatalf("flags = %+v", got)
		}
		for _, s := range got.Subtasks {
			if s.Completed {
				t.Fatalf("all subtasks should be incomplete: %+v", got.Subtasks)
			}
		}
		if got.Subtasks[2].Text != "c" {
			t.Fatalf("subtask text must be kept")
		}
	})

	t.Run("doing forces nothing", func(t *testing.T) {
		st, repo, _, _ := newTestState(t, sharedTask("02"))
		got, err := st.Drop(ctx, "02", models.ColumnDoing)
		if err != nil {
			t.Fatal(err)
		}
		if got.Ariane || got.Pavel || repo.updates != 0 {
			t.Fatalf("doing must not change or persist anything")
		}
		if ColumnOf(*got) != models.ColumnTodo {
			t.Fatalf("untouched task regroups into todo")
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		st, _, _, _ := newTestState(t, sharedTask("02"))
		if _, err := st.Drop(ctx, "02", "archive"); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestMutation_UnknownTask(t *testing.T) {
	st, _, _, _ := newTestState(t)
	if _, err := st.ToggleOwner(context.Background(), "99", models.PersonAriane); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := st.ToggleExpanded("99"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestOptimisticUpdate_NoRollbackOnFailure(t *testing.T) {
	st, repo, n, _ := newTestState(t, sharedTask("01"))
	repo.UpdateFunc = func(context.Context, string, models.TaskPatch) (*models.Task, error) {
		return nil, errors.New("connection refused")
	}

	got, err := st.ToggleOwner(context.Background(), "01", models.PersonBoth)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("err = %v, want ErrPersist", err)
	}
	if got == nil || !got.Ariane || !got.Pavel {
		t.Fatalf("optimistic task should be returned: %+v", got)
	}
	inMem, _ := st.Find("01")
	if !inMem.Ariane || !inMem.Pavel {
		t.Fatalf("in-memory state must keep the optimistic change")
	}
	if storedTask(t, repo, "01").Ariane {
		t.Fatalf("store must not have the change")
	}
	st.Wait()
	if len(n.completed) != 0 {
		t.Fatalf("no completion notice on failed write")
	}
}

func TestOptimisticUpdate_ReconcileOnFailure(t *testing.T) {
	mem := repositories.NewMemoryTaskRepository()
	_, _ = mem.BulkInsert(context.Background(), []models.Task{sharedTask("01")})
	repo := &flakyRepo{MemoryTaskRepository: mem}
	repo.UpdateFunc = func(context.Context, string, models.TaskPatch) (*models.Task, error) {
		return nil, errors.New("timeout")
	}
	st := NewTaskState(NewTaskService(repo), nil, nil, StateOptions{ReconcileOnFailure: true})
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := st.ToggleOwner(context.Background(), "01", models.PersonAriane); !errors.Is(err, ErrPersist) {
		t.Fatalf("err = %v", err)
	}
	inMem, _ := st.Find("01")
	if inMem.Ariane {
		t.Fatalf("reconcile should restore the stored state")
	}
}

func TestCompletionNotifiedOnce(t *testing.T) {
	st, _, n, _ := newTestState(t, sharedTask("01"))
	ctx := context.Background()
	_, _ = st.ToggleOwner(ctx, "01", models.PersonAriane)
	_, _ = st.ToggleOwner(ctx, "01", models.PersonPavel)
	_, _ = st.Drop(ctx, "01", models.ColumnDone)

	st.Wait()
	if len(n.completed) != 1 || n.completed[0] != "01" {
		t.Fatalf("completed notices = %v, want [01]", n.completed)
	}
}

// stalledNotifier blocks until released and records the context state it saw.
type stalledNotifier struct {
	release chan struct{}
	ctxErr  chan error
}

func (n *stalledNotifier) TaskCompleted(ctx context.Context, _ models.Task) error {
	<-n.release
	n.ctxErr <- ctx.Err()
	return errors.New("smtp: connection refused")
}

func (n *stalledNotifier) Digest(context.Context, Digest) error { return nil }

func TestCompletionNotice_DoesNotBlockMutation(t *testing.T) {
	mem := repositories.NewMemoryTaskRepository()
	_, _ = mem.BulkInsert(context.Background(), []models.Task{sharedTask("01")})
	n := &stalledNotifier{release: make(chan struct{}), ctxErr: make(chan error, 1)}
	st := NewTaskState(NewTaskService(mem), n, nil, StateOptions{})
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := st.Drop(ctx, "01", models.ColumnDone)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("drop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("drop waited for the notifier")
	}

	// the request is over before the notice goes out
	cancel()
	close(n.release)
	st.Wait()
	if err := <-n.ctxErr; err != nil {
		t.Fatalf("notifier saw a cancelled context: %v", err)
	}
}

func TestAddTask(t *testing.T) {
	st, _, _, p := newTestState(t)
	got, err := st.AddTask(context.Background(), models.NewTask{
		Title: "Tests de langues", Description: "TCF et IELTS", Deadline: "2025-12-12", Cost: 590000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Fatalf("id should be assigned")
	}
	if len(st.Tasks()) != 1 {
		t.Fatalf("task should be appended")
	}
	last := p.events[len(p.events)-1]
	if last.Type != models.EventTaskAdded || last.Task.ID != got.ID {
		t.Fatalf("event = %+v", last)
	}
}

func TestAddTask_Invalid(t *testing.T) {
	st, _, _, _ := newTestState(t)
	_, err := st.AddTask(context.Background(), models.NewTask{Title: "x", Description: "y", Deadline: "next week"})
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("err = %v, want ErrInvalidTask", err)
	}
	if len(st.Tasks()) != 0 {
		t.Fatalf("invalid task must not be added")
	}
}

func TestEditTask(t *testing.T) {
	st, repo, _, _ := newTestState(t, sharedTask("01"))
	_, _ = st.ToggleExpanded("01")
	title := "Passeports (renouvelés)"
	cost := int64(240000)

	got, err := st.EditTask(context.Background(), "01", models.TaskPatch{Title: &title, Cost: &cost})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != title || got.Cost != cost {
		t.Fatalf("got %+v", got)
	}
	if !got.Expanded {
		t.Fatalf("edit must keep the local expanded state")
	}
	if s := storedTask(t, repo, "01"); s.Title != title {
		t.Fatalf("stored = %+v", s)
	}
}

func TestLoad_FailureKeepsList(t *testing.T) {
	st, repo, _, _ := newTestState(t, sharedTask("01"))
	repo.GetFunc = func(context.Context) ([]models.Task, error) { return nil, errors.New("auth") }
	if err := st.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(st.Tasks()) != 1 {
		t.Fatalf("list should be kept on failed reload")
	}
}

func TestReadsAreCopies(t *testing.T) {
	st, _, _, _ := newTestState(t, sharedTask("01"))
	tasks := st.Tasks()
	tasks[0].Subtasks[0].Completed = true
	tasks[0].Ariane = true

	again, _ := st.Find("01")
	if again.Ariane || again.Subtasks[0].Completed {
		t.Fatalf("mutating a snapshot changed the state")
	}
}

func TestStateStatsAndBoard(t *testing.T) {
	funds := models.Task{ID: "10", Title: "Preuve de fond", Cost: 7800000, Critical: true, Shared: true}
	union := models.Task{ID: "07", Title: "Preuve des conjoints", Cost: 25000, Critical: true, Shared: true}
	st, _, _, _ := newTestState(t, funds, union)

	s := st.Stats()
	if s.FundsRequired != 7800000 || s.TotalBudget != 25000 || s.Critical != 2 {
		t.Fatalf("stats = %+v", s)
	}
	b := st.Board("", models.FilterCritical)
	if len(b.Todo) != 2 {
		t.Fatalf("board = %+v", b)
	}
}
