package repositories

import (
	"context"
	"errors"
	"testing"

	"immitrack/internal/models"
)

func TestMemoryAddTask_AssignsIDAndDefaults(t *testing.T) {
	repo := NewMemoryTaskRepository()
	got, err := repo.AddTask(context.Background(), models.NewTask{Title: "Photos", Description: "50mm x 70mm"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got.Priority != models.PriorityNormal {
		t.Fatalf("priority = %q, want normal", got.Priority)
	}
	if got.Subtasks == nil || len(got.Subtasks) != 0 {
		t.Fatalf("subtasks = %#v, want empty slice", got.Subtasks)
	}
	if got.IsDateTentative {
		t.Fatalf("isDateTentative should default to false")
	}
}

func TestMemoryAddTask_KeepsGivenID(t *testing.T) {
	repo := NewMemoryTaskRepository()
	got, err := repo.AddTask(context.Background(), models.NewTask{ID: "07", Title: "Union"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "07" {
		t.Fatalf("id = %q, want 07", got.ID)
	}
}

func TestMemoryAddTask_RejectsDuplicateID(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	if _, err := repo.AddTask(ctx, models.NewTask{ID: "07", Title: "Union"}); err != nil {
		t.Fatal(err)
	}
	_, err := repo.AddTask(ctx, models.NewTask{ID: "07", Title: "Autre"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	tasks, _ := repo.GetTasks(ctx)
	if len(tasks) != 1 || tasks[0].Title != "Union" {
		t.Fatalf("stored record was overwritten: %+v", tasks)
	}
}

func TestMemoryGetTasks_InsertionOrder(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	for _, id := range []string{"03", "01", "02"} {
		if _, err := repo.AddTask(ctx, models.NewTask{ID: id, Title: id}); err != nil {
			t.Fatal(err)
		}
	}
	tasks, err := repo.GetTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"03", "01", "02"}
	for i, task := range tasks {
		if task.ID != want[i] {
			t.Fatalf("tasks[%d] = %q, want %q", i, task.ID, want[i])
		}
	}
}

func TestMemoryGetTasks_EmptyIsNotNil(t *testing.T) {
	tasks, err := NewMemoryTaskRepository().GetTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tasks == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestMemoryUpdateTask_OnlySuppliedFields(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	_, _ = repo.AddTask(ctx, models.NewTask{ID: "01", Title: "Passeports", Cost: 220000})

	got, err := repo.UpdateTask(ctx, "01", models.TaskPatch{Ariane: models.Bool(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Ariane || got.Pavel {
		t.Fatalf("flags = %v/%v, want true/false", got.Ariane, got.Pavel)
	}
	if got.Title != "Passeports" || got.Cost != 220000 {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestMemoryUpdateTask_UnknownID(t *testing.T) {
	_, err := NewMemoryTaskRepository().UpdateTask(context.Background(), "nope", models.TaskPatch{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryReturnedTaskDoesNotAliasStore(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	got, _ := repo.AddTask(ctx, models.NewTask{ID: "01", Subtasks: []models.Subtask{{Text: "a"}}})
	got.Subtasks[0].Completed = true

	tasks, _ := repo.GetTasks(ctx)
	if tasks[0].Subtasks[0].Completed {
		t.Fatalf("mutating a returned task leaked into the store")
	}
}

func TestMemoryBulkInsert_SkipsExisting(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	n, err := repo.BulkInsert(ctx, []models.Task{{ID: "01"}, {ID: "02"}})
	if err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v", n, err)
	}
	n, err = repo.BulkInsert(ctx, []models.Task{{ID: "02"}, {ID: "03"}})
	if err != nil || n != 1 {
		t.Fatalf("second insert = %d, %v; want 1", n, err)
	}
}
