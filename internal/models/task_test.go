package models

import (
	"testing"
	"time"
)

func TestFormatCost(t *testing.T) {
	cases := map[int64]string{
		0:       "0 FCFA",
		5000:    "5 000 FCFA",
		25000:   "25 000 FCFA",
		1500000: "1 500 000 FCFA",
		7800000: "7 800 000 FCFA",
		-120:    "-120 FCFA",
	}
	for in, want := range cases {
		if got := FormatCost(in); got != want {
			t.Errorf("FormatCost(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	task := Task{Deadline: "2025-12-19"}
	now := time.Date(2025, 12, 12, 9, 0, 0, 0, time.UTC)
	days, ok := task.DaysRemaining(now)
	if !ok || days != 7 {
		t.Fatalf("days = %d, %v; want 7", days, ok)
	}

	late := time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)
	if !task.Late(late) {
		t.Fatalf("expected late after the deadline")
	}
	task.Ariane, task.Pavel = true, true
	if task.Late(late) {
		t.Fatalf("a completed task is never late")
	}
}

func TestDaysRemaining_BadDate(t *testing.T) {
	if _, ok := (Task{Deadline: "soon"}).DaysRemaining(time.Now()); ok {
		t.Fatalf("expected !ok for unparseable deadline")
	}
}

func TestDisplayPriority(t *testing.T) {
	if got := (Task{Priority: PriorityNormal, Critical: true}).DisplayPriority(); got != PriorityCritical {
		t.Fatalf("critical flag should win, got %q", got)
	}
	if got := (Task{Priority: PriorityHigh}).DisplayPriority(); got != PriorityHigh {
		t.Fatalf("got %q", got)
	}
	if got := (Task{}).DisplayPriority(); got != PriorityNormal {
		t.Fatalf("empty priority should display normal, got %q", got)
	}
}

func TestPatchApplyAndEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
	subs := []Subtask{{Text: "a", Completed: true}}
	p := TaskPatch{Pavel: Bool(true), Subtasks: &subs}
	if p.Empty() {
		t.Fatalf("patch with fields is not empty")
	}
	task := Task{Title: "x", Subtasks: []Subtask{{Text: "a"}}}
	p.Apply(&task)
	if !task.Pavel || task.Ariane || !task.Subtasks[0].Completed || task.Title != "x" {
		t.Fatalf("unexpected result %+v", task)
	}
	subs[0].Completed = false
	if !task.Subtasks[0].Completed {
		t.Fatalf("Apply must copy the subtask slice")
	}
}

func TestStarted(t *testing.T) {
	if (Task{}).Started() {
		t.Fatalf("fresh task is not started")
	}
	if !(Task{Subtasks: []Subtask{{}, {Completed: true}}}).Started() {
		t.Fatalf("a completed subtask starts the task")
	}
	if !(Task{Pavel: true}).Started() {
		t.Fatalf("an owner flag starts the task")
	}
}
