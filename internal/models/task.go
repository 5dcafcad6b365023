// internal/models/task.go
package models

import (
	"math"
	"time"
)

// DateLayout is the calendar-date format used for deadlines.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Subtask is one checklist line of a task. Its index in Task.Subtasks is its address.
type Subtask struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Task is the persisted checklist entry tracked for Ariane and Pavel.
type Task struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Details         string    `json:"details" yaml:"details"`
	Subtasks        []Subtask `json:"subtasks" yaml:"subtasks"`
	Deadline        string    `json:"deadline" yaml:"deadline"` // YYYY-MM-DD
	IsDateTentative bool      `json:"isDateTentative" yaml:"isDateTentative"`
	Priority        Priority  `json:"priority" yaml:"priority"`
	Critical        bool      `json:"critical" yaml:"critical"`
	Shared          bool      `json:"shared" yaml:"shared"`
	Cost            int64     `json:"cost" yaml:"cost"`
	Ariane          bool      `json:"ariane" yaml:"ariane"`
	Pavel           bool      `json:"pavel" yaml:"pavel"`
	Expanded        bool      `json:"expanded" yaml:"expanded"`
}

// Complete reports whether both owner flags are set. Used for every task,
// shared or not.
func (t Task) Complete() bool {
	return t.Ariane && t.Pavel
}

// Started reports whether any owner flag or any subtask is done.
func (t Task) Started() bool {
	if t.Ariane || t.Pavel {
		return true
	}
	for _, s := range t.Subtasks {
		if s.Completed {
			return true
		}
	}
	return false
}

// DisplayPriority is what the badge shows: the critical flag wins over priority.
func (t Task) DisplayPriority() Priority {
	if t.Critical {
		return PriorityCritical
	}
	if t.Priority == "" {
		return PriorityNormal
	}
	return t.Priority
}

func (t Task) DeadlineTime() (time.Time, error) {
	return time.Parse(DateLayout, t.Deadline)
}

// DaysRemaining rounds up the days left until the deadline (negative when late).
func (t Task) DaysRemaining(now time.Time) (int, bool) {
	d, err := t.DeadlineTime()
	if err != nil {
		return 0, false
	}
	days := d.Sub(now).Hours() / 24
	return int(math.Ceil(days)), true
}

func (t Task) Late(now time.Time) bool {
	days, ok := t.DaysRemaining(now)
	return ok && days < 0 && !t.Complete()
}

// Clone deep-copies the subtask slice so callers can't alias state.
func (t Task) Clone() Task {
	out := t
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

// NewTask is a task without an identifier, as accepted by the add operation.
// ID may be preset (seed fixtures); otherwise the repository assigns one.
type NewTask struct {
	ID              string    `json:"id,omitempty" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Details         string    `json:"details" yaml:"details"`
	Subtasks        []Subtask `json:"subtasks" yaml:"subtasks"`
	Deadline        string    `json:"deadline" yaml:"deadline"`
	IsDateTentative bool      `json:"isDateTentative" yaml:"isDateTentative"`
	Priority        Priority  `json:"priority" yaml:"priority"`
	Critical        bool      `json:"critical" yaml:"critical"`
	Shared          bool      `json:"shared" yaml:"shared"`
	Cost            int64     `json:"cost" yaml:"cost"`
	Ariane          bool      `json:"ariane" yaml:"ariane"`
	Pavel           bool      `json:"pavel" yaml:"pavel"`
	Expanded        bool      `json:"expanded" yaml:"expanded"`
}

func (n NewTask) Task(id string) Task {
	t := Task{
		ID:              id,
		Title:           n.Title,
		Description:     n.Description,
		Details:         n.Details,
		Subtasks:        n.Subtasks,
		Deadline:        n.Deadline,
		IsDateTentative: n.IsDateTentative,
		Priority:        n.Priority,
		Critical:        n.Critical,
		Shared:          n.Shared,
		Cost:            n.Cost,
		Ariane:          n.Ariane,
		Pavel:           n.Pavel,
		Expanded:        n.Expanded,
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	return t.Clone()
}
