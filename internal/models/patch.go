package models

// TaskPatch is a partial update: nil fields are left untouched.
type TaskPatch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Details         *string    `json:"details,omitempty"`
	Subtasks        *[]Subtask `json:"subtasks,omitempty"`
	Deadline        *string    `json:"deadline,omitempty"`
	IsDateTentative *bool      `json:"isDateTentative,omitempty"`
	Priority        *Priority  `json:"priority,omitempty"`
	Critical        *bool      `json:"critical,omitempty"`
	Shared          *bool      `json:"shared,omitempty"`
	Cost            *int64     `json:"cost,omitempty"`
	Ariane          *bool      `json:"ariane,omitempty"`
	Pavel           *bool      `json:"pavel,omitempty"`
	Expanded        *bool      `json:"expanded,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Details == nil &&
		p.Subtasks == nil && p.Deadline == nil && p.IsDateTentative == nil &&
		p.Priority == nil && p.Critical == nil && p.Shared == nil &&
		p.Cost == nil && p.Ariane == nil && p.Pavel == nil && p.Expanded == nil
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Details != nil {
		t.Details = *p.Details
	}
	if p.Subtasks != nil {
		subs := make([]Subtask, len(*p.Subtasks))
		copy(subs, *p.Subtasks)
		t.Subtasks = subs
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.IsDateTentative != nil {
		t.IsDateTentative = *p.IsDateTentative
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Critical != nil {
		t.Critical = *p.Critical
	}
	if p.Shared != nil {
		t.Shared = *p.Shared
	}
	if p.Cost != nil {
		t.Cost = *p.Cost
	}
	if p.Ariane != nil {
		t.Ariane = *p.Ariane
	}
	if p.Pavel != nil {
		t.Pavel = *p.Pavel
	}
	if p.Expanded != nil {
		t.Expanded = *p.Expanded
	}
}

func Bool(v bool) *bool { return &v }
