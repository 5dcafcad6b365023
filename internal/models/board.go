package models

// Person addresses an owner flag. PersonBoth only has meaning on shared tasks.
type Person string

const (
	PersonAriane Person = "ariane"
	PersonPavel  Person = "pavel"
	PersonBoth   Person = "both"
)

func (p Person) Valid() bool {
	return p == PersonAriane || p == PersonPavel || p == PersonBoth
}

// Column is a kanban column.
type Column string

const (
	ColumnTodo  Column = "todo"
	ColumnDoing Column = "doing"
	ColumnDone  Column = "done"
)

func (c Column) Valid() bool {
	return c == ColumnTodo || c == ColumnDoing || c == ColumnDone
}

type FilterStatus string

const (
	FilterAll        FilterStatus = "all"
	FilterCritical   FilterStatus = "critical"
	FilterIncomplete FilterStatus = "incomplete"
	FilterComplete   FilterStatus = "complete"
)

func (f FilterStatus) Valid() bool {
	switch f {
	case FilterAll, FilterCritical, FilterIncomplete, FilterComplete:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// Stats is the dashboard summary.
type Stats struct {
	Total         int   `json:"total"`
	Completed     int   `json:"completed"`
	Critical      int   `json:"critical"`
	TotalBudget   int64 `json:"totalBudget"`
	SpentAmount   int64 `json:"spentAmount"`
	FundsRequired int64 `json:"fundsRequired"`
	Progress      int   `json:"progress"`
}

// Board is the kanban grouping of a task list.
type Board struct {
	Todo  []Task `json:"todo"`
	Doing []Task `json:"doing"`
	Done  []Task `json:"done"`
}

// EventType names a change published to realtime subscribers.
type EventType string

const (
	EventTaskAdded   EventType = "task.added"
	EventTaskUpdated EventType = "task.updated"
	EventReloaded    EventType = "tasks.reloaded"
)

type TaskEvent struct {
	Type EventType `json:"type"`
	Task *Task     `json:"task,omitempty"`
}
