package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"immitrack/internal/models"
)

// DefaultFundsTaskID is the task whose cost is standing savings, not an expense.
const DefaultFundsTaskID = "10"

// ComputeStats derives the dashboard summary. "Completed" means both owner
// flags are set, for shared and individual tasks alike.
func ComputeStats(tasks []models.Task, fundsTaskID string) models.Stats {
	var st models.Stats
	st.Total = len(tasks)
	for _, t := range tasks {
		done := t.Complete()
		if done {
			st.Completed++
		}
		if t.Critical && !done {
			st.Critical++
		}
		if t.ID == fundsTaskID {
			if st.FundsRequired == 0 {
				st.FundsRequired = t.Cost
			}
			continue
		}
		st.TotalBudget += t.Cost
		if done {
			st.SpentAmount += t.Cost
		}
	}
	if st.Total > 0 {
		st.Progress = roundHalfUp(float64(st.Completed) / float64(st.Total) * 100)
	}
	return st
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// MatchesFilter applies the search query (title or description, case-insensitive)
// and the status filter.
func MatchesFilter(t models.Task, query string, status models.FilterStatus) bool {
	q := strings.ToLower(query)
	if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
		return false
	}
	switch status {
	case models.FilterCritical:
		return t.Critical
	case models.FilterIncomplete:
		return !t.Complete()
	case models.FilterComplete:
		return t.Complete()
	}
	return true
}

func FilterTasks(tasks []models.Task, query string, status models.FilterStatus) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if MatchesFilter(t, query, status) {
			out = append(out, t)
		}
	}
	return out
}

// ColumnOf places a task on the kanban board.
func ColumnOf(t models.Task) models.Column {
	switch {
	case t.Complete():
		return models.ColumnDone
	case t.Started():
		return models.ColumnDoing
	default:
		return models.ColumnTodo
	}
}

func GroupKanban(tasks []models.Task) models.Board {
	b := models.Board{Todo: []models.Task{}, Doing: []models.Task{}, Done: []models.Task{}}
	for _, t := range tasks {
		switch ColumnOf(t) {
		case models.ColumnDone:
			b.Done = append(b.Done, t)
		case models.ColumnDoing:
			b.Doing = append(b.Doing, t)
		default:
			b.Todo = append(b.Todo, t)
		}
	}
	return b
}

// SortByDeadline returns a sorted copy. Tasks without a parseable deadline go last.
func SortByDeadline(tasks []models.Task, order models.SortOrder) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	key := func(t models.Task) (time.Time, bool) {
		d, err := t.DeadlineTime()
		return d, err == nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, oki := key(out[i])
		dj, okj := key(out[j])
		if oki != okj {
			return oki
		}
		if order == models.SortDesc {
			return di.After(dj)
		}
		return di.Before(dj)
	})
	return out
}
