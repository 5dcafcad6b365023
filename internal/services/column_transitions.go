package services

import "immitrack/internal/models"

// ownerPatch builds the toggle for one owner control. On a shared task the
// "both" control sets both flags to the negation of "both done"; anywhere else
// only the named person flips and "both" changes nothing.
func ownerPatch(t models.Task, person models.Person) models.TaskPatch {
	if t.Shared && person == models.PersonBoth {
		next := !(t.Ariane && t.Pavel)
		return models.TaskPatch{Ariane: models.Bool(next), Pavel: models.Bool(next)}
	}
	switch person {
	case models.PersonAriane:
		return models.TaskPatch{Ariane: models.Bool(!t.Ariane)}
	case models.PersonPavel:
		return models.TaskPatch{Pavel: models.Bool(!t.Pavel)}
	}
	return models.TaskPatch{}
}

func subtaskPatch(t models.Task, index int) (models.TaskPatch, error) {
	if index < 0 || index >= len(t.Subtasks) {
		return models.TaskPatch{}, ErrSubtaskIndex
	}
	subs := make([]models.Subtask, len(t.Subtasks))
	copy(subs, t.Subtasks)
	subs[index].Completed = !subs[index].Completed
	return models.TaskPatch{Subtasks: &subs}, nil
}

// dropPatch is what a drag to a kanban column forces. "doing" forces nothing,
// so the task may land back in another column on the next grouping.
func dropPatch(t models.Task, to models.Column) models.TaskPatch {
	var flag bool
	switch to {
	case models.ColumnTodo:
		flag = false
	case models.ColumnDone:
		flag = true
	default:
		return models.TaskPatch{}
	}
	subs := make([]models.Subtask, len(t.Subtasks))
	for i, s := range t.Subtasks {
		subs[i] = models.Subtask{Text: s.Text, Completed: flag}
	}
	return models.TaskPatch{Ariane: models.Bool(flag), Pavel: models.Bool(flag), Subtasks: &subs}
}
