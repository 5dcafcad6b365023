package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"immitrack/internal/models"
)

//go:embed tasks.yaml
var defaultFixture []byte

// Load reads a YAML task fixture; an empty path selects the built-in checklist.
func Load(path string) ([]models.Task, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a fixture. Every task starts unchecked and expanded.
func Parse(data []byte) ([]models.Task, error) {
	var tasks []models.Task
	if err := yaml.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			return nil, fmt.Errorf("fixture entry %d has no id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("fixture id %q appears twice", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Title == "" {
			return nil, fmt.Errorf("fixture task %s has no title", t.ID)
		}

		t.Ariane, t.Pavel, t.Expanded = false, false, true
		if t.Priority == "" {
			t.Priority = models.PriorityNormal
		}
		if !t.Priority.Valid() {
			return nil, fmt.Errorf("fixture task %s: unknown priority %q", t.ID, t.Priority)
		}
		if t.Subtasks == nil {
			t.Subtasks = []models.Subtask{}
		}
		for j := range t.Subtasks {
			t.Subtasks[j].Completed = false
		}
	}
	return tasks, nil
}
