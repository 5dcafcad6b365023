package services

import (
	"testing"

	"immitrack/internal/models"
)

func task(id string, ariane, pavel bool, cost int64) models.Task {
	return models.Task{ID: id, Title: "task " + id, Ariane: ariane, Pavel: pavel, Cost: cost, Subtasks: []models.Subtask{}}
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil, DefaultFundsTaskID)
	if st != (models.Stats{}) {
		t.Fatalf("stats = %+v, want zero", st)
	}
}

func TestComputeStats(t *testing.T) {
	tasks := []models.Task{
		task("01", true, true, 220000),
		task("02", true, false, 5000),
		task("03", false, false, 230000),
		task("10", true, true, 7800000),
	}
	tasks[2].Critical = true
	tasks[3].Critical = true

	st := ComputeStats(tasks, "10")
	want := models.Stats{
		Total:         4,
		Completed:     2,
		Critical:      1,
		TotalBudget:   220000 + 5000 + 230000,
		SpentAmount:   220000,
		FundsRequired: 7800000,
		Progress:      50,
	}
	if st != want {
		t.Fatalf("stats = %+v\nwant    %+v", st, want)
	}
}

func TestComputeStats_CompletedIgnoresShared(t *testing.T) {
	individual := task("08", true, false, 0)
	individual.Shared = false
	st := ComputeStats([]models.Task{individual}, DefaultFundsTaskID)
	if st.Completed != 0 {
		t.Fatalf("an individual task with one flag must not count as completed")
	}
}

func TestComputeStats_ProgressRounding(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds half up
		{3, 3, 100},
		{0, 5, 0},
	}
	for _, c := range cases {
		var tasks []models.Task
		for i := 0; i < c.total; i++ {
			done := i < c.completed
			tasks = append(tasks, task(string(rune('a'+i)), done, done, 0))
		}
		if got := ComputeStats(tasks, DefaultFundsTaskID).Progress; got != c.want {
			t.Errorf("progress(%d/%d) = %d, want %d", c.completed, c.total, got, c.want)
		}
	}
}

func TestComputeStats_NoFundsTask(t *testing.T) {
	st := ComputeStats([]models.Task{task("01", false, false, 100)}, "10")
	if st.FundsRequired != 0 || st.TotalBudget != 100 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "01", Title: "Passeports", Description: "professions"},
		{ID: "07", Title: "Preuve des conjoints", Description: "Cohabitation", Critical: true},
		{ID: "09", Title: "Frais de résidence", Description: "à payer", Ariane: true, Pavel: true},
	}

	ids := func(ts []models.Task) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}
	cases := []struct {
		name   string
		query  string
		status models.FilterStatus
		want   []string
	}{
		{"all", "", models.FilterAll, []string{"01", "07", "09"}},
		{"critical", "", models.FilterCritical, []string{"07"}},
		{"incomplete", "", models.FilterIncomplete, []string{"01", "07"}},
		{"complete", "", models.FilterComplete, []string{"09"}},
		{"title case-insensitive", "PASSE", models.FilterAll, []string{"01"}},
		{"description match", "cohab", models.FilterAll, []string{"07"}},
		{"query and status", "frais", models.FilterIncomplete, []string{}},
		{"unknown status passes", "", models.FilterStatus("weird"), []string{"01", "07", "09"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(FilterTasks(tasks, c.query, c.status))
			if len(got) != len(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("got %v, want %v", got, c.want)
				}
			}
		})
	}
}

func TestGroupKanban(t *testing.T) {
	unionDeFait := models.Task{ID: "07", Cost: 25000, Critical: true, Shared: true,
		Subtasks: []models.Subtask{{Text: "Notaire"}}}
	started := models.Task{ID: "02", Subtasks: []models.Subtask{{Text: "a"}, {Text: "b", Completed: true}}}
	oneOwner := models.Task{ID: "03", Pavel: true}
	done := models.Task{ID: "04", Ariane: true, Pavel: true}

	b := GroupKanban([]models.Task{unionDeFait, started, oneOwner, done})
	if len(b.Todo) != 1 || b.Todo[0].ID != "07" {
		t.Fatalf("todo = %+v", b.Todo)
	}
	if len(b.Doing) != 2 || b.Doing[0].ID != "02" || b.Doing[1].ID != "03" {
		t.Fatalf("doing = %+v", b.Doing)
	}
	if len(b.Done) != 1 || b.Done[0].ID != "04" {
		t.Fatalf("done = %+v", b.Done)
	}

	crit := FilterTasks([]models.Task{unionDeFait, started}, "", models.FilterCritical)
	if len(crit) != 1 || crit[0].ID != "07" {
		t.Fatalf("critical filter = %+v", crit)
	}
}

func TestSortByDeadline(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Deadline: "2026-01-15"},
		{ID: "b", Deadline: "2025-12-12"},
		{ID: "c"},
		{ID: "d", Deadline: "2025-12-19"},
	}
	asc := SortByDeadline(tasks, models.SortAsc)
	if got := asc[0].ID + asc[1].ID + asc[2].ID + asc[3].ID; got != "bdac" {
		t.Fatalf("asc order = %s", got)
	}
	desc := SortByDeadline(tasks, models.SortDesc)
	if got := desc[0].ID + desc[1].ID + desc[2].ID + desc[3].ID; got != "adbc" {
		t.Fatalf("desc order = %s", got)
	}
	if tasks[0].ID != "a" {
		t.Fatalf("input slice must not be reordered")
	}
}
