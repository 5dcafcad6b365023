package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"immitrack/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lateStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	columnStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Renderer draws the dashboard for a terminal.
type Renderer struct {
	Now         time.Time
	Width       int
	FundsTaskID string
}

func (r Renderer) Stats(st models.Stats) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Progression %d%%", st.Progress)) + "  " + progressBar(st.Progress, 30),
		fmt.Sprintf("Terminées  %d / %d", st.Completed, st.Total),
		fmt.Sprintf("Critiques  %s", criticalStyle.Render(fmt.Sprint(st.Critical))),
		fmt.Sprintf("Budget     %s (dépensé %s)", models.FormatCost(st.TotalBudget), models.FormatCost(st.SpentAmount)),
		fmt.Sprintf("Fonds      %s", models.FormatCost(st.FundsRequired)),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return doneStyle.Render(strings.Repeat("█", filled)) + subtleStyle.Render(strings.Repeat("░", width-filled))
}

// List renders one line per task plus its subtasks when expanded.
func (r Renderer) List(tasks []models.Task) string {
	if len(tasks) == 0 {
		return subtleStyle.Render("Aucune tâche.")
	}
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(r.taskLine(t))
		b.WriteByte('\n')
		if t.Expanded {
			for i, s := range t.Subtasks {
				b.WriteString(fmt.Sprintf("      %d. %s %s\n", i, checkbox(s.Completed), s.Text))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r Renderer) taskLine(t models.Task) string {
	owners := fmt.Sprintf("A%s P%s", checkbox(t.Ariane), checkbox(t.Pavel))
	if t.Shared {
		owners += " ⚭"
	}
	title := t.Title
	switch t.DisplayPriority() {
	case models.PriorityCritical:
		title = criticalStyle.Render(title)
	case models.PriorityHigh:
		title = highStyle.Render(title)
	}
	if t.Complete() {
		title = doneStyle.Render(t.Title)
	}
	cost := models.FormatCost(t.Cost)
	if t.ID == r.FundsTaskID {
		cost = "fonds " + cost
	}
	return fmt.Sprintf("[%s] %s %s  %s  %s", t.ID, owners, title, r.deadline(t), subtleStyle.Render(cost))
}

func (r Renderer) deadline(t models.Task) string {
	label := t.Deadline
	if t.IsDateTentative {
		label = "~" + label
	}
	days, ok := t.DaysRemaining(r.Now)
	if !ok {
		return subtleStyle.Render(label)
	}
	switch {
	case t.Complete():
		return subtleStyle.Render(label)
	case days < 0:
		return lateStyle.Render(fmt.Sprintf("%s (%d j de retard)", label, -days))
	default:
		return fmt.Sprintf("%s (J-%d)", label, days)
	}
}

// Kanban renders the three columns side by side.
func (r Renderer) Kanban(b models.Board) string {
	width := r.Width
	if width <= 0 {
		width = 120
	}
	colWidth := width/3 - 2
	if colWidth < 20 {
		colWidth = 20
	}
	col := func(name string, tasks []models.Task) string {
		cards := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", name, len(tasks)))}
		for _, t := range tasks {
			cards = append(cards, cardStyle.Width(colWidth-2).Render(r.card(t)))
		}
		return columnStyle.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		col("À faire", b.Todo),
		col("En cours", b.Doing),
		col("Terminé", b.Done),
	)
}

func (r Renderer) card(t models.Task) string {
	done := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	lines := []string{t.Title}
	if t.Critical {
		lines[0] = criticalStyle.Render("! ") + t.Title
	}
	lines = append(lines,
		subtleStyle.Render(fmt.Sprintf("%s · %d/%d", r.deadline(t), done, len(t.Subtasks))),
		fmt.Sprintf("A%s P%s", checkbox(t.Ariane), checkbox(t.Pavel)),
	)
	return strings.Join(lines, "\n")
}

func checkbox(done bool) string {
	if done {
		return "☑"
	}
	return "☐"
}
