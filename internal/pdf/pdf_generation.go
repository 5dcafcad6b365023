package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"immitrack/internal/models"
)

// Generator is what the HTTP and CLI layers depend on.
type Generator interface {
	WriteSummary(w io.Writer, data SummaryData) error
	SaveSummary(data SummaryData) (string, error)
}

// ReportGenerator renders the checklist report. With no readable TTF it
// falls back to the core Helvetica font and cp1252 text.
type ReportGenerator struct {
	RootDir  string // where SaveSummary writes, e.g. "./files"
	FontPath string // e.g. "assets/fonts/DejaVuSans.ttf"
	fontName string
}

type SummaryData struct {
	Title       string
	GeneratedAt time.Time
	Stats       models.Stats
	Board       models.Board
	FundsTaskID string
	Filename    string // for SaveSummary; dossier_<date>.pdf when empty
}

func NewReportGenerator(rootDir, fontPath string) *ReportGenerator {
	return &ReportGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

// report carries one document's state; tr is the text translator for the chosen font.
type report struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *ReportGenerator) newReport() *report {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	r := &report{pdf: pdf, font: g.fontName, tr: func(s string) string { return s }}
	if g.fontUsable() {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	} else {
		r.font = "Helvetica"
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return r
}

func (g *ReportGenerator) fontUsable() bool {
	if g.FontPath == "" {
		return false
	}
	st, err := os.Stat(g.FontPath)
	return err == nil && !st.IsDir()
}

func (g *ReportGenerator) WriteSummary(w io.Writer, data SummaryData) error {
	r := g.newReport()
	g.render(r, data)
	return r.pdf.Output(w)
}

// SaveSummary writes the report under RootDir and returns the written path.
// Only the base name of data.Filename is kept.
func (g *ReportGenerator) SaveSummary(data SummaryData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("dossier_%s.pdf", data.GeneratedAt.Format("2006-01-02"))
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}
	r := g.newReport()
	g.render(r, data)
	if err := r.pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func (g *ReportGenerator) render(r *report, data SummaryData) {
	pdf := r.pdf
	title := data.Title
	if title == "" {
		title = "Dossier d'immigration"
	}
	pdf.SetTitle(r.tr(title), false)
	pdf.SetAuthor("immitrack", false)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(r.font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ===== header
	pdf.SetFont(r.font, "B", 18)
	pdf.CellFormat(0, 10, r.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont(r.font, "", 11)
	pdf.CellFormat(0, 7, r.tr("Généré le "+data.GeneratedAt.Format("02.01.2006 15:04")), "", 1, "C", false, 0, "")
	r.hr()

	// ===== stats
	st := data.Stats
	r.sectionTitle("Progression")
	r.kvLine("Avancement", fmt.Sprintf("%d%%", st.Progress))
	r.kvLine("Tâches terminées", fmt.Sprintf("%d / %d", st.Completed, st.Total))
	r.kvLine("Critiques restantes", fmt.Sprintf("%d", st.Critical))
	r.kvLine("Budget total", models.FormatCost(st.TotalBudget))
	r.kvLine("Déjà dépensé", models.FormatCost(st.SpentAmount))
	r.kvLine("Fonds à justifier", models.FormatCost(st.FundsRequired))
	r.progressBar(st.Progress)
	r.hr()

	r.column("À faire", data.Board.Todo, data.FundsTaskID)
	r.column("En cours", data.Board.Doing, data.FundsTaskID)
	r.column("Terminé", data.Board.Done, data.FundsTaskID)
}

func (r *report) column(title string, tasks []models.Task, fundsTaskID string) {
	r.sectionTitle(fmt.Sprintf("%s (%d)", title, len(tasks)))
	if len(tasks) == 0 {
		r.pdf.SetFont(r.font, "", 10)
		r.pdf.CellFormat(0, 6, "-", "", 1, "L", false, 0, "")
		r.hr()
		return
	}
	for _, t := range tasks {
		r.taskBlock(t, t.ID == fundsTaskID)
	}
	r.hr()
}

func (r *report) taskBlock(t models.Task, funds bool) {
	pdf := r.pdf
	pdf.SetFont(r.font, "B", 11)
	label := t.Title
	if t.DisplayPriority() == models.PriorityCritical {
		label = "[!] " + label
	}
	pdf.MultiCell(0, 6, r.tr(label), "", "L", false)

	pdf.SetFont(r.font, "", 10)
	deadline := t.Deadline
	if t.IsDateTentative {
		deadline = "~" + deadline
	}
	owners := ownerLabel(t)
	cost := models.FormatCost(t.Cost)
	if funds {
		cost += " (fonds)"
	}
	pdf.CellFormat(55, 5, r.tr("Échéance : "+deadline), "", 0, "L", false, 0, "")
	pdf.CellFormat(55, 5, r.tr("Coût : "+cost), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, r.tr(owners), "", 1, "L", false, 0, "")

	if t.Description != "" {
		pdf.SetFont(r.font, "", 9)
		pdf.MultiCell(0, 5, r.tr(t.Description), "", "L", false)
	}
	for _, s := range t.Subtasks {
		box := "[ ]"
		if s.Completed {
			box = "[x]"
		}
		pdf.SetX(26)
		pdf.MultiCell(0, 5, r.tr(box+" "+s.Text), "", "L", false)
	}
	pdf.Ln(2)
}

func ownerLabel(t models.Task) string {
	mark := func(name string, done bool) string {
		if done {
			return name + " [x]"
		}
		return name + " [ ]"
	}
	parts := []string{mark("Ariane", t.Ariane), mark("Pavel", t.Pavel)}
	if t.Shared {
		return "Commun : " + strings.Join(parts, " ")
	}
	return strings.Join(parts, " ")
}

func (r *report) sectionTitle(s string) {
	r.pdf.SetFont(r.font, "B", 12)
	r.pdf.CellFormat(0, 7, r.tr(s), "", 1, "L", false, 0, "")
	r.pdf.SetFont(r.font, "", 11)
}

func (r *report) kvLine(key, val string) {
	r.pdf.SetFont(r.font, "B", 11)
	r.pdf.CellFormat(55, 6, r.tr(key+":"), "", 0, "L", false, 0, "")
	r.pdf.SetFont(r.font, "", 11)
	r.pdf.CellFormat(0, 6, r.tr(val), "", 1, "L", false, 0, "")
}

func (r *report) progressBar(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	const width = 170.0
	x, y := r.pdf.GetX(), r.pdf.GetY()+2
	r.pdf.SetDrawColor(120, 120, 120)
	r.pdf.Rect(x, y, width, 4, "D")
	r.pdf.SetFillColor(46, 139, 87)
	if percent > 0 {
		r.pdf.Rect(x, y, width*float64(percent)/100, 4, "F")
	}
	r.pdf.SetY(y + 6)
}

func (r *report) hr() {
	y := r.pdf.GetY() + 1.5
	r.pdf.SetLineWidth(0.2)
	r.pdf.Line(20, y, 190, y)
	r.pdf.SetY(y + 2)
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename)
	return filepath.Join(g.RootDir, filename), nil
}
