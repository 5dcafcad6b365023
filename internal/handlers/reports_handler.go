package handlers

import (
	"bytes"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"immitrack/internal/models"
	"immitrack/internal/pdf"
	"immitrack/internal/services"
)

type ReportHandler struct {
	state       *services.TaskState
	pdf         pdf.Generator
	horizonDays int
	now         func() time.Time
}

func NewReportHandler(state *services.TaskState, gen pdf.Generator, horizonDays int) *ReportHandler {
	return &ReportHandler{state: state, pdf: gen, horizonDays: horizonDays, now: time.Now}
}

// @Summary      Dashboard statistics
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  models.Stats
// @Router       /stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Stats())
}

// @Summary      Checklist report as PDF
// @Tags         Reports
// @Produce      application/pdf
// @Param        q       query  string  false  "search"
// @Param        status  query  string  false  "all|critical|incomplete|complete"
// @Success      200
// @Failure      500  {object}  map[string]string
// @Router       /reports/summary.pdf [get]
func (h *ReportHandler) SummaryPDF(c *gin.Context) {
	q, status, ok := listQuery(c)
	if !ok {
		return
	}
	now := h.now()
	data := pdf.SummaryData{
		GeneratedAt: now,
		Stats:       h.state.Stats(),
		Board:       h.state.Board(q, status),
		FundsTaskID: h.state.FundsTaskID(),
	}
	var buf bytes.Buffer
	if err := h.pdf.WriteSummary(&buf, data); err != nil {
		log.Printf("[report][pdf][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}
	c.Header("Content-Disposition", `inline; filename="dossier_`+now.Format("2006-01-02")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary      Deadline digest
// @Description  Incomplete tasks that are late or due within the horizon.
// @Tags         Reports
// @Produce      json
// @Param        days  query     integer  false  "horizon in days"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /reports/digest [get]
func (h *ReportHandler) Digest(c *gin.Context) {
	days := h.horizonDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = n
	}
	d := services.BuildDigest(h.state.Tasks(), h.now(), days, h.state.FundsTaskID())
	c.JSON(http.StatusOK, gin.H{
		"generatedAt": d.GeneratedAt,
		"horizonDays": d.HorizonDays,
		"late":        digestItems(d.Late),
		"upcoming":    digestItems(d.Upcoming),
		"stats":       d.Stats,
	})
}

type digestItemJSON struct {
	Task          models.Task `json:"task"`
	DaysRemaining int         `json:"daysRemaining"`
}

func digestItems(items []services.DigestItem) []digestItemJSON {
	out := make([]digestItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, digestItemJSON{Task: it.Task, DaysRemaining: it.DaysRemaining})
	}
	return out
}
