package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"immitrack/internal/models"
	"immitrack/internal/repositories"
	"immitrack/internal/services"
)

// respondStateError maps state/service errors onto HTTP statuses. A persist
// failure still returns the optimistic task so the client can keep showing it.
func respondStateError(c *gin.Context, tag string, task *models.Task, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound), errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidTask),
		errors.Is(err, services.ErrSubtaskIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPersist):
		log.Printf("[%s][persist][err] %v", tag, err)
		body := gin.H{"error": err.Error()}
		if task != nil {
			body["task"] = task
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		log.Printf("[%s][err] %v", tag, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// listQuery reads ?q= and ?status=; an absent status means all.
func listQuery(c *gin.Context) (string, models.FilterStatus, bool) {
	q := strings.TrimSpace(c.Query("q"))
	status := models.FilterStatus(strings.ToLower(c.DefaultQuery("status", string(models.FilterAll))))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of all, critical, incomplete, complete"})
		return "", "", false
	}
	return q, status, true
}
