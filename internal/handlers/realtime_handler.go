package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"immitrack/internal/middleware"
	"immitrack/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.TaskHub
}

func NewRealtimeHandler(hub *realtime.TaskHub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /ws
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request, middleware.Person(c)); err != nil {
		log.Printf("[ws][upgrade][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
