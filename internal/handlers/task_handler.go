package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"immitrack/internal/middleware"
	"immitrack/internal/models"
	"immitrack/internal/repositories"
	"immitrack/internal/services"
)

type TaskHandler struct {
	state *services.TaskState
}

func NewTaskHandler(state *services.TaskState) *TaskHandler {
	return &TaskHandler{state: state}
}

// @Summary      List tasks
// @Tags         Tasks
// @Produce      json
// @Param        q       query  string  false  "search in title and description"
// @Param        status  query  string  false  "all|critical|incomplete|complete"
// @Param        sort    query  string  false  "deadline order: asc|desc"
// @Success      200  {array}   models.Task
// @Failure      400  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	q, status, ok := listQuery(c)
	if !ok {
		return
	}
	order := models.SortOrder(strings.ToLower(c.Query("sort")))
	if order != "" && !order.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be asc or desc"})
		return
	}
	c.JSON(http.StatusOK, h.state.Filtered(q, status, order))
}

// @Summary      Get task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "task id"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.state.Find(c.Param("id"))
	if err != nil {
		respondStateError(c, "task][get", nil, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Add task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      models.NewTask  true  "new task"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req models.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][create] by=%q title=%q deadline=%q", middleware.Person(c), req.Title, req.Deadline)

	created, err := h.state.AddTask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTask) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repositories.ErrDuplicateID) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[task][create][err] %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Edit task fields
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id     path      string            true  "task id"
// @Param        patch  body      models.TaskPatch  true  "fields to change"
// @Success      200    {object}  models.Task
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		log.Printf("[task][update][bind][err] id=%s: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	updated, err := h.state.EditTask(c.Request.Context(), id, patch)
	if err != nil {
		respondStateError(c, "task][update", nil, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Toggle an owner's completion flag
// @Description  "both" flips the pair together on shared tasks. Defaults to the logged-in person.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "task id"
// @Param        body  body      object  false  "{\"person\":\"ariane|pavel|both\"}"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]interface{}
// @Router       /tasks/{id}/owners [post]
func (h *TaskHandler) ToggleOwner(c *gin.Context) {
	var req struct {
		Person models.Person `json:"person"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Person == "" {
		req.Person = models.Person(middleware.Person(c))
	}
	if req.Person == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person is required"})
		return
	}
	task, err := h.state.ToggleOwner(c.Request.Context(), c.Param("id"), req.Person)
	if err != nil {
		respondStateError(c, "task][toggle-owner", task, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Toggle a subtask
// @Tags         Tasks
// @Produce      json
// @Param        id     path      string   true  "task id"
// @Param        index  path      integer  true  "subtask position"
// @Success      200    {object}  models.Task
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      502    {object}  map[string]interface{}
// @Router       /tasks/{id}/subtasks/{index}/toggle [post]
func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subtask index"})
		return
	}
	task, err := h.state.ToggleSubtask(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		respondStateError(c, "task][toggle-subtask", task, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Expand or collapse the checklist panel
// @Description  Display state of this server only; never written to the store.
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "task id"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/expand [post]
func (h *TaskHandler) ToggleExpanded(c *gin.Context) {
	task, err := h.state.ToggleExpanded(c.Param("id"))
	if err != nil {
		respondStateError(c, "task][expand", nil, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Move a card to a kanban column
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "task id"
// @Param        body  body      object  true  "{\"to\":\"todo|doing|done\"}"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]interface{}
// @Router       /tasks/{id}/move [post]
func (h *TaskHandler) Move(c *gin.Context) {
	var req struct {
		To models.Column `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.state.Drop(c.Request.Context(), c.Param("id"), req.To)
	if err != nil {
		respondStateError(c, "task][move", task, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Kanban board
// @Tags         Board
// @Produce      json
// @Param        q       query     string  false  "search"
// @Param        status  query     string  false  "all|critical|incomplete|complete"
// @Success      200     {object}  models.Board
// @Router       /board [get]
func (h *TaskHandler) Board(c *gin.Context) {
	q, status, ok := listQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.state.Board(q, status))
}

// @Summary      Re-read every task from the store
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      502  {object}  map[string]string
// @Router       /reload [post]
func (h *TaskHandler) Reload(c *gin.Context) {
	if err := h.state.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(h.state.Tasks())})
}
