package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
	"github.com/goosetrack/goosetrack-api/internal/usecase"
)

type taskUsecaser interface {
	Create(ctx context.Context, owner *domain.User, in usecase.TaskInput) (*domain.Task, error)
	ListByMonth(ctx context.Context, owner *domain.User, month string) ([]*domain.Task, error)
	Update(ctx context.Context, id string, owner *domain.User, in usecase.TaskInput) (*domain.Task, error)
	Remove(ctx context.Context, id string, owner *domain.User) (*domain.Task, error)
}

type TaskHandler struct {
	taskUsecase taskUsecaser
}

func NewTaskHandler(taskUsecase taskUsecaser) *TaskHandler {
	return &TaskHandler{taskUsecase: taskUsecase}
}

type taskRequest struct {
	Title    string          `json:"title"    binding:"required,max=250"`
	Start    string          `json:"start"    binding:"required,hhmm"`
	End      string          `json:"end"      binding:"required,hhmm"`
	Priority domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	Date     string          `json:"date"     binding:"required,isodate"`
	Category domain.Category `json:"category" binding:"omitempty,oneof=todo 'in progress' done"`
}

func (r taskRequest) input() usecase.TaskInput {
	return usecase.TaskInput{
		Title:    r.Title,
		Start:    r.Start,
		End:      r.End,
		Priority: r.Priority,
		Date:     r.Date,
		Category: r.Category,
	}
}

type taskResponse struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Priority  domain.Priority `json:"priority"`
	Date      string          `json:"date"`
	Category  domain.Category `json:"category"`
	Owner     any             `json:"owner"` // id, or {_id, username, avatar} on lists
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	var owner any = t.OwnerID
	if t.Owner != nil {
		owner = t.Owner
	}
	return taskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Start:     t.Start,
		End:       t.End,
		Priority:  t.Priority,
		Date:      t.Date,
		Category:  t.Category,
		Owner:     owner,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// GET /api/tasks?date=YYYY-MM
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.taskUsecase.ListByMonth(c.Request.Context(), middleware.CurrentUser(c), c.Query("date"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	respondList(c, http.StatusOK, out)
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := h.taskUsecase.Create(c.Request.Context(), middleware.CurrentUser(c), req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, toTaskResponse(task))
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	task, err := h.taskUsecase.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, toTaskResponse(task))
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Remove(c *gin.Context) {
	task, err := h.taskUsecase.Remove(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    toTaskResponse(task),
		"message": "Task deleted successfully",
	})
}
