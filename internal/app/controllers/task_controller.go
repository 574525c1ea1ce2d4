package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
)

// TaskController serves the kanban board.
type TaskController struct {
	tasks services.TaskService
	now   func() time.Time
}

// NewTaskController creates a new TaskController
func NewTaskController(tasks services.TaskService) *TaskController {
	return &TaskController{tasks: tasks, now: time.Now}
}

// Board returns the tasks grouped by column with overdue flags.
func (c *TaskController) Board(ctx *gin.Context) {
	board := views.TasksByStatus(middleware.SessionFrom(ctx).Store.Snapshot().Tasks)
	now := c.now()
	column := func(tasks []models.Task) []dto.TaskItem {
		out := make([]dto.TaskItem, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, dto.TaskItem{Task: t, Overdue: views.IsOverdue(t, now)})
		}
		return out
	}
	respond(ctx, http.StatusOK, dto.BoardResponse{
		Todo:       column(board.Todo),
		InProgress: column(board.InProgress),
		Done:       column(board.Done),
	}, "")
}

func taskInput(req dto.TaskRequest) services.TaskInput {
	return services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		Status:      req.Status,
	}
}

func (c *TaskController) CreateTask(ctx *gin.Context) {
	var req dto.TaskRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	task, err := c.tasks.CreateTask(ctx.Request.Context(), middleware.SessionFrom(ctx), taskInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, task, "")
}

func (c *TaskController) UpdateTask(ctx *gin.Context) {
	var req dto.TaskRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	task, err := c.tasks.UpdateTask(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), taskInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, task, "")
}

// MoveTask changes the column of a task.
func (c *TaskController) MoveTask(ctx *gin.Context) {
	var req dto.MoveTaskRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	task, err := c.tasks.MoveTask(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, task, "")
}

func (c *TaskController) DeleteTask(ctx *gin.Context) {
	if err := c.tasks.DeleteTask(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Task deleted")
}
