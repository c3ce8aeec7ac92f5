package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description List the caller's tasks, newest first
// @Tags tasks
// @Produce json
// @Success 200 {array} entities.Task
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary Create a task
// @Description Create a task owned by the caller. Importance defaults to 5.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	taskID, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), user.ID, taskID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partial update; absent fields are untouched and "dueDate": null clears the due date
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	taskID, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("body", "invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), user.ID, taskID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	taskID, err := parseID(c, entities.ErrTaskNotFound)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), user.ID, taskID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}
