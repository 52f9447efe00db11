package handlers

import (
	"errors"
	"io"
	"net/http"

	dom "studytodo/internal/domain"
	"studytodo/internal/dto"
	"studytodo/internal/logger"
	"studytodo/internal/middleware"
	"studytodo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const invalidJSONMessage = "Invalid JSON body"

type TaskHandler struct {
	svc *service.TaskService
	log logrus.FieldLogger
}

func NewTaskHandler(svc *service.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// List godoc
// @Summary      List all tasks
// @Description  Not done first, then by due date (no due date last), then newest first.
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   dto.TaskResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TasksToResponses(list))
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskToResponse(t))
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	// An empty body falls through to the title check.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, bindError(err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:  req.Title,
		Course: req.Course,
		Type:   req.Type,
		Due:    req.Due.Ptr(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.entry(c).WithField("task_id", t.ID).Info("task created")
	c.JSON(http.StatusCreated, TaskToResponse(t))
}

// Update godoc
// @Summary      Update a task
// @Description  Only the provided fields change. A falsy due (null, "") clears the date.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{
		Title:  req.Title,
		Course: req.Course,
		Type:   req.Type,
		Done:   req.Done,
		Due:    req.Due.Ptr(),
		DueSet: req.Due.IsSet(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, TaskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.DeleteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.entry(c).WithField("task_id", id).Info("task deleted")
	c.JSON(http.StatusOK, dto.DeleteResponse{OK: true})
}

// ClearCompleted godoc
// @Summary      Delete all completed tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  dto.ClearCompletedResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks [delete]
func (h *TaskHandler) ClearCompleted(c *gin.Context) {
	n, err := h.svc.ClearCompleted(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.entry(c).WithField("deleted", n).Info("completed tasks cleared")
	c.JSON(http.StatusOK, dto.ClearCompletedResponse{Deleted: n})
}

// fail answers with the mapped status. Unexpected errors are logged and
// answered with a generic message.
func (h *TaskHandler) fail(c *gin.Context, err error) {
	status, msg, ok := errorStatus(err)
	if !ok {
		_ = c.Error(err)
		h.entry(c).WithError(err).Error("task request failed")
	}
	c.JSON(status, dto.ErrorResponse{Error: msg})
}

// bindError turns a request decode failure into a validation error. Only the
// due-date message reaches the client; other decoder text names Go types.
func bindError(err error) error {
	if errors.Is(err, dto.ErrInvalidDue) {
		return &service.ValidationError{Message: dto.ErrInvalidDue.Error()}
	}
	return &service.ValidationError{Message: invalidJSONMessage}
}

func (h *TaskHandler) entry(c *gin.Context) logrus.FieldLogger {
	return logger.WithRequestID(h.log, middleware.GetRequestID(c))
}

func TaskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Course:    t.Course,
		Type:      string(t.Type),
		Due:       t.Due,
		Done:      t.Done,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func TasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = TaskToResponse(list[i])
	}
	return out
}
