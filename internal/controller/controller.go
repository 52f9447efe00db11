// Package controller owns the client-side task list: the last fetched
// snapshot, the selected filter and the mutating actions. Every successful
// mutation is followed by a full refresh.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studytodo/internal/client"
	"studytodo/internal/dto"
	"studytodo/internal/listview"
)

// ErrInvalidTaskID is returned for an empty task id; no request is sent.
var ErrInvalidTaskID = errors.New("invalid task id")

const invalidTaskIDMessage = "Invalid task id."

// ErrCanceled is returned when the user declines a confirmation.
var ErrCanceled = errors.New("canceled")

// API is the subset of the task API the controller drives.
type API interface {
	List(ctx context.Context) ([]dto.TaskResponse, error)
	Create(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error)
	MarkDone(ctx context.Context, id string) (dto.TaskResponse, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) (int64, error)
}

// Notifier shows messages to the user and asks for confirmations.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Confirm(prompt string) bool
}

type Controller struct {
	api      API
	notify   Notifier
	now      func() time.Time
	snapshot []dto.TaskResponse
	filter   listview.Filter
}

func New(api API, notify Notifier) *Controller {
	return &Controller{
		api:    api,
		notify: notify,
		now:    time.Now,
		filter: listview.FilterAll,
	}
}

// Snapshot returns a copy of the last fetched list.
func (c *Controller) Snapshot() []dto.TaskResponse {
	return append([]dto.TaskResponse(nil), c.snapshot...)
}

func (c *Controller) Filter() listview.Filter { return c.filter }

func (c *Controller) SetFilter(f listview.Filter) { c.filter = f }

// View renders the snapshot for the current filter and day.
func (c *Controller) View() listview.View {
	return listview.Build(c.snapshot, c.filter, c.now())
}

// Refresh replaces the snapshot with the server's list. On failure the old
// snapshot is kept.
func (c *Controller) Refresh(ctx context.Context) error {
	list, err := c.api.List(ctx)
	if err != nil {
		return c.fail("Failed to load tasks", err)
	}
	c.snapshot = list
	return nil
}

// Create adds a task. due is "YYYY-MM-DD", RFC 3339 or empty.
func (c *Controller) Create(ctx context.Context, title, course, typ, due string) error {
	d, err := dto.ParseDue(due)
	if err != nil {
		c.notify.Error(err.Error())
		return err
	}
	req := dto.CreateTaskRequest{
		Title:  title,
		Course: course,
		Type:   typ,
	}
	if d != nil {
		req.Due = dto.NewDueDate(d)
	}
	if _, err := c.api.Create(ctx, req); err != nil {
		return c.fail("Failed to create task", err)
	}
	c.notify.Success("Task added.")
	return c.Refresh(ctx)
}

func (c *Controller) MarkDone(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return c.invalidID()
	}
	if _, err := c.api.MarkDone(ctx, id); err != nil {
		return c.fail("Failed to update task", err)
	}
	c.notify.Success("Marked as done.")
	return c.Refresh(ctx)
}

func (c *Controller) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return c.invalidID()
	}
	if !c.notify.Confirm("Delete this task?") {
		return ErrCanceled
	}
	if err := c.api.Delete(ctx, id); err != nil {
		return c.fail("Failed to delete task", err)
	}
	c.notify.Success("Task deleted.")
	return c.Refresh(ctx)
}

// ClearCompleted removes every done task and returns how many went.
func (c *Controller) ClearCompleted(ctx context.Context) (int64, error) {
	if !c.notify.Confirm("Delete all completed tasks?") {
		return 0, ErrCanceled
	}
	n, err := c.api.ClearCompleted(ctx)
	if err != nil {
		return 0, c.fail("Failed to clear completed tasks", err)
	}
	c.notify.Success(fmt.Sprintf("Cleared %d completed task(s).", n))
	return n, c.Refresh(ctx)
}

func (c *Controller) invalidID() error {
	c.notify.Error(invalidTaskIDMessage)
	return ErrInvalidTaskID
}

// fail reports err to the user. API errors carry the server's message;
// transport errors get the action's fallback text.
func (c *Controller) fail(fallback string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		c.notify.Error(apiErr.Message)
	} else {
		c.notify.Error(fallback)
	}
	return err
}
