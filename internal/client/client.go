// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studytodo/internal/dto"
	"studytodo/internal/middleware"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultErrorMessage is used when a failed response carries no error body.
const DefaultErrorMessage = "Request failed"

// APIError is a non-2xx answer from the task API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  logrus.FieldLogger
}

// New returns a client for the API rooted at baseURL. A zero timeout keeps
// the transport default.
func New(baseURL string, timeout time.Duration, logger logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url: scheme must be http or https, got %q", u.Scheme)
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

func (c *Client) List(ctx context.Context) ([]dto.TaskResponse, error) {
	var out []dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []dto.TaskResponse{}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks", createBody(req), &out)
	return out, err
}

// Update sends a partial update. Only non-nil fields and a set Due are sent.
func (c *Client) Update(ctx context.Context, id string, req dto.UpdateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), updateBody(req), &out)
	return out, err
}

func (c *Client) MarkDone(ctx context.Context, id string) (dto.TaskResponse, error) {
	done := true
	return c.Update(ctx, id, dto.UpdateTaskRequest{Done: &done})
}

func (c *Client) Delete(ctx context.Context, id string) error {
	var out dto.DeleteResponse
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, &out)
}

// ClearCompleted deletes every done task and returns the server's count.
func (c *Client) ClearCompleted(ctx context.Context) (int64, error) {
	var out dto.ClearCompletedResponse
	if err := c.do(ctx, http.MethodDelete, "/api/tasks", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func createBody(req dto.CreateTaskRequest) map[string]any {
	body := map[string]any{"title": req.Title}
	if req.Course != "" {
		body["course"] = req.Course
	}
	if req.Type != "" {
		body["type"] = req.Type
	}
	if req.Due.Ptr() != nil {
		body["due"] = req.Due
	}
	return body
}

func updateBody(req dto.UpdateTaskRequest) map[string]any {
	body := map[string]any{}
	if req.Title != nil {
		body["title"] = *req.Title
	}
	if req.Course != nil {
		body["course"] = *req.Course
	}
	if req.Type != nil {
		body["type"] = *req.Type
	}
	if req.Done != nil {
		body["done"] = *req.Done
	}
	if req.Due.IsSet() {
		body["due"] = req.Due
	}
	return body
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logEntry := c.logger.WithFields(logrus.Fields{
		"component":  "task_client",
		"request_id": requestID,
		"method":     method,
		"path":       path,
	})
	logEntry.Debug("calling task api")

	resp, err := c.http.Do(req)
	if err != nil {
		logEntry.WithError(err).Debug("task api unavailable")
		return fmt.Errorf("task api unavailable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		logEntry.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"error":  apiErr.Message,
		}).Debug("task api error")
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var e dto.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Error) != "" {
		return e.Error
	}
	return DefaultErrorMessage
}

// Message returns the user-facing text for err: the API's error message when
// err is an *APIError, otherwise err's own text.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
