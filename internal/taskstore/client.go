// Package taskstore is a REST client for the external task tracker that
// holds all persistent state: category collections and the inbox ledger.
// The service only creates and patches tasks; it never deletes them.
package taskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.clickup.com/api/v2"

// APIError is returned for non-2xx responses from the task store. It
// carries the upstream error text so callers can surface it to the user.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task store returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds configuration for the task store client.
type Config struct {
	APIToken string
	BaseURL  string        // default: ClickUp v2 API
	Timeout  time.Duration // default: 30s
}

// Client is an HTTP client for the task store REST API.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a task store client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// TaskStatus is the status object the store nests inside a task.
type TaskStatus struct {
	Status string `json:"status"`
}

// Task is a task as returned by the store.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     string     `json:"due_date"`     // epoch millis as string, may be empty
	DateCreated string     `json:"date_created"` // epoch millis as string
}

// CreateTaskRequest is the body for creating a task in a collection.
type CreateTaskRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	MarkdownDescription string `json:"markdown_description,omitempty"`
	DueDate             *int64 `json:"due_date,omitempty"` // epoch millis
}

// CreateTask creates a task in the given collection and returns the stored task.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*Task, error) {
	var task Task
	path := fmt.Sprintf("/list/%s/task", url.PathEscape(listID))
	if err := c.do(ctx, http.MethodPost, path, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	path := fmt.Sprintf("/task/%s", url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasksOptions filters a collection fetch. Zero values mean no filter.
type ListTasksOptions struct {
	Statuses     []string
	DueBefore    time.Time // only tasks due before this instant
	CreatedSince time.Time // only tasks created at or after this instant
}

// listTasksResponse is the envelope the store wraps task lists in.
type listTasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// ListTasks fetches the tasks in a collection, optionally filtered.
func (c *Client) ListTasks(ctx context.Context, listID string, opts ListTasksOptions) ([]Task, error) {
	params := url.Values{}
	for _, s := range opts.Statuses {
		params.Add("statuses[]", s)
	}
	if !opts.DueBefore.IsZero() {
		params.Set("due_date_lt", strconv.FormatInt(opts.DueBefore.UnixMilli(), 10))
	}
	if !opts.CreatedSince.IsZero() {
		params.Set("date_created_gt", strconv.FormatInt(opts.CreatedSince.UnixMilli(), 10))
	}

	path := fmt.Sprintf("/list/%s/task", url.PathEscape(listID))
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp listTasksResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// UpdateTask patches arbitrary fields on a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch map[string]interface{}) error {
	path := fmt.Sprintf("/task/%s", url.PathEscape(taskID))
	return c.do(ctx, http.MethodPut, path, patch, nil)
}

// MoveTask moves a task to another collection, expressed as a patch of the
// collection-id field.
func (c *Client) MoveTask(ctx context.Context, taskID, listID string) error {
	return c.UpdateTask(ctx, taskID, map[string]interface{}{"list": listID})
}

// do issues one request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("taskstore: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("taskstore: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("taskstore: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("taskstore: failed to decode response: %w", err)
		}
	}
	return nil
}
