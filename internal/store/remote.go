package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

// RemoteStore talks to a TaskPilot-compatible REST API.
//
// The wire contract:
//
//	GET    {base}/api/todos        list tasks
//	POST   {base}/api/todos        create task
//	PUT    {base}/api/todos/{id}   update task
//	DELETE {base}/api/todos/{id}   delete task
//
// All requests carry "Authorization: Bearer {token}" when a token is set.
// The server responds 400 for invalid payloads, 401 for bad credentials and
// 404 for unknown task IDs.
type RemoteStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// wireTask is the JSON shape the API speaks. The server names its ID field
// "_id" and uses camelCase for the date fields.
type wireTask struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
}

// wireError is the API's error envelope.
type wireError struct {
	Message string `json:"message"`
}

// NewRemoteStore builds a store client for the given API base URL. token may
// be empty for unauthenticated servers.
func NewRemoteStore(baseURL, token string) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *RemoteStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	var wire []wireTask
	if err := s.do(ctx, http.MethodGet, "/api/todos", nil, &wire); err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, w.toTask())
	}
	return tasks, nil
}

func (s *RemoteStore) CreateTask(ctx context.Context, fields task.Fields) (task.Task, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return task.Task{}, &task.ValidationError{Field: "title", Reason: "title is required"}
	}
	body := wireTask{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    string(fields.Priority),
		Status:      string(fields.Status),
		DueDate:     fields.DueDate,
		Category:    fields.Category,
	}
	var created wireTask
	if err := s.do(ctx, http.MethodPost, "/api/todos", body, &created); err != nil {
		return task.Task{}, err
	}
	logging.Store("Created remote task %s: %q", created.ID, created.Title)
	return created.toTask(), nil
}

func (s *RemoteStore) UpdateTask(ctx context.Context, id string, upd task.Update) (task.Task, error) {
	body := map[string]interface{}{}
	if upd.Title != nil {
		body["title"] = *upd.Title
	}
	if upd.Description != nil {
		body["description"] = *upd.Description
	}
	if upd.Priority != nil {
		body["priority"] = string(*upd.Priority)
	}
	if upd.Status != nil {
		body["status"] = string(*upd.Status)
	}
	if upd.DueDate != nil {
		body["dueDate"] = *upd.DueDate
	}
	if upd.Category != nil {
		body["category"] = *upd.Category
	}
	var updated wireTask
	if err := s.do(ctx, http.MethodPut, "/api/todos/"+id, body, &updated); err != nil {
		return task.Task{}, err
	}
	logging.Store("Updated remote task %s", id)
	return updated.toTask(), nil
}

func (s *RemoteStore) DeleteTask(ctx context.Context, id string) error {
	if err := s.do(ctx, http.MethodDelete, "/api/todos/"+id, nil, nil); err != nil {
		return err
	}
	logging.Store("Deleted remote task %s", id)
	return nil
}

// Close is a no-op for the HTTP client.
func (s *RemoteStore) Close() error { return nil }

// do performs one API round trip: marshal body, set auth, map error status
// codes to the package's sentinel errors, and decode the response into out.
func (s *RemoteStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logging.StoreError("%s %s failed: %v", method, path, err)
		return fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return s.mapError(resp, method, path)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *RemoteStore) mapError(resp *http.Response, method, path string) error {
	var we wireError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	json.Unmarshal(data, &we)
	msg := we.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	logging.StoreError("%s %s returned %d: %s", method, path, resp.StatusCode, msg)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &task.ValidationError{Field: "payload", Reason: msg}
	case http.StatusUnauthorized:
		return task.ErrUnauthorized
	case http.StatusNotFound:
		return task.ErrNotFound
	default:
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, msg)
	}
}

func (w wireTask) toTask() task.Task {
	t := task.Task{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Priority:    task.Priority(w.Priority),
		Status:      task.Status(w.Status),
		DueDate:     w.DueDate,
		Category:    w.Category,
		CreatedAt:   w.CreatedAt,
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	return t
}
