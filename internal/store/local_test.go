package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskpilot/internal/task"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewLocalStore(t *testing.T) {
	s := newTestLocalStore(t)

	if s.db == nil {
		t.Error("Database connection is nil")
	}

	// Schema should be ready: an empty list query must succeed
	tasks, err := s.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks on fresh store failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected empty store, got %d tasks", len(tasks))
	}
}

func TestLocalStoreCreateAndList(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	due := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	created, err := s.CreateTask(ctx, task.Fields{
		Title:    "buy groceries",
		Priority: task.PriorityHigh,
		DueDate:  &due,
		Category: "Errands",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Created task has no ID")
	}
	if created.Status != task.StatusPending {
		t.Errorf("Expected default status Pending, got %s", created.Status)
	}

	// Second task to verify ordering
	if _, err := s.CreateTask(ctx, task.Fields{Title: "walk the dog"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "buy groceries" || tasks[1].Title != "walk the dog" {
		t.Errorf("Tasks not in creation order: %q, %q", tasks[0].Title, tasks[1].Title)
	}
	if tasks[0].DueDate == nil || !tasks[0].DueDate.Equal(due) {
		t.Errorf("Due date not round-tripped: %v", tasks[0].DueDate)
	}
	if tasks[1].Priority != task.PriorityMedium {
		t.Errorf("Expected default Medium priority, got %s", tasks[1].Priority)
	}
}

func TestLocalStoreCreateRejectsEmptyTitle(t *testing.T) {
	s := newTestLocalStore(t)

	_, err := s.CreateTask(context.Background(), task.Fields{Title: "   "})
	if !task.IsValidation(err) {
		t.Errorf("Expected validation error for blank title, got %v", err)
	}
}

func TestLocalStoreUpdate(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, task.Fields{Title: "call mom"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	high := task.PriorityHigh
	done := task.StatusCompleted
	updated, err := s.UpdateTask(ctx, created.ID, task.Update{Priority: &high, Status: &done})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Priority != task.PriorityHigh {
		t.Errorf("Priority not updated: %s", updated.Priority)
	}
	if updated.Status != task.StatusCompleted {
		t.Errorf("Status not updated: %s", updated.Status)
	}
	if updated.Title != "call mom" {
		t.Errorf("Title should be untouched, got %q", updated.Title)
	}

	// Unknown ID
	_, err = s.UpdateTask(ctx, "no-such-id", task.Update{Priority: &high})
	if !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown ID, got %v", err)
	}
}

func TestLocalStoreDelete(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, task.Fields{Title: "file taxes"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := s.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected empty store after delete, got %d tasks", len(tasks))
	}

	if err := s.DeleteTask(ctx, created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestLocalStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.db")

	s, err := NewLocalStore(path)
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}
	if _, err := s.CreateTask(context.Background(), task.Fields{Title: "persist me"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	s.Close()

	s2, err := NewLocalStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen local store: %v", err)
	}
	defer s2.Close()

	tasks, err := s2.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "persist me" {
		t.Errorf("Task did not survive reopen: %+v", tasks)
	}
}
