package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskpilot/internal/task"
)

// MemoryStore keeps tasks in process memory. It backs the demo mode and the
// test suites. Creation order is preserved by the slice.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []task.Task
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store pre-populated with the given tasks.
// Tasks without an ID receive one.
func NewMemoryStoreWith(tasks ...task.Task) *MemoryStore {
	s := &MemoryStore{}
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		s.tasks = append(s.tasks, t)
	}
	return s
}

func (s *MemoryStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *MemoryStore) CreateTask(ctx context.Context, fields task.Fields) (task.Task, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return task.Task{}, &task.ValidationError{Field: "title", Reason: "title is required"}
	}

	f := fields.WithDefaults()
	t := task.Task{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		Status:      f.Status,
		DueDate:     f.DueDate,
		Category:    f.Category,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t, nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, id string, upd task.Update) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		t := s.tasks[i]
		upd.Apply(&t)
		if strings.TrimSpace(t.Title) == "" {
			return task.Task{}, &task.ValidationError{Field: "title", Reason: "title is required"}
		}
		s.tasks[i] = t
		return t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return task.ErrNotFound
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
