// Package store provides task persistence backends for TaskPilot.
// Three implementations exist: LocalStore (SQLite, the default), RemoteStore
// (REST API client) and MemoryStore (in-process, used by tests and the demo
// mode). All three satisfy the Store interface and preserve creation order
// in ListTasks.
package store

import (
	"context"

	"taskpilot/internal/task"
)

// Store is the persistence interface the assistant executes actions against.
// ListTasks returns tasks in creation order, oldest first. Implementations
// return task.ErrNotFound for unknown IDs and task.ValidationError for
// rejected payloads.
type Store interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, fields task.Fields) (task.Task, error)
	UpdateTask(ctx context.Context, id string, upd task.Update) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Close() error
}
