package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

// LocalStore persists tasks in a local SQLite database.
type LocalStore struct {
	db     *sql.DB
	dbPath string
}

// NewLocalStore opens (or creates) the SQLite database at path and prepares
// the schema. The parent directory is created if missing.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	logging.StoreDebug("Opened SQLite database connection")

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("LocalStore ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *LocalStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'Medium',
		status TEXT NOT NULL DEFAULT 'Pending',
		due_date DATETIME,
		category TEXT NOT NULL DEFAULT 'General',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return nil
}

// ListTasks returns all tasks in creation order (oldest first).
func (s *LocalStore) ListTasks(ctx context.Context) ([]task.Task, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListTasks")
	defer timer.Stop()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, priority, status, due_date, category, created_at
		FROM tasks ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task. Missing fields receive defaults and a
// fresh UUID becomes the task ID. Titles must be non-empty.
func (s *LocalStore) CreateTask(ctx context.Context, fields task.Fields) (task.Task, error) {
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

	var due interface{}
	if t.DueDate != nil {
		due = t.DueDate.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, priority, status, due_date, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status), due, t.Category, t.CreatedAt)
	if err != nil {
		logging.StoreError("Failed to insert task %q: %v", t.Title, err)
		return task.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	logging.Store("Created task %s: %q", t.ID, t.Title)
	return t, nil
}

// UpdateTask applies the non-nil fields of upd to the task with the given ID.
func (s *LocalStore) UpdateTask(ctx context.Context, id string, upd task.Update) (task.Task, error) {
	t, err := s.getTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}

	upd.Apply(&t)
	if strings.TrimSpace(t.Title) == "" {
		return task.Task{}, &task.ValidationError{Field: "title", Reason: "title is required"}
	}

	var due interface{}
	if t.DueDate != nil {
		due = t.DueDate.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, due_date = ?, category = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Priority), string(t.Status), due, t.Category, id)
	if err != nil {
		logging.StoreError("Failed to update task %s: %v", id, err)
		return task.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	logging.Store("Updated task %s", id)
	return t, nil
}

// DeleteTask removes the task with the given ID.
func (s *LocalStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		logging.StoreError("Failed to delete task %s: %v", id, err)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return task.ErrNotFound
	}

	logging.Store("Deleted task %s", id)
	return nil
}

// Close closes the underlying database connection.
func (s *LocalStore) Close() error {
	logging.StoreDebug("Closing LocalStore at %s", s.dbPath)
	return s.db.Close()
}

func (s *LocalStore) getTask(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, priority, status, due_date, category, created_at
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("failed to load task: %w", err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(r rowScanner) (task.Task, error) {
	var t task.Task
	var priority, status string
	var due sql.NullTime
	if err := r.Scan(&t.ID, &t.Title, &t.Description, &priority, &status, &due, &t.Category, &t.CreatedAt); err != nil {
		return task.Task{}, err
	}
	t.Priority = task.Priority(priority)
	t.Status = task.Status(status)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}
