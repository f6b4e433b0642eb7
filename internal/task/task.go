// Package task defines the task data model shared by the store backends and
// the assistant. A Task is owned by whichever store it came from; the
// assistant only ever holds copies in its session cache.
package task

import "time"

// Priority levels, matching the dashboard's three-level scheme.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ValidPriority reports whether p is one of the three known levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status values a task moves through.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Task is a single tracked item. ID is opaque and store-assigned; callers
// must not parse it.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Fields carries the payload for creating a task. Title is the only required
// field; the store applies defaults for the rest.
type Fields struct {
	Title       string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
	Category    string
}

// WithDefaults returns a copy of f with zero values replaced by the
// defaults the dashboard uses (Medium priority, Pending status, General
// category).
func (f Fields) WithDefaults() Fields {
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	if f.Category == "" {
		f.Category = "General"
	}
	return f
}

// Update carries a partial update. Nil fields are left untouched.
type Update struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *Status
	DueDate     *time.Time
	Category    *string
}

// Apply copies the non-nil fields of u onto t.
func (u Update) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
}
