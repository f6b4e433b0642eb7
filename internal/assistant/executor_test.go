package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskpilot/internal/store"
	"taskpilot/internal/task"
)

// failingStore wraps a Store and fails every mutation.
type failingStore struct {
	store.Store
}

var errDown = errors.New("store down")

func (f *failingStore) CreateTask(ctx context.Context, fields task.Fields) (task.Task, error) {
	return task.Task{}, errDown
}

func (f *failingStore) UpdateTask(ctx context.Context, id string, upd task.Update) (task.Task, error) {
	return task.Task{}, errDown
}

func (f *failingStore) DeleteTask(ctx context.Context, id string) error {
	return errDown
}

func seededStore(t *testing.T, titles ...string) (*store.MemoryStore, []task.Task) {
	t.Helper()
	s := store.NewMemoryStore()
	var cache []task.Task
	for _, title := range titles {
		created, err := s.CreateTask(context.Background(), task.Fields{Title: title})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		cache = append(cache, created)
	}
	return s, cache
}

func TestExecuteDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes exactly one task", func(t *testing.T) {
		s, cache := seededStore(t, "Team meeting", "Write report")
		x := NewExecutor(s)

		res, next := x.Execute(ctx, KindDeleteTask, "delete the task about meeting", time.Now(), cache)
		if res.Outcome != OutcomeDeleted {
			t.Fatalf("Outcome = %q, want deleted", res.Outcome)
		}
		if len(next) != 1 || next[0].Title != "Write report" {
			t.Errorf("Cache after delete = %+v", next)
		}
		if !strings.Contains(res.Content, "Team meeting") {
			t.Errorf("Reply should name the deleted task: %q", res.Content)
		}

		remaining, _ := s.ListTasks(ctx)
		if len(remaining) != 1 {
			t.Errorf("Store should hold 1 task, has %d", len(remaining))
		}
	})

	t.Run("no match leaves cache and reports", func(t *testing.T) {
		s, cache := seededStore(t, "Team meeting")
		x := NewExecutor(s)

		res, next := x.Execute(ctx, KindDeleteTask, "delete the task about groceries", time.Now(), cache)
		if res.Outcome != OutcomeNone {
			t.Errorf("Outcome = %q, want none", res.Outcome)
		}
		if len(next) != 1 {
			t.Errorf("Cache must be untouched, got %d entries", len(next))
		}
		if !strings.Contains(res.Content, "couldn't find a task matching") {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})

	t.Run("empty cache reports not found", func(t *testing.T) {
		x := NewExecutor(store.NewMemoryStore())

		res, _ := x.Execute(ctx, KindDeleteTask, "delete the report task", time.Now(), nil)
		if res.Outcome != OutcomeNone {
			t.Errorf("Outcome = %q, want none", res.Outcome)
		}
		if !strings.Contains(res.Content, "couldn't find") {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})

	t.Run("store failure keeps cache", func(t *testing.T) {
		s, cache := seededStore(t, "Team meeting")
		x := NewExecutor(&failingStore{Store: s})

		res, next := x.Execute(ctx, KindDeleteTask, "delete the task about meeting", time.Now(), cache)
		if res.Outcome != OutcomeNone {
			t.Errorf("Failed delete must not tag an outcome, got %q", res.Outcome)
		}
		if len(next) != 1 {
			t.Errorf("Cache must survive a failed delete, got %d entries", len(next))
		}
	})
}

func TestExecuteSetPriority(t *testing.T) {
	ctx := context.Background()

	t.Run("updates store and cache in place", func(t *testing.T) {
		s := store.NewMemoryStore()
		created, _ := s.CreateTask(ctx, task.Fields{Title: "report task", Priority: task.PriorityLow})
		x := NewExecutor(s)

		res, next := x.Execute(ctx, KindSetPriority, "set high priority for report task", time.Now(), []task.Task{created})
		if res.Outcome != OutcomeUpdated {
			t.Fatalf("Outcome = %q, want updated", res.Outcome)
		}
		if next[0].Priority != task.PriorityHigh {
			t.Errorf("Cache priority = %s, want High", next[0].Priority)
		}

		stored, _ := s.ListTasks(ctx)
		if stored[0].Priority != task.PriorityHigh {
			t.Errorf("Store priority = %s, want High", stored[0].Priority)
		}
	})

	t.Run("capture miss clarifies", func(t *testing.T) {
		s, cache := seededStore(t, "report task")
		x := NewExecutor(s)

		res, _ := x.Execute(ctx, KindSetPriority, "set the priority please", time.Now(), cache)
		if res.Outcome != OutcomeNone {
			t.Errorf("Outcome = %q, want none", res.Outcome)
		}
		if res.Content != priorityClarifyText {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})

	t.Run("resolver miss reports", func(t *testing.T) {
		s, cache := seededStore(t, "report task")
		x := NewExecutor(s)

		res, _ := x.Execute(ctx, KindSetPriority, "set high priority for laundry", time.Now(), cache)
		if res.Outcome != OutcomeNone {
			t.Errorf("Outcome = %q, want none", res.Outcome)
		}
		if !strings.Contains(res.Content, "couldn't find a task matching") {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})
}

func TestExecuteList(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cache prompts creation", func(t *testing.T) {
		x := NewExecutor(store.NewMemoryStore())
		res, _ := x.Execute(ctx, KindListTasks, "show me all my tasks", time.Now(), nil)
		if res.Content != emptyListText {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})

	t.Run("enumerates in cache order", func(t *testing.T) {
		s, cache := seededStore(t, "First", "Second")
		x := NewExecutor(s)

		res, _ := x.Execute(ctx, KindListTasks, "show me all my tasks", time.Now(), cache)
		if !strings.Contains(res.Content, "1. **First** - Medium priority, Pending") {
			t.Errorf("Missing first entry: %q", res.Content)
		}
		if !strings.Contains(res.Content, "2. **Second** - Medium priority, Pending") {
			t.Errorf("Missing second entry: %q", res.Content)
		}
	})

	t.Run("idempotent without mutation", func(t *testing.T) {
		s, cache := seededStore(t, "Only task")
		x := NewExecutor(s)

		first, _ := x.Execute(ctx, KindListTasks, "show me all my tasks", time.Now(), cache)
		second, _ := x.Execute(ctx, KindListTasks, "show me all my tasks", time.Now(), cache)
		if first.Content != second.Content {
			t.Errorf("Two list calls differ:\n%q\n%q", first.Content, second.Content)
		}
	})
}

func TestExecuteCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("creates with extracted entities", func(t *testing.T) {
		s := store.NewMemoryStore()
		x := NewExecutor(s)

		res, next := x.Execute(ctx, KindCreateTask, "Add a task to finish the report by Friday", now, nil)
		if res.Outcome != OutcomeCreated {
			t.Fatalf("Outcome = %q, want created", res.Outcome)
		}
		if len(next) != 1 {
			t.Fatalf("Cache should hold the new task, got %d", len(next))
		}
		got := next[0]
		if got.Title != "finish the report" {
			t.Errorf("Title = %q", got.Title)
		}
		if got.DueDate != nil {
			t.Errorf("Friday is outside the date vocabulary, got due %v", got.DueDate)
		}
		if got.Priority != task.PriorityMedium {
			t.Errorf("Priority = %s, want Medium", got.Priority)
		}
		if got.Category != "General" {
			t.Errorf("Category = %q, want General", got.Category)
		}
	})

	t.Run("resolved due date reaches the store", func(t *testing.T) {
		s := store.NewMemoryStore()
		x := NewExecutor(s)

		_, next := x.Execute(ctx, KindCreateTask, "add a task to water plants by tomorrow", now, nil)
		want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
		if next[0].DueDate == nil || !next[0].DueDate.Equal(want) {
			t.Errorf("DueDate = %v, want %v", next[0].DueDate, want)
		}
	})

	t.Run("store failure keeps cache and reports", func(t *testing.T) {
		x := NewExecutor(&failingStore{Store: store.NewMemoryStore()})

		res, next := x.Execute(ctx, KindCreateTask, "add a task to explode", now, nil)
		if res.Outcome != OutcomeNone {
			t.Errorf("Failed create must not tag an outcome, got %q", res.Outcome)
		}
		if len(next) != 0 {
			t.Errorf("Cache must stay empty after failed create, got %d", len(next))
		}
		if res.Content != createFailedText {
			t.Errorf("Unexpected reply: %q", res.Content)
		}
	})
}

func TestExecuteFixedResponses(t *testing.T) {
	x := NewExecutor(store.NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindHelp, helpText},
		{KindGreeting, greetingText},
		{KindFallback, fallbackText},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			res, _ := x.Execute(ctx, tt.kind, "whatever", time.Now(), nil)
			if res.Content != tt.want {
				t.Errorf("Content mismatch for %s", tt.kind)
			}
			if res.Outcome != OutcomeNone {
				t.Errorf("%s must not tag an outcome", tt.kind)
			}
		})
	}
}
