package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"taskpilot/internal/store"
	"taskpilot/internal/task"
)

// newTestEngine returns an engine with no think delay and a fixed clock.
func newTestEngine(t *testing.T, s store.Store) *Engine {
	t.Helper()
	clock := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	e := New(s,
		WithThinkDelay(0),
		WithClock(func() time.Time { return clock }),
	)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return e
}

func TestEngineStart(t *testing.T) {
	s := store.NewMemoryStoreWith(task.Task{Title: "Existing"})
	e := newTestEngine(t, s)

	transcript := e.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("Expected only the welcome turn, got %d", len(transcript))
	}
	if transcript[0].Role != RoleAssistant || transcript[0].Content != welcomeText {
		t.Errorf("Unexpected welcome turn: %+v", transcript[0])
	}

	tasks := e.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Existing" {
		t.Errorf("Session-start refetch missed the seeded task: %+v", tasks)
	}
}

func TestEngineSubmitEmptyIsNoOp(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())

	e.Submit(context.Background(), "   ")
	e.Submit(context.Background(), "")

	if got := len(e.Transcript()); got != 1 {
		t.Errorf("Empty submits must not add turns, transcript has %d", got)
	}
}

func TestEngineSubmitAppendsTurnPair(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())

	e.Submit(context.Background(), "  hello  ")

	got := e.Transcript()[1:]
	want := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: greetingText},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Turn{}, "Time")); diff != "" {
		t.Errorf("Transcript mismatch (-want +got):\n%s", diff)
	}
}

// Every outcome-tagged assistant turn corresponds to exactly one completed
// store action; failed or read-only actions carry no outcome.
func TestEngineOutcomeTags(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())
	ctx := context.Background()

	e.Submit(ctx, "add a task to write tests")
	e.Submit(ctx, "show me all my tasks")
	e.Submit(ctx, "set high priority for write tests")
	e.Submit(ctx, "delete the task about write tests")
	e.Submit(ctx, "delete the task about nothing left")

	var outcomes []Outcome
	for _, turn := range e.Transcript() {
		if turn.Role == RoleAssistant && turn.Outcome != OutcomeNone {
			outcomes = append(outcomes, turn.Outcome)
		}
	}
	want := []Outcome{OutcomeCreated, OutcomeUpdated, OutcomeDeleted}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("Outcome sequence mismatch (-want +got):\n%s", diff)
	}
}

// Scenario: "Add a task to finish the report by Friday" — create fires, the
// date probe recognizes Friday but leaves it unresolved.
func TestScenarioCreateWithUnresolvedDate(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())

	e.Submit(context.Background(), "Add a task to finish the report by Friday")

	tasks := e.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "finish the report" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.DueDate != nil {
		t.Errorf("DueDate should be unset, got %v", got.DueDate)
	}
	if got.Priority != task.PriorityMedium {
		t.Errorf("Priority = %s, want Medium", got.Priority)
	}

	last := e.Transcript()[len(e.Transcript())-1]
	if last.Outcome != OutcomeCreated {
		t.Errorf("Outcome = %q, want created", last.Outcome)
	}
}

// Scenario: "delete the task about meeting" against ["Team meeting"].
func TestScenarioDeleteByContainment(t *testing.T) {
	s := store.NewMemoryStoreWith(task.Task{Title: "Team meeting"})
	e := newTestEngine(t, s)

	e.Submit(context.Background(), "delete the task about meeting")

	if got := e.Tasks(); len(got) != 0 {
		t.Errorf("Cache should be empty, got %+v", got)
	}
	last := e.Transcript()[len(e.Transcript())-1]
	if last.Outcome != OutcomeDeleted {
		t.Errorf("Outcome = %q, want deleted", last.Outcome)
	}
	if !strings.Contains(last.Content, "Team meeting") {
		t.Errorf("Reply should name the task: %q", last.Content)
	}
}

// Scenario: "set high priority for report task" against a Low-priority
// "report task".
func TestScenarioSetPriority(t *testing.T) {
	s := store.NewMemoryStoreWith(task.Task{Title: "report task", Priority: task.PriorityLow})
	e := newTestEngine(t, s)

	e.Submit(context.Background(), "set high priority for report task")

	tasks := e.Tasks()
	if len(tasks) != 1 || tasks[0].Priority != task.PriorityHigh {
		t.Errorf("Cache after update: %+v", tasks)
	}
	last := e.Transcript()[len(e.Transcript())-1]
	if last.Outcome != OutcomeUpdated {
		t.Errorf("Outcome = %q, want updated", last.Outcome)
	}
}

func TestEngineListIdempotence(t *testing.T) {
	s := store.NewMemoryStoreWith(
		task.Task{Title: "First"},
		task.Task{Title: "Second"},
	)
	e := newTestEngine(t, s)
	ctx := context.Background()

	e.Submit(ctx, "show me all my tasks")
	e.Submit(ctx, "show me all my tasks")

	transcript := e.Transcript()
	a := transcript[len(transcript)-3] // First list reply
	b := transcript[len(transcript)-1] // Second list reply
	if a.Content != b.Content {
		t.Errorf("List replies differ:\n%q\n%q", a.Content, b.Content)
	}
}

// Concurrent submits are queued: every cycle completes and the transcript
// holds one user and one assistant turn per submit.
func TestEngineConcurrentSubmitsQueued(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.Submit(ctx, fmt.Sprintf("add a task to item %d", i))
		}(i)
	}
	wg.Wait()

	if got := len(e.Tasks()); got != n {
		t.Errorf("Expected %d tasks, got %d", n, got)
	}

	transcript := e.Transcript()
	if got := len(transcript); got != 1+2*n {
		t.Fatalf("Expected %d turns, got %d", 1+2*n, got)
	}
	created := 0
	for _, turn := range transcript {
		if turn.Outcome == OutcomeCreated {
			created++
		}
	}
	if created != n {
		t.Errorf("Expected %d created outcomes, got %d", n, created)
	}
}

// The delay is injectable so the state machine runs without wall-clock
// waiting; a configured delay actually suspends the response.
func TestEngineThinkDelay(t *testing.T) {
	s := store.NewMemoryStore()
	e := New(s, WithThinkDelay(30*time.Millisecond))
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	start := time.Now()
	e.Submit(context.Background(), "hello")
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Submit returned after %v, want >= 30ms", elapsed)
	}
}

func TestEngineBeginRespondSplit(t *testing.T) {
	e := newTestEngine(t, store.NewMemoryStore())

	if !e.Begin("show me all my tasks") {
		t.Fatal("Begin rejected valid input")
	}

	// The user turn is visible before the response cycle runs
	transcript := e.Transcript()
	last := transcript[len(transcript)-1]
	if last.Role != RoleUser {
		t.Fatalf("Expected user turn first, got %+v", last)
	}

	turn := e.Respond(context.Background(), "show me all my tasks")
	if turn.Role != RoleAssistant || turn.Content != emptyListText {
		t.Errorf("Unexpected response turn: %+v", turn)
	}
}
