package assistant

import (
	"context"
	"regexp"
	"strings"
	"time"

	"taskpilot/internal/logging"
	"taskpilot/internal/store"
	"taskpilot/internal/task"
)

var (
	// deletePattern captures the search phrase after a delete trigger.
	deletePattern = regexp.MustCompile(`(?:delete|remove)\s+(?:the\s+)?(?:task\s+)?(?:about\s+)?(.+)`)

	// setPriorityPattern captures the priority word and the search phrase.
	setPriorityPattern = regexp.MustCompile(`set\s+(high|medium|low)\s+priority\s+(?:for|to)\s+(.+)`)
)

// Result is what one executed intent produces: the assistant's reply and,
// when a store action completed, its outcome tag.
type Result struct {
	Content string
	Outcome Outcome
}

// Executor runs classified intents against the store and the engine-owned
// task cache. The cache is passed in by the engine and returned (possibly
// mutated) so ownership stays in one place; a failed store call never
// mutates it.
type Executor struct {
	store store.Store
}

// NewExecutor returns an executor over the given store.
func NewExecutor(s store.Store) *Executor {
	return &Executor{store: s}
}

// Execute dispatches one classified utterance. It returns the reply and the
// cache after any optimistic mutation.
func (x *Executor) Execute(ctx context.Context, kind Kind, utterance string, now time.Time, cache []task.Task) (Result, []task.Task) {
	switch kind {
	case KindDeleteTask:
		return x.executeDelete(ctx, utterance, cache)
	case KindSetPriority:
		return x.executeSetPriority(ctx, utterance, cache)
	case KindListTasks:
		return x.executeList(cache), cache
	case KindCreateTask:
		return x.executeCreate(ctx, utterance, now, cache)
	case KindHelp:
		return Result{Content: helpText}, cache
	case KindGreeting:
		return Result{Content: greetingText}, cache
	default:
		return Result{Content: fallbackText}, cache
	}
}

func (x *Executor) executeDelete(ctx context.Context, utterance string, cache []task.Task) (Result, []task.Task) {
	m := deletePattern.FindStringSubmatch(strings.ToLower(utterance))
	if m == nil {
		// "delete" with nothing after it carries no phrase to resolve
		return Result{Content: fallbackText}, cache
	}
	phrase := strings.TrimSpace(m[1])

	target, ok := Resolve(phrase, cache)
	if !ok {
		return Result{Content: deleteNotFoundText(phrase)}, cache
	}

	if err := x.store.DeleteTask(ctx, target.ID); err != nil {
		logging.ExecutorError("Delete of %s failed: %v", target.ID, err)
		logging.Audit().TaskMutation(logging.AuditTaskDelete, target.Title, false, err.Error())
		return Result{Content: storeFailureText("deleting")}, cache
	}
	logging.Audit().TaskMutation(logging.AuditTaskDelete, target.Title, true, "")

	next := make([]task.Task, 0, len(cache)-1)
	for _, t := range cache {
		if t.ID != target.ID {
			next = append(next, t)
		}
	}
	logging.Executor("Deleted task %s (%q)", target.ID, target.Title)
	return Result{Content: deletedText(target.Title), Outcome: OutcomeDeleted}, next
}

func (x *Executor) executeSetPriority(ctx context.Context, utterance string, cache []task.Task) (Result, []task.Task) {
	m := setPriorityPattern.FindStringSubmatch(strings.ToLower(utterance))
	if m == nil {
		return Result{Content: priorityClarifyText}, cache
	}
	priority := task.Priority(capitalize(m[1]))
	phrase := strings.TrimSpace(m[2])

	target, ok := Resolve(phrase, cache)
	if !ok {
		return Result{Content: priorityNotFoundText(phrase)}, cache
	}

	updated, err := x.store.UpdateTask(ctx, target.ID, task.Update{Priority: &priority})
	if err != nil {
		logging.ExecutorError("Priority update of %s failed: %v", target.ID, err)
		logging.Audit().TaskMutation(logging.AuditTaskPriority, target.Title, false, err.Error())
		return Result{Content: storeFailureText("updating")}, cache
	}
	logging.Audit().TaskMutation(logging.AuditTaskPriority, target.Title, true, "")

	next := make([]task.Task, len(cache))
	copy(next, cache)
	for i := range next {
		if next[i].ID == target.ID {
			next[i] = updated
			break
		}
	}
	logging.Executor("Set priority of %s (%q) to %s", target.ID, target.Title, priority)
	return Result{Content: priorityUpdatedText(target.Title, priority), Outcome: OutcomeUpdated}, next
}

func (x *Executor) executeList(cache []task.Task) Result {
	if len(cache) == 0 {
		return Result{Content: emptyListText}
	}
	return Result{Content: listText(cache)}
}

func (x *Executor) executeCreate(ctx context.Context, utterance string, now time.Time, cache []task.Task) (Result, []task.Task) {
	e := Extract(utterance, now)

	created, err := x.store.CreateTask(ctx, task.Fields{
		Title:    e.Title,
		Priority: e.Priority,
		Status:   task.StatusPending,
		DueDate:  e.DueDate,
		Category: e.Category,
	})
	if err != nil {
		logging.ExecutorError("Create %q failed: %v", e.Title, err)
		logging.Audit().TaskMutation(logging.AuditTaskCreate, e.Title, false, err.Error())
		return Result{Content: createFailedText}, cache
	}

	logging.Executor("Created task %s (%q)", created.ID, created.Title)
	logging.Audit().TaskMutation(logging.AuditTaskCreate, created.Title, true, "")
	return Result{Content: createdText(e), Outcome: OutcomeCreated}, append(cache, created)
}
