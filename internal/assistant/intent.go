package assistant

import (
	"strings"

	"taskpilot/internal/logging"
)

// Kind is the classified category of a user utterance.
type Kind int

const (
	KindFallback Kind = iota
	KindCreateTask
	KindDeleteTask
	KindSetPriority
	KindListTasks
	KindHelp
	KindGreeting
)

func (k Kind) String() string {
	switch k {
	case KindCreateTask:
		return "CreateTask"
	case KindDeleteTask:
		return "DeleteTask"
	case KindSetPriority:
		return "SetPriority"
	case KindListTasks:
		return "ListTasks"
	case KindHelp:
		return "Help"
	case KindGreeting:
		return "Greeting"
	default:
		return "Fallback"
	}
}

// rule pairs an intent with its trigger predicate over the lowercased
// utterance.
type rule struct {
	kind  Kind
	match func(lower string) bool
}

// rules is the classification policy: evaluated in order, first match wins.
// Delete, set-priority and list come before create because their trigger
// words can co-occur with task-noun words and must take precedence. The
// final fallback rule makes classification total.
var rules = []rule{
	{KindDeleteTask, func(s string) bool {
		return strings.Contains(s, "delete") || strings.Contains(s, "remove")
	}},
	{KindSetPriority, func(s string) bool {
		return strings.Contains(s, "set") && strings.Contains(s, "priority")
	}},
	{KindListTasks, func(s string) bool {
		return strings.Contains(s, "show") && (strings.Contains(s, "tasks") || strings.Contains(s, "list"))
	}},
	{KindCreateTask, func(s string) bool {
		return IsCreation(s)
	}},
	{KindHelp, func(s string) bool {
		return strings.Contains(s, "help") || strings.Contains(s, "what can you do")
	}},
	{KindGreeting, func(s string) bool {
		return strings.Contains(s, "hello") || strings.Contains(s, "hi")
	}},
	{KindFallback, func(string) bool { return true }},
}

// Classify returns the first intent whose predicate matches the utterance.
// It never fails: the fallback rule matches everything.
func Classify(utterance string) Kind {
	lower := strings.ToLower(utterance)
	for _, r := range rules {
		if r.match(lower) {
			logging.Intent("Classified %q as %s", utterance, r.kind)
			return r.kind
		}
	}
	return KindFallback // Unreachable: the last rule is total
}
