package assistant

import (
	"strings"

	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

// Resolve maps a free-text search phrase to a cached task by symmetric
// substring containment: a task is a candidate when its lowercased title
// contains the phrase or the phrase contains the title. The first candidate
// in cache order wins; there is no scoring by match length or edit distance.
// An empty phrase never matches (every title contains the empty string, so
// it would otherwise always resolve to the first task). Not finding a task
// is a normal outcome, not an error.
func Resolve(phrase string, cache []task.Task) (task.Task, bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return task.Task{}, false
	}

	for _, t := range cache {
		title := strings.ToLower(t.Title)
		if strings.Contains(title, p) || strings.Contains(p, title) {
			logging.Resolver("Resolved %q to task %s (%q)", phrase, t.ID, t.Title)
			return t, true
		}
	}

	logging.Resolver("No task matching %q among %d cached", phrase, len(cache))
	return task.Task{}, false
}
