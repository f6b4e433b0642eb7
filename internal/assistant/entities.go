package assistant

import (
	"regexp"
	"strings"
	"time"

	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

// The four entity probes run independently over the raw utterance; overlaps
// between their matched spans are tolerated because only the title capture
// feeds stored content.
var (
	// creationPattern recognizes "add task", "create a todo", etc.
	creationPattern = regexp.MustCompile(`(?i)(?:add|create|make|schedule|set up|plan)\s+(?:a\s+)?(?:task|todo|reminder)`)

	// titlePattern captures everything after the creation phrase up to the
	// first due/priority/category marker word.
	titlePattern = regexp.MustCompile(`(?i)(?:add|create|make|schedule|set up|plan)\s+(?:a\s+)?(?:task|todo|reminder)\s+(?:to\s+)?(.+?)(?:\s+(?:by|on|for|due|deadline|priority|category)|\s*$)`)

	// dueDatePattern captures a date token following by/on/due/deadline.
	dueDatePattern = regexp.MustCompile(`(?i)(?:by|on|due|deadline)\s+(tomorrow|today|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next week|this week|\d{1,2}/\d{1,2}|\d{1,2}-\d{1,2})`)

	// priorityPattern captures a priority word following a priority marker.
	priorityPattern = regexp.MustCompile(`(?i)(?:priority|important|urgent|high|medium|low)\s+(high|medium|low|urgent|important)`)

	// categoryPattern captures a category from a closed vocabulary.
	categoryPattern = regexp.MustCompile(`(?i)(?:category|type|for)\s+(work|personal|shopping|health|study|project)`)
)

// Entities holds the structured values extracted from one utterance.
type Entities struct {
	Title    string
	DueToken string     // Raw captured token, lowercased; empty when absent
	DueDate  *time.Time // Resolved date; nil when the token is unresolved
	Priority task.Priority
	Category string
}

// IsCreation reports whether the text contains a creation-verb phrase.
func IsCreation(text string) bool {
	return creationPattern.MatchString(text)
}

// Extract runs the four probes over the utterance. Failed probes default:
// priority Medium, category "General", no due date. The title falls back to
// the utterance with the creation phrase stripped.
func Extract(text string, now time.Time) Entities {
	e := Entities{
		Priority: task.PriorityMedium,
		Category: "General",
	}

	if m := titlePattern.FindStringSubmatch(text); m != nil {
		e.Title = strings.TrimSpace(m[1])
	} else {
		e.Title = strings.TrimSpace(creationPattern.ReplaceAllString(text, ""))
	}

	if m := dueDatePattern.FindStringSubmatch(text); m != nil {
		e.DueToken = strings.ToLower(m[1])
		if d, ok := NormalizeDate(e.DueToken, now); ok {
			e.DueDate = &d
		} else {
			logging.IntentDebug("Due token %q recognized but unresolved", e.DueToken)
		}
	}

	if m := priorityPattern.FindStringSubmatch(text); m != nil {
		word := strings.ToLower(m[1])
		if word == "urgent" || word == "important" {
			e.Priority = task.PriorityHigh
		} else {
			e.Priority = task.Priority(capitalize(word))
		}
	}

	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		e.Category = capitalize(strings.ToLower(m[1]))
	}

	logging.IntentDebug("Extracted entities: title=%q due=%q priority=%s category=%s",
		e.Title, e.DueToken, e.Priority, e.Category)
	return e
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
