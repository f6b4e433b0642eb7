// Package assistant implements the natural-language task-command
// interpreter: intent classification over free-form text, entity extraction,
// fuzzy resolution of task references, and execution of the resulting
// create/update/delete actions against a task store, all inside a turn-based
// dialogue transcript.
package assistant

import "time"

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Outcome tags an assistant turn with the store action it completed.
// A turn whose action failed (or performed none) carries OutcomeNone.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeCreated Outcome = "created"
	OutcomeDeleted Outcome = "deleted"
	OutcomeUpdated Outcome = "updated"
)

// Turn is one message in the transcript. The transcript is append-only;
// turns are never reordered or mutated after creation.
type Turn struct {
	Role    Role
	Content string
	Outcome Outcome
	Time    time.Time
}
