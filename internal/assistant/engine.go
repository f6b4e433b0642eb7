package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"taskpilot/internal/logging"
	"taskpilot/internal/store"
	"taskpilot/internal/task"
)

// Engine orchestrates one dialogue session: it owns the append-only
// transcript and the insertion-ordered task cache, and runs the
// classify → extract/resolve → execute → format cycle for every utterance.
//
// Concurrent submits are queued: an internal mutex serializes execute cycles
// in arrival order, so overlapping submissions produce a deterministic
// transcript. The cache is an optimistic mirror of the store; it is fully
// refetched at session start and resynchronized after every executed action
// through a singleflight group so overlapping cycles share one refetch.
type Engine struct {
	store store.Store
	exec  *Executor
	delay time.Duration
	now   func() time.Time

	sessionID string

	execMu sync.Mutex // Serializes classify/execute cycles

	mu         sync.RWMutex // Guards transcript and cache
	transcript []Turn
	cache      []task.Task

	resync singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithThinkDelay overrides the simulated thinking pause. Zero disables it;
// tests use this to run the state machine without wall-clock waiting.
func WithThinkDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithClock injects the time source used for date normalization and turn
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over the given store. The default think delay
// simulates a short "thinking" beat before each reply.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		exec:      NewExecutor(s),
		delay:     800 * time.Millisecond,
		now:       time.Now,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the session: the welcome turn is appended and the task cache
// is refetched from the store. A refetch failure leaves the cache empty and
// is returned so the caller can surface it; the session stays usable.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.transcript = append(e.transcript, Turn{
		Role:    RoleAssistant,
		Content: welcomeText,
		Time:    e.now(),
	})
	e.mu.Unlock()

	if err := logging.InitAudit(); err == nil {
		logging.Audit().SessionStart(e.sessionID)
	}
	logging.Session("Session started")
	return e.Refresh(ctx)
}

// End records the session close in the audit trail.
func (e *Engine) End() {
	e.mu.RLock()
	turns := len(e.transcript)
	e.mu.RUnlock()
	logging.Audit().SessionEnd(e.sessionID, turns)
}

// Reset clears the transcript back to a fresh welcome turn. The task cache
// is kept; task state belongs to the store, not the conversation.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.transcript = []Turn{{
		Role:    RoleAssistant,
		Content: welcomeText,
		Time:    e.now(),
	}}
	e.mu.Unlock()
	logging.Session("Session reset")
}

// Refresh refetches the full task list and replaces the cache. Overlapping
// calls share a single store round trip.
func (e *Engine) Refresh(ctx context.Context) error {
	v, err, _ := e.resync.Do("tasks", func() (interface{}, error) {
		return e.store.ListTasks(ctx)
	})
	if err != nil {
		logging.Get(logging.CategorySession).Warn("Cache refresh failed: %v", err)
		return err
	}

	tasks := v.([]task.Task)
	e.mu.Lock()
	e.cache = tasks
	e.mu.Unlock()
	logging.SessionDebug("Cache refreshed: %d tasks", len(tasks))
	return nil
}

// Submit runs one full dialogue cycle for the utterance: user turn, think
// delay, classify/execute, assistant turn. Empty trimmed input is a no-op.
// This is the blocking entry point; the TUI uses Begin/Respond instead so
// the user turn renders while the delay runs.
func (e *Engine) Submit(ctx context.Context, utterance string) {
	if !e.Begin(utterance) {
		return
	}
	e.Respond(ctx, utterance)
}

// Begin appends the user turn for a non-empty utterance and reports whether
// a response cycle should follow.
func (e *Engine) Begin(utterance string) bool {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return false
	}

	e.mu.Lock()
	e.transcript = append(e.transcript, Turn{
		Role:    RoleUser,
		Content: trimmed,
		Time:    e.now(),
	})
	e.mu.Unlock()

	logging.Session("User: %s", trimmed)
	logging.AuditWithSession(e.sessionID).TurnStart(len(trimmed))
	return true
}

// Respond waits the think delay, runs the classify/execute cycle and appends
// the assistant turn, which it returns. Cycles from concurrent submits are
// serialized in arrival order.
func (e *Engine) Respond(ctx context.Context, utterance string) Turn {
	utterance = strings.TrimSpace(utterance)

	if delay := e.ThinkDelay(); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	e.execMu.Lock()
	defer e.execMu.Unlock()

	started := e.now()
	timer := logging.StartTimer(logging.CategorySession, "dialogue cycle")
	defer timer.Stop()

	kind := Classify(utterance)
	logging.AuditWithSession(e.sessionID).IntentClassified(kind.String())

	e.mu.RLock()
	cache := make([]task.Task, len(e.cache))
	copy(cache, e.cache)
	e.mu.RUnlock()

	result, next := e.exec.Execute(ctx, kind, utterance, e.now(), cache)

	turn := Turn{
		Role:    RoleAssistant,
		Content: result.Content,
		Outcome: result.Outcome,
		Time:    e.now(),
	}

	e.mu.Lock()
	e.cache = next
	e.transcript = append(e.transcript, turn)
	e.mu.Unlock()

	logging.Session("Assistant (%s, outcome=%s)", kind, result.Outcome)
	logging.AuditWithSession(e.sessionID).TurnEnd(kind.String(), e.now().Sub(started).Milliseconds())

	// Opportunistic resync after an executed action keeps the optimistic
	// cache honest; a failed refetch keeps it as-is.
	if result.Outcome != OutcomeNone {
		e.Refresh(ctx)
	}

	return turn
}

// Transcript returns a copy of the transcript in append order.
func (e *Engine) Transcript() []Turn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Turn, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Tasks returns a copy of the current task cache in insertion order.
func (e *Engine) Tasks() []task.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]task.Task, len(e.cache))
	copy(out, e.cache)
	return out
}

// ThinkDelay reports the configured simulated thinking pause.
func (e *Engine) ThinkDelay() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.delay
}

// SetThinkDelay adjusts the pause at runtime (config live-reload).
func (e *Engine) SetThinkDelay(d time.Duration) {
	e.mu.Lock()
	e.delay = d
	e.mu.Unlock()
}

// WelcomeText is the fixed first assistant turn, exposed for rendering
// paths that show it before Start completes.
func WelcomeText() string {
	return welcomeText
}
