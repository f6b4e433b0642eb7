// Audit logging: structured JSONL events for the dialogue and the task
// mutations it performs. Each line is one event, suitable for jq-style
// post-mortem queries. Gated on debug mode like the category loggers.

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType tags an audit record.
type AuditEventType string

const (
	// Session lifecycle
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"

	// Dialogue turns
	AuditTurnStart AuditEventType = "turn_start"
	AuditTurnEnd   AuditEventType = "turn_end"

	// Intent classification
	AuditIntentClassified AuditEventType = "intent_classified"

	// Task mutations
	AuditTaskCreate   AuditEventType = "task_create"
	AuditTaskDelete   AuditEventType = "task_delete"
	AuditTaskPriority AuditEventType = "task_priority"

	// Store failures
	AuditStoreError AuditEventType = "store_error"
)

// AuditEvent is one JSONL record in the audit log.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	EventType  AuditEventType `json:"event"`
	SessionID  string         `json:"session,omitempty"`
	Target     string         `json:"target,omitempty"` // task title or id
	Intent     string         `json:"intent,omitempty"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger writes audit events, optionally scoped to a session.
type AuditLogger struct {
	sessionID string
}

// InitAudit opens the audit log. No-op outside debug mode.
func InitAudit() error {
	if !IsDebugMode() || logsDir == "" {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // already open
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	auditFile = file
	return nil
}

// CloseAudit flushes and releases the audit file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the unscoped audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithSession returns a logger whose events carry the session ID.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes one audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" && a.sessionID != "" {
		event.SessionID = a.sessionID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// SessionStart records the start of a dialogue session
func (a *AuditLogger) SessionStart(sessionID string) {
	a.Log(AuditEvent{
		EventType: AuditSessionStart,
		SessionID: sessionID,
		Success:   true,
	})
}

// SessionEnd records the end of a dialogue session
func (a *AuditLogger) SessionEnd(sessionID string, turnCount int) {
	a.Log(AuditEvent{
		EventType: AuditSessionEnd,
		SessionID: sessionID,
		Target:    fmt.Sprintf("%d turns", turnCount),
		Success:   true,
	})
}

// TurnStart records an incoming user utterance
func (a *AuditLogger) TurnStart(inputLen int) {
	a.Log(AuditEvent{
		EventType: AuditTurnStart,
		Target:    fmt.Sprintf("%d chars", inputLen),
		Success:   true,
	})
}

// TurnEnd records a completed dialogue cycle
func (a *AuditLogger) TurnEnd(intent string, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditTurnEnd,
		Intent:     intent,
		Success:    true,
		DurationMs: durationMs,
	})
}

// IntentClassified records the outcome of intent classification
func (a *AuditLogger) IntentClassified(intent string) {
	a.Log(AuditEvent{
		EventType: AuditIntentClassified,
		Intent:    intent,
		Success:   true,
	})
}

// TaskMutation records a create, delete, or priority change
func (a *AuditLogger) TaskMutation(event AuditEventType, target string, success bool, errMsg string) {
	a.Log(AuditEvent{
		EventType: event,
		Target:    target,
		Success:   success,
		Error:     errMsg,
	})
}

// StoreFailure records a failed store round trip
func (a *AuditLogger) StoreFailure(action string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	a.Log(AuditEvent{
		EventType: AuditStoreError,
		Target:    action,
		Success:   false,
		Error:     msg,
	})
}
