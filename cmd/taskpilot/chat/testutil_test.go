// Package chat test utilities: fixtures and helpers for TUI testing.
package chat

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskpilot/internal/assistant"
	"taskpilot/internal/config"
	"taskpilot/internal/store"
	"taskpilot/internal/task"
)

// TestModelOption customizes the model built by NewTestModel.
type TestModelOption func(*Model)

// WithSize sets the window dimensions and marks the model ready.
func WithSize(width, height int) TestModelOption {
	return func(m *Model) {
		m.width = width
		m.height = height
		m.resize()
		m.ready = true
	}
}

// NewTestModel builds a ready model backed by a seeded in-memory store and
// a zero-delay engine. The boot sequence is skipped.
func NewTestModel(t *testing.T, seed ...task.Task) Model {
	t.Helper()

	st := store.NewMemoryStoreWith(seed...)
	eng := assistant.New(st, assistant.WithThinkDelay(0))
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("engine start: %v", err)
	}

	zero := 0
	cfg := &config.UserConfig{
		Backend:      config.BackendMemory,
		Theme:        "light",
		ThinkDelayMS: &zero,
	}

	m := NewModel(cfg, WithEngine(eng), WithStore(st))
	m.history = eng.Transcript()
	m.width = 100
	m.height = 40
	m.resize()
	m.ready = true

	t.Cleanup(func() {
		m.cancel()
		_ = st.Close()
	})
	return m
}

// submit types input and presses Enter, returning the updated model and the
// command produced.
func submit(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	m.textarea.SetValue(input)
	next, cmd := m.handleSubmit()
	return next.(Model), cmd
}

// drain executes a command and feeds every resulting message back through
// Update until no commands remain, skipping ticks and cursor blinks.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	deadline := time.Now().Add(5 * time.Second)
	for len(queue) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("drain did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		switch typed := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, typed...)
		case responseMsg, localReplyMsg, errorMsg, bootCompleteMsg, configReloadedMsg:
			next, nextCmd := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nextCmd)
		default:
			// spinner ticks, blinks: ignore
		}
	}
	return m
}

// lastTurn returns the most recent transcript entry.
func lastTurn(t *testing.T, m Model) assistant.Turn {
	t.Helper()
	if len(m.history) == 0 {
		t.Fatal("empty history")
	}
	return m.history[len(m.history)-1]
}
