// Package chat provides the interactive TUI for TaskPilot.
// This file contains the Model definition and bubbletea message types.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"taskpilot/cmd/taskpilot/ui"
	"taskpilot/internal/assistant"
	"taskpilot/internal/config"
	"taskpilot/internal/store"
)

// Model is the bubbletea model for the chat session.
type Model struct {
	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// Session
	engine *assistant.Engine
	store  store.Store
	cfg    *config.UserConfig

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// Display transcript. Seeded from the engine at boot; slash command
	// replies are appended here without touching the engine transcript.
	history []assistant.Turn

	// State
	ready     bool
	isBooting bool
	isLoading bool
	err       error
	bootErr   error

	// Input history (Up/Down recall)
	inputHistory []string
	historyIndex int

	width  int
	height int
}

// bootCompleteMsg is sent once the store and engine are constructed and the
// welcome turn has been recorded.
type bootCompleteMsg struct {
	engine *assistant.Engine
	store  store.Store
	err    error
}

// responseMsg carries the assistant's reply for one chat cycle.
type responseMsg struct {
	turn assistant.Turn
}

// localReplyMsg is a reply produced by the TUI itself (slash commands),
// bypassing the interpreter.
type localReplyMsg string

// errorMsg reports a failed chat cycle.
type errorMsg struct {
	err error
}

// configReloadedMsg is sent when the config watcher observes a change to
// the user config file.
type configReloadedMsg struct {
	cfg *config.UserConfig
}
