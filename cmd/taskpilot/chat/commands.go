package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

const commandHelpText = `**TaskPilot commands**

- ` + "`/help`" + ` - show this help
- ` + "`/tasks`" + ` - show the current task snapshot
- ` + "`/refresh`" + ` - refetch tasks from the store
- ` + "`/new`" + ` - start a fresh conversation
- ` + "`/theme [light|dark]`" + ` - switch the color theme
- ` + "`/quit`" + ` - exit

Anything without a leading slash is interpreted as a task request.`

// handleCommand dispatches a slash command. Commands are handled by the TUI
// itself and never reach the interpreter.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	logging.Session("command: %s", cmd)

	switch cmd {
	case "/help":
		return m.reply(commandHelpText)

	case "/tasks":
		return m.reply(formatTaskTable(m.engine.Tasks()))

	case "/refresh":
		eng := m.engine
		ctx := m.ctx
		return m.withCmd(func() tea.Msg {
			if err := eng.Refresh(ctx); err != nil {
				return errorMsg{err: fmt.Errorf("refresh: %w", err)}
			}
			return localReplyMsg(fmt.Sprintf("Refreshed. You have %d task(s).", len(eng.Tasks())))
		})

	case "/new":
		m.engine.Reset()
		m.history = m.engine.Transcript()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case "/theme":
		if len(args) == 0 {
			mode := "light"
			if m.styles.Theme.IsDark {
				mode = "dark"
			}
			return m.reply(fmt.Sprintf("Current theme: **%s**. Use `/theme light` or `/theme dark`.", mode))
		}
		name := strings.ToLower(args[0])
		if name != "light" && name != "dark" {
			return m.reply(fmt.Sprintf("Unknown theme %q. Use `light` or `dark`.", args[0]))
		}
		cfg := *m.cfg
		cfg.Theme = name
		m.applyConfig(&cfg)
		return m.reply(fmt.Sprintf("Switched to the **%s** theme.", name))

	case "/quit", "/exit":
		m.shutdown()
		return m, tea.Quit

	default:
		return m.reply(fmt.Sprintf("Unknown command `%s`. Type `/help` for the list.", cmd))
	}
}

// reply appends an assistant-side message produced by the TUI.
func (m Model) reply(content string) (tea.Model, tea.Cmd) {
	return m, func() tea.Msg { return localReplyMsg(content) }
}

func (m Model) withCmd(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	return m, cmd
}

// formatTaskTable renders the cached tasks as a markdown list.
func formatTaskTable(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "You have no tasks right now."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Your tasks (%d):**\n", len(tasks))
	for i, t := range tasks {
		fmt.Fprintf(&b, "\n%d. **%s** - %s priority, %s", i+1, t.Title, t.Priority, t.Status)
		if t.DueDate != nil {
			fmt.Fprintf(&b, ", due %s", t.DueDate.Format("Jan 2"))
		}
		if t.Category != "" {
			fmt.Fprintf(&b, " [%s]", t.Category)
		}
	}
	return b.String()
}
