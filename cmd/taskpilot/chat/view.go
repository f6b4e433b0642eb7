package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskpilot/internal/assistant"
)

// View renders the full chat screen.
func (m Model) View() string {
	if m.bootErr != nil {
		return m.styles.Error.Render(fmt.Sprintf("Startup failed: %v\n", m.bootErr)) +
			m.styles.Muted.Render("Press Ctrl+C to exit.\n")
	}
	if m.isBooting {
		return m.renderBootScreen()
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHistory renders the transcript with per-role styling.
func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return m.styles.Muted.Render("No messages yet.")
	}

	var b strings.Builder
	for i, turn := range m.history {
		if i > 0 {
			b.WriteString("\n")
		}
		switch turn.Role {
		case assistant.RoleUser:
			b.WriteString(m.styles.Prompt.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.styles.UserInput.Render(turn.Content))
		case assistant.RoleAssistant:
			b.WriteString(m.styles.Bold.Render("TaskPilot"))
			b.WriteString("\n")
			b.WriteString(m.styles.AssistantResponse.Render(m.safeRenderMarkdown(turn.Content)))
		default:
			b.WriteString(m.styles.Muted.Render(turn.Content))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// safeRenderMarkdown renders markdown and falls back to the raw text if
// the renderer is missing or panics on malformed input.
func (m Model) safeRenderMarkdown(content string) (out string) {
	if m.renderer == nil {
		return content
	}
	defer func() {
		if r := recover(); r != nil {
			out = content
		}
	}()
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("TaskPilot")

	var status string
	if m.isLoading {
		status = m.styles.Spinner.Render(m.spinner.View()) +
			m.styles.Subtitle.Render(" Thinking...")
	} else {
		status = m.styles.Success.Render("Ready")
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + status
}

func (m Model) renderFooter() string {
	help := "Enter send | Up/Down history | /help commands | Ctrl+C quit"
	if m.err != nil {
		help = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	ts := time.Now().Format("15:04")
	gap := m.width - lipgloss.Width(help) - len(ts) - 4
	if gap < 1 {
		gap = 1
	}
	return m.styles.Footer.Render(help + strings.Repeat(" ", gap) + ts)
}

func (m Model) renderBootScreen() string {
	content := m.styles.Title.Render("TaskPilot") + "\n\n" +
		m.styles.Spinner.Render(m.spinner.View()) +
		m.styles.Subtitle.Render(" Starting session...")

	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
