package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"taskpilot/cmd/taskpilot/ui"
	"taskpilot/internal/assistant"
	"taskpilot/internal/config"
	"taskpilot/internal/logging"
)

// Update is the bubbletea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.shutdown()
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleSubmit()

		case tea.KeyUp:
			if !m.isLoading && len(m.inputHistory) > 0 && m.historyIndex > 0 {
				m.historyIndex--
				m.textarea.SetValue(m.inputHistory[m.historyIndex])
				m.textarea.CursorEnd()
				return m, nil
			}

		case tea.KeyDown:
			if !m.isLoading && m.historyIndex < len(m.inputHistory) {
				m.historyIndex++
				if m.historyIndex == len(m.inputHistory) {
					m.textarea.Reset()
				} else {
					m.textarea.SetValue(m.inputHistory[m.historyIndex])
					m.textarea.CursorEnd()
				}
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoading || m.isBooting {
			cmds = append(cmds, cmd)
		}

	case bootCompleteMsg:
		m.isBooting = false
		if msg.err != nil {
			m.bootErr = msg.err
			logging.StoreError("boot failed: %v", msg.err)
			return m, nil
		}
		m.engine = msg.engine
		m.store = msg.store
		m.history = m.engine.Transcript()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case responseMsg:
		m.isLoading = false
		m.err = nil
		m.history = append(m.history, msg.turn)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case localReplyMsg:
		m.history = append(m.history, assistant.Turn{
			Role:    assistant.RoleAssistant,
			Content: string(msg),
			Time:    time.Now(),
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.err = msg.err
		return m, nil

	case configReloadedMsg:
		m.applyConfig(msg.cfg)
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, taCmd, vpCmd)
	return m, tea.Batch(cmds...)
}

// handleSubmit processes the current input line.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if m.engine == nil {
		return m, nil
	}

	// Check for special commands
	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.handleCommand(input)
	}

	if !m.engine.Begin(input) {
		return m, nil
	}
	m.history = append(m.history, assistant.Turn{
		Role:    assistant.RoleUser,
		Content: input,
		Time:    time.Now(),
	})

	// Append to input history
	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
	}
	m.historyIndex = len(m.inputHistory)

	m.textarea.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	m.isLoading = true
	logging.Session("user turn: %q", input)

	return m, tea.Batch(
		m.spinner.Tick,
		m.respondCmd(input),
	)
}

// respondCmd runs one interpreter cycle in the background.
func (m Model) respondCmd(input string) tea.Cmd {
	eng := m.engine
	ctx := m.ctx
	return func() tea.Msg {
		turn := eng.Respond(ctx, input)
		return responseMsg{turn: turn}
	}
}

// applyConfig picks up live-reloadable settings: theme and think delay.
func (m *Model) applyConfig(cfg *config.UserConfig) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.styles = ui.NewStyles(ui.ThemeByName(cfg.GetTheme()))
	m.spinner.Style = m.styles.Spinner
	m.textarea.Prompt = m.styles.Prompt.Render("> ")
	if m.engine != nil {
		m.engine.SetThinkDelay(time.Duration(cfg.GetThinkDelayMS()) * time.Millisecond)
	}
	if err := logging.ReloadConfig(); err != nil {
		logging.Boot("log config reload: %v", err)
	}
	logging.Session("config reloaded (theme=%s, think_delay=%dms)",
		cfg.GetTheme(), cfg.GetThinkDelayMS())
}

// resize lays out the viewport and textarea for the current window.
func (m *Model) resize() {
	headerHeight := 3
	footerHeight := 2
	inputHeight := m.textarea.Height() + 1

	m.viewport.Width = m.width
	m.viewport.Height = m.height - headerHeight - footerHeight - inputHeight
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.textarea.SetWidth(m.width - 4)

	wrap := m.width - 6
	if wrap > 100 {
		wrap = 100
	}
	if wrap > 20 {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = r
		}
	}
}
