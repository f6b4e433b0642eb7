package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"taskpilot/cmd/taskpilot/ui"
	"taskpilot/internal/assistant"
	"taskpilot/internal/config"
	"taskpilot/internal/logging"
	"taskpilot/internal/store"
)

const inputPlaceholder = "Ask me to add, list, or delete tasks... (Enter to send, Ctrl+C to exit)"

// ModelOption customizes a Model at construction time. Used by tests to
// inject a pre-built engine or store.
type ModelOption func(*Model)

// WithEngine skips the boot sequence and uses the given engine directly.
func WithEngine(e *assistant.Engine) ModelOption {
	return func(m *Model) {
		m.engine = e
		m.isBooting = false
	}
}

// WithStore makes boot use the given store instead of building one from
// the config backend.
func WithStore(s store.Store) ModelOption {
	return func(m *Model) {
		m.store = s
	}
}

// WithStyles overrides the detected theme.
func WithStyles(s ui.Styles) ModelOption {
	return func(m *Model) {
		m.styles = s
	}
}

// NewModel creates the chat model. The engine is constructed asynchronously
// during boot unless an option provides one.
func NewModel(cfg *config.UserConfig, opts ...ModelOption) Model {
	styles := ui.NewStyles(ui.ThemeByName(cfg.GetTheme()))

	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.Focus()
	ta.Prompt = styles.Prompt.Render("> ")
	ta.CharLimit = 2000
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		textarea:     ta,
		viewport:     vp,
		spinner:      sp,
		styles:       styles,
		cfg:          cfg,
		ctx:          ctx,
		cancel:       cancel,
		isBooting:    true,
		historyIndex: 0,
	}

	// Markdown rendering is best-effort; a nil renderer falls back to
	// plain text in the view.
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	); err == nil {
		m.renderer = r
	}

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner, cursor blink, and the boot sequence.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.isBooting {
		cmds = append(cmds, m.performBoot())
	}
	return tea.Batch(cmds...)
}

// performBoot builds the store for the configured backend, starts the
// engine, and loads the initial task snapshot.
func (m Model) performBoot() tea.Cmd {
	cfg := m.cfg
	preset := m.store
	ctx := m.ctx
	return func() tea.Msg {
		timer := logging.StartTimer(logging.CategoryBoot, "session_boot")
		defer timer.Stop()

		st := preset
		if st == nil {
			var err error
			st, err = BuildStore(cfg)
			if err != nil {
				return bootCompleteMsg{err: err}
			}
		}

		eng := assistant.New(st,
			assistant.WithThinkDelay(time.Duration(cfg.GetThinkDelayMS())*time.Millisecond))
		if err := eng.Start(ctx); err != nil {
			// The session is usable without the initial snapshot; the
			// first list or mutation will refetch.
			logging.StoreError("initial task fetch failed: %v", err)
		}
		logging.Boot("session ready (backend=%s)", cfg.GetBackend())
		return bootCompleteMsg{engine: eng, store: st}
	}
}

// BuildStore constructs the task store named by the config backend.
func BuildStore(cfg *config.UserConfig) (store.Store, error) {
	switch cfg.GetBackend() {
	case config.BackendRemote:
		return store.NewRemoteStore(cfg.GetAPIBaseURL(), cfg.APIToken), nil
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendLocal:
		return store.NewLocalStore(cfg.GetDBPath())
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.GetBackend())
	}
}

// ConfigReloaded wraps a freshly loaded config as a message the model
// understands. The config watcher in main feeds this through Program.Send.
func ConfigReloaded(cfg *config.UserConfig) tea.Msg {
	return configReloadedMsg{cfg: cfg}
}

// shutdown releases session resources. Safe to call more than once.
func (m *Model) shutdown() {
	if m.engine != nil {
		m.engine.End()
		m.engine = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			logging.StoreError("store close: %v", err)
		}
		m.store = nil
	}
	logging.CloseAudit()
	logging.CloseAll()
}
