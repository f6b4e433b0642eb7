package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskpilot/cmd/taskpilot/chat"
	"taskpilot/internal/assistant"
	"taskpilot/internal/config"
	"taskpilot/internal/logging"
	"taskpilot/internal/task"
)

var version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "TaskPilot - natural language task assistant",
	Long: `TaskPilot is a conversational task manager.

Plain English requests like "add a task to buy groceries by tomorrow" are
interpreted into create, list, delete, and priority operations against a
local SQLite database or a remote task API.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "taskpilot" && cmd.CalledAs() == "taskpilot" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

// runCmd interprets a single utterance and prints the reply
var runCmd = &cobra.Command{
	Use:   "run [utterance...]",
	Short: "Interpret one request without the TUI",
	Long: `Runs a single dialogue cycle and prints the assistant's reply.

The simulated thinking delay is skipped.

Example:
  taskpilot run add a task to buy groceries by tomorrow priority high`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOnce,
}

// tasksCmd prints the current task list
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List all tasks",
	RunE:  listTasks,
}

// statsCmd summarizes the task list
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts by status and priority",
	RunE:  showStats,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the TaskPilot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskpilot %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .taskpilot/config.json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path and loads the user config with env
// overrides applied.
func loadConfig() (*config.UserConfig, string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultUserConfigPath()
	}
	cfg, err := config.LoadUserConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

// runInteractiveChat starts the chat TUI with the config watcher attached.
func runInteractiveChat() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if ws, err := config.FindWorkspaceRoot(); err == nil {
		_ = logging.Initialize(ws)
	}

	m := chat.NewModel(cfg)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Live-reload theme and think delay on config file changes.
	watcher, werr := config.NewWatcher(cfgPath, func(next *config.UserConfig) {
		p.Send(chat.ConfigReloaded(next))
	})
	if werr == nil {
		if err := watcher.Start(context.Background()); err == nil {
			defer watcher.Stop()
		}
	}

	_, err = p.Run()
	return err
}

// newEngine builds a store and engine from the config for the
// non-interactive commands.
func newEngine(ctx context.Context, cfg *config.UserConfig) (*assistant.Engine, func(), error) {
	st, err := chat.BuildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	eng := assistant.New(st, assistant.WithThinkDelay(0))
	if err := eng.Start(ctx); err != nil {
		logger.Warn("Initial task fetch failed", zap.Error(err))
	}
	cleanup := func() {
		eng.End()
		if err := st.Close(); err != nil {
			logger.Warn("Store close failed", zap.Error(err))
		}
	}
	return eng, cleanup, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	utterance := strings.Join(args, " ")
	logger.Info("Processing request", zap.String("input", utterance))

	eng.Submit(ctx, utterance)
	transcript := eng.Transcript()
	if len(transcript) == 0 {
		return fmt.Errorf("no response produced")
	}
	last := transcript[len(transcript)-1]
	fmt.Println(last.Content)
	return nil
}

func listTasks(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := chat.BuildStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%d. %s  [%s priority, %s]", i+1, t.Title, t.Priority, t.Status)
		if t.DueDate != nil {
			line += fmt.Sprintf("  due %s", t.DueDate.Format("2006-01-02"))
		}
		if t.Category != "" {
			line += fmt.Sprintf("  (%s)", t.Category)
		}
		fmt.Println(line)
	}
	return nil
}

func showStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := chat.BuildStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	byStatus := map[task.Status]int{}
	byPriority := map[task.Priority]int{}
	for _, t := range tasks {
		byStatus[t.Status]++
		byPriority[t.Priority]++
	}

	fmt.Printf("Tasks: %d\n\n", len(tasks))
	fmt.Println("By status:")
	for _, s := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		fmt.Printf("  %-12s %d\n", s, byStatus[s])
	}
	fmt.Println("By priority:")
	for _, p := range []task.Priority{task.PriorityHigh, task.PriorityMedium, task.PriorityLow} {
		fmt.Printf("  %-12s %d\n", p, byPriority[p])
	}
	return nil
}
