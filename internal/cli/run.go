package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aeon-video/sceneforge/internal/assemble"
	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/cli/tui"
	"github.com/aeon-video/sceneforge/internal/config"
	"github.com/aeon-video/sceneforge/internal/events"
	"github.com/aeon-video/sceneforge/internal/notify"
	"github.com/aeon-video/sceneforge/internal/orchestrator"
	"github.com/aeon-video/sceneforge/internal/plan"
	"github.com/aeon-video/sceneforge/internal/provider"
	"github.com/aeon-video/sceneforge/internal/store"
)

// RunOptions holds flags for the run command
type RunOptions struct {
	PlanPath       string // Path to the scene plan file
	Workers        int    // Worker count override (0 = config value)
	UnitsPerWorker int    // Scenes per worker override (0 = config value)
	OutDir         string // Directory for assembly output
	NoTUI          bool   // Disable TUI even when stdout is a TTY
	JSON           bool   // Emit events as JSON lines instead of TUI
	NoStore        bool   // Skip recording the run to the history DB
	DryRun         bool   // Validate the plan and show the partition, then exit
}

// Validate checks RunOptions for validity
func (opts RunOptions) Validate() error {
	if opts.PlanPath == "" {
		return fmt.Errorf("plan file must not be empty")
	}
	if opts.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", opts.Workers)
	}
	return nil
}

// NewRunCmd creates the run command
func NewRunCmd(app *App) *cobra.Command {
	opts := RunOptions{
		OutDir: ".",
	}

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Generate all scenes of a plan",
		Long: `Run loads a scene plan, partitions the scenes across the worker pool,
generates each scene with provider fallback, and writes the assembly
manifest for the successful scenes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.PlanPath = args[0]
			if err := opts.Validate(); err != nil {
				return err
			}
			return app.RunBatch(context.Background(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Worker count (overrides config)")
	cmd.Flags().IntVar(&opts.UnitsPerWorker, "units-per-worker", 0, "Scenes per worker (overrides config)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "Directory for assembly output")
	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Disable interactive TUI (use log output)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Emit events as JSON lines")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "Skip recording the run to the history database")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Validate the plan and show the partition without generating")

	return cmd
}

// RunBatch executes one generation batch end to end
func (a *App) RunBatch(ctx context.Context, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
	})
	handler.Start()
	defer handler.Stop()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Workers > 0 {
		cfg.WorkerCount = opts.Workers
	}
	if opts.UnitsPerWorker > 0 {
		cfg.UnitsPerWorker = opts.UnitsPerWorker
	}

	log := newLogger(cfg.LogLevel, a.verbose)

	p, err := plan.Load(opts.PlanPath)
	if err != nil {
		return err
	}

	units := p.Units()
	prefs := p.WorkerPreferences(cfg.WorkerCount, cfg.UnitsPerWorker)

	if opts.DryRun {
		return printPartition(os.Stdout, p, cfg, prefs)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("invalid provider registry: %w", err)
	}

	eventBus := events.NewBus()

	jsonMode := events.IsJSONMode(opts.JSON)
	useTUI := !opts.NoTUI && !jsonMode && term.IsTerminal(int(os.Stdout.Fd()))

	var tuiProgram *tea.Program
	var tuiBridge *tui.Bridge
	switch {
	case useTUI:
		model := tui.NewModel(len(units), cfg.WorkerCount)
		tuiProgram = tea.NewProgram(model, tea.WithAltScreen())
		tuiBridge = tui.NewBridge(tuiProgram)
		eventBus.Subscribe(tuiBridge.Handler())

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()
		defer func() {
			tuiBridge.SendDone()
		}()
	case jsonMode:
		emitter := events.NewJSONEmitter(os.Stdout)
		eventBus.Subscribe(events.JSONEmitterHandler(emitter))
	default:
		eventBus.Subscribe(events.LogHandler(events.LogConfig{Writer: os.Stderr}))
	}

	notifier, err := notify.FromConfig(notify.Config{
		Backends:   cfg.Notify.Backends,
		WebhookURL: cfg.Notify.WebhookURL,
	})
	if err != nil {
		return fmt.Errorf("invalid notify config: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		WorkerCount:    cfg.WorkerCount,
		UnitsPerWorker: cfg.UnitsPerWorker,
		PollPolicy:     cfg.PollPolicy(),
	}, orchestrator.Dependencies{
		Bus:      eventBus,
		Registry: registry,
		Factory:  replicateFactory(cfg, registry, log),
		Preflight: func(ctx context.Context) error {
			if cfg.Token() == "" {
				return fmt.Errorf("%s is not set", cfg.Replicate.TokenEnv)
			}
			return nil
		},
		Notifier: notifier,
	})

	startedAt := time.Now()
	result, runErr := orch.Run(ctx, units, prefs)

	if !opts.NoStore && result != nil {
		if err := recordRun(cfg.Store.Path, p.Title, startedAt, result); err != nil {
			log.Warn().Err(err).Msg("failed to record run history")
		}
	}

	if result != nil && result.Success {
		writer := assemble.NewConcatWriter(opts.OutDir)
		manifest := assemble.FromResult(p.Title, p.Output, result)
		if err := writer.Assemble(ctx, manifest); err != nil {
			return fmt.Errorf("assembly failed: %w", err)
		}
	}

	if result != nil && !jsonMode {
		printSummary(os.Stdout, result)
	}

	if runErr != nil {
		return runErr
	}
	if result != nil && !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

// newLogger builds the process logger. Verbose forces debug level.
func newLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// replicateFactory builds provider clients from the registry and the
// shared API credentials.
func replicateFactory(cfg *config.Config, registry *provider.Registry, log zerolog.Logger) provider.Factory {
	return func(id string) (provider.Client, error) {
		desc, ok := registry.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", id)
		}
		return provider.NewReplicateClient(desc, cfg.Token(),
			provider.WithBaseURL(cfg.Replicate.BaseURL),
			provider.WithLogger(log.With().Str("provider", id).Logger()),
		), nil
	}
}

func recordRun(path, title string, startedAt time.Time, result *batch.Result) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.RecordRun(title, startedAt, result)
}
