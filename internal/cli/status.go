package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aeon-video/sceneforge/internal/config"
	"github.com/aeon-video/sceneforge/internal/store"
)

// StatusOptions holds flags for the status command
type StatusOptions struct {
	RunID string // Show one run in detail (empty = list recent runs)
	Limit int    // How many runs to list
	JSON  bool   // Output as JSON instead of formatted text
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	opts := StatusOptions{
		Limit: 10,
	}

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show run history",
		Long:  `Display recent runs from the history database, or one run in detail.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.RunID = args[0]
			}
			return app.ShowStatus(opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "How many runs to list")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON instead of formatted text")

	return cmd
}

// ShowStatus displays run history from the store
func (a *App) ShowStatus(opts StatusOptions) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer s.Close()

	if opts.RunID != "" {
		return showRun(os.Stdout, s, opts.RunID, opts.JSON)
	}
	return listRuns(os.Stdout, s, opts.Limit, opts.JSON)
}

func showRun(w io.Writer, s *store.Store, runID string, asJSON bool) error {
	run, err := s.GetRun(runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %q not found", runID)
	}
	results, err := s.GetRunResults(runID)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run": run, "results": results})
	}

	status := "failed"
	if run.Success {
		status = "succeeded"
	}
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, status)
	fmt.Fprintf(w, "  Title:      %s\n", run.Title)
	fmt.Fprintf(w, "  Scenes:     %d (%d succeeded, %d failed)\n", run.TotalUnits, run.Succeeded, run.Failed)
	fmt.Fprintf(w, "  Cost:       $%.2f\n", run.TotalCost)
	fmt.Fprintf(w, "  Started:    %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(w, "  Error:      %s\n", run.Error)
	}

	fmt.Fprintln(w)
	for _, r := range results {
		mark := "✗"
		detail := r.Error
		if r.Success {
			mark = "✓"
			detail = r.ArtifactURL
		}
		fmt.Fprintf(w, "  %s #%d [%s] %s\n", mark, r.UnitIndex, r.ProviderUsed, detail)
	}
	return nil
}

func listRuns(w io.Writer, s *store.Store, limit int, asJSON bool) error {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		mark := "✗"
		if run.Success {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s  %-30s %d/%d scenes  $%.2f  %s\n",
			mark,
			run.ID,
			run.Title,
			run.Succeeded,
			run.TotalUnits,
			run.TotalCost,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return nil
}
