package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/config"
	"github.com/aeon-video/sceneforge/internal/plan"
)

// printPartition shows the dry-run execution plan: which worker gets
// which scenes and which provider it will try first.
func printPartition(w io.Writer, p *plan.Plan, cfg *config.Config, prefs []string) error {
	fmt.Fprintf(w, "Plan: %s (%d scenes)\n", p.Title, len(p.Scenes))
	fmt.Fprintf(w, "Partition: %d workers x %d scenes\n\n", cfg.WorkerCount, cfg.UnitsPerWorker)

	blocks := batch.Partition(len(p.Scenes), cfg.WorkerCount, cfg.UnitsPerWorker)
	for k, indices := range blocks {
		primary := "(default order)"
		if k < len(prefs) && prefs[k] != "" {
			primary = prefs[k]
		}
		fmt.Fprintf(w, "  worker %d: primary %s\n", k, primary)
		for _, idx := range indices {
			s := p.Scenes[idx]
			fmt.Fprintf(w, "    #%d %s (%ds, %dx%d)\n", idx, s.ID, s.Duration, s.Width, s.Height)
		}
	}

	want := cfg.WorkerCount * cfg.UnitsPerWorker
	if len(p.Scenes) != want {
		fmt.Fprintf(w, "\nWARNING: plan has %d scenes but the partition needs %d\n", len(p.Scenes), want)
	}
	return nil
}

// printSummary prints the end-of-run report
func printSummary(w io.Writer, result *batch.Result) {
	succeeded := result.SuccessCount()
	failed := len(result.Results) - succeeded

	fmt.Fprintf(w, "\nRun %s complete:\n", result.RunID)
	fmt.Fprintf(w, "  Scenes:     %d\n", len(result.Results))
	fmt.Fprintf(w, "  Succeeded:  %d\n", succeeded)
	fmt.Fprintf(w, "  Failed:     %d\n", failed)
	fmt.Fprintf(w, "  Cost:       $%.2f\n", result.TotalCost)
	fmt.Fprintf(w, "  Duration:   %s\n", (time.Duration(result.TotalElapsedMs) * time.Millisecond).Round(time.Millisecond))

	for _, r := range result.Results {
		if !r.Success {
			fmt.Fprintf(w, "  scene #%d failed: %s\n", r.UnitIndex, r.Error)
		}
	}
}
