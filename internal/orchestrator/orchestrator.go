// Package orchestrator coordinates a generation batch end to end:
// validate the request, partition scenes across a bounded worker pool,
// run the workers, and reassemble their results in scene order.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/events"
	"github.com/aeon-video/sceneforge/internal/notify"
	"github.com/aeon-video/sceneforge/internal/progress"
	"github.com/aeon-video/sceneforge/internal/provider"
	"github.com/aeon-video/sceneforge/internal/worker"
)

// DefaultWorkerCount is the number of workers used when the
// configuration leaves it unset.
const DefaultWorkerCount = 5

// DefaultUnitsPerWorker is the block size assigned to each worker when
// the configuration leaves it unset.
const DefaultUnitsPerWorker = 2

// Config holds orchestrator-specific configuration
type Config struct {
	// WorkerCount is the number of concurrent workers
	WorkerCount int

	// UnitsPerWorker is the number of scenes each worker owns
	UnitsPerWorker int

	// PollPolicy bounds every provider poll loop
	PollPolicy provider.PollPolicy

	// Clock drives poll waits (tests inject a fake)
	Clock provider.Clock
}

// Dependencies bundles external dependencies for injection
type Dependencies struct {
	Bus      *events.Bus
	Registry *provider.Registry
	Factory  provider.Factory
	Observer progress.Observer

	// Preflight verifies credentials and provider reachability before
	// any scene is submitted. Nil skips the check.
	Preflight func(ctx context.Context) error

	// Notifier receives batch-level failure notifications. Nil disables
	// notifications.
	Notifier notify.Notifier
}

// Orchestrator runs generation batches
type Orchestrator struct {
	cfg       Config
	bus       *events.Bus
	registry  *provider.Registry
	factory   provider.Factory
	observer  progress.Observer
	preflight func(ctx context.Context) error
	notifier  notify.Notifier
}

// New creates an orchestrator with the given configuration and dependencies
func New(cfg Config, deps Dependencies) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.UnitsPerWorker <= 0 {
		cfg.UnitsPerWorker = DefaultUnitsPerWorker
	}
	if cfg.PollPolicy.Interval <= 0 {
		cfg.PollPolicy.Interval = provider.DefaultPollPolicy.Interval
	}
	if cfg.PollPolicy.MaxAttempts <= 0 {
		cfg.PollPolicy.MaxAttempts = provider.DefaultPollPolicy.MaxAttempts
	}
	if cfg.Clock == nil {
		cfg.Clock = provider.RealClock
	}
	return &Orchestrator{
		cfg:       cfg,
		bus:       deps.Bus,
		registry:  deps.Registry,
		factory:   deps.Factory,
		observer:  deps.Observer,
		preflight: deps.Preflight,
		notifier:  deps.Notifier,
	}
}

// Run executes one batch. units are the scenes to generate, in index
// order; prefs is an optional per-worker provider preference list
// (prefs[k] is worker k's preferred provider, empty string for none).
//
// The returned result is never nil. A non-nil error means the batch
// failed before any scene ran or a worker hit a fatal fault; per-scene
// failures are reported in the result, not the error.
func (o *Orchestrator) Run(ctx context.Context, units []batch.Unit, prefs []string) (*batch.Result, error) {
	runID := ulid.Make().String()
	startTime := time.Now()

	agg := progress.New(len(units), o.observer)

	if err := o.validate(ctx, units, prefs); err != nil {
		result := &batch.Result{
			RunID:          runID,
			TotalElapsedMs: time.Since(startTime).Milliseconds(),
			Error:          err.Error(),
		}
		o.emit(events.NewEvent(events.BatchFailed).WithError(err).
			WithPayload(map[string]any{"run_id": runID, "stage": string(batch.StageValidating)}))
		o.notifyFailure(ctx, result, err, len(units))
		return result, err
	}

	o.emit(events.NewEvent(events.BatchStarted).WithPayload(map[string]any{
		"run_id":  runID,
		"units":   len(units),
		"workers": o.cfg.WorkerCount,
	}))

	agg.SetStage(batch.StageGenerating)

	blocks := batch.Partition(len(units), o.cfg.WorkerCount, o.cfg.UnitsPerWorker)

	wcfg := worker.Config{PollPolicy: o.cfg.PollPolicy, Clock: o.cfg.Clock}
	deps := worker.Deps{
		Events:   o.bus,
		Progress: agg,
		Resolver: provider.NewResolver(o.registry),
		Factory:  o.factory,
	}

	perWorker := make([][]batch.UnitResult, len(blocks))
	var (
		wg      sync.WaitGroup
		fatalMu sync.Mutex
		fatal   error
	)

	for k, indices := range blocks {
		assigned := make([]batch.Unit, len(indices))
		for i, idx := range indices {
			assigned[i] = units[idx]
		}

		primary := ""
		if k < len(prefs) {
			primary = prefs[k]
		}

		w := worker.New(k, assigned, primary, wcfg, deps)

		wg.Add(1)
		go func(k int, assigned []batch.Unit) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := batch.NewError(batch.KindBatchFatal, fmt.Sprintf("worker %d panicked: %v", k, r))
					fatalMu.Lock()
					if fatal == nil {
						fatal = err
					}
					fatalMu.Unlock()
					perWorker[k] = failAll(assigned, err)
				}
			}()
			perWorker[k] = w.Run(ctx)
		}(k, assigned)
	}
	wg.Wait()

	agg.SetStage(batch.StageAssembling)

	results := make([]batch.UnitResult, 0, len(units))
	for _, rs := range perWorker {
		results = append(results, rs...)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].UnitIndex < results[j].UnitIndex
	})

	result := &batch.Result{
		RunID:          runID,
		Results:        results,
		TotalCost:      o.totalCost(results),
		TotalElapsedMs: time.Since(startTime).Milliseconds(),
	}
	result.Success = result.SuccessCount() > 0 && fatal == nil

	var batchErr error
	if fatal != nil {
		batchErr = fatal
	} else if result.SuccessCount() == 0 {
		batchErr = batch.NewError(batch.KindBatchFatal, "no scene produced an artifact")
	}
	if batchErr != nil {
		result.Error = batchErr.Error()
	}

	agg.SetStage(batch.StageDone)

	if result.Success {
		o.emit(events.NewEvent(events.BatchCompleted).WithPayload(map[string]any{
			"run_id":    runID,
			"succeeded": result.SuccessCount(),
			"failed":    len(results) - result.SuccessCount(),
			"cost":      result.TotalCost,
		}))
	} else {
		o.emit(events.NewEvent(events.BatchFailed).WithError(batchErr).
			WithPayload(map[string]any{"run_id": runID}))
	}
	o.notifyFailure(ctx, result, batchErr, len(units))

	if fatal != nil {
		return result, fatal
	}
	return result, nil
}

// validate rejects the batch before any provider call is made
func (o *Orchestrator) validate(ctx context.Context, units []batch.Unit, prefs []string) error {
	want := o.cfg.WorkerCount * o.cfg.UnitsPerWorker
	if len(units) != want {
		return batch.NewError(batch.KindValidation,
			fmt.Sprintf("batch has %d scenes, expected %d (%d workers x %d scenes)",
				len(units), want, o.cfg.WorkerCount, o.cfg.UnitsPerWorker))
	}

	if len(prefs) != 0 && len(prefs) != o.cfg.WorkerCount {
		return batch.NewError(batch.KindValidation,
			fmt.Sprintf("%d provider preferences for %d workers", len(prefs), o.cfg.WorkerCount))
	}
	for k, p := range prefs {
		if p != "" && !o.registry.Has(p) {
			return batch.NewError(batch.KindValidation,
				fmt.Sprintf("worker %d prefers unknown provider %q", k, p))
		}
	}

	desc, ok := o.registry.Get(preferredOrFirst(prefs, o.registry))
	if !ok {
		return batch.NewError(batch.KindValidation, "provider registry is empty")
	}
	// Global parameter bounds only. Per-provider limits are enforced at
	// submit time, where a fallback provider may still accept the scene.
	for _, u := range units {
		params := provider.BuildParams(u, desc)
		if err := params.Validate(provider.Descriptor{}); err != nil {
			return batch.WrapError(batch.KindValidation, fmt.Sprintf("scene %d", u.Index), err)
		}
	}

	if o.preflight != nil {
		if err := o.preflight(ctx); err != nil {
			return batch.WrapError(batch.KindProviderUnavailable, "preflight", err)
		}
	}
	return nil
}

// totalCost sums the per-scene price of the provider that produced
// each artifact. Failed scenes and abandoned fallback attempts cost
// nothing.
func (o *Orchestrator) totalCost(results []batch.UnitResult) float64 {
	var total float64
	for _, r := range results {
		if !r.Success {
			continue
		}
		if desc, ok := o.registry.Get(r.ProviderUsed); ok {
			total += desc.PricePerUnit
		}
	}
	return total
}

func (o *Orchestrator) emit(e events.Event) {
	if o.bus != nil {
		o.bus.Emit(e)
	}
}

func (o *Orchestrator) notifyFailure(ctx context.Context, result *batch.Result, batchErr error, total int) {
	if o.notifier == nil {
		return
	}
	if batchErr == nil && result.SuccessCount() == total {
		return
	}

	failed := total - result.SuccessCount()
	severity := notify.SeverityWarning
	title := "Batch finished with failures"
	kind := batch.KindOf(batchErr)
	if batchErr == nil {
		kind = batch.KindUnitExhausted
	}
	if !result.Success {
		severity = notify.SeverityCritical
		title = "Batch failed"
	}

	// Notification failures never fail the batch
	_ = o.notifier.Notify(ctx, notify.Notification{
		Severity: severity,
		RunID:    result.RunID,
		Title:    title,
		Message:  fmt.Sprintf("%d of %d scenes failed", failed, total),
		Context: map[string]string{
			"error_kind": string(kind),
		},
	})
}

// failAll converts every scene in a block to a failed result carrying
// the given error. Used when a worker goroutine panics.
func failAll(units []batch.Unit, err *batch.Error) []batch.UnitResult {
	results := make([]batch.UnitResult, len(units))
	for i, u := range units {
		results[i] = batch.UnitResult{
			UnitIndex: u.Index,
			Error:     err.Error(),
		}
	}
	return results
}

// preferredOrFirst picks a descriptor to validate scene parameters
// against: the first non-empty preference, or the first registered
// provider.
func preferredOrFirst(prefs []string, reg *provider.Registry) string {
	for _, p := range prefs {
		if p != "" {
			return p
		}
	}
	ids := reg.IDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
