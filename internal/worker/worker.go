// Package worker executes a contiguous slice of a batch. Each worker
// processes its assigned scenes strictly sequentially, which caps the
// external-call concurrency of one logical agent at 1 and keeps any
// single provider account from being hammered by one worker.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/events"
	"github.com/aeon-video/sceneforge/internal/metrics"
	"github.com/aeon-video/sceneforge/internal/progress"
	"github.com/aeon-video/sceneforge/internal/provider"
)

// Config holds worker configuration
type Config struct {
	// PollPolicy bounds the poll loop of each provider attempt
	PollPolicy provider.PollPolicy

	// Clock drives poll-interval waits (tests inject a fake)
	Clock provider.Clock
}

// Deps bundles worker dependencies for injection
type Deps struct {
	Events   *events.Bus
	Progress *progress.Aggregator
	Resolver *provider.Resolver
	Factory  provider.Factory
}

// Worker owns one contiguous block of scenes and drives each through
// submit, poll, and the provider fallback chain.
type Worker struct {
	id       int
	units    []batch.Unit
	primary  string
	config   Config
	events   *events.Bus
	progress *progress.Aggregator
	resolver *provider.Resolver
	factory  provider.Factory

	state batch.WorkerState
}

// New creates a worker for the given scenes. primary is the preferred
// provider for this worker slot; it may be empty.
func New(id int, units []batch.Unit, primary string, cfg Config, deps Deps) *Worker {
	indices := make([]int, len(units))
	for i, u := range units {
		indices[i] = u.Index
	}

	return &Worker{
		id:       id,
		units:    units,
		primary:  primary,
		config:   cfg,
		events:   deps.Events,
		progress: deps.Progress,
		resolver: deps.Resolver,
		factory:  deps.Factory,
		state: batch.WorkerState{
			WorkerID:        id,
			AssignedIndices: indices,
			CurrentIndex:    -1,
			Status:          batch.WorkerPending,
		},
	}
}

// Run processes every assigned scene in order and returns one result
// per scene. A failed scene never aborts the remaining scenes: errors
// are caught at the unit level and converted to failed results.
func (w *Worker) Run(ctx context.Context) []batch.UnitResult {
	w.state.Status = batch.WorkerRunning
	w.publish()
	w.emit(events.NewEvent(events.WorkerStarted).WithWorker(w.id).
		WithPayload(map[string]any{"units": len(w.units), "primary": w.primary}))

	results := make([]batch.UnitResult, 0, len(w.units))
	for _, unit := range w.units {
		w.state.CurrentIndex = unit.Index
		w.publish()

		res := w.processUnit(ctx, unit)
		results = append(results, res)

		if res.Success {
			w.state.Completed++
			metrics.Units.WithLabelValues("succeeded").Inc()
			w.emit(events.NewEvent(events.UnitSucceeded).WithWorker(w.id).
				WithUnit(unit.Index).WithProvider(res.ProviderUsed))
		} else {
			w.state.Failed++
			metrics.Units.WithLabelValues("failed").Inc()
			w.emit(events.NewEvent(events.UnitFailed).WithWorker(w.id).
				WithUnit(unit.Index).WithError(batch.NewError(batch.KindUnitExhausted, res.Error)))
		}

		w.state.CurrentIndex = -1
		w.publish()
	}

	if w.state.Failed == len(w.units) && len(w.units) > 0 {
		w.state.Status = batch.WorkerFailed
		w.emit(events.NewEvent(events.WorkerFailed).WithWorker(w.id))
	} else {
		w.state.Status = batch.WorkerCompleted
		w.emit(events.NewEvent(events.WorkerCompleted).WithWorker(w.id))
	}
	w.publish()

	return results
}

// processUnit walks the fallback chain for one scene until a provider
// produces a terminal outcome or the chain is exhausted.
func (w *Worker) processUnit(ctx context.Context, unit batch.Unit) batch.UnitResult {
	start := time.Now()
	chain := w.resolver.Resolve(w.primary)

	var lastErr error
	for _, providerID := range chain {
		// Stop walking the chain once the batch is cancelled instead
		// of burning an attempt per remaining provider.
		if ctx.Err() != nil {
			lastErr = batch.WrapError(batch.KindTimeout, "batch cancelled", ctx.Err())
			break
		}

		artifactURL, err := w.attempt(ctx, unit, providerID)
		if err == nil {
			elapsed := time.Since(start)
			metrics.GenerationSeconds.WithLabelValues(providerID).Observe(elapsed.Seconds())
			return batch.UnitResult{
				UnitIndex:    unit.Index,
				ArtifactURL:  artifactURL,
				ProviderUsed: providerID,
				Success:      true,
				ElapsedMs:    elapsed.Milliseconds(),
			}
		}

		lastErr = err

		// A provider-reported failure, submit failure, or timeout all
		// fall through to the next candidate.
		metrics.Fallbacks.WithLabelValues(providerID, string(batch.KindOf(err))).Inc()
		w.emit(events.NewEvent(events.UnitFallback).WithWorker(w.id).
			WithUnit(unit.Index).WithProvider(providerID).WithError(err))
	}

	errMsg := "no providers available"
	var providerUsed string
	if lastErr != nil {
		errMsg = lastErr.Error()
		var be *batch.Error
		if errors.As(lastErr, &be) {
			providerUsed = be.Provider
		}
	}

	return batch.UnitResult{
		UnitIndex:    unit.Index,
		ProviderUsed: providerUsed,
		Success:      false,
		Error:        errMsg,
		ElapsedMs:    time.Since(start).Milliseconds(),
	}
}

// attempt runs one submit+poll cycle against a single provider.
func (w *Worker) attempt(ctx context.Context, unit batch.Unit, providerID string) (string, error) {
	client, err := w.factory(providerID)
	if err != nil {
		return "", &batch.Error{
			Kind:     batch.KindProviderUnavailable,
			Provider: providerID,
			Msg:      "create client",
			Err:      err,
		}
	}
	desc := client.Descriptor()

	req := provider.SubmitRequest{
		UnitIndex: unit.Index,
		Prompt:    unit.Prompt,
		Params:    provider.BuildParams(unit, desc),
	}

	w.emit(events.NewEvent(events.UnitSubmitting).WithWorker(w.id).
		WithUnit(unit.Index).WithProvider(providerID))

	externalID, err := client.Submit(ctx, req)
	if err != nil {
		return "", err
	}

	job := batch.Job{
		ID:            uuid.NewString(),
		UnitIndex:     unit.Index,
		ProviderID:    providerID,
		ExternalJobID: externalID,
		SubmittedAt:   time.Now(),
		Status:        batch.JobPending,
	}

	w.emit(events.NewEvent(events.UnitPolling).WithWorker(w.id).
		WithUnit(unit.Index).WithProvider(providerID).
		WithPayload(map[string]any{"job_id": job.ID, "external_id": externalID}))

	return provider.AwaitArtifact(ctx, client, externalID, w.config.PollPolicy, w.config.Clock)
}

// publish pushes the current worker state through the aggregator.
func (w *Worker) publish() {
	if w.progress != nil {
		w.progress.Update(w.id, w.state)
	}
}

func (w *Worker) emit(e events.Event) {
	if w.events != nil {
		w.events.Emit(e)
	}
}
