// Package progress combines per-worker status into batch-level
// snapshots. The aggregator is the single serialized entry point for
// progress state: workers publish through Update and never touch the
// shared snapshot directly.
package progress

import (
	"sort"
	"sync"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// Observer receives a fresh snapshot on every worker transition.
// It is invoked synchronously on the updating worker's goroutine, so
// it must not block: logging and metrics only, never control flow.
type Observer func(batch.Progress)

// Aggregator merges the latest state of each worker into one batch
// snapshot. Safe under concurrent updates from multiple workers.
type Aggregator struct {
	mu         sync.Mutex
	stage      batch.Stage
	totalUnits int
	workers    map[int]batch.WorkerState
	observer   Observer
}

// New creates an aggregator for a batch of totalUnits units.
// A nil observer is allowed; snapshots are still computed on demand.
func New(totalUnits int, observer Observer) *Aggregator {
	return &Aggregator{
		stage:      batch.StageValidating,
		totalUnits: totalUnits,
		workers:    make(map[int]batch.WorkerState),
		observer:   observer,
	}
}

// SetStage records a batch-level phase change and notifies the
// observer.
func (a *Aggregator) SetStage(stage batch.Stage) {
	a.mu.Lock()
	a.stage = stage
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.notify(snap)
}

// Update merges the latest state for one worker, recomputes the batch
// totals, and pushes the new snapshot to the observer.
func (a *Aggregator) Update(workerID int, state batch.WorkerState) {
	a.mu.Lock()
	a.workers[workerID] = cloneState(state)
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.notify(snap)
}

// Snapshot returns the current batch progress.
func (a *Aggregator) Snapshot() batch.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// snapshotLocked builds an immutable snapshot. Caller holds a.mu.
func (a *Aggregator) snapshotLocked() batch.Progress {
	p := batch.Progress{
		Stage:      a.stage,
		TotalUnits: a.totalUnits,
		Workers:    make([]batch.WorkerState, 0, len(a.workers)),
	}

	// Stable worker order for display and assertions. Workers publish
	// concurrently, so the map may hold any subset of IDs at this point.
	ids := make([]int, 0, len(a.workers))
	for id := range a.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		ws := a.workers[id]
		p.CompletedUnits += ws.Completed
		p.FailedUnits += ws.Failed
		p.Workers = append(p.Workers, cloneState(ws))
	}

	return p
}

func (a *Aggregator) notify(snap batch.Progress) {
	if a.observer != nil {
		a.observer(snap)
	}
}

// cloneState copies the slice field so snapshots never alias the
// worker's own state.
func cloneState(ws batch.WorkerState) batch.WorkerState {
	out := ws
	out.AssignedIndices = make([]int, len(ws.AssignedIndices))
	copy(out.AssignedIndices, ws.AssignedIndices)
	return out
}
