package batch

import "time"

// Unit is one independently generatable scene within a batch.
// Units are immutable once produced by the planner.
type Unit struct {
	// Index is the 0-based position of this scene in the final cut.
	// Unique within a batch.
	Index int

	// Prompt is the text description handed to the generation backend.
	Prompt string

	// DurationSec is the requested clip length in seconds.
	DurationSec int

	// Width and Height are the requested frame dimensions.
	Width  int
	Height int

	// Params carries provider-agnostic generation parameters.
	Params map[string]any

	// Overrides optionally replaces individual Params entries for this
	// unit only. Applied on top of Params at submit time.
	Overrides map[string]any
}

// JobStatus is the lifecycle state of a single submit attempt.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job records one submit attempt against one provider.
// Terminal status never reverts.
type Job struct {
	ID            string
	UnitIndex     int
	ProviderID    string
	ExternalJobID string
	SubmittedAt   time.Time
	Status        JobStatus
}

// UnitResult is the terminal outcome for one unit. Exactly one exists
// per unit index after a batch completes: the first provider that
// terminated the attempt chain produced it, whether by success or by
// exhausting the fallback list.
type UnitResult struct {
	UnitIndex    int
	ArtifactURL  string
	ProviderUsed string
	Success      bool
	Error        string
	ElapsedMs    int64
}

// WorkerStatus is the lifecycle state of one worker.
type WorkerStatus string

const (
	WorkerPending   WorkerStatus = "pending"
	WorkerRunning   WorkerStatus = "running"
	WorkerCompleted WorkerStatus = "completed"
	WorkerFailed    WorkerStatus = "failed"
)

// WorkerState is a snapshot of one worker's progress. The owning worker
// is the only writer; everyone else sees copies through progress
// snapshots.
type WorkerState struct {
	WorkerID        int
	AssignedIndices []int
	Completed       int
	Failed          int

	// CurrentIndex is the unit being processed, or -1 when idle.
	CurrentIndex int

	Status WorkerStatus
}

// Stage identifies the coarse phase of a batch run.
type Stage string

const (
	StageValidating Stage = "validating"
	StageGenerating Stage = "generating"
	StageAssembling Stage = "assembling"
	StageDone       Stage = "done"
)

// Progress is a point-in-time snapshot of a whole batch. Recomputed on
// every unit transition and pushed to the registered observer. Not
// persisted; lives only for the duration of one run.
type Progress struct {
	Stage          Stage
	TotalUnits     int
	CompletedUnits int
	FailedUnits    int
	Workers        []WorkerState
}

// Result is the terminal output of a batch run. Immutable once
// returned. Results are sorted by UnitIndex regardless of the order in
// which workers finished.
type Result struct {
	RunID          string
	Success        bool
	Results        []UnitResult
	TotalElapsedMs int64
	TotalCost      float64
	Error          string
}

// SuccessCount returns how many units produced an artifact.
func (r *Result) SuccessCount() int {
	n := 0
	for _, ur := range r.Results {
		if ur.Success {
			n++
		}
	}
	return n
}

// Artifacts returns the artifact URLs of successful units in index
// order. This is the ordered media input list the downstream assembler
// consumes.
func (r *Result) Artifacts() []string {
	var urls []string
	for _, ur := range r.Results {
		if ur.Success {
			urls = append(urls, ur.ArtifactURL)
		}
	}
	return urls
}
