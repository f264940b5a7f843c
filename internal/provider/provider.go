package provider

import (
	"context"
)

// Status is the provider-reported state of a generation job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// SubmitRequest is the provider-agnostic payload for one generation.
// Params have already been merged (descriptor defaults, unit params,
// unit overrides) and validated at the client boundary.
type SubmitRequest struct {
	UnitIndex int
	Prompt    string
	Params    VideoParams
}

// PollResult is one observation of a submitted job.
type PollResult struct {
	Status Status

	// ArtifactURL is set when Status is StatusSucceeded.
	ArtifactURL string

	// Error is the provider-reported failure message when Status is
	// StatusFailed.
	Error string
}

// Client wraps one external generation backend behind the two-call
// contract: submit a request, then poll until a terminal state. Any
// concrete backend (HTTP, gRPC, queue-based) adapts to this interface.
type Client interface {
	// Submit starts a generation and returns the external job id.
	// Transport and auth failures surface as provider_unavailable.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	// Poll reports the current state of a previously submitted job.
	Poll(ctx context.Context, externalJobID string) (PollResult, error)

	// Descriptor returns the static metadata for this backend.
	Descriptor() Descriptor
}

// Factory resolves a provider id to a live client. The orchestrator
// injects it so workers never touch credential loading.
type Factory func(id string) (Client, error)
