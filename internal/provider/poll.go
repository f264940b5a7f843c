package provider

import (
	"context"
	"time"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// PollPolicy bounds the poll loop for one submit attempt: a fixed
// interval repeated up to MaxAttempts. Exhausting the budget is a
// timeout, which the worker treats exactly like a provider failure.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy polls every 5 seconds for up to 60 attempts,
// roughly five minutes per provider attempt.
var DefaultPollPolicy = PollPolicy{
	Interval:    5 * time.Second,
	MaxAttempts: 60,
}

// Clock abstracts the poll-interval wait so tests can drive the loop
// with a fake instead of wall-clock sleeps.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// realClock delegates to the time package.
type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock is the production clock.
var RealClock Clock = realClock{}

// AwaitArtifact polls a submitted job until it reaches a terminal
// state or the policy's attempt budget runs out. Returns the artifact
// URL on success; a classified error otherwise.
func AwaitArtifact(ctx context.Context, client Client, externalJobID string, policy PollPolicy, clock Clock) (string, error) {
	if clock == nil {
		clock = RealClock
	}
	providerID := client.Descriptor().ID

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", batch.WrapError(batch.KindTimeout, "poll interrupted", ctx.Err())
			case <-clock.After(policy.Interval):
			}
		}

		res, err := client.Poll(ctx, externalJobID)
		if err != nil {
			// Transport errors during polling count against the attempt
			// budget rather than aborting; the job may still complete.
			continue
		}

		switch res.Status {
		case StatusSucceeded:
			return res.ArtifactURL, nil
		case StatusFailed:
			return "", &batch.Error{
				Kind:     batch.KindProviderFailure,
				Provider: providerID,
				Msg:      res.Error,
			}
		}
	}

	return "", &batch.Error{
		Kind:     batch.KindTimeout,
		Provider: providerID,
		Msg:      "poll attempts exhausted without terminal state",
	}
}
