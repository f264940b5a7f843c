package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// fakeClock fires every After immediately so poll loops run without
// wall-clock sleeps.
type fakeClock struct {
	waits int
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.waits++
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// scriptedClient returns canned poll results in order, sticking on the
// last one.
type scriptedClient struct {
	desc    Descriptor
	results []PollResult
	errs    []error
	polls   int
}

func (s *scriptedClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	return "job-1", nil
}

func (s *scriptedClient) Poll(ctx context.Context, id string) (PollResult, error) {
	i := s.polls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.polls++
	if s.errs != nil && s.errs[i] != nil {
		return PollResult{}, s.errs[i]
	}
	return s.results[i], nil
}

func (s *scriptedClient) Descriptor() Descriptor {
	return s.desc
}

func TestAwaitArtifact_SucceedsAfterPending(t *testing.T) {
	client := &scriptedClient{
		desc: Descriptor{ID: "kling"},
		results: []PollResult{
			{Status: StatusPending},
			{Status: StatusPending},
			{Status: StatusSucceeded, ArtifactURL: "https://cdn.example/clip.mp4"},
		},
	}
	clock := &fakeClock{}

	url, err := AwaitArtifact(context.Background(), client, "job-1", PollPolicy{Interval: 5 * time.Second, MaxAttempts: 10}, clock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example/clip.mp4" {
		t.Errorf("unexpected artifact url %q", url)
	}
	if client.polls != 3 {
		t.Errorf("expected 3 polls, got %d", client.polls)
	}
	// The first attempt polls immediately; only subsequent attempts wait.
	if clock.waits != 2 {
		t.Errorf("expected 2 interval waits, got %d", clock.waits)
	}
}

func TestAwaitArtifact_TimeoutExhaustsBudget(t *testing.T) {
	client := &scriptedClient{
		desc:    Descriptor{ID: "luma"},
		results: []PollResult{{Status: StatusPending}},
	}

	_, err := AwaitArtifact(context.Background(), client, "job-1", PollPolicy{Interval: time.Second, MaxAttempts: 7}, &fakeClock{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if batch.KindOf(err) != batch.KindTimeout {
		t.Errorf("expected timeout kind, got %s", batch.KindOf(err))
	}
	if client.polls != 7 {
		t.Errorf("expected exactly 7 polls, got %d", client.polls)
	}
}

func TestAwaitArtifact_ProviderReportedFailure(t *testing.T) {
	client := &scriptedClient{
		desc: Descriptor{ID: "minimax"},
		results: []PollResult{
			{Status: StatusPending},
			{Status: StatusFailed, Error: "content policy rejection"},
		},
	}

	_, err := AwaitArtifact(context.Background(), client, "job-1", PollPolicy{Interval: time.Second, MaxAttempts: 10}, &fakeClock{})
	if batch.KindOf(err) != batch.KindProviderFailure {
		t.Fatalf("expected provider_failure, got %v", err)
	}

	var be *batch.Error
	if !errors.As(err, &be) {
		t.Fatal("expected *batch.Error")
	}
	if be.Provider != "minimax" {
		t.Errorf("expected provider minimax, got %s", be.Provider)
	}
	if be.Msg != "content policy rejection" {
		t.Errorf("expected provider message, got %q", be.Msg)
	}
}

func TestAwaitArtifact_PollErrorsCountAgainstBudget(t *testing.T) {
	transportErr := errors.New("connection reset")
	client := &scriptedClient{
		desc:    Descriptor{ID: "haiper"},
		results: []PollResult{{}, {Status: StatusSucceeded, ArtifactURL: "u"}},
		errs:    []error{transportErr, nil},
	}

	url, err := AwaitArtifact(context.Background(), client, "job-1", PollPolicy{Interval: time.Second, MaxAttempts: 5}, &fakeClock{})
	if err != nil {
		t.Fatalf("poll should recover from transient transport error: %v", err)
	}
	if url != "u" {
		t.Errorf("unexpected url %q", url)
	}
}

// stuckClock never fires, so cancellation is the only way out of the
// interval wait.
type stuckClock struct{}

func (stuckClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestAwaitArtifact_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{
		desc:    Descriptor{ID: "kling"},
		results: []PollResult{{Status: StatusPending}},
	}

	_, err := AwaitArtifact(ctx, client, "job-1", PollPolicy{Interval: time.Second, MaxAttempts: 5}, stuckClock{})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if batch.KindOf(err) != batch.KindTimeout {
		t.Errorf("cancellation surfaces as timeout kind, got %s", batch.KindOf(err))
	}
}
