package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aeon-video/sceneforge/internal/batch"
	"github.com/aeon-video/sceneforge/internal/events"
	"github.com/aeon-video/sceneforge/internal/provider"
)

// fakeBackend is a scriptable in-memory provider backend. failIndex
// marks scene indices this backend rejects at submit time.
type fakeBackend struct {
	mu        sync.Mutex
	desc      provider.Descriptor
	failIndex map[int]bool
	pending   int
	submits   int
	polls     map[string]int
}

func newFakeBackend(desc provider.Descriptor) *fakeBackend {
	return &fakeBackend{desc: desc, polls: make(map[string]int)}
}

func (f *fakeBackend) Submit(ctx context.Context, req provider.SubmitRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.failIndex[req.UnitIndex] {
		return "", batch.NewError(batch.KindProviderUnavailable, "backend rejected scene")
	}
	return fmt.Sprintf("%s-%d", f.desc.ID, req.UnitIndex), nil
}

func (f *fakeBackend) Poll(ctx context.Context, id string) (provider.PollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls[id]++
	if f.polls[id] <= f.pending {
		return provider.PollResult{Status: provider.StatusPending}, nil
	}
	return provider.PollResult{Status: provider.StatusSucceeded, ArtifactURL: "https://cdn/" + id + ".mp4"}, nil
}

func (f *fakeBackend) Descriptor() provider.Descriptor {
	return f.desc
}

func (f *fakeBackend) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

// immediateClock never sleeps for real.
type immediateClock struct{}

func (immediateClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func sceneUnits(n int) []batch.Unit {
	units := make([]batch.Unit, n)
	for i := range units {
		units[i] = batch.Unit{
			Index:       i,
			Prompt:      fmt.Sprintf("scene %d", i),
			DurationSec: 5,
			Width:       1280,
			Height:      720,
		}
	}
	return units
}

type harness struct {
	backends map[string]*fakeBackend
	orch     *Orchestrator
}

func newHarness(t *testing.T, cfg Config, backends map[string]*fakeBackend, order []string, deps Dependencies) *harness {
	t.Helper()

	descs := make([]provider.Descriptor, 0, len(order))
	for _, id := range order {
		descs = append(descs, backends[id].desc)
	}
	registry, err := provider.NewRegistry(descs)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	cfg.PollPolicy = provider.PollPolicy{Interval: time.Millisecond, MaxAttempts: 10}
	cfg.Clock = immediateClock{}

	deps.Registry = registry
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	if deps.Factory == nil {
		deps.Factory = func(id string) (provider.Client, error) {
			b, ok := backends[id]
			if !ok {
				return nil, fmt.Errorf("unknown provider %s", id)
			}
			return b, nil
		}
	}

	return &harness{backends: backends, orch: New(cfg, deps)}
}

func totalSubmits(backends map[string]*fakeBackend) int {
	n := 0
	for _, b := range backends {
		n += b.submitCount()
	}
	return n
}

func TestRun_AllScenesSucceed(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	h := newHarness(t, Config{WorkerCount: 5, UnitsPerWorker: 2}, backends, []string{"minimax"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("expected batch success")
	}
	if result.SuccessCount() != 10 {
		t.Errorf("expected 10 successes, got %d", result.SuccessCount())
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if got := backends["minimax"].submitCount(); got != 10 {
		t.Errorf("expected 10 submits, got %d", got)
	}
}

func TestNew_DefaultsPollPolicyFieldsIndependently(t *testing.T) {
	// Setting only the interval must not leave MaxAttempts at zero,
	// which would exhaust every poll loop before its first attempt.
	o := New(Config{PollPolicy: provider.PollPolicy{Interval: 2 * time.Second}}, Dependencies{})
	if o.cfg.PollPolicy.MaxAttempts != provider.DefaultPollPolicy.MaxAttempts {
		t.Errorf("expected default max attempts %d, got %d",
			provider.DefaultPollPolicy.MaxAttempts, o.cfg.PollPolicy.MaxAttempts)
	}
	if o.cfg.PollPolicy.Interval != 2*time.Second {
		t.Errorf("explicit interval overwritten: %s", o.cfg.PollPolicy.Interval)
	}

	o = New(Config{PollPolicy: provider.PollPolicy{MaxAttempts: 7}}, Dependencies{})
	if o.cfg.PollPolicy.Interval != provider.DefaultPollPolicy.Interval {
		t.Errorf("expected default interval %s, got %s",
			provider.DefaultPollPolicy.Interval, o.cfg.PollPolicy.Interval)
	}
	if o.cfg.PollPolicy.MaxAttempts != 7 {
		t.Errorf("explicit max attempts overwritten: %d", o.cfg.PollPolicy.MaxAttempts)
	}
}

func TestRun_ValidationRejectsWrongBatchSize(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	h := newHarness(t, Config{WorkerCount: 5, UnitsPerWorker: 2}, backends, []string{"minimax"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(9), nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !batch.IsValidation(err) {
		t.Errorf("expected validation kind, got %s", batch.KindOf(err))
	}
	if result.Success {
		t.Error("expected batch failure")
	}
	if got := totalSubmits(backends); got != 0 {
		t.Errorf("expected zero submits before validation passes, got %d", got)
	}
}

func TestRun_ValidationRejectsUnknownPreference(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"minimax"}, Dependencies{})

	_, err := h.orch.Run(context.Background(), sceneUnits(2), []string{"minimax", "nonexistent"})
	if !batch.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := totalSubmits(backends); got != 0 {
		t.Errorf("expected zero submits, got %d", got)
	}
}

func TestRun_ValidationRejectsBadSceneParams(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"minimax"}, Dependencies{})

	units := sceneUnits(2)
	units[1].DurationSec = 0

	_, err := h.orch.Run(context.Background(), units, nil)
	if !batch.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "scene 1") {
		t.Errorf("expected offending scene in error, got %v", err)
	}
}

func TestRun_ResultsSortedByUnitIndex(t *testing.T) {
	// Staggered pending counts permute the order in which scenes
	// finish across workers.
	backend := newFakeBackend(provider.Descriptor{ID: "minimax"})
	backend.pending = 3
	backends := map[string]*fakeBackend{"minimax": backend}
	h := newHarness(t, Config{WorkerCount: 5, UnitsPerWorker: 2}, backends, []string{"minimax"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range result.Results {
		if r.UnitIndex != i {
			t.Fatalf("result %d has scene index %d, want %d", i, r.UnitIndex, i)
		}
	}
	artifacts := result.Artifacts()
	if len(artifacts) != 10 {
		t.Fatalf("expected 10 artifacts, got %d", len(artifacts))
	}
	if artifacts[3] != "https://cdn/minimax-3.mp4" {
		t.Errorf("artifact order broken: %s", artifacts[3])
	}
}

func TestRun_PartialFailureKeepsBatchAlive(t *testing.T) {
	minimax := newFakeBackend(provider.Descriptor{ID: "minimax"})
	minimax.failIndex = map[int]bool{3: true}
	kling := newFakeBackend(provider.Descriptor{ID: "kling"})
	kling.failIndex = map[int]bool{3: true}
	backends := map[string]*fakeBackend{"minimax": minimax, "kling": kling}
	h := newHarness(t, Config{WorkerCount: 5, UnitsPerWorker: 2}, backends, []string{"minimax", "kling"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("one failed scene must not fail the batch")
	}
	if result.SuccessCount() != 9 {
		t.Errorf("expected 9 successes, got %d", result.SuccessCount())
	}

	failed := result.Results[3]
	if failed.Success {
		t.Fatal("scene 3 should have failed on every provider")
	}
	if failed.Error == "" {
		t.Error("failed scene should carry an error")
	}
	if len(result.Artifacts()) != 9 {
		t.Errorf("expected 9 artifacts, got %d", len(result.Artifacts()))
	}
}

func TestRun_AllScenesFailedFailsBatch(t *testing.T) {
	backend := newFakeBackend(provider.Descriptor{ID: "minimax"})
	backend.failIndex = map[int]bool{0: true, 1: true}
	backends := map[string]*fakeBackend{"minimax": backend}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"minimax"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(2), nil)
	if err != nil {
		t.Fatalf("scene failures are reported in the result, not the error: %v", err)
	}
	if result.Success {
		t.Error("batch with zero artifacts must fail")
	}
	if result.Error == "" {
		t.Error("expected a batch error")
	}
}

func TestRun_CostChargesOnlyFinalProvider(t *testing.T) {
	cheap := newFakeBackend(provider.Descriptor{ID: "cheap", PricePerUnit: 0.10})
	premium := newFakeBackend(provider.Descriptor{ID: "premium", PricePerUnit: 0.20})
	backends := map[string]*fakeBackend{"cheap": cheap, "premium": premium}
	h := newHarness(t, Config{WorkerCount: 5, UnitsPerWorker: 2}, backends, []string{"cheap", "premium"}, Dependencies{})

	prefs := []string{"cheap", "cheap", "premium", "premium", "premium"}
	result, err := h.orch.Run(context.Background(), sceneUnits(10), prefs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 4*0.10 + 6*0.20
	if math.Abs(result.TotalCost-want) > 1e-9 {
		t.Errorf("expected cost %.2f, got %.2f", want, result.TotalCost)
	}
}

func TestRun_FallbackProviderIsTheOneCharged(t *testing.T) {
	cheap := newFakeBackend(provider.Descriptor{ID: "cheap", PricePerUnit: 0.10})
	cheap.failIndex = map[int]bool{0: true}
	premium := newFakeBackend(provider.Descriptor{ID: "premium", PricePerUnit: 0.20})
	backends := map[string]*fakeBackend{"cheap": cheap, "premium": premium}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"cheap", "premium"}, Dependencies{})

	result, err := h.orch.Run(context.Background(), sceneUnits(2), []string{"cheap", "cheap"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Results[0].ProviderUsed != "premium" {
		t.Fatalf("scene 0 should have fallen back, used %s", result.Results[0].ProviderUsed)
	}
	want := 0.20 + 0.10
	if math.Abs(result.TotalCost-want) > 1e-9 {
		t.Errorf("expected cost %.2f, got %.2f", want, result.TotalCost)
	}
}

func TestRun_PreflightFailureBlocksSubmits(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	deps := Dependencies{
		Preflight: func(ctx context.Context) error {
			return errors.New("REPLICATE_API_TOKEN is not set")
		},
	}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"minimax"}, deps)

	_, err := h.orch.Run(context.Background(), sceneUnits(2), nil)
	if batch.KindOf(err) != batch.KindProviderUnavailable {
		t.Fatalf("expected provider_unavailable, got %v", err)
	}
	if got := totalSubmits(backends); got != 0 {
		t.Errorf("expected zero submits, got %d", got)
	}
}

func TestRun_WorkerPanicProducesFatalResult(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
		"boom":    newFakeBackend(provider.Descriptor{ID: "boom"}),
	}
	deps := Dependencies{
		Factory: func(id string) (provider.Client, error) {
			if id == "boom" {
				panic("backend constructor exploded")
			}
			return backends[id], nil
		},
	}
	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 2}, backends, []string{"boom", "minimax"}, deps)

	result, err := h.orch.Run(context.Background(), sceneUnits(4), []string{"boom", "minimax"})
	if batch.KindOf(err) != batch.KindBatchFatal {
		t.Fatalf("expected batch_fatal, got %v", err)
	}
	if result.Success {
		t.Error("a fatal worker fault must fail the batch")
	}
	if len(result.Results) != 4 {
		t.Fatalf("expected results for all 4 scenes, got %d", len(result.Results))
	}
	for _, r := range result.Results[:2] {
		if r.Success {
			t.Errorf("scene %d belongs to the panicked worker, should be failed", r.UnitIndex)
		}
	}
	for _, r := range result.Results[2:] {
		if !r.Success {
			t.Errorf("scene %d belongs to the healthy worker, should have succeeded", r.UnitIndex)
		}
	}
}

func TestRun_EmitsBatchLifecycleEvents(t *testing.T) {
	backends := map[string]*fakeBackend{
		"minimax": newFakeBackend(provider.Descriptor{ID: "minimax"}),
	}
	bus := events.NewBus()
	var mu sync.Mutex
	var seen []events.EventType
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	h := newHarness(t, Config{WorkerCount: 2, UnitsPerWorker: 1}, backends, []string{"minimax"}, Dependencies{Bus: bus})
	if _, err := h.orch.Run(context.Background(), sceneUnits(2), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[0] != events.BatchStarted {
		t.Errorf("first event should be %s, got %s", events.BatchStarted, seen[0])
	}
	if seen[len(seen)-1] != events.BatchCompleted {
		t.Errorf("last event should be %s, got %s", events.BatchCompleted, seen[len(seen)-1])
	}
}
