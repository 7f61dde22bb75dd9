package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"scorecard/internal/domain/finalscores"
)

type fakeStore struct {
	mu       sync.Mutex
	started  []string
	finished map[string]string
	details  map[string][]byte
	tenants  []string
}

func newFakeStore(tenants ...string) *fakeStore {
	return &fakeStore{finished: map[string]string{}, details: map[string][]byte{}, tenants: tenants}
}

func (f *fakeStore) StartRun(_ context.Context, _, jobType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, jobType)
	return "run-" + jobType, nil
}

func (f *fakeStore) FinishRun(_ context.Context, runID, status string, details []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished[runID] = status
	f.details[runID] = details
	return nil
}

func (f *fakeStore) ListRuns(context.Context, string, string, int, int) ([]Run, error) {
	return []Run{{ID: "r1"}}, nil
}

func (f *fakeStore) CountRuns(context.Context, string, string) (int, error) { return 1, nil }

func (f *fakeStore) ListTenants(context.Context) ([]string, error) { return f.tenants, nil }

type fakeRecomputer struct {
	mu      sync.Mutex
	periods []string
	done    chan struct{}
}

func (r *fakeRecomputer) RecomputePeriod(_ context.Context, tenantID, period string) (finalscores.PeriodResult, error) {
	r.mu.Lock()
	r.periods = append(r.periods, tenantID+"/"+period)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return finalscores.PeriodResult{Period: period, Subjects: 2, Computed: 2}, nil
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveJob(jobType, status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[jobType+":"+status]++
}

func TestRunNowRecordsRunLifecycle(t *testing.T) {
	store := newFakeStore()
	observer := &countingObserver{counts: map[string]int{}}
	svc := New(store, nil, observer, 4, 0)

	_, err := svc.RunNow(context.Background(), "custom", "t1", func(context.Context) (any, error) {
		return map[string]int{"n": 1}, errors.New("partial")
	})
	if err == nil {
		t.Fatal("expected job error to propagate")
	}
	if store.finished["run-custom"] != StatusFailed {
		t.Fatalf("expected failed status, got %q", store.finished["run-custom"])
	}
	if string(store.details["run-custom"]) != `{"n":1}` {
		t.Fatalf("unexpected details %s", store.details["run-custom"])
	}
	if observer.counts["custom:failed"] != 1 {
		t.Fatalf("expected failure observed, got %v", observer.counts)
	}
}

func TestRecomputeNowReturnsPeriodResult(t *testing.T) {
	store := newFakeStore()
	recomputer := &fakeRecomputer{}
	svc := New(store, recomputer, nil, 4, 0)

	details, err := svc.RecomputeNow(context.Background(), "t1", "2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := details.(finalscores.PeriodResult)
	if !ok || result.Computed != 2 {
		t.Fatalf("unexpected details %#v", details)
	}
	var stored finalscores.PeriodResult
	if err := json.Unmarshal(store.details["run-"+JobFinalScoreRecompute], &stored); err != nil || stored.Period != "2024" {
		t.Fatalf("expected stored period result, got %s (%v)", store.details["run-"+JobFinalScoreRecompute], err)
	}
}

func TestWorkerDrainsQueuedRecompute(t *testing.T) {
	store := newFakeStore()
	recomputer := &fakeRecomputer{done: make(chan struct{}, 1)}
	svc := New(store, recomputer, nil, 4, 0)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	if !svc.EnqueueRecompute("t1", "2024-05") {
		t.Fatal("expected job accepted")
	}

	select {
	case <-recomputer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued recompute did not run")
	}
	cancel()
	svc.Wait()

	if len(recomputer.periods) != 1 || recomputer.periods[0] != "t1/2024-05" {
		t.Fatalf("unexpected recomputes %v", recomputer.periods)
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	svc := New(newFakeStore(), nil, nil, 1, 0)
	noop := func(context.Context) (any, error) { return nil, nil }

	if !svc.Enqueue("a", "t1", noop) {
		t.Fatal("expected first job accepted")
	}
	if svc.Enqueue("b", "t1", noop) {
		t.Fatal("expected second job dropped")
	}
}

func TestSchedulerEnqueuesCurrentPeriodsPerTenant(t *testing.T) {
	svc := New(newFakeStore("t1", "t2"), &fakeRecomputer{}, nil, 8, 0)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }

	svc.enqueueCurrentPeriods(context.Background())

	if got := len(svc.queue); got != 4 {
		t.Fatalf("expected 4 queued jobs, got %d", got)
	}
	if periods := CurrentPeriods(svc.now()); periods[0] != "2024" || periods[1] != "2024-03" {
		t.Fatalf("unexpected periods %v", periods)
	}
}
