package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"scorecard/internal/domain/finalscores"
)

type PeriodRecomputer interface {
	RecomputePeriod(ctx context.Context, tenantID, period string) (finalscores.PeriodResult, error)
}

type Observer interface {
	ObserveJob(jobType, status string)
}

type Service struct {
	store      StoreAPI
	recomputer PeriodRecomputer
	observer   Observer
	interval   time.Duration
	queue      chan job
	wg         sync.WaitGroup
	now        func() time.Time
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(store StoreAPI, recomputer PeriodRecomputer, observer Observer, queueSize int, interval time.Duration) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{
		store:      store,
		recomputer: recomputer,
		observer:   observer,
		interval:   interval,
		queue:      make(chan job, queueSize),
		now:        time.Now,
	}
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if s.interval > 0 && s.recomputer != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduleRecompute(ctx, s.interval)
		}()
	}
}

// Wait blocks until the worker and scheduler have returned after ctx is cancelled.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue reports false when the queue is full and the job was dropped.
func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// EnqueueRecompute schedules a whole-period final score recomputation.
func (s *Service) EnqueueRecompute(tenantID, period string) bool {
	return s.Enqueue(JobFinalScoreRecompute, tenantID, s.recomputeFunc(tenantID, period))
}

func (s *Service) RecomputeNow(ctx context.Context, tenantID, period string) (any, error) {
	return s.RunNow(ctx, JobFinalScoreRecompute, tenantID, s.recomputeFunc(tenantID, period))
}

func (s *Service) List(ctx context.Context, tenantID, jobType string, limit, offset int) ([]Run, int, error) {
	total, err := s.store.CountRuns(ctx, tenantID, jobType)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListRuns(ctx, tenantID, jobType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) recomputeFunc(tenantID, period string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return s.recomputer.RecomputePeriod(ctx, tenantID, period)
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.store.StartRun(ctx, j.TenantID, j.Type)
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	if s.observer != nil {
		s.observer.ObserveJob(j.Type, status)
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.store.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleRecompute(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueCurrentPeriods(ctx)
		}
	}
}

func (s *Service) enqueueCurrentPeriods(ctx context.Context) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		slog.Warn("recompute scheduler tenant lookup failed", "err", err)
		return
	}
	for _, tenantID := range tenants {
		for _, period := range CurrentPeriods(s.now()) {
			s.EnqueueRecompute(tenantID, period)
		}
	}
}

// CurrentPeriods returns the yearly and monthly period tokens containing t.
func CurrentPeriods(t time.Time) []string {
	return []string{t.Format("2006"), t.Format("2006-01")}
}
