package finalscores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/notifications"
	"scorecard/internal/domain/scoring"
)

type Service struct {
	store      StoreAPI
	directory  Directory
	cache      Cache
	notifier   Notifier
	observer   Observer
	RankingTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

func NewService(store StoreAPI, directory Directory, opts ...Option) *Service {
	s := &Service{store: store, directory: directory, RankingTTL: DefaultRankingTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute fetches the subject's approved evaluations for the period, runs the
// engine and upserts the result. Finalized rows are left untouched.
func (s *Service) Recompute(ctx context.Context, tenantID, subjectID, period string) (Standing, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Standing{}, ErrSubjectRequired
	}
	if !scoring.ValidPeriod(period) {
		return Standing{}, ErrInvalidPeriod
	}
	if _, err := s.directory.Get(ctx, tenantID, subjectID); err != nil {
		if errors.Is(err, directory.ErrPersonNotFound) {
			return Standing{}, ErrSubjectNotFound
		}
		return Standing{}, err
	}
	return s.recompute(ctx, tenantID, subjectID, period)
}

func (s *Service) recompute(ctx context.Context, tenantID, subjectID, period string) (Standing, error) {
	approved, err := s.store.ApprovedEvaluations(ctx, tenantID, subjectID, period)
	if err != nil {
		s.observe(OutcomeFailed)
		return Standing{}, err
	}
	daily, annual := splitByKind(approved)
	computed, err := scoring.ComputeFinalScore(daily, annual)
	if err != nil {
		s.observe(OutcomeFailed)
		return Standing{}, err
	}
	computed.SubjectID = subjectID
	computed.Period = period

	saved, err := s.store.UpsertFinalScore(ctx, tenantID, computed)
	if errors.Is(err, ErrLocked) {
		s.observe(OutcomeLocked)
		return Standing{}, err
	}
	if err != nil {
		s.observe(OutcomeFailed)
		return Standing{}, err
	}
	s.observe(OutcomeComputed)
	s.invalidate(ctx, tenantID, period)
	return standing(saved), nil
}

// RecomputePeriod recomputes every subject known in the period. Locked rows are
// counted and skipped; other failures are joined into the returned error.
func (s *Service) RecomputePeriod(ctx context.Context, tenantID, period string) (PeriodResult, error) {
	if !scoring.ValidPeriod(period) {
		return PeriodResult{}, ErrInvalidPeriod
	}
	subjects, err := s.store.SubjectsForPeriod(ctx, tenantID, period)
	if err != nil {
		return PeriodResult{}, err
	}

	result := PeriodResult{Period: period, Subjects: len(subjects)}
	var errs []error
	for _, subjectID := range subjects {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, err := s.recompute(ctx, tenantID, subjectID, period)
		switch {
		case err == nil:
			result.Computed++
		case errors.Is(err, ErrLocked):
			result.Locked++
		default:
			result.Failed++
			errs = append(errs, fmt.Errorf("subject %s: %w", subjectID, err))
		}
	}
	return result, errors.Join(errs...)
}

// Get returns one subject's standing. Callers without compute rights only see
// their own row: averages and evaluation counts are private, while the final
// score and grade of every subject are published through Ranking.
func (s *Service) Get(ctx context.Context, user auth.UserContext, subjectID, period string) (Standing, error) {
	if !scoring.ValidPeriod(period) {
		return Standing{}, ErrInvalidPeriod
	}
	if !user.Can(auth.CapFinalScoresCompute) && subjectID != user.UserID {
		return Standing{}, ErrFinalScoreNotFound
	}
	score, err := s.store.GetFinalScore(ctx, user.TenantID, subjectID, period)
	if err != nil {
		return Standing{}, err
	}
	return standing(score), nil
}

// Ranking orders all stored final scores of the period and attaches grade and
// display details. Results are cached per tenant and period.
func (s *Service) Ranking(ctx context.Context, tenantID, period string) (Ranking, error) {
	if !scoring.ValidPeriod(period) {
		return Ranking{}, ErrInvalidPeriod
	}
	key := rankingKey(tenantID, period)
	if cached, ok := s.cachedRanking(ctx, key); ok {
		return cached, nil
	}

	scores, err := s.store.ListFinalScores(ctx, tenantID, period)
	if err != nil {
		return Ranking{}, err
	}
	finalByID := make(map[string]bool, len(scores))
	ids := make([]string, 0, len(scores))
	for _, score := range scores {
		finalByID[score.SubjectID] = score.IsFinal
		ids = append(ids, score.SubjectID)
	}

	info, err := s.directory.Lookup(ctx, tenantID, ids)
	if err != nil {
		return Ranking{}, err
	}

	ranking := Ranking{Period: period, GeneratedAt: s.now().UTC(), Entries: []RankingEntry{}}
	for _, ranked := range scoring.RankSubjects(scores) {
		display := info[ranked.SubjectID]
		ranking.Entries = append(ranking.Entries, RankingEntry{
			Rank:       ranked.Rank,
			SubjectID:  ranked.SubjectID,
			Name:       display.Name,
			Department: display.Department,
			FinalScore: ranked.FinalScore,
			Grade:      scoring.ClassifyGrade(ranked.FinalScore),
			IsFinal:    finalByID[ranked.SubjectID],
		})
	}
	s.storeRanking(ctx, key, ranking)
	return ranking, nil
}

func (s *Service) Finalize(ctx context.Context, user auth.UserContext, subjectID, period string) (Standing, error) {
	if !scoring.ValidPeriod(period) {
		return Standing{}, ErrInvalidPeriod
	}
	score, err := s.store.SetFinal(ctx, user.TenantID, subjectID, period, true, user.UserID)
	if err != nil {
		return Standing{}, err
	}
	s.invalidate(ctx, user.TenantID, period)

	result := standing(score)
	if s.notifier != nil {
		title := "Final score published"
		body := fmt.Sprintf("Your final score for %s is %.2f (%s).", period, result.FinalScore.FinalScore, result.Grade)
		if err := s.notifier.Create(ctx, user.TenantID, subjectID, notifications.TypeFinalScoreFinalized, title, body); err != nil {
			slog.Warn("final score notification failed", "err", err)
		}
	}
	return result, nil
}

func (s *Service) Unlock(ctx context.Context, user auth.UserContext, subjectID, period string) (Standing, error) {
	if !scoring.ValidPeriod(period) {
		return Standing{}, ErrInvalidPeriod
	}
	score, err := s.store.SetFinal(ctx, user.TenantID, subjectID, period, false, "")
	if err != nil {
		return Standing{}, err
	}
	s.invalidate(ctx, user.TenantID, period)
	return standing(score), nil
}

func (s *Service) cachedRanking(ctx context.Context, key string) (Ranking, bool) {
	if s.cache == nil {
		return Ranking{}, false
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("ranking cache read failed", "err", err)
		return Ranking{}, false
	}
	if !ok {
		return Ranking{}, false
	}
	var ranking Ranking
	if err := json.Unmarshal(payload, &ranking); err != nil {
		slog.Warn("ranking cache decode failed", "err", err)
		return Ranking{}, false
	}
	return ranking, true
}

func (s *Service) storeRanking(ctx context.Context, key string, ranking Ranking) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(ranking)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.RankingTTL); err != nil {
		slog.Warn("ranking cache write failed", "err", err)
	}
}

func (s *Service) invalidate(ctx context.Context, tenantID, period string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rankingKey(tenantID, period)); err != nil {
		slog.Warn("ranking cache invalidation failed", "err", err)
	}
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveRecompute(outcome)
	}
}

func rankingKey(tenantID, period string) string {
	return "ranking:" + tenantID + ":" + period
}

// splitByKind routes unknown kinds into the daily set so the engine rejects them.
func splitByKind(evaluations []scoring.Evaluation) (daily, annual []scoring.Evaluation) {
	for _, e := range evaluations {
		switch e.Kind {
		case scoring.KindAnnual:
			annual = append(annual, e)
		default:
			daily = append(daily, e)
		}
	}
	return daily, annual
}

func standing(score scoring.FinalScore) Standing {
	return Standing{FinalScore: score, Grade: scoring.ClassifyGrade(score.FinalScore)}
}
