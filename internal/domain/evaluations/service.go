package evaluations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/notifications"
	"scorecard/internal/domain/scoring"
)

type Service struct {
	store    StoreAPI
	people   People
	notifier Notifier
}

func NewService(store StoreAPI, people People, notifier Notifier) *Service {
	return &Service{store: store, people: people, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, user auth.UserContext, input EvaluationInput) (scoring.Evaluation, error) {
	input = withDefaults(input)
	if err := ValidateInput(input); err != nil {
		return scoring.Evaluation{}, err
	}
	if err := s.requireSubject(ctx, user.TenantID, input.SubjectID); err != nil {
		return scoring.Evaluation{}, err
	}
	return s.store.CreateEvaluation(ctx, user.TenantID, user.UserID, input)
}

func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter) ([]scoring.Evaluation, int, error) {
	filter = ScopeFilter(user, filter)
	total, err := s.store.CountEvaluations(ctx, user.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.ListEvaluations(ctx, user.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i] = Mask(user, items[i])
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, evaluationID string) (scoring.Evaluation, error) {
	evaluation, err := s.getEvaluation(ctx, user.TenantID, evaluationID)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	if !canView(user, evaluation) {
		return scoring.Evaluation{}, ErrEvaluationNotFound
	}
	return Mask(user, evaluation), nil
}

func (s *Service) Update(ctx context.Context, user auth.UserContext, evaluationID string, input EvaluationInput) (scoring.Evaluation, error) {
	existing, err := s.editable(ctx, user, evaluationID)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	input = withDefaults(input)
	if err := ValidateInput(input); err != nil {
		return scoring.Evaluation{}, err
	}
	if input.SubjectID != existing.SubjectID {
		if err := s.requireSubject(ctx, user.TenantID, input.SubjectID); err != nil {
			return scoring.Evaluation{}, err
		}
	}
	return s.store.UpdatePendingEvaluation(ctx, user.TenantID, evaluationID, input)
}

func (s *Service) Delete(ctx context.Context, user auth.UserContext, evaluationID string) error {
	if _, err := s.editable(ctx, user, evaluationID); err != nil {
		return err
	}
	return s.store.DeletePendingEvaluation(ctx, user.TenantID, evaluationID)
}

// Review approves or rejects a pending evaluation and notifies its subject.
func (s *Service) Review(ctx context.Context, user auth.UserContext, evaluationID, decision string) (scoring.Evaluation, error) {
	status, err := StatusForDecision(decision)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	existing, err := s.getEvaluation(ctx, user.TenantID, evaluationID)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	if existing.Status != scoring.StatusPending {
		return scoring.Evaluation{}, ErrNotPending
	}
	reviewed, err := s.store.ReviewPendingEvaluation(ctx, user.TenantID, evaluationID, status, user.UserID)
	if err != nil {
		return scoring.Evaluation{}, err
	}

	if s.notifier != nil {
		title := fmt.Sprintf("Evaluation %s", reviewed.Status)
		body := fmt.Sprintf("Your %s evaluation for %s was %s.", reviewed.Kind, reviewed.Period, reviewed.Status)
		if err := s.notifier.Create(ctx, user.TenantID, reviewed.SubjectID, notifications.TypeEvaluationReviewed, title, body); err != nil {
			slog.Warn("evaluation review notification failed", "err", err)
		}
	}
	return reviewed, nil
}

func (s *Service) editable(ctx context.Context, user auth.UserContext, evaluationID string) (scoring.Evaluation, error) {
	existing, err := s.getEvaluation(ctx, user.TenantID, evaluationID)
	if err != nil {
		return scoring.Evaluation{}, err
	}
	if existing.EvaluatorID != user.UserID {
		return scoring.Evaluation{}, ErrNotEvaluator
	}
	if existing.Status != scoring.StatusPending {
		return scoring.Evaluation{}, ErrNotPending
	}
	return existing, nil
}

func (s *Service) getEvaluation(ctx context.Context, tenantID, evaluationID string) (scoring.Evaluation, error) {
	if !directory.ValidID(evaluationID) {
		return scoring.Evaluation{}, ErrEvaluationNotFound
	}
	return s.store.GetEvaluation(ctx, tenantID, evaluationID)
}

func (s *Service) requireSubject(ctx context.Context, tenantID, subjectID string) error {
	_, err := s.people.Get(ctx, tenantID, subjectID)
	if errors.Is(err, directory.ErrPersonNotFound) {
		return ErrSubjectNotFound
	}
	return err
}
