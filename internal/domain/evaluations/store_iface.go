package evaluations

import (
	"context"

	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/scoring"
)

type StoreAPI interface {
	CreateEvaluation(ctx context.Context, tenantID, evaluatorID string, input EvaluationInput) (scoring.Evaluation, error)
	GetEvaluation(ctx context.Context, tenantID, evaluationID string) (scoring.Evaluation, error)
	ListEvaluations(ctx context.Context, tenantID string, filter Filter) ([]scoring.Evaluation, error)
	CountEvaluations(ctx context.Context, tenantID string, filter Filter) (int, error)
	UpdatePendingEvaluation(ctx context.Context, tenantID, evaluationID string, input EvaluationInput) (scoring.Evaluation, error)
	DeletePendingEvaluation(ctx context.Context, tenantID, evaluationID string) error
	ReviewPendingEvaluation(ctx context.Context, tenantID, evaluationID, status, reviewerID string) (scoring.Evaluation, error)
}

type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

// People resolves subjects inside the caller's tenant.
type People interface {
	Get(ctx context.Context, tenantID, personID string) (directory.Person, error)
}
