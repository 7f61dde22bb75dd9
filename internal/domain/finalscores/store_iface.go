package finalscores

import (
	"context"
	"time"

	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/scoring"
)

type StoreAPI interface {
	ApprovedEvaluations(ctx context.Context, tenantID, subjectID, period string) ([]scoring.Evaluation, error)
	// UpsertFinalScore returns ErrLocked when the existing row is final.
	UpsertFinalScore(ctx context.Context, tenantID string, score scoring.FinalScore) (scoring.FinalScore, error)
	GetFinalScore(ctx context.Context, tenantID, subjectID, period string) (scoring.FinalScore, error)
	ListFinalScores(ctx context.Context, tenantID, period string) ([]scoring.FinalScore, error)
	SubjectsForPeriod(ctx context.Context, tenantID, period string) ([]string, error)
	SetFinal(ctx context.Context, tenantID, subjectID, period string, final bool, actorID string) (scoring.FinalScore, error)
}

type Directory interface {
	Get(ctx context.Context, tenantID, personID string) (directory.Person, error)
	Lookup(ctx context.Context, tenantID string, personIDs []string) (map[string]directory.DisplayInfo, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

type Observer interface {
	ObserveRecompute(outcome string)
}

type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
}
