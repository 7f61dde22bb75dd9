package scores

import (
	"context"

	"scorecard/internal/domain/directory"
	"scorecard/internal/domain/scoring"
)

type StoreAPI interface {
	CreateEntry(ctx context.Context, tenantID, recorderID string, input EntryInput, group string) (scoring.ScoreEntry, error)
	GetEntry(ctx context.Context, tenantID, entryID string) (scoring.ScoreEntry, error)
	ListEntries(ctx context.Context, tenantID string, filter Filter) ([]scoring.ScoreEntry, error)
	CountEntries(ctx context.Context, tenantID string, filter Filter) (int, error)
	UpdateEntry(ctx context.Context, tenantID, entryID string, input EntryInput, group string) (scoring.ScoreEntry, error)
	DeleteEntry(ctx context.Context, tenantID, entryID string) error
}

// People resolves subjects inside the caller's tenant.
type People interface {
	Get(ctx context.Context, tenantID, personID string) (directory.Person, error)
}
