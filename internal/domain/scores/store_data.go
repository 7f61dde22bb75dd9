package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scorecard/internal/domain/scoring"
	"scorecard/internal/platform/querier"
)

const entryColumns = "id, subject_id, recorder_id, category_id, value, reason, period, created_at"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateEntry(ctx context.Context, tenantID, recorderID string, input EntryInput, group string) (scoring.ScoreEntry, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO score_entries (tenant_id, subject_id, recorder_id, category_id, category_group, value, reason, period)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+entryColumns,
		tenantID, input.SubjectID, recorderID, input.CategoryID, group, input.Value, input.Reason, input.Period)
	entry, err := scanEntry(row)
	if querier.HasCode(err, querier.CodeForeignKeyViolation, querier.CodeInvalidText) {
		return scoring.ScoreEntry{}, ErrSubjectNotFound
	}
	return entry, err
}

func (s *Store) GetEntry(ctx context.Context, tenantID, entryID string) (scoring.ScoreEntry, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+entryColumns+" FROM score_entries WHERE tenant_id = $1 AND id = $2", tenantID, entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) || querier.HasCode(err, querier.CodeInvalidText) {
		return scoring.ScoreEntry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) ListEntries(ctx context.Context, tenantID string, filter Filter) ([]scoring.ScoreEntry, error) {
	query, args := buildEntryQuery("SELECT "+entryColumns, tenantID, filter)
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []scoring.ScoreEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) CountEntries(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildEntryQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateEntry(ctx context.Context, tenantID, entryID string, input EntryInput, group string) (scoring.ScoreEntry, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE score_entries
    SET subject_id = $1, category_id = $2, category_group = $3, value = $4, reason = $5, period = $6, updated_at = now()
    WHERE tenant_id = $7 AND id = $8
    RETURNING `+entryColumns,
		input.SubjectID, input.CategoryID, group, input.Value, input.Reason, input.Period, tenantID, entryID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.ScoreEntry{}, ErrEntryNotFound
	}
	if querier.HasCode(err, querier.CodeForeignKeyViolation, querier.CodeInvalidText) {
		return scoring.ScoreEntry{}, ErrSubjectNotFound
	}
	return entry, err
}

func (s *Store) DeleteEntry(ctx context.Context, tenantID, entryID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM score_entries WHERE tenant_id = $1 AND id = $2", tenantID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (scoring.ScoreEntry, error) {
	var e scoring.ScoreEntry
	err := row.Scan(&e.ID, &e.SubjectID, &e.RecorderID, &e.CategoryID, &e.Value, &e.Reason, &e.Period, &e.CreatedAt)
	return e, err
}

func buildEntryQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM score_entries WHERE tenant_id = $1"
	args := []any{tenantID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.SubjectID != "" {
		add(" AND subject_id::text = $%d", filter.SubjectID)
	}
	if filter.RecorderID != "" {
		add(" AND recorder_id::text = $%d", filter.RecorderID)
	}
	if filter.Period != "" {
		add(" AND period = $%d", filter.Period)
	}
	if filter.Group != "" {
		add(" AND category_group = $%d", filter.Group)
	}
	if filter.CategoryID != "" {
		add(" AND category_id = $%d", filter.CategoryID)
	}
	if !filter.From.IsZero() {
		add(" AND created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add(" AND created_at < $%d", filter.To)
	}
	return query, args
}
