package evaluations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scorecard/internal/domain/scoring"
	"scorecard/internal/platform/querier"
)

const evaluationColumns = `id, subject_id, evaluator_id, batch_id, period, kind, work_volume_score, work_quality_score,
  key_work_score, total_score, comment, status, is_anonymous, round, weight, created_at, updated_at`

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateEvaluation(ctx context.Context, tenantID, evaluatorID string, input EvaluationInput) (scoring.Evaluation, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (tenant_id, subject_id, evaluator_id, batch_id, period, kind, work_volume_score,
      work_quality_score, key_work_score, comment, status, is_anonymous, round, weight)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING `+evaluationColumns,
		tenantID, input.SubjectID, evaluatorID, input.BatchID, input.Period, input.Kind, input.WorkVolumeScore,
		input.WorkQualityScore, input.KeyWorkScore, input.Comment, scoring.StatusPending, input.IsAnonymous, input.Round, input.Weight)
	evaluation, err := scanEvaluation(row)
	if querier.HasCode(err, querier.CodeForeignKeyViolation, querier.CodeInvalidText) {
		return scoring.Evaluation{}, ErrSubjectNotFound
	}
	return evaluation, err
}

func (s *Store) GetEvaluation(ctx context.Context, tenantID, evaluationID string) (scoring.Evaluation, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+evaluationColumns+" FROM evaluations WHERE tenant_id = $1 AND id = $2", tenantID, evaluationID)
	evaluation, err := scanEvaluation(row)
	if errors.Is(err, pgx.ErrNoRows) || querier.HasCode(err, querier.CodeInvalidText) {
		return scoring.Evaluation{}, ErrEvaluationNotFound
	}
	return evaluation, err
}

func (s *Store) ListEvaluations(ctx context.Context, tenantID string, filter Filter) ([]scoring.Evaluation, error) {
	query, args := buildEvaluationQuery("SELECT "+evaluationColumns, tenantID, filter)
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
	return collectEvaluations(rows)
}

func (s *Store) CountEvaluations(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildEvaluationQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdatePendingEvaluation(ctx context.Context, tenantID, evaluationID string, input EvaluationInput) (scoring.Evaluation, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE evaluations
    SET subject_id = $1, batch_id = $2, period = $3, kind = $4, work_volume_score = $5, work_quality_score = $6,
        key_work_score = $7, comment = $8, is_anonymous = $9, round = $10, weight = $11, updated_at = now()
    WHERE tenant_id = $12 AND id = $13 AND status = $14
    RETURNING `+evaluationColumns,
		input.SubjectID, input.BatchID, input.Period, input.Kind, input.WorkVolumeScore, input.WorkQualityScore,
		input.KeyWorkScore, input.Comment, input.IsAnonymous, input.Round, input.Weight,
		tenantID, evaluationID, scoring.StatusPending)
	evaluation, err := scanEvaluation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Evaluation{}, ErrNotPending
	}
	if querier.HasCode(err, querier.CodeForeignKeyViolation, querier.CodeInvalidText) {
		return scoring.Evaluation{}, ErrSubjectNotFound
	}
	return evaluation, err
}

func (s *Store) DeletePendingEvaluation(ctx context.Context, tenantID, evaluationID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM evaluations WHERE tenant_id = $1 AND id = $2 AND status = $3", tenantID, evaluationID, scoring.StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// ReviewPendingEvaluation moves a pending evaluation to a terminal status.
// Concurrent reviews race on the status predicate; the loser gets ErrNotPending.
func (s *Store) ReviewPendingEvaluation(ctx context.Context, tenantID, evaluationID, status, reviewerID string) (scoring.Evaluation, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE evaluations
    SET status = $1, reviewed_by = $2, reviewed_at = now(), updated_at = now()
    WHERE tenant_id = $3 AND id = $4 AND status = $5
    RETURNING `+evaluationColumns,
		status, reviewerID, tenantID, evaluationID, scoring.StatusPending)
	evaluation, err := scanEvaluation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.Evaluation{}, ErrNotPending
	}
	return evaluation, err
}

func scanEvaluation(row pgx.Row) (scoring.Evaluation, error) {
	var e scoring.Evaluation
	err := row.Scan(&e.ID, &e.SubjectID, &e.EvaluatorID, &e.BatchID, &e.Period, &e.Kind, &e.WorkVolumeScore,
		&e.WorkQualityScore, &e.KeyWorkScore, &e.TotalScore, &e.Comment, &e.Status, &e.IsAnonymous, &e.Round,
		&e.Weight, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// collectEvaluations drains rows selected with the evaluation column list.
func collectEvaluations(rows pgx.Rows) ([]scoring.Evaluation, error) {
	var out []scoring.Evaluation
	for rows.Next() {
		evaluation, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, evaluation)
	}
	return out, rows.Err()
}

func buildEvaluationQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM evaluations WHERE tenant_id = $1"
	args := []any{tenantID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.SubjectID != "" {
		add(" AND subject_id::text = $%d", filter.SubjectID)
	}
	if filter.EvaluatorID != "" {
		add(" AND evaluator_id::text = $%d", filter.EvaluatorID)
	}
	if filter.Participant != "" {
		args = append(args, filter.Participant)
		query += fmt.Sprintf(" AND (subject_id::text = $%d OR evaluator_id::text = $%d)", len(args), len(args))
	}
	if filter.Period != "" {
		add(" AND period = $%d", filter.Period)
	}
	if filter.Kind != "" {
		add(" AND kind = $%d", filter.Kind)
	}
	if filter.Status != "" {
		add(" AND status = $%d", filter.Status)
	}
	if filter.BatchID != "" {
		add(" AND batch_id = $%d", filter.BatchID)
	}
	return query, args
}
