package finalscores

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"scorecard/internal/domain/scoring"
	"scorecard/internal/platform/querier"
)

const finalScoreColumns = "subject_id, period, daily_average, annual_average, final_score, daily_count, annual_count, calculated_at, is_final"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ApprovedEvaluations(ctx context.Context, tenantID, subjectID, period string) ([]scoring.Evaluation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, subject_id, period, kind, work_volume_score, work_quality_score, key_work_score, total_score, status
    FROM evaluations
    WHERE tenant_id = $1 AND subject_id = $2 AND period = $3 AND status = $4
    ORDER BY created_at, id
  `, tenantID, subjectID, period, scoring.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.Evaluation
	for rows.Next() {
		var e scoring.Evaluation
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Period, &e.Kind, &e.WorkVolumeScore, &e.WorkQualityScore, &e.KeyWorkScore, &e.TotalScore, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpsertFinalScore(ctx context.Context, tenantID string, score scoring.FinalScore) (scoring.FinalScore, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO final_scores (tenant_id, subject_id, period, daily_average, annual_average, final_score, daily_count, annual_count, calculated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
    ON CONFLICT (tenant_id, subject_id, period) DO UPDATE
      SET daily_average = EXCLUDED.daily_average,
          annual_average = EXCLUDED.annual_average,
          final_score = EXCLUDED.final_score,
          daily_count = EXCLUDED.daily_count,
          annual_count = EXCLUDED.annual_count,
          calculated_at = now()
      WHERE final_scores.is_final = false
    RETURNING `+finalScoreColumns,
		tenantID, score.SubjectID, score.Period, score.DailyAverage, score.AnnualAverage, score.FinalScore, score.DailyCount, score.AnnualCount)
	saved, err := scanFinalScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.FinalScore{}, ErrLocked
	}
	if querier.HasCode(err, querier.CodeForeignKeyViolation, querier.CodeInvalidText) {
		return scoring.FinalScore{}, ErrSubjectNotFound
	}
	return saved, err
}

func (s *Store) GetFinalScore(ctx context.Context, tenantID, subjectID, period string) (scoring.FinalScore, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+finalScoreColumns+" FROM final_scores WHERE tenant_id = $1 AND subject_id::text = $2 AND period = $3", tenantID, subjectID, period)
	score, err := scanFinalScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.FinalScore{}, ErrFinalScoreNotFound
	}
	return score, err
}

func (s *Store) ListFinalScores(ctx context.Context, tenantID, period string) ([]scoring.FinalScore, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+finalScoreColumns+" FROM final_scores WHERE tenant_id = $1 AND period = $2", tenantID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.FinalScore
	for rows.Next() {
		score, err := scanFinalScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

// SubjectsForPeriod lists everyone with an approved evaluation or an existing final score in the period.
func (s *Store) SubjectsForPeriod(ctx context.Context, tenantID, period string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT subject_id::text FROM evaluations WHERE tenant_id = $1 AND period = $2 AND status = $3
    UNION
    SELECT subject_id::text FROM final_scores WHERE tenant_id = $1 AND period = $2
    ORDER BY 1
  `, tenantID, period, scoring.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) SetFinal(ctx context.Context, tenantID, subjectID, period string, final bool, actorID string) (scoring.FinalScore, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE final_scores
    SET is_final = $1, finalized_by = $2
    WHERE tenant_id = $3 AND subject_id::text = $4 AND period = $5
    RETURNING `+finalScoreColumns,
		final, nullIfEmpty(actorID), tenantID, subjectID, period)
	score, err := scanFinalScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return scoring.FinalScore{}, ErrFinalScoreNotFound
	}
	return score, err
}

func scanFinalScore(row pgx.Row) (scoring.FinalScore, error) {
	var f scoring.FinalScore
	err := row.Scan(&f.SubjectID, &f.Period, &f.DailyAverage, &f.AnnualAverage, &f.FinalScore, &f.DailyCount, &f.AnnualCount, &f.CalculatedAt, &f.IsFinal)
	return f, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
