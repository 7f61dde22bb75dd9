package evaluations

import (
	"fmt"
	"strings"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/scoring"
)

func ValidateInput(input EvaluationInput) error {
	if strings.TrimSpace(input.SubjectID) == "" {
		return ErrSubjectRequired
	}
	if input.Kind != scoring.KindDaily && input.Kind != scoring.KindAnnual {
		return ErrInvalidKind
	}
	if !scoring.ValidPeriod(input.Period) {
		return ErrInvalidPeriod
	}
	if err := checkRange("workVolumeScore", input.WorkVolumeScore, scoring.MaxWorkVolumeScore); err != nil {
		return err
	}
	if err := checkRange("workQualityScore", input.WorkQualityScore, scoring.MaxWorkQualityScore); err != nil {
		return err
	}
	if err := checkRange("keyWorkScore", input.KeyWorkScore, scoring.MaxKeyWorkScore); err != nil {
		return err
	}
	if input.Kind == scoring.KindDaily && input.KeyWorkScore != 0 {
		return ErrKeyWorkNotAllowed
	}
	if input.Round < 0 || input.Weight < 0 {
		return fmt.Errorf("%w: round and weight must not be negative", ErrScoreOutOfRange)
	}
	return nil
}

func checkRange(field string, value, max float64) error {
	if value < 0 || value > max {
		return fmt.Errorf("%w: %s must be between 0 and %v", ErrScoreOutOfRange, field, max)
	}
	return nil
}

func withDefaults(input EvaluationInput) EvaluationInput {
	input.SubjectID = strings.TrimSpace(input.SubjectID)
	input.BatchID = strings.TrimSpace(input.BatchID)
	input.Period = strings.TrimSpace(input.Period)
	input.Kind = strings.ToLower(strings.TrimSpace(input.Kind))
	input.Comment = strings.TrimSpace(input.Comment)
	if input.Round == 0 {
		input.Round = DefaultRound
	}
	if input.Weight == 0 {
		input.Weight = DefaultWeight
	}
	return input
}

// StatusForDecision maps a review decision to the terminal status it produces.
func StatusForDecision(decision string) (string, error) {
	switch decision {
	case DecisionApprove:
		return scoring.StatusApproved, nil
	case DecisionReject:
		return scoring.StatusRejected, nil
	default:
		return "", ErrInvalidDecision
	}
}

// Mask hides the evaluator of an anonymous evaluation from everyone except
// the evaluator and reviewers.
func Mask(viewer auth.UserContext, evaluation scoring.Evaluation) scoring.Evaluation {
	if !evaluation.IsAnonymous {
		return evaluation
	}
	if viewer.UserID == evaluation.EvaluatorID || viewer.Can(auth.CapEvaluationsApprove) {
		return evaluation
	}
	evaluation.EvaluatorID = ""
	return evaluation
}

// ScopeFilter limits non-reviewers to evaluations they gave or received.
// Filtering by another evaluator would reveal anonymous authors, so it is dropped.
func ScopeFilter(viewer auth.UserContext, filter Filter) Filter {
	if !viewer.Can(auth.CapEvaluationsApprove) {
		filter.Participant = viewer.UserID
		if filter.EvaluatorID != "" && filter.EvaluatorID != viewer.UserID {
			filter.EvaluatorID = viewer.UserID
		}
	}
	return filter
}

func canView(viewer auth.UserContext, evaluation scoring.Evaluation) bool {
	if viewer.Can(auth.CapEvaluationsApprove) {
		return true
	}
	return viewer.UserID == evaluation.SubjectID || viewer.UserID == evaluation.EvaluatorID
}
