package scores

import (
	"fmt"
	"strings"

	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/scoring"
)

// ValidateEntry checks the input against the closed category enumeration.
func ValidateEntry(input EntryInput) error {
	if strings.TrimSpace(input.SubjectID) == "" {
		return ErrSubjectRequired
	}
	category, ok := scoring.CategoryByCode(input.CategoryID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, input.CategoryID)
	}
	if err := category.ValidateValue(input.Value); err != nil {
		return fmt.Errorf("%w: %v", ErrValueOutOfRange, err)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return ErrReasonRequired
	}
	if !scoring.ValidPeriod(input.Period) {
		return ErrInvalidPeriod
	}
	return nil
}

func CanModify(user auth.UserContext, entry scoring.ScoreEntry) bool {
	return entry.RecorderID == user.UserID || user.Can(auth.CapScoresManage)
}

// ScopeFilter restricts callers who cannot record scores to their own entries.
func ScopeFilter(user auth.UserContext, filter Filter) Filter {
	if !user.Can(auth.CapScoresWrite) {
		filter.SubjectID = user.UserID
	}
	return filter
}
