package finalscores

import "errors"

var (
	ErrFinalScoreNotFound = errors.New("final score not found")
	ErrLocked             = errors.New("final score is finalized")
	ErrInvalidPeriod      = errors.New("period must be YYYY or YYYY-MM")
	ErrSubjectRequired    = errors.New("subject is required")
	ErrSubjectNotFound    = errors.New("subject not found in directory")
)
