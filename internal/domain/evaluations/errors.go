package evaluations

import "errors"

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrNotEvaluator       = errors.New("only the evaluator may change this evaluation")
	ErrNotPending         = errors.New("evaluation is no longer pending")
	ErrInvalidKind        = errors.New("kind must be daily or annual")
	ErrScoreOutOfRange    = errors.New("component score out of range")
	ErrKeyWorkNotAllowed  = errors.New("key work score only applies to annual evaluations")
	ErrInvalidPeriod      = errors.New("period must be YYYY or YYYY-MM")
	ErrInvalidDecision    = errors.New("decision must be approve or reject")
	ErrSubjectRequired    = errors.New("subject is required")
	ErrSubjectNotFound    = errors.New("subject not found in directory")
)
