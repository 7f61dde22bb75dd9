package scores

import "errors"

var (
	ErrEntryNotFound    = errors.New("score entry not found")
	ErrUnknownCategory  = errors.New("unknown score category")
	ErrValueOutOfRange  = errors.New("score value outside category range")
	ErrReasonRequired   = errors.New("reason is required")
	ErrInvalidPeriod    = errors.New("period must be YYYY or YYYY-MM")
	ErrSubjectRequired  = errors.New("subject is required")
	ErrSubjectNotFound  = errors.New("subject not found in directory")
	ErrNotEntryOwner    = errors.New("only the recorder or an administrator may change this entry")
	ErrUnknownGroup     = errors.New("unknown category group")
)
