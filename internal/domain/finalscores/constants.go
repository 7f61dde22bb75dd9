package finalscores

import "time"

const (
	OutcomeComputed = "computed"
	OutcomeLocked   = "locked"
	OutcomeFailed   = "failed"

	DefaultRankingTTL = 5 * time.Minute
)
