package scoring

const (
	KindDaily  = "daily"
	KindAnnual = "annual"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	GradeExcellent = "excellent"
	GradeGood      = "good"
	GradeAverage   = "average"
	GradePoor      = "poor"

	DailyWeight  = 0.8
	AnnualWeight = 0.2

	MaxWorkVolumeScore  = 30
	MaxWorkQualityScore = 20
	MaxKeyWorkScore     = 20
)
