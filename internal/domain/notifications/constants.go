package notifications

const (
	TypeEvaluationReviewed  = "evaluation_reviewed"
	TypeFinalScoreFinalized = "final_score_finalized"
)
