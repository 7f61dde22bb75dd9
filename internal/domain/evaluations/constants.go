package evaluations

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"

	DefaultRound  = 1
	DefaultWeight = 1.0
)
