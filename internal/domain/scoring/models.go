package scoring

import "time"

type ScoreEntry struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subjectId"`
	RecorderID string    `json:"recorderId"`
	CategoryID string    `json:"categoryId"`
	Value      float64   `json:"value"`
	Reason     string    `json:"reason"`
	Period     string    `json:"period"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Evaluation struct {
	ID               string    `json:"id"`
	SubjectID        string    `json:"subjectId"`
	EvaluatorID      string    `json:"evaluatorId,omitempty"`
	BatchID          string    `json:"batchId,omitempty"`
	Period           string    `json:"period"`
	Kind             string    `json:"kind"`
	WorkVolumeScore  float64   `json:"workVolumeScore"`
	WorkQualityScore float64   `json:"workQualityScore"`
	KeyWorkScore     float64   `json:"keyWorkScore"`
	TotalScore       float64   `json:"totalScore"`
	Comment          string    `json:"comment,omitempty"`
	Status           string    `json:"status"`
	IsAnonymous      bool      `json:"isAnonymous"`
	Round            int       `json:"round"`
	Weight           float64   `json:"weight"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Total is the sum of the component scores. TotalScore is only ever populated from it.
func (e Evaluation) Total() float64 {
	return Sum(e.WorkVolumeScore, e.WorkQualityScore, e.KeyWorkScore)
}

type FinalScore struct {
	SubjectID     string     `json:"subjectId"`
	Period        string     `json:"period"`
	DailyAverage  float64    `json:"dailyAverage"`
	AnnualAverage float64    `json:"annualAverage"`
	FinalScore    float64    `json:"finalScore"`
	DailyCount    int        `json:"dailyCount"`
	AnnualCount   int        `json:"annualCount"`
	CalculatedAt  *time.Time `json:"calculatedAt,omitempty"`
	IsFinal       bool       `json:"isFinal"`
}

type Subtotal struct {
	SubjectID     string  `json:"subjectId"`
	CategoryGroup string  `json:"categoryGroup"`
	Subtotal      float64 `json:"subtotal"`
	Count         int     `json:"count"`
}

type RankedSubject struct {
	Rank       int     `json:"rank"`
	SubjectID  string  `json:"subjectId"`
	FinalScore float64 `json:"finalScore"`
}
