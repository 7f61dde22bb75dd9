package evaluations

type EvaluationInput struct {
	SubjectID        string  `json:"subjectId" validate:"required,uuid"`
	BatchID          string  `json:"batchId" validate:"max=100"`
	Period           string  `json:"period" validate:"required"`
	Kind             string  `json:"kind" validate:"required,oneof=daily annual"`
	WorkVolumeScore  float64 `json:"workVolumeScore" validate:"gte=0,lte=30"`
	WorkQualityScore float64 `json:"workQualityScore" validate:"gte=0,lte=20"`
	KeyWorkScore     float64 `json:"keyWorkScore" validate:"gte=0,lte=20"`
	Comment          string  `json:"comment" validate:"max=2000"`
	IsAnonymous      bool    `json:"isAnonymous"`
	Round            int     `json:"round" validate:"gte=0"`
	Weight           float64 `json:"weight" validate:"gte=0"`
}

type ReviewInput struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type Filter struct {
	SubjectID   string
	EvaluatorID string
	Participant string
	Period      string
	Kind        string
	Status      string
	BatchID     string
	Limit       int
	Offset      int
}
