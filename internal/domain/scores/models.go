package scores

import (
	"time"

	"scorecard/internal/domain/scoring"
)

type EntryInput struct {
	SubjectID  string  `json:"subjectId" validate:"required,uuid"`
	CategoryID string  `json:"categoryId" validate:"required"`
	Value      float64 `json:"value"`
	Reason     string  `json:"reason" validate:"required,max=1000"`
	Period     string  `json:"period" validate:"required"`
}

type Filter struct {
	SubjectID  string
	RecorderID string
	Period     string
	Group      string
	CategoryID string
	From       time.Time
	To         time.Time // exclusive
	Limit      int
	Offset     int
}

type Summary struct {
	SubjectID string             `json:"subjectId"`
	Period    string             `json:"period"`
	Groups    []scoring.Subtotal `json:"groups"`
	Net       float64            `json:"net"`
}
