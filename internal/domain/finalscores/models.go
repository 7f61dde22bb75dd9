package finalscores

import (
	"time"

	"scorecard/internal/domain/scoring"
)

// Standing is a stored final score with its grade band.
type Standing struct {
	scoring.FinalScore
	Grade string `json:"grade"`
}

type RankingEntry struct {
	Rank       int     `json:"rank"`
	SubjectID  string  `json:"subjectId"`
	Name       string  `json:"name,omitempty"`
	Department string  `json:"department,omitempty"`
	FinalScore float64 `json:"finalScore"`
	Grade      string  `json:"grade"`
	IsFinal    bool    `json:"isFinal"`
}

type Ranking struct {
	Period      string         `json:"period"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Entries     []RankingEntry `json:"entries"`
}

type PeriodResult struct {
	Period   string `json:"period"`
	Subjects int    `json:"subjects"`
	Computed int    `json:"computed"`
	Locked   int    `json:"locked"`
	Failed   int    `json:"failed"`
}
