package scoring

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	dailyWeight  = decimal.NewFromFloat(DailyWeight)
	annualWeight = decimal.NewFromFloat(AnnualWeight)
)

// ComputeCategorySubtotal nets the values of the entries whose category belongs to group.
// Entries from other groups are ignored; entries for more than one subject are rejected.
func ComputeCategorySubtotal(entries []ScoreEntry, group string) (Subtotal, error) {
	const op = "compute category subtotal"
	if !IsGroup(group) {
		return Subtotal{}, invalidInput(op, "unknown category group %q", group)
	}

	out := Subtotal{CategoryGroup: group}
	total := decimal.Zero
	for i, entry := range entries {
		if i == 0 {
			out.SubjectID = entry.SubjectID
		} else if entry.SubjectID != out.SubjectID {
			return Subtotal{}, invalidInput(op, "entries span subjects %q and %q", out.SubjectID, entry.SubjectID)
		}
		category, ok := CategoryByCode(entry.CategoryID)
		if !ok || category.Group != group {
			continue
		}
		total = total.Add(decimal.NewFromFloat(entry.Value))
		out.Count++
	}
	out.Subtotal = total.InexactFloat64()
	return out, nil
}

// ComputeFinalScore averages approved daily and annual evaluations and weights them 80/20.
// Status is not re-checked; the caller filters to approved records of one subject and period.
func ComputeFinalScore(daily, annual []Evaluation) (FinalScore, error) {
	const op = "compute final score"

	subjectID, period := "", ""
	seen := false
	for _, group := range [][]Evaluation{daily, annual} {
		for _, evaluation := range group {
			if !seen {
				subjectID, period, seen = evaluation.SubjectID, evaluation.Period, true
				continue
			}
			if evaluation.SubjectID != subjectID {
				return FinalScore{}, invalidInput(op, "evaluations span subjects %q and %q", subjectID, evaluation.SubjectID)
			}
			if evaluation.Period != period {
				return FinalScore{}, invalidInput(op, "evaluations span periods %q and %q", period, evaluation.Period)
			}
		}
	}

	dailyAvg, err := average(op, KindDaily, daily)
	if err != nil {
		return FinalScore{}, err
	}
	annualAvg, err := average(op, KindAnnual, annual)
	if err != nil {
		return FinalScore{}, err
	}

	final := dailyAvg.Mul(dailyWeight).Add(annualAvg.Mul(annualWeight)).Round(2)
	return FinalScore{
		SubjectID:     subjectID,
		Period:        period,
		DailyAverage:  dailyAvg.InexactFloat64(),
		AnnualAverage: annualAvg.InexactFloat64(),
		FinalScore:    final.InexactFloat64(),
		DailyCount:    len(daily),
		AnnualCount:   len(annual),
	}, nil
}

// RankSubjects orders scores descending with subject id ascending as the tie break.
// Ranks are ordinal: 1..n with no shared positions.
func RankSubjects(scores []FinalScore) []RankedSubject {
	sorted := make([]FinalScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FinalScore != sorted[j].FinalScore {
			return sorted[i].FinalScore > sorted[j].FinalScore
		}
		return sorted[i].SubjectID < sorted[j].SubjectID
	})

	out := make([]RankedSubject, 0, len(sorted))
	for i, score := range sorted {
		out = append(out, RankedSubject{Rank: i + 1, SubjectID: score.SubjectID, FinalScore: score.FinalScore})
	}
	return out
}

// ClassifyGrade maps a final score onto the fixed grade bands. Scores outside [0,100]
// are clamped into the nearest band.
func ClassifyGrade(score float64) string {
	if math.IsNaN(score) {
		return GradePoor
	}
	score = math.Max(0, math.Min(100, score))
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 80:
		return GradeGood
	case score >= 70:
		return GradeAverage
	default:
		return GradePoor
	}
}

func average(op, kind string, evaluations []Evaluation) (decimal.Decimal, error) {
	if len(evaluations) == 0 {
		return decimal.Zero, nil
	}
	total := decimal.Zero
	for _, evaluation := range evaluations {
		if evaluation.Kind != kind {
			return decimal.Zero, invalidInput(op, "evaluation %q has kind %q in the %s collection", evaluation.ID, evaluation.Kind, kind)
		}
		total = total.Add(decimal.NewFromFloat(evaluation.Total()))
	}
	return total.Div(decimal.NewFromInt(int64(len(evaluations)))), nil
}

// Sum adds values without binary floating point drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}
