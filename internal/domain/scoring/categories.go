package scoring

import (
	"fmt"
	"regexp"
	"sort"
)

const (
	GroupAttendance = "attendance"
	GroupDiscipline = "discipline"
	GroupLearning   = "learning"
	GroupKeyWork    = "key_work"
	GroupReward     = "reward"
)

const (
	SignDeduction = "deduction"
	SignBonus     = "bonus"
)

type Category struct {
	Code  string  `json:"code"`
	Group string  `json:"group"`
	Name  string  `json:"name"`
	Sign  string  `json:"sign"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Deduction categories only admit values in [Min, 0], bonus categories in [0, Max].
var categories = []Category{
	{Code: "attendance.late", Group: GroupAttendance, Name: "Late arrival", Sign: SignDeduction, Min: -2, Max: 0},
	{Code: "attendance.early_leave", Group: GroupAttendance, Name: "Early leave", Sign: SignDeduction, Min: -2, Max: 0},
	{Code: "attendance.absence", Group: GroupAttendance, Name: "Unexcused absence", Sign: SignDeduction, Min: -5, Max: 0},
	{Code: "discipline.violation", Group: GroupDiscipline, Name: "Rule violation", Sign: SignDeduction, Min: -10, Max: 0},
	{Code: "discipline.commendation", Group: GroupDiscipline, Name: "Conduct commendation", Sign: SignBonus, Min: 0, Max: 5},
	{Code: "learning.training", Group: GroupLearning, Name: "Training attended", Sign: SignBonus, Min: 0, Max: 5},
	{Code: "learning.certification", Group: GroupLearning, Name: "Certification earned", Sign: SignBonus, Min: 0, Max: 10},
	{Code: "learning.missed_training", Group: GroupLearning, Name: "Missed mandatory training", Sign: SignDeduction, Min: -3, Max: 0},
	{Code: "key_work.milestone", Group: GroupKeyWork, Name: "Key work milestone", Sign: SignBonus, Min: 0, Max: 20},
	{Code: "key_work.delay", Group: GroupKeyWork, Name: "Key work delay", Sign: SignDeduction, Min: -10, Max: 0},
	{Code: "reward.bonus", Group: GroupReward, Name: "Bonus reward", Sign: SignBonus, Min: 0, Max: 10},
}

var categoryIndex = func() map[string]Category {
	out := make(map[string]Category, len(categories))
	for _, c := range categories {
		out[c.Code] = c
	}
	return out
}()

var periodPattern = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]))?$`)

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func CategoryByCode(code string) (Category, bool) {
	c, ok := categoryIndex[code]
	return c, ok
}

func Groups() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range categories {
		if _, ok := seen[c.Group]; ok {
			continue
		}
		seen[c.Group] = struct{}{}
		out = append(out, c.Group)
	}
	sort.Strings(out)
	return out
}

func IsGroup(group string) bool {
	for _, c := range categories {
		if c.Group == group {
			return true
		}
	}
	return false
}

// ValidateValue checks value against the category's declared range.
func (c Category) ValidateValue(value float64) error {
	if value < c.Min || value > c.Max {
		return fmt.Errorf("value %v outside [%v, %v] for category %s", value, c.Min, c.Max, c.Code)
	}
	return nil
}

// ValidPeriod accepts a year ("2025") or a year-month ("2025-03") token.
func ValidPeriod(period string) bool {
	return periodPattern.MatchString(period)
}
