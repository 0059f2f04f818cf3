package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category: категория критерия оценки.
type Category string

const (
	CategoryPrice        Category = "Price"
	CategoryBBBEE        Category = "BBBEE"
	CategoryTechnical    Category = "Technical"
	CategoryExperience   Category = "Experience"
	CategoryLocalContent Category = "Local Content"
	CategoryQuality      Category = "Quality"
)

// Derived: баллы категорий Price и BBBEE вычисляются, а не выставляются экспертом.
func (c Category) Derived() bool {
	return c == CategoryPrice || c == CategoryBBBEE
}

// Criterion: критерий оценки из реестра тендера.
type Criterion struct {
	Name     string          `json:"criteriaName"`
	Category Category        `json:"criteriaCategory"`
	MaxScore decimal.Decimal `json:"maxScore"`
	Weight   decimal.Decimal `json:"weight"`
}

// CriterionScore: балл предложения по одному критерию.
type CriterionScore struct {
	CriteriaName string          `json:"criteriaName"`
	Category     Category        `json:"criteriaCategory"`
	MaxScore     decimal.Decimal `json:"maxScore"`
	Score        decimal.Decimal `json:"score"`
	Weight       decimal.Decimal `json:"weight"`
}

// Total считает Σ(score × weight). Отрицательные значения и score > maxScore отклоняются,
// поэтому итог никогда не превышает MaxTotal.
func Total(rows []CriterionScore) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, row := range rows {
		if err := validateRow(row); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(row.Score.Mul(row.Weight))
	}
	return total.Round(scoreDecimals), nil
}

// MaxTotal: верхняя граница итога: Σ(maxScore × weight).
func MaxTotal(rows []CriterionScore) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.MaxScore.Mul(row.Weight))
	}
	return total
}

// CheckComplete проверяет, что для каждого критерия есть оценка.
func CheckComplete(submissionID int, criteria []Criterion, rows []CriterionScore) error {
	have := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		have[row.CriteriaName] = struct{}{}
	}
	var missing []string
	for _, c := range criteria {
		if _, ok := have[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return &IncompleteDataError{SubmissionID: submissionID, Missing: missing}
	}
	return nil
}

func validateCriterion(c Criterion) error {
	field := fmt.Sprintf("criteria[%s]", c.Name)
	if c.Name == "" {
		return invalid("criteria", "criterion name is empty")
	}
	if c.MaxScore.IsNegative() {
		return invalid(field, "negative maxScore %s", c.MaxScore.String())
	}
	if c.Weight.IsNegative() {
		return invalid(field, "negative weight %s", c.Weight.String())
	}
	return nil
}

func validateRow(row CriterionScore) error {
	field := fmt.Sprintf("scores[%s]", row.CriteriaName)
	switch {
	case row.Score.IsNegative():
		return invalid(field, "negative score %s", row.Score.String())
	case row.Weight.IsNegative():
		return invalid(field, "negative weight %s", row.Weight.String())
	case row.MaxScore.IsNegative():
		return invalid(field, "negative maxScore %s", row.MaxScore.String())
	case row.Score.GreaterThan(row.MaxScore):
		return invalid(field, "score %s exceeds maxScore %s", row.Score.String(), row.MaxScore.String())
	}
	return nil
}
