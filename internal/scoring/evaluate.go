package scoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// Submission: данные одного предложения для оценки.
type Submission struct {
	ID          int
	BidAmount   decimal.Decimal
	Level       BBBEELevel
	SubmittedAt time.Time
	// Excluded: предложение не прошло обязательные проверки соответствия.
	Excluded bool
	// Scores: оценки экспертов; для Price и BBBEE игнорируются.
	Scores []CriterionScore
}

type EvaluationInput struct {
	Scale Scale
	// LowestPrice: если не задан, берётся минимальная цена среди допущенных предложений.
	LowestPrice decimal.NullDecimal
	Criteria    []Criterion
	Submissions []Submission
}

type Result struct {
	SubmissionID   int              `json:"submissionId"`
	BidAmount      decimal.Decimal  `json:"bidAmount"`
	PriceScore     decimal.Decimal  `json:"priceScore"`
	BBBEEPoints    decimal.Decimal  `json:"bbbeePoints"`
	TechnicalScore decimal.Decimal  `json:"technicalScore"`
	TotalScore     decimal.Decimal  `json:"totalScore"`
	Rank           int              `json:"rank"`
	Excluded       bool             `json:"excluded"`
	Scores         []CriterionScore `json:"scores,omitempty"`
}

// Evaluate считает баллы всех предложений тендера и ранжирует их.
// Исключённые предложения не оцениваются и получают ранг 0.
func Evaluate(in EvaluationInput) ([]Result, error) {
	if !in.Scale.Valid() {
		return nil, invalid("scale", "unsupported scale %d", int(in.Scale))
	}
	if len(in.Criteria) == 0 {
		return nil, invalid("criteria", "no scoring criteria defined")
	}
	seen := make(map[string]struct{}, len(in.Criteria))
	for _, c := range in.Criteria {
		if err := validateCriterion(c); err != nil {
			return nil, err
		}
		if _, dup := seen[c.Name]; dup {
			return nil, invalid("criteria", "duplicate criterion %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	lowest, ok := lowestEligible(in)
	if !ok {
		return excludedOnly(in.Submissions), nil
	}

	byID := make(map[int]Result, len(in.Submissions))
	entries := make([]Entry, 0, len(in.Submissions))
	for _, sub := range in.Submissions {
		res := Result{SubmissionID: sub.ID, BidAmount: sub.BidAmount, Excluded: sub.Excluded}
		if !sub.Excluded {
			scored, err := scoreSubmission(sub, in.Criteria, lowest, in.Scale)
			if err != nil {
				return nil, err
			}
			res = scored
		}
		byID[sub.ID] = res
		entries = append(entries, Entry{
			SubmissionID: sub.ID,
			BidAmount:    sub.BidAmount,
			Total:        res.TotalScore,
			SubmittedAt:  sub.SubmittedAt,
			Excluded:     sub.Excluded,
		})
	}

	ranked := Rank(entries)
	out := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		res := byID[r.SubmissionID]
		res.Rank = r.Rank
		out = append(out, res)
	}
	return out, nil
}

func scoreSubmission(sub Submission, criteria []Criterion, lowest decimal.Decimal, scale Scale) (Result, error) {
	price, err := PriceScore(sub.BidAmount, lowest, scale)
	if err != nil {
		return Result{}, err
	}
	points, err := PreferencePoints(sub.Level, scale)
	if err != nil {
		return Result{}, err
	}

	recorded := make(map[string]CriterionScore, len(sub.Scores))
	for _, s := range sub.Scores {
		recorded[s.CriteriaName] = s
	}

	rows := make([]CriterionScore, 0, len(criteria))
	var technical []CriterionScore
	var missing []string
	for _, c := range criteria {
		row := CriterionScore{
			CriteriaName: c.Name,
			Category:     c.Category,
			MaxScore:     c.MaxScore,
			Weight:       c.Weight,
		}
		switch c.Category {
		case CategoryPrice:
			row.Score = rescale(price, scale.PricePoints(), c.MaxScore)
		case CategoryBBBEE:
			row.Score = rescale(points, scale.PreferencePoints(), c.MaxScore)
		default:
			s, ok := recorded[c.Name]
			if !ok {
				missing = append(missing, c.Name)
				continue
			}
			row.Score = s.Score
			technical = append(technical, row)
		}
		rows = append(rows, row)
	}
	if len(missing) > 0 {
		return Result{}, &IncompleteDataError{SubmissionID: sub.ID, Missing: missing}
	}

	total, err := Total(rows)
	if err != nil {
		return Result{}, err
	}
	tech, err := Total(technical)
	if err != nil {
		return Result{}, err
	}

	return Result{
		SubmissionID:   sub.ID,
		BidAmount:      sub.BidAmount,
		PriceScore:     price,
		BBBEEPoints:    points,
		TechnicalScore: tech,
		TotalScore:     total,
		Scores:         rows,
	}, nil
}

// rescale переводит value из шкалы [0, from] в [0, to].
func rescale(value, from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	if from.Equal(to) {
		return value
	}
	return value.Div(from).Mul(to).Round(scoreDecimals)
}

func lowestEligible(in EvaluationInput) (decimal.Decimal, bool) {
	if in.LowestPrice.Valid {
		return in.LowestPrice.Decimal, true
	}
	var amounts []decimal.Decimal
	for _, sub := range in.Submissions {
		if !sub.Excluded {
			amounts = append(amounts, sub.BidAmount)
		}
	}
	return LowestPrice(amounts)
}

func excludedOnly(subs []Submission) []Result {
	entries := make([]Entry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, Entry{SubmissionID: sub.ID, BidAmount: sub.BidAmount, SubmittedAt: sub.SubmittedAt, Excluded: true})
	}
	out := make([]Result, 0, len(subs))
	for _, r := range Rank(entries) {
		out = append(out, Result{SubmissionID: r.SubmissionID, BidAmount: r.BidAmount, Excluded: true})
	}
	return out
}
