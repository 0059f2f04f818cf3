package scoring

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Entry: предложение, участвующее в ранжировании.
type Entry struct {
	SubmissionID int
	BidAmount    decimal.Decimal
	Total        decimal.Decimal
	SubmittedAt  time.Time
	Excluded     bool
}

type Ranked struct {
	Entry
	Rank int
}

// Rank упорядочивает предложения: итог по убыванию, затем цена по возрастанию,
// затем время подачи, затем id. Исключённые предложения ранга не получают (0)
// и идут в конце списка.
func Rank(entries []Entry) []Ranked {
	out := make([]Ranked, 0, len(entries))
	for _, e := range entries {
		out = append(out, Ranked{Entry: e})
	}

	slices.SortFunc(out, func(a, b Ranked) int {
		if a.Excluded != b.Excluded {
			if a.Excluded {
				return 1
			}
			return -1
		}
		if c := b.Total.Cmp(a.Total); c != 0 && !a.Excluded {
			return c
		}
		if c := a.BidAmount.Cmp(b.BidAmount); c != 0 {
			return c
		}
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return a.SubmissionID - b.SubmissionID
	})

	rank := 0
	for i := range out {
		if out[i].Excluded {
			continue
		}
		rank++
		out[i].Rank = rank
	}
	return out
}
