package evaluation

import (
	"context"
	"slices"
	"time"

	"procurement/internal/scoring"
	"procurement/models"

	"github.com/shopspring/decimal"
)

// Ranking: рейтинг предложений тендера, как он отдаётся в API и экспорт.
type Ranking struct {
	TenderID     int             `json:"tenderId"`
	TenderNumber string          `json:"tenderNumber"`
	Title        string          `json:"title"`
	Scale        scoring.Scale   `json:"scale"`
	LowestPrice  decimal.Decimal `json:"lowestPrice"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Rows         []RankingRow    `json:"rows"`
}

type RankingRow struct {
	Rank           int             `json:"rank"`
	SubmissionID   int             `json:"submissionId"`
	VendorID       int             `json:"vendorId"`
	VendorName     string          `json:"vendorName"`
	BBBEELevel     string          `json:"bbbeeLevel"`
	BidAmount      decimal.Decimal `json:"bidAmount"`
	PriceScore     decimal.Decimal `json:"priceScore"`
	BBBEEPoints    decimal.Decimal `json:"bbbeePoints"`
	TechnicalScore decimal.Decimal `json:"technicalScore"`
	TotalScore     decimal.Decimal `json:"totalScore"`
	Status         string          `json:"status"`
	Excluded       bool            `json:"excluded"`
}

// Ranking возвращает рейтинг из кэша или собирает его из сохранённых баллов.
func (s *Service) Ranking(ctx context.Context, tenderID int) (*Ranking, error) {
	var cached Ranking
	hit, err := s.cache.Get(ctx, tenderID, &cached)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "tender_id", tenderID), "ranking.cache_get_failed", err)
	}
	if hit {
		return &cached, nil
	}

	tender, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListTenderSubmissions(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	subs := make([]models.BidSubmission, 0, len(all))
	for _, b := range all {
		if b.TotalScore.Valid || b.Status == models.BidDisqualified {
			subs = append(subs, b)
		}
	}
	vendors, err := s.vendorsFor(ctx, subs)
	if err != nil {
		return nil, err
	}

	ranking := buildRanking(tender, s.ScaleFor(tender), s.now(), subs, vendors)
	if len(ranking.Rows) > 0 {
		if err := s.cache.Set(ctx, tenderID, ranking); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "tender_id", tenderID), "ranking.cache_set_failed", err)
		}
	}
	return ranking, nil
}

func buildRanking(t *models.Tender, scale scoring.Scale, now time.Time, subs []models.BidSubmission, vendors map[int]models.Vendor) *Ranking {
	r := &Ranking{
		TenderID:     t.ID,
		TenderNumber: t.TenderNumber,
		Title:        t.Title,
		Scale:        scale,
		GeneratedAt:  now.UTC(),
		Rows:         make([]RankingRow, 0, len(subs)),
	}

	var amounts []decimal.Decimal
	for _, b := range subs {
		excluded := b.Status == models.BidDisqualified
		if !excluded {
			amounts = append(amounts, b.BidAmount)
		}
		v := vendors[b.VendorID]
		r.Rows = append(r.Rows, RankingRow{
			Rank:           b.Rank,
			SubmissionID:   b.ID,
			VendorID:       b.VendorID,
			VendorName:     v.CompanyName,
			BBBEELevel:     v.BBBEELevel,
			BidAmount:      b.BidAmount,
			PriceScore:     b.PriceScore.Decimal,
			BBBEEPoints:    b.BBBEEPoints.Decimal,
			TechnicalScore: b.TechnicalScore.Decimal,
			TotalScore:     b.TotalScore.Decimal,
			Status:         b.Status,
			Excluded:       excluded,
		})
	}
	if lowest, ok := scoring.LowestPrice(amounts); ok {
		r.LowestPrice = lowest
	}

	// Ранжированные по возрастанию ранга, без ранга: в конце.
	slices.SortStableFunc(r.Rows, func(a, b RankingRow) int {
		switch {
		case a.Rank == 0 && b.Rank == 0:
			return a.SubmissionID - b.SubmissionID
		case a.Rank == 0:
			return 1
		case b.Rank == 0:
			return -1
		}
		return a.Rank - b.Rank
	})
	return r
}
