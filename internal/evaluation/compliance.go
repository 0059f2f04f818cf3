package evaluation

import (
	"context"

	"procurement/internal/apperrors"
	"procurement/internal/compliance"
	"procurement/models"

	"github.com/shopspring/decimal"
)

// ComplianceReport: итог проверки соответствия одного предложения.
type ComplianceReport struct {
	SubmissionID int                      `json:"submissionId"`
	Status       string                   `json:"status"`
	Result       string                   `json:"result"`
	Score        decimal.Decimal          `json:"score"`
	Checks       []models.ComplianceCheck `json:"checks"`
}

// RunCompliance применяет правила тендера к поставщику предложения.
// Провал обязательного правила дисквалифицирует предложение.
func (s *Service) RunCompliance(ctx context.Context, b *models.BidSubmission) (*ComplianceReport, error) {
	if b.Status != models.BidSubmitted {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"compliance checks run on submitted bids only, got %s", b.Status)
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"tender_id": b.TenderID, "submission_id": b.ID})

	vendor, err := s.store.GetVendor(ctx, b.VendorID)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.GetVendorDocuments(ctx, b.VendorID)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.GetComplianceRules(ctx, b.TenderID)
	if err != nil {
		return nil, err
	}

	outcome := s.engine.Evaluate(rules, compliance.BuildFacts(vendor, docs))

	checks := make([]models.ComplianceCheck, 0, len(outcome.Checks))
	for _, c := range outcome.Checks {
		ruleID := c.RuleID
		score := decimal.Zero
		if c.Result == models.CompliancePassed {
			score = decimal.NewFromInt(100)
		}
		checks = append(checks, models.ComplianceCheck{
			VendorID:     b.VendorID,
			TenderID:     b.TenderID,
			SubmissionID: b.ID,
			RuleID:       &ruleID,
			CheckType:    c.CheckType,
			Result:       c.Result,
			Score:        score,
			Reason:       c.Reason,
		})
	}

	b.ComplianceResult = outcome.Result()
	if outcome.MandatoryFailed {
		b.Status = models.BidDisqualified
	} else {
		b.Status = models.BidPassed
	}
	if err := s.store.SaveComplianceResult(ctx, b, checks); err != nil {
		return nil, err
	}
	s.metrics.IncCompliance(b.ComplianceResult)
	s.Invalidate(ctx, b.TenderID)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"result": b.ComplianceResult,
		"rules":  len(rules),
	}), "compliance.completed")

	return &ComplianceReport{
		SubmissionID: b.ID,
		Status:       b.Status,
		Result:       b.ComplianceResult,
		Score:        outcome.Score,
		Checks:       checks,
	}, nil
}
