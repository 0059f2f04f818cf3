package evaluation

import (
	"context"
	"time"

	"procurement/internal/apperrors"
	"procurement/internal/cache"
	"procurement/internal/compliance"
	"procurement/internal/logger"
	"procurement/internal/metrics"
	"procurement/internal/scoring"
	"procurement/models"

	"github.com/shopspring/decimal"
)

// Store: методы хранилища, нужные для оценки тендера.
type Store interface {
	GetTender(ctx context.Context, tenderID int) (*models.Tender, error)
	GetCriteria(ctx context.Context, tenderID int) ([]models.TenderScoringCriteria, error)
	ListTenderSubmissions(ctx context.Context, tenderID int) ([]models.BidSubmission, error)
	GetTenderEvaluationScores(ctx context.Context, tenderID int) ([]models.EvaluationScore, error)
	GetVendor(ctx context.Context, vendorID int) (*models.Vendor, error)
	GetVendorsByIDs(ctx context.Context, ids []int) ([]models.Vendor, error)
	GetVendorDocuments(ctx context.Context, vendorID int) ([]models.VendorDocument, error)
	GetComplianceRules(ctx context.Context, tenderID int) ([]models.ComplianceRule, error)
	SaveComplianceResult(ctx context.Context, b *models.BidSubmission, checks []models.ComplianceCheck) error
	SaveEvaluationResults(ctx context.Context, tender *models.Tender, submissions []models.BidSubmission, derived []models.EvaluationScore) error
}

// SystemEvaluator: автор строк оценки, рассчитанных по цене и уровню B-BBEE.
const SystemEvaluator = "system"

type Options struct {
	Cache     cache.RankingCache
	Metrics   *metrics.EvaluationMetrics
	Logger    *logger.Logger
	Engine    *compliance.Engine
	Threshold decimal.Decimal
}

type Service struct {
	store     Store
	cache     cache.RankingCache
	metrics   *metrics.EvaluationMetrics
	logg      *logger.Logger
	engine    *compliance.Engine
	threshold decimal.Decimal
	now       func() time.Time
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		engine:    opts.Engine,
		threshold: opts.Threshold,
		now:       time.Now,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.engine == nil {
		s.engine = compliance.NewEngine()
	}
	if !s.threshold.IsPositive() {
		s.threshold = scoring.DefaultThreshold
	}
	return s
}

// ScaleFor выбирает шкалу тендера: явно заданную или по оценочной стоимости.
func (s *Service) ScaleFor(t *models.Tender) scoring.Scale {
	if sc := scoring.Scale(t.PointsScale); sc.Valid() {
		return sc
	}
	return scoring.ScaleForValue(t.EstimatedValue, s.threshold)
}

// Invalidate сбрасывает кэш рейтинга; ошибка кэша только логируется.
func (s *Service) Invalidate(ctx context.Context, tenderID int) {
	if err := s.cache.Invalidate(ctx, tenderID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "tender_id", tenderID), "ranking.cache_invalidate_failed", err)
	}
}

func evaluable(status string) bool {
	switch status {
	case models.BidPassed, models.BidManualReview, models.BidScored, models.BidDisqualified:
		return true
	}
	return false
}

// Evaluate считает баллы всех прошедших проверку предложений тендера,
// сохраняет их вместе с рангами и обновляет кэш рейтинга.
func (s *Service) Evaluate(ctx context.Context, tenderID int) (*Ranking, error) {
	start := s.now()
	ctx = s.logg.WithField(ctx, "tender_id", tenderID)

	ranking, err := s.evaluate(ctx, tenderID)
	s.metrics.ObserveEvaluation(s.now().Sub(start))
	if err != nil {
		code := string(apperrors.CodeInternal)
		if typed := apperrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailure(code)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "evaluation.failed")
		return nil, err
	}
	s.metrics.IncSuccess()

	if err := s.cache.Set(ctx, tenderID, ranking); err != nil {
		s.logg.Error(ctx, "ranking.cache_set_failed", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"submissions": len(ranking.Rows),
		"scale":       ranking.Scale.String(),
		"duration_ms": s.now().Sub(start).Milliseconds(),
	}), "evaluation.completed")
	return ranking, nil
}

func (s *Service) evaluate(ctx context.Context, tenderID int) (*Ranking, error) {
	tender, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if tender.Status != models.TenderClosed && tender.Status != models.TenderUnderReview {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"tender must be closed or under review to evaluate, got %s", tender.Status)
	}

	criteriaRows, err := s.store.GetCriteria(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListTenderSubmissions(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	subs := make([]models.BidSubmission, 0, len(all))
	var unchecked []int
	for _, b := range all {
		if b.Status == models.BidSubmitted {
			unchecked = append(unchecked, b.ID)
		}
		if evaluable(b.Status) {
			subs = append(subs, b)
		}
	}
	if len(unchecked) > 0 {
		return nil, apperrors.Newf(apperrors.CodeStateConflict,
			"%d submitted bids have not been checked for compliance", len(unchecked)).
			WithDetails(map[string]any{"submissionIds": unchecked})
	}
	if len(subs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no submissions have passed compliance checks")
	}

	scores, err := s.store.GetTenderEvaluationScores(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	vendors, err := s.vendorsFor(ctx, subs)
	if err != nil {
		return nil, err
	}

	scale := s.ScaleFor(tender)
	input, err := buildInput(scale, criteriaRows, subs, scores, vendors)
	if err != nil {
		return nil, err
	}
	results, err := scoring.Evaluate(input)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]*models.BidSubmission, len(subs))
	for i := range subs {
		byID[subs[i].ID] = &subs[i]
	}
	for _, res := range results {
		applyResult(byID[res.SubmissionID], res)
	}
	if tender.Status == models.TenderClosed {
		tender.Status = models.TenderUnderReview
	}
	if err := s.store.SaveEvaluationResults(ctx, tender, subs, derivedScores(results)); err != nil {
		return nil, err
	}

	return buildRanking(tender, scale, s.now(), subs, vendors), nil
}

func (s *Service) vendorsFor(ctx context.Context, subs []models.BidSubmission) (map[int]models.Vendor, error) {
	ids := make([]int, 0, len(subs))
	for _, b := range subs {
		ids = append(ids, b.VendorID)
	}
	list, err := s.store.GetVendorsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	vendors := make(map[int]models.Vendor, len(list))
	for _, v := range list {
		vendors[v.ID] = v
	}
	return vendors, nil
}

func buildInput(scale scoring.Scale, criteriaRows []models.TenderScoringCriteria, subs []models.BidSubmission,
	scores []models.EvaluationScore, vendors map[int]models.Vendor) (scoring.EvaluationInput, error) {
	in := scoring.EvaluationInput{Scale: scale}
	for _, c := range criteriaRows {
		in.Criteria = append(in.Criteria, scoring.Criterion{
			Name:     c.CriteriaName,
			Category: scoring.Category(c.CriteriaCategory),
			MaxScore: c.MaxScore,
			Weight:   c.Weight,
		})
	}

	bySubmission := make(map[int][]scoring.CriterionScore)
	for _, sc := range scores {
		bySubmission[sc.SubmissionID] = append(bySubmission[sc.SubmissionID], scoring.CriterionScore{
			CriteriaName: sc.CriteriaName,
			Category:     scoring.Category(sc.CriteriaCategory),
			MaxScore:     sc.MaxScore,
			Score:        sc.Score,
			Weight:       sc.Weight,
		})
	}

	for _, b := range subs {
		sub := scoring.Submission{
			ID:        b.ID,
			BidAmount: b.BidAmount,
			Excluded:  b.Status == models.BidDisqualified,
			Scores:    bySubmission[b.ID],
		}
		if b.SubmittedAt != nil {
			sub.SubmittedAt = *b.SubmittedAt
		} else {
			sub.SubmittedAt = b.CreatedAt
		}
		if !sub.Excluded {
			vendor, ok := vendors[b.VendorID]
			if !ok {
				return in, apperrors.Newf(apperrors.CodeNotFound, "vendor %d of submission %d not found", b.VendorID, b.ID)
			}
			level, err := scoring.ParseLevel(vendor.BBBEELevel)
			if err != nil {
				return in, err
			}
			sub.Level = level
		}
		in.Submissions = append(in.Submissions, sub)
	}
	return in, nil
}

// derivedScores возвращает строки критериев Price и BBBEE, посчитанные при оценке,
// чтобы сумма score*weight по строкам предложения совпадала с его totalScore.
func derivedScores(results []scoring.Result) []models.EvaluationScore {
	var out []models.EvaluationScore
	for _, res := range results {
		if res.Excluded {
			continue
		}
		for _, row := range res.Scores {
			if !row.Category.Derived() {
				continue
			}
			out = append(out, models.EvaluationScore{
				SubmissionID:      res.SubmissionID,
				CriteriaName:      row.CriteriaName,
				CriteriaCategory:  string(row.Category),
				MaxScore:          row.MaxScore,
				Score:             row.Score,
				Weight:            row.Weight,
				EvaluatorUsername: SystemEvaluator,
			})
		}
	}
	return out
}

func applyResult(b *models.BidSubmission, res scoring.Result) {
	if b == nil {
		return
	}
	b.Rank = res.Rank
	if res.Excluded {
		b.PriceScore = decimal.NullDecimal{}
		b.BBBEEPoints = decimal.NullDecimal{}
		b.TechnicalScore = decimal.NullDecimal{}
		b.TotalScore = decimal.NullDecimal{}
		return
	}
	b.PriceScore = decimal.NewNullDecimal(res.PriceScore)
	b.BBBEEPoints = decimal.NewNullDecimal(res.BBBEEPoints)
	b.TechnicalScore = decimal.NewNullDecimal(res.TechnicalScore)
	b.TotalScore = decimal.NewNullDecimal(res.TotalScore)
	// manual_review остаётся до решения сотрудника
	if b.Status == models.BidPassed {
		b.Status = models.BidScored
	}
}
