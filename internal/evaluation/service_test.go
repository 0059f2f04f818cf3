package evaluation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"procurement/internal/apperrors"
	"procurement/internal/metrics"
	"procurement/internal/scoring"
	"procurement/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tender      *models.Tender
	criteria    []models.TenderScoringCriteria
	submissions []models.BidSubmission
	scores      []models.EvaluationScore
	vendors     map[int]models.Vendor
	documents   map[int][]models.VendorDocument
	rules       []models.ComplianceRule

	saved        []models.BidSubmission
	savedDerived []models.EvaluationScore
	savedTender  *models.Tender
	savedChecks []models.ComplianceCheck
	tenderLoads int
}

func (f *fakeStore) GetTender(ctx context.Context, tenderID int) (*models.Tender, error) {
	f.tenderLoads++
	if f.tender == nil || f.tender.ID != tenderID {
		return nil, apperrors.New(apperrors.CodeNotFound, "tender not found")
	}
	t := *f.tender
	return &t, nil
}

func (f *fakeStore) GetCriteria(ctx context.Context, tenderID int) ([]models.TenderScoringCriteria, error) {
	return f.criteria, nil
}

func (f *fakeStore) ListTenderSubmissions(ctx context.Context, tenderID int) ([]models.BidSubmission, error) {
	out := make([]models.BidSubmission, len(f.submissions))
	copy(out, f.submissions)
	return out, nil
}

func (f *fakeStore) GetTenderEvaluationScores(ctx context.Context, tenderID int) ([]models.EvaluationScore, error) {
	return f.scores, nil
}

func (f *fakeStore) GetVendor(ctx context.Context, vendorID int) (*models.Vendor, error) {
	v, ok := f.vendors[vendorID]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "vendor not found")
	}
	return &v, nil
}

func (f *fakeStore) GetVendorsByIDs(ctx context.Context, ids []int) ([]models.Vendor, error) {
	var out []models.Vendor
	for _, id := range ids {
		if v, ok := f.vendors[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) GetVendorDocuments(ctx context.Context, vendorID int) ([]models.VendorDocument, error) {
	return f.documents[vendorID], nil
}

func (f *fakeStore) GetComplianceRules(ctx context.Context, tenderID int) ([]models.ComplianceRule, error) {
	return f.rules, nil
}

func (f *fakeStore) SaveComplianceResult(ctx context.Context, b *models.BidSubmission, checks []models.ComplianceCheck) error {
	f.savedChecks = checks
	for i := range f.submissions {
		if f.submissions[i].ID == b.ID {
			f.submissions[i] = *b
		}
	}
	return nil
}

func (f *fakeStore) SaveEvaluationResults(ctx context.Context, tender *models.Tender, submissions []models.BidSubmission, derived []models.EvaluationScore) error {
	f.savedTender = tender
	f.saved = submissions
	f.savedDerived = derived
	for _, s := range submissions {
		for i := range f.submissions {
			if f.submissions[i].ID == s.ID {
				f.submissions[i] = s
			}
		}
	}
	return nil
}

type memoryCache struct {
	data map[int][]byte
	sets int
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[int][]byte{}} }

func (m *memoryCache) Get(ctx context.Context, tenderID int, dest any) (bool, error) {
	raw, ok := m.data[tenderID]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, tenderID int, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.data[tenderID] = raw
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context, tenderID int) error {
	delete(m.data, tenderID)
	return nil
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func at(minute int) *time.Time {
	t := time.Date(2026, 3, 2, 10, minute, 0, 0, time.UTC)
	return &t
}

func closedTenderStore() *fakeStore {
	return &fakeStore{
		tender: &models.Tender{
			ID: 7, TenderNumber: "T-2026-007", Title: "Road resurfacing",
			Status: models.TenderClosed, PointsScale: 80, EstimatedValue: d("1200000"),
		},
		criteria: []models.TenderScoringCriteria{
			{CriteriaName: "Price", CriteriaCategory: "Price", MaxScore: d("80"), Weight: d("1")},
			{CriteriaName: "B-BBEE", CriteriaCategory: "BBBEE", MaxScore: d("20"), Weight: d("1")},
			{CriteriaName: "Methodology", CriteriaCategory: "Technical", MaxScore: d("100"), Weight: d("0.1")},
		},
		submissions: []models.BidSubmission{
			{ID: 1, TenderID: 7, VendorID: 10, BidAmount: d("1000000"), Status: models.BidPassed, SubmittedAt: at(5)},
			{ID: 2, TenderID: 7, VendorID: 20, BidAmount: d("1100000"), Status: models.BidPassed, SubmittedAt: at(1)},
			{ID: 3, TenderID: 7, VendorID: 30, BidAmount: d("900000"), Status: models.BidDisqualified, SubmittedAt: at(2)},
			{ID: 4, TenderID: 7, VendorID: 40, BidAmount: d("800000"), Status: models.BidDraft},
		},
		scores: []models.EvaluationScore{
			{SubmissionID: 1, CriteriaName: "Methodology", CriteriaCategory: "Technical", MaxScore: d("100"), Score: d("80"), Weight: d("0.1")},
			{SubmissionID: 2, CriteriaName: "Methodology", CriteriaCategory: "Technical", MaxScore: d("100"), Score: d("90"), Weight: d("0.1")},
		},
		vendors: map[int]models.Vendor{
			10: {ID: 10, CompanyName: "Ubuntu Civils", BBBEELevel: "Level 1"},
			20: {ID: 20, CompanyName: "Karoo Paving", BBBEELevel: "Level 4"},
			30: {ID: 30, CompanyName: "Debarred Works", BBBEELevel: "Level 2"},
			40: {ID: 40, CompanyName: "Late Bidder", BBBEELevel: "Level 3"},
		},
	}
}

func TestEvaluatePersistsScoresAndRanks(t *testing.T) {
	store := closedTenderStore()
	c := newMemoryCache()
	reg := prometheus.NewRegistry()
	svc := NewService(store, Options{Cache: c, Metrics: metrics.New(reg)})

	ranking, err := svc.Evaluate(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, models.TenderUnderReview, store.savedTender.Status)
	require.Len(t, store.saved, 3, "draft submissions are not evaluated")

	require.Len(t, ranking.Rows, 3)
	first, second, excluded := ranking.Rows[0], ranking.Rows[1], ranking.Rows[2]

	require.Equal(t, 1, first.SubmissionID)
	require.Equal(t, 1, first.Rank)
	require.True(t, d("80").Equal(first.PriceScore))
	require.True(t, d("20").Equal(first.BBBEEPoints))
	require.True(t, d("8").Equal(first.TechnicalScore))
	require.True(t, d("108").Equal(first.TotalScore), first.TotalScore.String())
	require.Equal(t, models.BidScored, first.Status)
	require.Equal(t, "Ubuntu Civils", first.VendorName)

	require.Equal(t, 2, second.SubmissionID)
	require.Equal(t, 2, second.Rank)
	require.True(t, d("72").Equal(second.PriceScore))
	require.True(t, d("12").Equal(second.BBBEEPoints))
	require.True(t, d("93").Equal(second.TotalScore), second.TotalScore.String())

	require.Equal(t, 3, excluded.SubmissionID)
	require.Zero(t, excluded.Rank)
	require.True(t, excluded.Excluded)
	require.True(t, excluded.TotalScore.IsZero())

	// Минимальная цена считается только по допущенным предложениям.
	require.True(t, d("1000000").Equal(ranking.LowestPrice))
	require.Equal(t, scoring.Scale8020, ranking.Scale)

	require.Equal(t, 1, c.sets)
	count, err := testutil.GatherAndCount(reg, "tender_evaluation_success_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEvaluatePersistsDerivedScores(t *testing.T) {
	store := closedTenderStore()
	svc := NewService(store, Options{})

	ranking, err := svc.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, store.savedDerived, 4, "price and b-bbee rows for each eligible bid")

	rows := map[int][]models.EvaluationScore{}
	for _, sc := range append(store.scores, store.savedDerived...) {
		rows[sc.SubmissionID] = append(rows[sc.SubmissionID], sc)
	}
	require.Empty(t, rows[3], "disqualified bids get no derived rows")

	for _, row := range ranking.Rows {
		if row.Excluded {
			continue
		}
		sum := decimal.Zero
		for _, sc := range rows[row.SubmissionID] {
			sum = sum.Add(sc.Score.Mul(sc.Weight))
		}
		require.True(t, row.TotalScore.Equal(sum), "submission %d: %s != %s", row.SubmissionID, sum, row.TotalScore)
	}

	for _, sc := range store.savedDerived {
		require.Equal(t, SystemEvaluator, sc.EvaluatorUsername)
		require.True(t, scoring.Category(sc.CriteriaCategory).Derived())
	}
}

func TestEvaluateRejectsUncheckedSubmissions(t *testing.T) {
	store := closedTenderStore()
	store.submissions = append(store.submissions,
		models.BidSubmission{ID: 5, TenderID: 7, VendorID: 40, BidAmount: d("950000"), Status: models.BidSubmitted, SubmittedAt: at(3)})
	svc := NewService(store, Options{})

	_, err := svc.Evaluate(context.Background(), 7)
	require.True(t, apperrors.Is(err, apperrors.CodeStateConflict))
	require.Equal(t, map[string]any{"submissionIds": []int{5}}, apperrors.As(err).Details())
	require.Nil(t, store.saved)
}

func TestEvaluateRequiresClosedTender(t *testing.T) {
	store := closedTenderStore()
	store.tender.Status = models.TenderOpen
	reg := prometheus.NewRegistry()
	svc := NewService(store, Options{Metrics: metrics.New(reg)})

	_, err := svc.Evaluate(context.Background(), 7)
	require.True(t, apperrors.Is(err, apperrors.CodeStateConflict))
	require.Nil(t, store.saved)

	count, err := testutil.GatherAndCount(reg, "tender_evaluation_failure_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEvaluateIncompleteScores(t *testing.T) {
	store := closedTenderStore()
	store.scores = store.scores[:1]
	svc := NewService(store, Options{})

	_, err := svc.Evaluate(context.Background(), 7)
	require.Error(t, err)

	var incomplete *scoring.IncompleteDataError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, 2, incomplete.SubmissionID)
	require.Equal(t, []string{"Methodology"}, incomplete.Missing)
	require.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestEvaluateWithoutEligibleSubmissions(t *testing.T) {
	store := closedTenderStore()
	store.submissions = store.submissions[3:]
	svc := NewService(store, Options{})

	_, err := svc.Evaluate(context.Background(), 7)
	require.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestScaleForFallsBackToEstimatedValue(t *testing.T) {
	svc := NewService(&fakeStore{}, Options{Threshold: d("1000000")})
	require.Equal(t, scoring.Scale9010, svc.ScaleFor(&models.Tender{EstimatedValue: d("1000000.01")}))
	require.Equal(t, scoring.Scale8020, svc.ScaleFor(&models.Tender{EstimatedValue: d("1000000")}))
	require.Equal(t, scoring.Scale9010, svc.ScaleFor(&models.Tender{PointsScale: 90}))
}

func TestRankingUsesCache(t *testing.T) {
	store := closedTenderStore()
	c := newMemoryCache()
	svc := NewService(store, Options{Cache: c})

	_, err := svc.Evaluate(context.Background(), 7)
	require.NoError(t, err)
	loads := store.tenderLoads

	ranking, err := svc.Ranking(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, loads, store.tenderLoads, "cached ranking must not hit the store")
	require.Len(t, ranking.Rows, 3)
	require.Equal(t, 1, ranking.Rows[0].SubmissionID)
	require.Equal(t, scoring.Scale8020, ranking.Scale)
}

func TestRankingRebuildsFromStore(t *testing.T) {
	store := closedTenderStore()
	svc := NewService(store, Options{})
	_, err := svc.Evaluate(context.Background(), 7)
	require.NoError(t, err)

	c := newMemoryCache()
	svc = NewService(store, Options{Cache: c})
	ranking, err := svc.Ranking(context.Background(), 7)
	require.NoError(t, err)

	ids := make([]int, 0, len(ranking.Rows))
	for _, row := range ranking.Rows {
		ids = append(ids, row.SubmissionID)
	}
	require.Equal(t, []int{1, 2, 3}, ids)
	require.Equal(t, 1, c.sets)
}
