package handlers_test

import (
	"context"
	"sort"
	"time"

	"procurement/db"
	"procurement/internal/apperrors"
	"procurement/models"
)

// MockStorage реализует StorageInterface в памяти
type MockStorage struct {
	employees   map[string]*models.Employee
	responsible map[[2]int]bool

	tenders        map[int]*models.Tender
	tenderVersions map[[2]int]models.Tender
	criteria       []models.TenderScoringCriteria
	rules          []models.ComplianceRule
	vendors        map[int]*models.Vendor
	documents      map[int][]models.VendorDocument
	submissions    map[int]*models.BidSubmission
	scores         []models.EvaluationScore
	checks         map[int][]models.ComplianceCheck
	decisions      map[[2]int]string
	acceptances    map[int]*models.AwardAcceptance

	nextID int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		employees:      map[string]*models.Employee{},
		responsible:    map[[2]int]bool{},
		tenders:        map[int]*models.Tender{},
		tenderVersions: map[[2]int]models.Tender{},
		vendors:        map[int]*models.Vendor{},
		documents:      map[int][]models.VendorDocument{},
		submissions:    map[int]*models.BidSubmission{},
		checks:         map[int][]models.ComplianceCheck{},
		decisions:      map[[2]int]string{},
		acceptances:    map[int]*models.AwardAcceptance{},
		nextID:         100,
	}
}

func (m *MockStorage) id() int {
	m.nextID++
	return m.nextID
}

func notFound(what string) error {
	return apperrors.New(apperrors.CodeNotFound, what+" not found")
}

// addStaff заводит сотрудника, ответственного за муниципалитеты.
func (m *MockStorage) addStaff(username string, municipalities ...int) *models.Employee {
	e := &models.Employee{ID: m.id(), Username: username}
	m.employees[username] = e
	for _, mID := range municipalities {
		m.responsible[[2]int{e.ID, mID}] = true
	}
	return e
}

func (m *MockStorage) GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	e, ok := m.employees[username]
	if !ok {
		return nil, notFound("employee")
	}
	return e, nil
}

func (m *MockStorage) IsUserResponsibleForMunicipality(ctx context.Context, userID, municipalityID int) (bool, error) {
	return m.responsible[[2]int{userID, municipalityID}], nil
}

func (m *MockStorage) GetResponsibleCount(ctx context.Context, municipalityID int) (int, error) {
	count := 0
	for key := range m.responsible {
		if key[1] == municipalityID {
			count++
		}
	}
	return count, nil
}

func (m *MockStorage) CreateTender(ctx context.Context, t *models.Tender) error {
	for _, existing := range m.tenders {
		if existing.TenderNumber == t.TenderNumber {
			return apperrors.New(apperrors.CodeConflict, "tender already exists")
		}
	}
	t.ID = m.id()
	t.Version = 1
	t.CreatedAt = time.Now()
	cp := *t
	m.tenders[t.ID] = &cp
	m.tenderVersions[[2]int{t.ID, 1}] = cp
	return nil
}

func (m *MockStorage) GetTender(ctx context.Context, tenderID int) (*models.Tender, error) {
	t, ok := m.tenders[tenderID]
	if !ok {
		return nil, notFound("tender")
	}
	cp := *t
	return &cp, nil
}

func (m *MockStorage) UpdateTender(ctx context.Context, t *models.Tender) error {
	if _, ok := m.tenders[t.ID]; !ok {
		return notFound("tender")
	}
	t.Version++
	cp := *t
	m.tenders[t.ID] = &cp
	m.tenderVersions[[2]int{t.ID, t.Version}] = cp
	return nil
}

func (m *MockStorage) GetTenderVersion(ctx context.Context, tenderID int, version int) (*models.Tender, error) {
	t, ok := m.tenderVersions[[2]int{tenderID, version}]
	if !ok {
		return nil, notFound("tender version")
	}
	return &t, nil
}

func (m *MockStorage) GetTenders(ctx context.Context, filter db.TenderFilter, limit, offset int) ([]models.Tender, error) {
	match := func(v string, allowed []string) bool {
		if len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == v {
				return true
			}
		}
		return false
	}
	out := []models.Tender{}
	for _, t := range m.tenders {
		if match(t.Category, filter.Categories) && match(t.Status, filter.Statuses) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if offset >= len(out) {
		return []models.Tender{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStorage) GetUserTenders(ctx context.Context, username string, limit, offset int) ([]models.Tender, error) {
	e, ok := m.employees[username]
	out := []models.Tender{}
	if !ok {
		return out, nil
	}
	for _, t := range m.tenders {
		if m.responsible[[2]int{e.ID, t.MunicipalityID}] {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MockStorage) AddCriteria(ctx context.Context, c *models.TenderScoringCriteria) error {
	for _, existing := range m.criteria {
		if existing.TenderID == c.TenderID && existing.CriteriaName == c.CriteriaName {
			return apperrors.New(apperrors.CodeConflict, "criteria already exists")
		}
	}
	c.ID = m.id()
	m.criteria = append(m.criteria, *c)
	return nil
}

func (m *MockStorage) GetCriteria(ctx context.Context, tenderID int) ([]models.TenderScoringCriteria, error) {
	out := []models.TenderScoringCriteria{}
	for _, c := range m.criteria {
		if c.TenderID == tenderID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockStorage) DeleteCriteria(ctx context.Context, tenderID, criteriaID int) error {
	for i, c := range m.criteria {
		if c.ID == criteriaID && c.TenderID == tenderID {
			m.criteria = append(m.criteria[:i], m.criteria[i+1:]...)
			return nil
		}
	}
	return notFound("criteria")
}

func (m *MockStorage) CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	r.ID = m.id()
	m.rules = append(m.rules, *r)
	return nil
}

func (m *MockStorage) GetComplianceRules(ctx context.Context, tenderID int) ([]models.ComplianceRule, error) {
	out := []models.ComplianceRule{}
	for _, r := range m.rules {
		if r.TenderID == nil || *r.TenderID == tenderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockStorage) CreateVendor(ctx context.Context, v *models.Vendor) error {
	v.ID = m.id()
	cp := *v
	m.vendors[v.ID] = &cp
	return nil
}

func (m *MockStorage) GetVendor(ctx context.Context, vendorID int) (*models.Vendor, error) {
	v, ok := m.vendors[vendorID]
	if !ok {
		return nil, notFound("vendor")
	}
	cp := *v
	return &cp, nil
}

func (m *MockStorage) GetVendorsByIDs(ctx context.Context, ids []int) ([]models.Vendor, error) {
	out := []models.Vendor{}
	for _, id := range ids {
		if v, ok := m.vendors[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *MockStorage) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	cp := *v
	m.vendors[v.ID] = &cp
	return nil
}

func (m *MockStorage) AddVendorDocument(ctx context.Context, d *models.VendorDocument) error {
	d.ID = m.id()
	m.documents[d.VendorID] = append(m.documents[d.VendorID], *d)
	return nil
}

func (m *MockStorage) GetVendorDocuments(ctx context.Context, vendorID int) ([]models.VendorDocument, error) {
	return m.documents[vendorID], nil
}

func (m *MockStorage) CreateSubmission(ctx context.Context, b *models.BidSubmission) error {
	for _, existing := range m.submissions {
		if existing.TenderID == b.TenderID && existing.VendorID == b.VendorID {
			return apperrors.New(apperrors.CodeConflict, "bid submission already exists")
		}
	}
	b.ID = m.id()
	b.CreatedAt = time.Now()
	cp := *b
	m.submissions[b.ID] = &cp
	return nil
}

func (m *MockStorage) GetSubmission(ctx context.Context, submissionID int) (*models.BidSubmission, error) {
	b, ok := m.submissions[submissionID]
	if !ok {
		return nil, notFound("bid submission")
	}
	cp := *b
	return &cp, nil
}

func (m *MockStorage) ListTenderSubmissions(ctx context.Context, tenderID int) ([]models.BidSubmission, error) {
	out := []models.BidSubmission{}
	for _, b := range m.submissions {
		if b.TenderID == tenderID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStorage) GetSubmissionsForTender(ctx context.Context, tenderID int, limit, offset int) ([]models.BidSubmission, error) {
	return m.ListTenderSubmissions(ctx, tenderID)
}

func (m *MockStorage) UpdateSubmission(ctx context.Context, b *models.BidSubmission) error {
	if _, ok := m.submissions[b.ID]; !ok {
		return notFound("bid submission")
	}
	cp := *b
	m.submissions[b.ID] = &cp
	return nil
}

func (m *MockStorage) SaveEvaluationScores(ctx context.Context, submissionID int, scores []models.EvaluationScore) error {
	for _, sc := range scores {
		replaced := false
		for i, existing := range m.scores {
			if existing.SubmissionID == submissionID && existing.CriteriaName == sc.CriteriaName {
				m.scores[i] = sc
				replaced = true
			}
		}
		if !replaced {
			sc.ID = m.id()
			m.scores = append(m.scores, sc)
		}
	}
	return nil
}

func (m *MockStorage) GetEvaluationScores(ctx context.Context, submissionID int) ([]models.EvaluationScore, error) {
	out := []models.EvaluationScore{}
	for _, sc := range m.scores {
		if sc.SubmissionID == submissionID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *MockStorage) GetTenderEvaluationScores(ctx context.Context, tenderID int) ([]models.EvaluationScore, error) {
	out := []models.EvaluationScore{}
	for _, sc := range m.scores {
		if b, ok := m.submissions[sc.SubmissionID]; ok && b.TenderID == tenderID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *MockStorage) SaveComplianceResult(ctx context.Context, b *models.BidSubmission, checks []models.ComplianceCheck) error {
	m.checks[b.ID] = checks
	return m.UpdateSubmission(ctx, b)
}

func (m *MockStorage) GetComplianceChecks(ctx context.Context, submissionID int) ([]models.ComplianceCheck, error) {
	return m.checks[submissionID], nil
}

func (m *MockStorage) SaveEvaluationResults(ctx context.Context, tender *models.Tender, submissions []models.BidSubmission, derived []models.EvaluationScore) error {
	evaluated := map[int]bool{}
	for _, b := range submissions {
		cp := b
		m.submissions[b.ID] = &cp
		evaluated[b.ID] = true
	}
	kept := m.scores[:0]
	for _, sc := range m.scores {
		derivedRow := sc.CriteriaCategory == "Price" || sc.CriteriaCategory == "BBBEE"
		if !(evaluated[sc.SubmissionID] && derivedRow) {
			kept = append(kept, sc)
		}
	}
	m.scores = kept
	for _, sc := range derived {
		sc.ID = m.id()
		m.scores = append(m.scores, sc)
	}
	t := m.tenders[tender.ID]
	t.Status = tender.Status
	return nil
}

func (m *MockStorage) AddAwardDecision(ctx context.Context, submissionID, employeeID int, decision string) error {
	m.decisions[[2]int{submissionID, employeeID}] = decision
	return nil
}

func (m *MockStorage) GetAwardDecisionsCount(ctx context.Context, submissionID int) (int, int, error) {
	accepts, rejects := 0, 0
	for key, d := range m.decisions {
		if key[0] != submissionID {
			continue
		}
		switch d {
		case models.DecisionApproved:
			accepts++
		case models.DecisionRejected:
			rejects++
		}
	}
	return accepts, rejects, nil
}

func (m *MockStorage) AwardSubmission(ctx context.Context, b *models.BidSubmission) (*models.AwardAcceptance, error) {
	stored, ok := m.submissions[b.ID]
	if !ok || stored.TenderID != b.TenderID || stored.Status != models.BidScored {
		return nil, apperrors.New(apperrors.CodeConflict, "bid submission is no longer scored")
	}
	if t, ok := m.tenders[b.TenderID]; !ok || t.Status != models.TenderUnderReview {
		return nil, apperrors.New(apperrors.CodeConflict, "tender is no longer under review")
	}
	for _, other := range m.submissions {
		if other.TenderID == b.TenderID && other.ID != b.ID && other.Status == models.BidScored {
			other.Status = models.BidRejected
		}
	}
	b.Status = models.BidAwarded
	cp := *b
	m.submissions[b.ID] = &cp
	m.tenders[b.TenderID].Status = models.TenderAwarded

	a := &models.AwardAcceptance{ID: m.id(), SubmissionID: b.ID, SigningStatus: models.SigningPending}
	m.acceptances[b.ID] = a
	return a, nil
}

func (m *MockStorage) GetAwardAcceptance(ctx context.Context, submissionID int) (*models.AwardAcceptance, error) {
	a, ok := m.acceptances[submissionID]
	if !ok {
		return nil, notFound("award acceptance")
	}
	cp := *a
	return &cp, nil
}

func (m *MockStorage) UpdateAwardAcceptance(ctx context.Context, a *models.AwardAcceptance) error {
	cp := *a
	m.acceptances[a.SubmissionID] = &cp
	return nil
}
