package handlers

import (
	"net/http"
	"time"

	"procurement/internal/apperrors"
	"procurement/internal/scoring"
	"procurement/models"

	"github.com/shopspring/decimal"
)

type createBidRequest struct {
	TenderID  int             `json:"tenderId" validate:"required,gt=0"`
	VendorID  int             `json:"vendorId" validate:"required,gt=0"`
	BidAmount decimal.Decimal `json:"bidAmount"`
}

// Статусы, которые сотрудник выставляет вручную. passed/disqualified ставит
// проверка соответствия, awarded ставит решение комиссии.
var staffBidStatuses = map[string]bool{
	models.BidManualReview: true,
	models.BidScored:       true,
	models.BidRejected:     true,
}

func tenderAcceptsBids(t *models.Tender, now time.Time) error {
	if t.Status != models.TenderOpen {
		return apperrors.Newf(apperrors.CodeStateConflict, "tender is %s, bids are not accepted", t.Status)
	}
	if !t.ClosingDate.IsZero() && now.After(t.ClosingDate) {
		return apperrors.New(apperrors.CodeStateConflict, "tender closing date has passed")
	}
	return nil
}

// CreateBidHandler создаёт черновик предложения; один поставщик: одно предложение на тендер
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createBidRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !req.BidAmount.IsPositive() {
		h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "bidAmount must be positive").
			WithDetails(map[string]any{"field": "bidAmount"}))
		return
	}

	tender, err := h.Store.GetTender(r.Context(), req.TenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := tenderAcceptsBids(tender, time.Now()); err != nil {
		h.writeError(w, r, err)
		return
	}

	vendor, err := h.Store.GetVendor(r.Context(), req.VendorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if vendor.Status != models.VendorApproved || vendor.DebarmentStatus == models.DebarmentListed {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeForbidden, "vendor is %s and cannot bid", vendor.Status))
		return
	}

	bid := models.BidSubmission{
		TenderID:         tender.ID,
		VendorID:         vendor.ID,
		BidAmount:        req.BidAmount,
		Status:           models.BidDraft,
		ComplianceResult: models.CompliancePending,
		CreatorUsername:  q["username"],
	}
	if err := h.Store.CreateSubmission(r.Context(), &bid); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, bid)
}

// GetBidsForTenderHandler: предложения тендера для ответственных сотрудников
func (h *Handler) GetBidsForTenderHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	tenderID, err := pathID(r, "tenderId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"]); err != nil {
		h.writeError(w, r, err)
		return
	}

	bids, err := h.Store.GetSubmissionsForTender(r.Context(), tenderID, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, bids)
}

// SubmitBidHandler переводит черновик в submitted; подать может только автор до закрытия тендера
func (h *Handler) SubmitBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bid, err := h.Store.GetSubmission(r.Context(), bidID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bid.CreatorUsername != q["username"] {
		h.writeError(w, r, apperrors.New(apperrors.CodeForbidden, "only the bid author can submit it"))
		return
	}
	if !models.CanTransitionBid(bid.Status, models.BidSubmitted) {
		h.writeError(w, r, stateConflict("bid", bid.Status, models.BidSubmitted))
		return
	}

	tender, err := h.Store.GetTender(r.Context(), bid.TenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	now := time.Now()
	if err := tenderAcceptsBids(tender, now); err != nil {
		h.writeError(w, r, err)
		return
	}

	bid.Status = models.BidSubmitted
	bid.SubmittedAt = &now
	if err := h.Store.UpdateSubmission(r.Context(), bid); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, bid)
}

// UpdateBidStatusHandler: ручная смена статуса предложения сотрудником
func (h *Handler) UpdateBidStatusHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "status", "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := q["status"]
	if !staffBidStatuses[status] {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "invalid status value %q", status))
		return
	}

	bid, _, _, err := h.submissionForStaff(r.Context(), bidID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !models.CanTransitionBid(bid.Status, status) {
		h.writeError(w, r, stateConflict("bid", bid.Status, status))
		return
	}
	if status == models.BidScored && !bid.TotalScore.Valid {
		h.writeError(w, r, apperrors.New(apperrors.CodeStateConflict, "bid has not been evaluated yet"))
		return
	}

	bid.Status = status
	if err := h.Store.UpdateSubmission(r.Context(), bid); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Evaluator.Invalidate(r.Context(), bid.TenderID)
	h.writeJSON(w, bid)
}

// RunComplianceHandler запускает проверки соответствия для поданного предложения
func (h *Handler) RunComplianceHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	bid, _, _, err := h.submissionForStaff(r.Context(), bidID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.Evaluator.RunCompliance(r.Context(), bid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, report)
}

func (h *Handler) GetComplianceChecksHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, _, _, err := h.submissionForStaff(r.Context(), bidID, q["username"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	checks, err := h.Store.GetComplianceChecks(r.Context(), bidID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, checks)
}

type scoreInput struct {
	CriteriaName string          `json:"criteriaName" validate:"required,max=100"`
	Score        decimal.Decimal `json:"score"`
	Comments     string          `json:"comments" validate:"max=1000"`
}

type saveScoresRequest struct {
	Scores []scoreInput `json:"scores" validate:"required,min=1,dive"`
}

// SaveScoresHandler записывает оценки эксперта по критериям одной транзакцией.
// Баллы Price и B-BBEE вычисляются при оценке и здесь не принимаются.
func (h *Handler) SaveScoresHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req saveScoresRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	bid, tender, employee, err := h.submissionForStaff(r.Context(), bidID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tender.Status != models.TenderClosed && tender.Status != models.TenderUnderReview {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "scores are recorded after closing, tender is %s", tender.Status))
		return
	}
	switch bid.Status {
	case models.BidPassed, models.BidManualReview, models.BidScored:
	default:
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "bid in status %s cannot be scored", bid.Status))
		return
	}

	criteria, err := h.Store.GetCriteria(r.Context(), tender.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	byName := make(map[string]models.TenderScoringCriteria, len(criteria))
	for _, c := range criteria {
		byName[c.CriteriaName] = c
	}

	scores := make([]models.EvaluationScore, 0, len(req.Scores))
	for _, in := range req.Scores {
		c, ok := byName[in.CriteriaName]
		if !ok {
			h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "unknown criterion %q", in.CriteriaName))
			return
		}
		if scoring.Category(c.CriteriaCategory).Derived() {
			h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "criterion %q is computed automatically", in.CriteriaName))
			return
		}
		if in.Score.IsNegative() || in.Score.GreaterThan(c.MaxScore) {
			h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "score for %q must be between 0 and %s", in.CriteriaName, c.MaxScore.String()))
			return
		}
		scores = append(scores, models.EvaluationScore{
			SubmissionID:      bid.ID,
			CriteriaName:      c.CriteriaName,
			CriteriaCategory:  c.CriteriaCategory,
			MaxScore:          c.MaxScore,
			Score:             in.Score,
			Weight:            c.Weight,
			Comments:          in.Comments,
			EvaluatorUsername: employee.Username,
		})
	}

	if err := h.Store.SaveEvaluationScores(r.Context(), bid.ID, scores); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Evaluator.Invalidate(r.Context(), tender.ID)
	h.writeJSON(w, scores)
}

func (h *Handler) GetScoresHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, _, _, err := h.submissionForStaff(r.Context(), bidID, q["username"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	scores, err := h.Store.GetEvaluationScores(r.Context(), bidID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, scores)
}
