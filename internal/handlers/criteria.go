package handlers

import (
	"net/http"
	"strings"

	"procurement/internal/apperrors"
	"procurement/internal/compliance"
	"procurement/models"

	"github.com/shopspring/decimal"
)

type criteriaRequest struct {
	CriteriaName     string          `json:"criteriaName" validate:"required,max=100"`
	CriteriaCategory string          `json:"criteriaCategory" validate:"required,oneof=Price BBBEE Technical Experience 'Local Content' Quality"`
	MaxScore         decimal.Decimal `json:"maxScore"`
	Weight           decimal.Decimal `json:"weight"`
	SortOrder        int             `json:"sortOrder" validate:"gte=0"`
}

// criteriaEditable: критерии меняются только до начала оценки.
func criteriaEditable(status string) bool {
	return status == models.TenderOpen || status == models.TenderClosed
}

func (h *Handler) AddCriteriaHandler(w http.ResponseWriter, r *http.Request) {
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

	var req criteriaRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !req.MaxScore.IsPositive() {
		h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "maxScore must be positive"))
		return
	}
	if req.Weight.IsNegative() {
		h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "weight must not be negative"))
		return
	}

	tender, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !criteriaEditable(tender.Status) {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "criteria are locked for %s tenders", tender.Status))
		return
	}

	criteria := models.TenderScoringCriteria{
		TenderID:         tender.ID,
		CriteriaName:     strings.TrimSpace(req.CriteriaName),
		CriteriaCategory: req.CriteriaCategory,
		MaxScore:         req.MaxScore,
		Weight:           req.Weight,
		SortOrder:        req.SortOrder,
	}
	if err := h.Store.AddCriteria(r.Context(), &criteria); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, criteria)
}

func (h *Handler) GetCriteriaHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := pathID(r, "tenderId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.Store.GetTender(r.Context(), tenderID); err != nil {
		h.writeError(w, r, err)
		return
	}
	criteria, err := h.Store.GetCriteria(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, criteria)
}

func (h *Handler) DeleteCriteriaHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := pathID(r, "tenderId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	criteriaID, err := pathID(r, "criteriaId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tender, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !criteriaEditable(tender.Status) {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "criteria are locked for %s tenders", tender.Status))
		return
	}
	if err := h.Store.DeleteCriteria(r.Context(), tenderID, criteriaID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateComplianceRuleHandler добавляет правило; ?global=true делает его общим для всех тендеров.
func (h *Handler) CreateComplianceRuleHandler(w http.ResponseWriter, r *http.Request) {
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

	var rule models.ComplianceRule
	if err := decodeJSONBody(w, r, &rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !compliance.ValidOperator(rule.Operator) {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "unsupported operator %q", rule.Operator).
			WithDetails(map[string]any{"operators": compliance.Operators}))
		return
	}
	switch compliance.Operator(rule.Operator) {
	case compliance.OpThreshold, compliance.OpMax:
		if _, err := decimal.NewFromString(strings.TrimSpace(rule.Value)); err != nil {
			h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "value %q must be numeric for %s", rule.Value, rule.Operator))
			return
		}
	}

	tender, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rule.ID = 0
	rule.TenderID = &tender.ID
	if r.URL.Query().Get("global") == "true" {
		rule.TenderID = nil
	}
	if err := h.Store.CreateComplianceRule(r.Context(), &rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, rule)
}

func (h *Handler) GetComplianceRulesHandler(w http.ResponseWriter, r *http.Request) {
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
	rules, err := h.Store.GetComplianceRules(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, rules)
}
