package handlers

import (
	"net/http"
	"strconv"
	"time"

	"procurement/db"
	"procurement/internal/apperrors"
	"procurement/models"

	"github.com/shopspring/decimal"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 5 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

var tenderStatuses = map[string]bool{
	models.TenderOpen: true, models.TenderClosed: true, models.TenderUnderReview: true,
	models.TenderAwarded: true, models.TenderCancelled: true,
}

// CreateTenderHandler обрабатывает POST /api/tenders/new запрос
func (h *Handler) CreateTenderHandler(w http.ResponseWriter, r *http.Request) {
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var tender models.Tender
	if err := decodeJSONBody(w, r, &tender); err != nil {
		h.writeError(w, r, err)
		return
	}
	if tender.EstimatedValue.IsNegative() {
		h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "estimatedValue must not be negative"))
		return
	}

	if _, err := h.authorizeStaff(r.Context(), q["username"], tender.MunicipalityID); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Тендер создаётся открытым. PointsScale 0 значит "по стоимости":
	// шкала выбирается при оценке по актуальной estimatedValue.
	tender.Status = models.TenderOpen
	if tender.Priority == "" {
		tender.Priority = "medium"
	}

	if err := h.Store.CreateTender(r.Context(), &tender); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, tender)
}

// GetTendersHandler возвращает список тендеров с фильтрами category и status
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	filter := db.TenderFilter{Categories: r.URL.Query()["category"]}
	for _, v := range r.URL.Query()["status"] {
		if tenderStatuses[v] {
			filter.Statuses = append(filter.Statuses, v)
		}
	}

	tenders, err := h.Store.GetTenders(r.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, tenders)
}

// GetUserTendersHandler возвращает тендеры муниципалитетов пользователя
func (h *Handler) GetUserTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tenders, err := h.Store.GetUserTenders(r.Context(), q["username"], params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, tenders)
}

func (h *Handler) GetTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := pathID(r, "tenderId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tender, err := h.Store.GetTender(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, tender)
}

// UpdateTenderStatusHandler меняет статус тендера по допустимым переходам
func (h *Handler) UpdateTenderStatusHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := pathID(r, "tenderId")
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
	if !tenderStatuses[status] {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "invalid status value %q", status))
		return
	}

	tender, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Присуждение идёт только через решение комиссии
	if status == models.TenderAwarded || !models.CanTransitionTender(tender.Status, status) {
		h.writeError(w, r, stateConflict("tender", tender.Status, status))
		return
	}

	tender.Status = status
	if err := h.Store.UpdateTender(r.Context(), tender); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Evaluator.Invalidate(r.Context(), tender.ID)
	h.writeJSON(w, tender)
}

// EditTenderHandler частично обновляет открытый тендер, создавая новую версию
func (h *Handler) EditTenderHandler(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Title          *string          `json:"title" validate:"omitempty,min=1,max=200"`
		Description    *string          `json:"description" validate:"omitempty,max=2000"`
		Category       *string          `json:"category" validate:"omitempty,min=1,max=100"`
		Type           *string          `json:"type" validate:"omitempty,oneof=RFQ RFP RFT EOI"`
		ClosingDate    *time.Time       `json:"closingDate"`
		EstimatedValue *decimal.Decimal `json:"estimatedValue"`
		PointsScale    *int             `json:"pointsScale" validate:"omitempty,oneof=0 80 90"`
		Priority       *string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	}
	if err := decodeJSONBody(w, r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	tender, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tender.Status != models.TenderOpen {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "only open tenders can be edited, got %s", tender.Status))
		return
	}

	// Обновляем поля, если они переданы
	if input.Title != nil {
		tender.Title = *input.Title
	}
	if input.Description != nil {
		tender.Description = *input.Description
	}
	if input.Category != nil {
		tender.Category = *input.Category
	}
	if input.Type != nil {
		tender.Type = *input.Type
	}
	if input.ClosingDate != nil {
		tender.ClosingDate = *input.ClosingDate
	}
	if input.EstimatedValue != nil {
		if input.EstimatedValue.IsNegative() {
			h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "estimatedValue must not be negative"))
			return
		}
		tender.EstimatedValue = *input.EstimatedValue
	}
	if input.PointsScale != nil {
		tender.PointsScale = *input.PointsScale
	}
	if input.Priority != nil {
		tender.Priority = *input.Priority
	}

	if err := h.Store.UpdateTender(r.Context(), tender); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, tender)
}

// RollbackTenderHandler возвращает параметры тендера из указанной версии
func (h *Handler) RollbackTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := pathID(r, "tenderId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	version, err := pathID(r, "version")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	current, _, err := h.tenderForStaff(r.Context(), tenderID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if current.Status != models.TenderOpen {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "only open tenders can be rolled back, got %s", current.Status))
		return
	}

	versionTender, err := h.Store.GetTenderVersion(r.Context(), tenderID, version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Откатываем значения; статус и номер не меняются, версия растёт в UpdateTender
	current.Title = versionTender.Title
	current.Description = versionTender.Description
	current.Category = versionTender.Category
	current.Type = versionTender.Type
	current.ClosingDate = versionTender.ClosingDate
	current.EstimatedValue = versionTender.EstimatedValue
	current.PointsScale = versionTender.PointsScale
	current.Priority = versionTender.Priority

	if err := h.Store.UpdateTender(r.Context(), current); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, current)
}
