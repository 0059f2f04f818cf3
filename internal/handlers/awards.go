package handlers

import (
	"net/http"
	"strings"
	"time"

	"procurement/internal/apperrors"
	"procurement/models"
)

type awardStatusRequest struct {
	SignatureData *string `json:"signatureData" validate:"omitempty,max=100000"`
	SignedBy      *string `json:"signedBy" validate:"omitempty,max=100"`
}

// UpdateAwardStatusHandler двигает подписание договора победителем:
// pending → sla_review → signed | declined. Менять может автор предложения
// или ответственный сотрудник.
func (h *Handler) UpdateAwardStatusHandler(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathID(r, "submissionId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "status", "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status, username := q["status"], q["username"]

	var req awardStatusRequest
	if r.ContentLength != 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	bid, err := h.Store.GetSubmission(r.Context(), submissionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bid.CreatorUsername != username {
		tender, err := h.Store.GetTender(r.Context(), bid.TenderID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if _, err := h.authorizeStaff(r.Context(), username, tender.MunicipalityID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	acceptance, err := h.Store.GetAwardAcceptance(r.Context(), submissionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !models.CanTransitionSigning(acceptance.SigningStatus, status) {
		h.writeError(w, r, stateConflict("award acceptance", acceptance.SigningStatus, status))
		return
	}

	if status == models.SigningSigned {
		if req.SignatureData == nil || strings.TrimSpace(*req.SignatureData) == "" {
			h.writeError(w, r, apperrors.New(apperrors.CodeValidation, "signatureData is required to sign").
				WithDetails(map[string]any{"field": "signatureData"}))
			return
		}
		signedBy := username
		if req.SignedBy != nil && *req.SignedBy != "" {
			signedBy = *req.SignedBy
		}
		now := time.Now().UTC()
		acceptance.SignatureData = req.SignatureData
		acceptance.SignedBy = &signedBy
		acceptance.SignedAt = &now
	}
	acceptance.SigningStatus = status

	if err := h.Store.UpdateAwardAcceptance(r.Context(), acceptance); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, acceptance)
}
