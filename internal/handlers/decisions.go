package handlers

import (
	"context"
	"net/http"

	"procurement/internal/apperrors"
	"procurement/models"
)

// maxQuorum: сколько одобрений достаточно, даже если ответственных больше.
const maxQuorum = 3

type decisionResponse struct {
	Submission *models.BidSubmission   `json:"submission"`
	Accepts    int                     `json:"accepts"`
	Rejects    int                     `json:"rejects"`
	Quorum     int                     `json:"quorum"`
	Acceptance *models.AwardAcceptance `json:"acceptance,omitempty"`
}

// SubmitBidDecisionHandler: голос члена комиссии по оценённому предложению.
// Кворум min(ответственных, 3) одобрений присуждает тендер, любой отказ
// отправляет предложение на ручную проверку.
func (h *Handler) SubmitBidDecisionHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q, err := requireQuery(r, "decision", "username")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	decision := q["decision"]
	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeValidation, "invalid decision %q", decision))
		return
	}

	bid, tender, employee, err := h.submissionForStaff(r.Context(), bidID, q["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bid.Status != models.BidScored {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "only scored bids can be decided, got %s", bid.Status))
		return
	}
	if tender.Status != models.TenderUnderReview {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeStateConflict, "tender is %s, not under review", tender.Status))
		return
	}

	if err := h.requireTopRanked(r.Context(), bid); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Добавляем решение текущего пользователя в хранилище
	if err := h.Store.AddAwardDecision(r.Context(), bid.ID, employee.ID, decision); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Подсчитываем количество одобрений и отклонений
	accepts, rejects, err := h.Store.GetAwardDecisionsCount(r.Context(), bid.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respCount, err := h.Store.GetResponsibleCount(r.Context(), tender.MunicipalityID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quorum := min(respCount, maxQuorum)

	resp := decisionResponse{Submission: bid, Accepts: accepts, Rejects: rejects, Quorum: quorum}

	switch {
	case rejects > 0:
		bid.Status = models.BidManualReview
		if err := h.Store.UpdateSubmission(r.Context(), bid); err != nil {
			h.writeError(w, r, err)
			return
		}
	case accepts >= quorum:
		acceptance, err := h.Store.AwardSubmission(r.Context(), bid)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.Acceptance = acceptance
		h.Logger.Info(h.Logger.WithFields(r.Context(), map[string]any{
			"tender_id":     tender.ID,
			"submission_id": bid.ID,
			"accepts":       accepts,
		}), "tender.awarded")
	default:
		// Статус остаётся scored до набора кворума
	}

	h.Evaluator.Invalidate(r.Context(), tender.ID)
	h.writeJSON(w, resp)
}

// requireTopRanked: голосовать можно только за лучшее по рангу из оставшихся
// scored предложений тендера.
func (h *Handler) requireTopRanked(ctx context.Context, bid *models.BidSubmission) error {
	subs, err := h.Store.ListTenderSubmissions(ctx, bid.TenderID)
	if err != nil {
		return err
	}
	top := 0
	for _, b := range subs {
		if b.Status == models.BidScored && b.Rank > 0 && (top == 0 || b.Rank < top) {
			top = b.Rank
		}
	}
	if bid.Rank == 0 || bid.Rank != top {
		return apperrors.Newf(apperrors.CodeStateConflict,
			"only the top-ranked scored bid can be decided, bid has rank %d", bid.Rank).
			WithDetails(map[string]any{"rank": bid.Rank, "topRank": top})
	}
	return nil
}
