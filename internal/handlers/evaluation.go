package handlers

import (
	"fmt"
	"net/http"

	"procurement/internal/export"
)

// EvaluateTenderHandler считает баллы и рейтинг закрытого тендера и сохраняет их
func (h *Handler) EvaluateTenderHandler(w http.ResponseWriter, r *http.Request) {
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

	ranking, err := h.Evaluator.Evaluate(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, ranking)
}

func (h *Handler) GetRankingHandler(w http.ResponseWriter, r *http.Request) {
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

	ranking, err := h.Evaluator.Ranking(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, ranking)
}

// ExportRankingHandler отдаёт рейтинг тендера как xlsx
func (h *Handler) ExportRankingHandler(w http.ResponseWriter, r *http.Request) {
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

	ranking, err := h.Evaluator.Ranking(r.Context(), tenderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	buffer, err := export.RankingWorkbook(ranking)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("build ranking workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename(ranking)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}
