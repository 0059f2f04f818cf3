package handlers

import (
	"net/http"

	"procurement/internal/logger"
	"procurement/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// NewRouter собирает маршруты API. metricsHandler может быть nil.
func NewRouter(h *Handler, logg *logger.Logger, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		r.Route("/tenders", func(r chi.Router) {
			r.Post("/new", h.CreateTenderHandler)
			r.Get("/", h.GetTendersHandler)
			r.Get("/my", h.GetUserTendersHandler)

			r.Route("/{tenderId}", func(r chi.Router) {
				r.Get("/", h.GetTenderHandler)
				r.Patch("/edit", h.EditTenderHandler)
				r.Put("/status", h.UpdateTenderStatusHandler)
				r.Put("/rollback/{version}", h.RollbackTenderHandler)

				r.Post("/criteria", h.AddCriteriaHandler)
				r.Get("/criteria", h.GetCriteriaHandler)
				r.Delete("/criteria/{criteriaId}", h.DeleteCriteriaHandler)

				r.Post("/rules", h.CreateComplianceRuleHandler)
				r.Get("/rules", h.GetComplianceRulesHandler)

				r.Post("/evaluate", h.EvaluateTenderHandler)
				r.Get("/ranking", h.GetRankingHandler)
				r.Get("/ranking/export", h.ExportRankingHandler)
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/new", h.CreateVendorHandler)
			r.Get("/{vendorId}", h.GetVendorHandler)
			r.Put("/{vendorId}/status", h.UpdateVendorStatusHandler)
			r.Post("/{vendorId}/documents", h.AddVendorDocumentHandler)
		})

		r.Route("/bids", func(r chi.Router) {
			r.Post("/new", h.CreateBidHandler)
			r.Get("/{tenderId}/list", h.GetBidsForTenderHandler)
			r.Put("/{bidId}/submit", h.SubmitBidHandler)
			r.Post("/{bidId}/compliance", h.RunComplianceHandler)
			r.Get("/{bidId}/compliance", h.GetComplianceChecksHandler)
			r.Put("/{bidId}/scores", h.SaveScoresHandler)
			r.Get("/{bidId}/scores", h.GetScoresHandler)
			r.Put("/{bidId}/status", h.UpdateBidStatusHandler)
			r.Put("/{bidId}/submit_decision", h.SubmitBidDecisionHandler)
		})

		r.Put("/awards/{submissionId}/status", h.UpdateAwardStatusHandler)
	})

	return r
}
