package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"procurement/internal/apperrors"
	"procurement/internal/evaluation"
	"procurement/internal/logger"
	"procurement/internal/responses"
	"procurement/models"

	"github.com/go-chi/chi/v5"
)

// Handler оборачивает хранилище и сервис оценки
type Handler struct {
	Store     StorageInterface
	Evaluator *evaluation.Service
	Logger    *logger.Logger
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, evaluator *evaluation.Service, logg *logger.Logger) *Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	if evaluator == nil {
		evaluator = evaluation.NewService(store, evaluation.Options{Logger: logg})
	}
	return &Handler{Store: store, Evaluator: evaluator, Logger: logg}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	responses.WriteError(r.Context(), h.Logger, w, err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	responses.WriteJSON(w, http.StatusOK, payload)
}

// pathID читает положительный целый параметр пути.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.Newf(apperrors.CodeValidation, "invalid %s", name).
			WithDetails(map[string]any{"field": name, "value": raw})
	}
	return id, nil
}

func requireQuery(r *http.Request, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := strings.TrimSpace(r.URL.Query().Get(name))
		if v == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "missing required parameters").
			WithDetails(map[string]any{"missing": missing})
	}
	return values, nil
}

// employee находит пользователя по username; неизвестный пользователь: UNAUTHORIZED.
func (h *Handler) employee(ctx context.Context, username string) (*models.Employee, error) {
	e, err := h.Store.GetEmployeeByUsername(ctx, username)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthorized, err, "user not found")
		}
		return nil, err
	}
	return e, nil
}

// authorizeStaff проверяет, что пользователь отвечает за муниципалитет.
func (h *Handler) authorizeStaff(ctx context.Context, username string, municipalityID int) (*models.Employee, error) {
	e, err := h.employee(ctx, username)
	if err != nil {
		return nil, err
	}
	isResponsible, err := h.Store.IsUserResponsibleForMunicipality(ctx, e.ID, municipalityID)
	if err != nil {
		return nil, err
	}
	if !isResponsible {
		return nil, apperrors.New(apperrors.CodeForbidden, "user is not responsible for this municipality")
	}
	return e, nil
}

// tenderForStaff загружает тендер и проверяет права пользователя на него.
func (h *Handler) tenderForStaff(ctx context.Context, tenderID int, username string) (*models.Tender, *models.Employee, error) {
	tender, err := h.Store.GetTender(ctx, tenderID)
	if err != nil {
		return nil, nil, err
	}
	e, err := h.authorizeStaff(ctx, username, tender.MunicipalityID)
	if err != nil {
		return nil, nil, err
	}
	return tender, e, nil
}

// submissionForStaff загружает предложение, его тендер и проверяет права пользователя.
func (h *Handler) submissionForStaff(ctx context.Context, bidID int, username string) (*models.BidSubmission, *models.Tender, *models.Employee, error) {
	bid, err := h.Store.GetSubmission(ctx, bidID)
	if err != nil {
		return nil, nil, nil, err
	}
	tender, e, err := h.tenderForStaff(ctx, bid.TenderID, username)
	if err != nil {
		return nil, nil, nil, err
	}
	return bid, tender, e, nil
}

func stateConflict(entity, from, to string) error {
	return apperrors.Newf(apperrors.CodeStateConflict, "%s cannot move from %s to %s", entity, from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}
