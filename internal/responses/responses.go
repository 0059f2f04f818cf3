package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"procurement/internal/apperrors"
	"procurement/internal/logger"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WriteJSON пишет тело ответа как JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError превращает ошибку в {"error": {...}}. Нетипизированные ошибки
// отдаются как INTERNAL_ERROR и логируются.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := apperrors.As(err)
	if typed == nil {
		typed = apperrors.Wrap(apperrors.CodeInternal, err, "unexpected error")
	}
	meta := apperrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if typed.Code() != apperrors.CodeInternal && typed.Message() != "" {
		msg = typed.Message()
	}

	payload := ErrorEnvelope{Error: APIError{Code: string(typed.Code()), Message: msg}}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"error_code": string(typed.Code()), "status": meta.HTTPStatus})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Debug(ctx, "request.rejected: "+err.Error())
		}
	}

	WriteJSON(w, meta.HTTPStatus, payload)
}
