package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"procurement/internal/apperrors"
	"procurement/internal/logger"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorTyped(t *testing.T) {
	w := httptest.NewRecorder()
	err := apperrors.New(apperrors.CodeValidation, "bidAmount must be positive").
		WithDetails(map[string]string{"bidAmount": "must be positive"})

	WriteError(context.Background(), logger.Nop(), w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Equal(t, "bidAmount must be positive", body.Error.Message)
	require.NotNil(t, body.Error.Details)
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection refused")
	require.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
