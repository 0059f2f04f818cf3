package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"procurement/internal/apperrors"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	require.NoError(t, mapError(nil, "tender"))

	err := mapError(sql.ErrNoRows, "tender")
	require.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	require.ErrorIs(t, err, sql.ErrNoRows)

	dup := fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation, Constraint: "bid_submission_tender_id_vendor_id_key"})
	err = mapError(dup, "bid submission")
	require.True(t, apperrors.Is(err, apperrors.CodeConflict))
	require.Contains(t, err.Error(), "bid submission already exists")

	other := errors.New("connection refused")
	require.Same(t, other, mapError(other, "tender"))
}

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

func TestRequireAffected(t *testing.T) {
	require.NoError(t, requireAffected(fakeResult{rows: 1}, "criteria"))
	require.True(t, apperrors.Is(requireAffected(fakeResult{}, "criteria"), apperrors.CodeNotFound))
}

func TestRequireTransition(t *testing.T) {
	require.NoError(t, requireTransition(fakeResult{rows: 1}, "tender"))

	err := requireTransition(fakeResult{}, "tender")
	require.True(t, apperrors.Is(err, apperrors.CodeConflict))
	require.Contains(t, err.Error(), "tender changed state concurrently")
}
