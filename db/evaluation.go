package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// SaveEvaluationResults сохраняет баллы и ранги предложений, рассчитанные строки
// критериев Price и BBBEE и статус тендера одной транзакцией.
func (s *Storage) SaveEvaluationResults(ctx context.Context, tender *models.Tender, submissions []models.BidSubmission, derived []models.EvaluationScore) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            UPDATE bid_submission
            SET price_score=$1, bbbee_points=$2, technical_score=$3, total_score=$4, rank=$5,
                status=$6, updated_at=NOW()
            WHERE id=$7 AND tender_id=$8`
		// прежние расчётные строки могли остаться от критериев, которых уже нет
		clear := `DELETE FROM evaluation_score WHERE submission_id=$1 AND criteria_category IN ('Price', 'BBBEE')`
		for _, b := range submissions {
			res, err := tx.ExecContext(ctx, query,
				b.PriceScore, b.BBBEEPoints, b.TechnicalScore, b.TotalScore, b.Rank,
				b.Status, b.ID, tender.ID)
			if err != nil {
				return err
			}
			if err := requireAffected(res, "bid submission"); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, clear, b.ID); err != nil {
				return err
			}
		}
		for i := range derived {
			if err := upsertScore(ctx, tx, &derived[i]); err != nil {
				return err
			}
		}
		status := `UPDATE tender SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
		return mapError(tx.QueryRowContext(ctx, status, tender.Status, tender.ID).Scan(&tender.UpdatedAt), "tender")
	})
}
