package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

func (s *Storage) AddAwardDecision(ctx context.Context, submissionID, userID int, decision string) error {
	query := `
        INSERT INTO award_decision (submission_id, employee_id, decision, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (submission_id, employee_id) DO UPDATE SET decision = EXCLUDED.decision, created_at = NOW()`
	_, err := s.db.ExecContext(ctx, query, submissionID, userID, decision)
	return err
}

func (s *Storage) GetAwardDecisionsCount(ctx context.Context, submissionID int) (accepts int, rejects int, err error) {
	query := `
        SELECT
            COUNT(CASE WHEN decision = 'Approved' THEN 1 END),
            COUNT(CASE WHEN decision = 'Rejected' THEN 1 END)
        FROM award_decision
        WHERE submission_id = $1`
	err = s.db.QueryRowContext(ctx, query, submissionID).Scan(&accepts, &rejects)
	return
}

// AwardSubmission присуждает тендер предложению: остальные оценённые предложения
// отклоняются, тендер закрывается статусом awarded, создаётся AwardAcceptance.
// Если предложение уже не scored или тендер не under_review, возвращает CONFLICT.
func (s *Storage) AwardSubmission(ctx context.Context, b *models.BidSubmission) (*models.AwardAcceptance, error) {
	acceptance := &models.AwardAcceptance{SubmissionID: b.ID, SigningStatus: models.SigningPending}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bid_submission SET status=$1, updated_at=NOW() WHERE id=$2 AND tender_id=$3 AND status=$4`,
			models.BidAwarded, b.ID, b.TenderID, models.BidScored)
		if err != nil {
			return err
		}
		if err := requireTransition(res, "bid submission"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE bid_submission SET status=$1, updated_at=NOW() WHERE tender_id=$2 AND id<>$3 AND status=$4`,
			models.BidRejected, b.TenderID, b.ID, models.BidScored); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx,
			`UPDATE tender SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
			models.TenderAwarded, b.TenderID, models.TenderUnderReview)
		if err != nil {
			return err
		}
		if err := requireTransition(res, "tender"); err != nil {
			return err
		}
		query := `
            INSERT INTO award_acceptance (submission_id, signing_status)
            VALUES ($1, $2)
            RETURNING id, created_at, updated_at`
		err = tx.QueryRowContext(ctx, query, acceptance.SubmissionID, acceptance.SigningStatus).
			Scan(&acceptance.ID, &acceptance.CreatedAt, &acceptance.UpdatedAt)
		return mapError(err, "award acceptance")
	})
	if err != nil {
		return nil, err
	}
	b.Status = models.BidAwarded
	return acceptance, nil
}

func (s *Storage) GetAwardAcceptance(ctx context.Context, submissionID int) (*models.AwardAcceptance, error) {
	a := &models.AwardAcceptance{}
	query := `SELECT * FROM award_acceptance WHERE submission_id=$1`
	if err := s.db.GetContext(ctx, a, query, submissionID); err != nil {
		return nil, mapError(err, "award acceptance")
	}
	return a, nil
}

func (s *Storage) UpdateAwardAcceptance(ctx context.Context, a *models.AwardAcceptance) error {
	query := `
        UPDATE award_acceptance
        SET signing_status=$1, signature_data=$2, signed_by=$3, signed_at=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		a.SigningStatus, a.SignatureData, a.SignedBy, a.SignedAt, a.ID).
		Scan(&a.UpdatedAt)
	return mapError(err, "award acceptance")
}
