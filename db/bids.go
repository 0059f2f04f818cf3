package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// BidSubmission (Предложение)

// CreateSubmission: одно предложение на поставщика в тендере, повтор даёт CONFLICT.
func (s *Storage) CreateSubmission(ctx context.Context, b *models.BidSubmission) error {
	query := `
        INSERT INTO bid_submission
            (tender_id, vendor_id, bid_amount, status, compliance_result, creator_username)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		b.TenderID, b.VendorID, b.BidAmount, b.Status, b.ComplianceResult, b.CreatorUsername).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "bid submission")
}

func (s *Storage) GetSubmission(ctx context.Context, id int) (*models.BidSubmission, error) {
	b := &models.BidSubmission{}
	query := `SELECT * FROM bid_submission WHERE id=$1`
	if err := s.db.GetContext(ctx, b, query, id); err != nil {
		return nil, mapError(err, "bid submission")
	}
	return b, nil
}

func (s *Storage) GetSubmissionsForTender(ctx context.Context, tenderID int, limit, offset int) ([]models.BidSubmission, error) {
	query := `
        SELECT * FROM bid_submission
        WHERE tender_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	bids := []models.BidSubmission{}
	if err := s.db.SelectContext(ctx, &bids, query, tenderID, limit, offset); err != nil {
		return nil, err
	}
	return bids, nil
}

// ListTenderSubmissions возвращает все предложения тендера без пагинации.
func (s *Storage) ListTenderSubmissions(ctx context.Context, tenderID int) ([]models.BidSubmission, error) {
	query := `SELECT * FROM bid_submission WHERE tender_id = $1 ORDER BY id ASC`
	bids := []models.BidSubmission{}
	if err := s.db.SelectContext(ctx, &bids, query, tenderID); err != nil {
		return nil, err
	}
	return bids, nil
}

func (s *Storage) UpdateSubmission(ctx context.Context, b *models.BidSubmission) error {
	query := `
        UPDATE bid_submission
        SET bid_amount=$1, status=$2, compliance_result=$3, submitted_at=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		b.BidAmount, b.Status, b.ComplianceResult, b.SubmittedAt, b.ID).
		Scan(&b.UpdatedAt)
	return mapError(err, "bid submission")
}

// Оценки экспертов

const upsertScoreQuery = `
    INSERT INTO evaluation_score
        (submission_id, criteria_name, criteria_category, max_score, score, weight, comments, evaluator_username)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (submission_id, criteria_name) DO UPDATE
    SET criteria_category = EXCLUDED.criteria_category,
        max_score = EXCLUDED.max_score,
        score = EXCLUDED.score,
        weight = EXCLUDED.weight,
        comments = EXCLUDED.comments,
        evaluator_username = EXCLUDED.evaluator_username,
        updated_at = NOW()
    RETURNING id, created_at, updated_at`

func upsertScore(ctx context.Context, tx *sqlx.Tx, sc *models.EvaluationScore) error {
	err := tx.QueryRowContext(ctx, upsertScoreQuery,
		sc.SubmissionID, sc.CriteriaName, sc.CriteriaCategory, sc.MaxScore, sc.Score, sc.Weight, sc.Comments, sc.EvaluatorUsername).
		Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	return mapError(err, "evaluation score")
}

// SaveEvaluationScores записывает оценки предложения одной транзакцией.
func (s *Storage) SaveEvaluationScores(ctx context.Context, submissionID int, scores []models.EvaluationScore) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range scores {
			scores[i].SubmissionID = submissionID
			if err := upsertScore(ctx, tx, &scores[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetEvaluationScores(ctx context.Context, submissionID int) ([]models.EvaluationScore, error) {
	query := `SELECT * FROM evaluation_score WHERE submission_id=$1 ORDER BY id ASC`
	scores := []models.EvaluationScore{}
	if err := s.db.SelectContext(ctx, &scores, query, submissionID); err != nil {
		return nil, err
	}
	return scores, nil
}

// GetTenderEvaluationScores возвращает оценки всех предложений тендера.
func (s *Storage) GetTenderEvaluationScores(ctx context.Context, tenderID int) ([]models.EvaluationScore, error) {
	query := `
        SELECT es.* FROM evaluation_score es
        JOIN bid_submission b ON es.submission_id = b.id
        WHERE b.tender_id = $1
        ORDER BY es.submission_id ASC, es.id ASC`
	scores := []models.EvaluationScore{}
	if err := s.db.SelectContext(ctx, &scores, query, tenderID); err != nil {
		return nil, err
	}
	return scores, nil
}

// Проверки соответствия

// SaveComplianceResult заменяет проверки предложения и обновляет его статус.
func (s *Storage) SaveComplianceResult(ctx context.Context, b *models.BidSubmission, checks []models.ComplianceCheck) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM compliance_check WHERE submission_id=$1`, b.ID); err != nil {
			return err
		}
		query := `
            INSERT INTO compliance_check
                (vendor_id, tender_id, submission_id, rule_id, check_type, result, score, reason)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, performed_at`
		for i := range checks {
			c := &checks[i]
			err := tx.QueryRowContext(ctx, query,
				c.VendorID, c.TenderID, c.SubmissionID, c.RuleID, c.CheckType, c.Result, c.Score, c.Reason).
				Scan(&c.ID, &c.PerformedAt)
			if err != nil {
				return err
			}
		}
		update := `
            UPDATE bid_submission
            SET status=$1, compliance_result=$2, updated_at=NOW()
            WHERE id=$3
            RETURNING updated_at`
		return mapError(tx.QueryRowContext(ctx, update, b.Status, b.ComplianceResult, b.ID).Scan(&b.UpdatedAt), "bid submission")
	})
}

func (s *Storage) GetComplianceChecks(ctx context.Context, submissionID int) ([]models.ComplianceCheck, error) {
	query := `SELECT * FROM compliance_check WHERE submission_id=$1 ORDER BY id ASC`
	checks := []models.ComplianceCheck{}
	if err := s.db.SelectContext(ctx, &checks, query, submissionID); err != nil {
		return nil, err
	}
	return checks, nil
}
