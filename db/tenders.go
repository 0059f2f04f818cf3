package db

import (
	"context"
	"fmt"
	"strings"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

const tenderColumns = `id, tender_number, title, description, category, type, closing_date, status,
        estimated_value, points_scale, municipality_id, priority, version, created_at, updated_at`

// TenderFilter: необязательные фильтры списка тендеров.
type TenderFilter struct {
	Categories []string
	Statuses   []string
}

// Tender (Тендер)

func (s *Storage) CreateTender(ctx context.Context, t *models.Tender) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO tender
                (tender_number, title, description, category, type, closing_date, status,
                 estimated_value, points_scale, municipality_id, priority, version)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
            RETURNING id, version, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			t.TenderNumber, t.Title, t.Description, t.Category, t.Type, t.ClosingDate, t.Status,
			t.EstimatedValue, t.PointsScale, t.MunicipalityID, t.Priority).
			Scan(&t.ID, &t.Version, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return mapError(err, "tender")
		}
		// Сохраняем первую версию
		return saveTenderVersion(ctx, tx, t)
	})
}

func (s *Storage) GetTender(ctx context.Context, id int) (*models.Tender, error) {
	t := &models.Tender{}
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE id=$1`
	if err := s.db.GetContext(ctx, t, query, id); err != nil {
		return nil, mapError(err, "tender")
	}
	return t, nil
}

// UpdateTender увеличивает версию и сохраняет снимок в tender_versions.
func (s *Storage) UpdateTender(ctx context.Context, t *models.Tender) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		t.Version++
		query := `
            UPDATE tender
            SET title=$1, description=$2, category=$3, type=$4, closing_date=$5, status=$6,
                estimated_value=$7, points_scale=$8, priority=$9, version=$10, updated_at=NOW()
            WHERE id=$11
            RETURNING updated_at`
		err := tx.QueryRowContext(ctx, query,
			t.Title, t.Description, t.Category, t.Type, t.ClosingDate, t.Status,
			t.EstimatedValue, t.PointsScale, t.Priority, t.Version, t.ID).
			Scan(&t.UpdatedAt)
		if err != nil {
			return mapError(err, "tender")
		}
		// Сохраняем новую версию
		return saveTenderVersion(ctx, tx, t)
	})
}

func (s *Storage) GetTenders(ctx context.Context, filter TenderFilter, limit, offset int) ([]models.Tender, error) {
	var (
		conds []string
		args  []any
	)
	addIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}
	addIn("category", filter.Categories)
	addIn("status", filter.Statuses)

	query := `SELECT ` + tenderColumns + ` FROM tender`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title ASC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, err
	}
	return tenders, nil
}

func (s *Storage) GetUserTenders(ctx context.Context, username string, limit, offset int) ([]models.Tender, error) {
	query := `
        SELECT t.id, t.tender_number, t.title, t.description, t.category, t.type, t.closing_date, t.status,
               t.estimated_value, t.points_scale, t.municipality_id, t.priority, t.version, t.created_at, t.updated_at
        FROM tender t
        JOIN municipality_responsible mr ON t.municipality_id = mr.municipality_id
        JOIN employee e ON mr.user_id = e.id
        WHERE e.username = $1
        ORDER BY t.title ASC
        LIMIT $2 OFFSET $3`
	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, username, limit, offset); err != nil {
		return nil, err
	}
	return tenders, nil
}

func saveTenderVersion(ctx context.Context, tx *sqlx.Tx, t *models.Tender) error {
	query := `
        INSERT INTO tender_versions
            (tender_id, tender_number, title, description, category, type, closing_date, status,
             estimated_value, points_scale, municipality_id, priority, version, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.TenderNumber, t.Title, t.Description, t.Category, t.Type, t.ClosingDate, t.Status,
		t.EstimatedValue, t.PointsScale, t.MunicipalityID, t.Priority, t.Version)
	return err
}

func (s *Storage) GetTenderVersion(ctx context.Context, tenderID, version int) (*models.Tender, error) {
	var t models.Tender
	query := `
        SELECT tender_id AS id, tender_number, title, description, category, type, closing_date, status,
               estimated_value, points_scale, municipality_id, priority, version, created_at, created_at AS updated_at
        FROM tender_versions
        WHERE tender_id = $1 AND version = $2`
	if err := s.db.GetContext(ctx, &t, query, tenderID, version); err != nil {
		return nil, mapError(err, "tender version")
	}
	return &t, nil
}

// Критерии оценки

func (s *Storage) AddCriteria(ctx context.Context, c *models.TenderScoringCriteria) error {
	query := `
        INSERT INTO tender_scoring_criteria
            (tender_id, criteria_name, criteria_category, max_score, weight, sort_order)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		c.TenderID, c.CriteriaName, c.CriteriaCategory, c.MaxScore, c.Weight, c.SortOrder).
		Scan(&c.ID, &c.CreatedAt)
	return mapError(err, "criteria")
}

func (s *Storage) GetCriteria(ctx context.Context, tenderID int) ([]models.TenderScoringCriteria, error) {
	query := `
        SELECT * FROM tender_scoring_criteria
        WHERE tender_id = $1
        ORDER BY sort_order ASC, id ASC`
	criteria := []models.TenderScoringCriteria{}
	if err := s.db.SelectContext(ctx, &criteria, query, tenderID); err != nil {
		return nil, err
	}
	return criteria, nil
}

func (s *Storage) DeleteCriteria(ctx context.Context, tenderID, criteriaID int) error {
	query := `DELETE FROM tender_scoring_criteria WHERE id=$1 AND tender_id=$2`
	res, err := s.db.ExecContext(ctx, query, criteriaID, tenderID)
	if err != nil {
		return err
	}
	return requireAffected(res, "criteria")
}

// Правила соответствия

func (s *Storage) CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error {
	query := `
        INSERT INTO compliance_rule
            (tender_id, name, check_type, field, operator, value, mandatory, weight)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		r.TenderID, r.Name, r.CheckType, r.Field, r.Operator, r.Value, r.Mandatory, r.Weight).
		Scan(&r.ID, &r.CreatedAt)
	return mapError(err, "compliance rule")
}

// GetComplianceRules возвращает правила тендера вместе с глобальными.
func (s *Storage) GetComplianceRules(ctx context.Context, tenderID int) ([]models.ComplianceRule, error) {
	query := `
        SELECT * FROM compliance_rule
        WHERE tender_id = $1 OR tender_id IS NULL
        ORDER BY mandatory DESC, id ASC`
	rules := []models.ComplianceRule{}
	if err := s.db.SelectContext(ctx, &rules, query, tenderID); err != nil {
		return nil, err
	}
	return rules, nil
}
