package db

import (
	"context"

	"procurement/models"

	"github.com/jmoiron/sqlx"
)

// Vendor (Поставщик)

func (s *Storage) CreateVendor(ctx context.Context, v *models.Vendor) error {
	query := `
        INSERT INTO vendor
            (company_name, registration_number, csd_number, bbbee_level, status, debarment_status, email, municipality_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		v.CompanyName, v.RegistrationNumber, v.CSDNumber, v.BBBEELevel, v.Status, v.DebarmentStatus, v.Email, v.MunicipalityID).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return mapError(err, "vendor")
}

func (s *Storage) GetVendor(ctx context.Context, id int) (*models.Vendor, error) {
	v := &models.Vendor{}
	query := `SELECT * FROM vendor WHERE id=$1`
	if err := s.db.GetContext(ctx, v, query, id); err != nil {
		return nil, mapError(err, "vendor")
	}
	return v, nil
}

// GetVendorsByIDs возвращает поставщиков по списку id (порядок не гарантирован).
func (s *Storage) GetVendorsByIDs(ctx context.Context, ids []int) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	if len(ids) == 0 {
		return vendors, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM vendor WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	if err := s.db.SelectContext(ctx, &vendors, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (s *Storage) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	query := `
        UPDATE vendor
        SET company_name=$1, csd_number=$2, bbbee_level=$3, status=$4, debarment_status=$5, email=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		v.CompanyName, v.CSDNumber, v.BBBEELevel, v.Status, v.DebarmentStatus, v.Email, v.ID).
		Scan(&v.UpdatedAt)
	return mapError(err, "vendor")
}

func (s *Storage) AddVendorDocument(ctx context.Context, d *models.VendorDocument) error {
	query := `
        INSERT INTO vendor_document (vendor_id, doc_type, reference, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, d.VendorID, d.DocType, d.Reference, d.IssuedAt, d.ExpiresAt).
		Scan(&d.ID, &d.CreatedAt)
	return mapError(err, "vendor document")
}

func (s *Storage) GetVendorDocuments(ctx context.Context, vendorID int) ([]models.VendorDocument, error) {
	query := `SELECT * FROM vendor_document WHERE vendor_id=$1 ORDER BY created_at ASC`
	docs := []models.VendorDocument{}
	if err := s.db.SelectContext(ctx, &docs, query, vendorID); err != nil {
		return nil, err
	}
	return docs, nil
}
