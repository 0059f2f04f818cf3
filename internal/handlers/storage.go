package handlers

import (
	"context"

	"procurement/db"
	"procurement/internal/evaluation"
	"procurement/models"
)

type StorageInterface interface {
	evaluation.Store

	GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error)
	IsUserResponsibleForMunicipality(ctx context.Context, userID, municipalityID int) (bool, error)
	GetResponsibleCount(ctx context.Context, municipalityID int) (int, error)

	CreateTender(ctx context.Context, tender *models.Tender) error
	UpdateTender(ctx context.Context, tender *models.Tender) error
	GetTenderVersion(ctx context.Context, tenderID int, version int) (*models.Tender, error)
	GetTenders(ctx context.Context, filter db.TenderFilter, limit, offset int) ([]models.Tender, error)
	GetUserTenders(ctx context.Context, username string, limit, offset int) ([]models.Tender, error)

	AddCriteria(ctx context.Context, c *models.TenderScoringCriteria) error
	DeleteCriteria(ctx context.Context, tenderID, criteriaID int) error
	CreateComplianceRule(ctx context.Context, r *models.ComplianceRule) error

	CreateVendor(ctx context.Context, v *models.Vendor) error
	UpdateVendor(ctx context.Context, v *models.Vendor) error
	AddVendorDocument(ctx context.Context, d *models.VendorDocument) error

	CreateSubmission(ctx context.Context, b *models.BidSubmission) error
	GetSubmission(ctx context.Context, submissionID int) (*models.BidSubmission, error)
	GetSubmissionsForTender(ctx context.Context, tenderID int, limit, offset int) ([]models.BidSubmission, error)
	UpdateSubmission(ctx context.Context, b *models.BidSubmission) error
	SaveEvaluationScores(ctx context.Context, submissionID int, scores []models.EvaluationScore) error
	GetEvaluationScores(ctx context.Context, submissionID int) ([]models.EvaluationScore, error)
	GetComplianceChecks(ctx context.Context, submissionID int) ([]models.ComplianceCheck, error)

	AddAwardDecision(ctx context.Context, submissionID, employeeID int, decision string) error
	GetAwardDecisionsCount(ctx context.Context, submissionID int) (accepts int, rejects int, err error)
	AwardSubmission(ctx context.Context, b *models.BidSubmission) (*models.AwardAcceptance, error)
	GetAwardAcceptance(ctx context.Context, submissionID int) (*models.AwardAcceptance, error)
	UpdateAwardAcceptance(ctx context.Context, a *models.AwardAcceptance) error
}

var _ StorageInterface = (*db.Storage)(nil)
