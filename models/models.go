package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Сущность Тендера
type Tender struct {
	ID             int             `db:"id" json:"id"`
	TenderNumber   string          `db:"tender_number" json:"tenderNumber" validate:"required,max=50"`
	Title          string          `db:"title" json:"title" validate:"required,max=200"`
	Description    string          `db:"description" json:"description" validate:"max=2000"`
	Category       string          `db:"category" json:"category" validate:"required,max=100"`
	Type           string          `db:"type" json:"type" validate:"required,oneof=RFQ RFP RFT EOI"`
	ClosingDate    time.Time       `db:"closing_date" json:"closingDate" validate:"required"`
	Status         string          `db:"status" json:"status"`
	EstimatedValue decimal.Decimal `db:"estimated_value" json:"estimatedValue"`
	PointsScale    int             `db:"points_scale" json:"pointsScale" validate:"omitempty,oneof=80 90"` // 0: по estimatedValue
	MunicipalityID int             `db:"municipality_id" json:"municipalityId" validate:"required,gt=0"`
	Priority       string          `db:"priority" json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Version        int             `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"-"`
}

// Сущность Поставщика
type Vendor struct {
	ID                 int       `db:"id" json:"id"`
	CompanyName        string    `db:"company_name" json:"companyName" validate:"required,max=200"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber" validate:"required,max=50"`
	CSDNumber          string    `db:"csd_number" json:"csdNumber" validate:"max=50"`
	BBBEELevel         string    `db:"bbbee_level" json:"bbbeeLevel" validate:"required"`
	Status             string    `db:"status" json:"status"`
	DebarmentStatus    string    `db:"debarment_status" json:"debarmentStatus"`
	Email              string    `db:"email" json:"email" validate:"omitempty,email"`
	MunicipalityID     *int      `db:"municipality_id" json:"municipalityId,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"-"`
}

// Документ поставщика (налоговый сертификат, сертификат B-BBEE и т.п.)
type VendorDocument struct {
	ID        int        `db:"id" json:"id"`
	VendorID  int        `db:"vendor_id" json:"vendorId"`
	DocType   string     `db:"doc_type" json:"docType" validate:"required,max=50"`
	Reference string     `db:"reference" json:"reference" validate:"max=200"`
	IssuedAt  *time.Time `db:"issued_at" json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// Сущность Предложения
type BidSubmission struct {
	ID               int                 `db:"id" json:"id"`
	TenderID         int                 `db:"tender_id" json:"tenderId" validate:"required,gt=0"`
	VendorID         int                 `db:"vendor_id" json:"vendorId" validate:"required,gt=0"`
	BidAmount        decimal.Decimal     `db:"bid_amount" json:"bidAmount"`
	Status           string              `db:"status" json:"status"`
	PriceScore       decimal.NullDecimal `db:"price_score" json:"priceScore"`
	BBBEEPoints      decimal.NullDecimal `db:"bbbee_points" json:"bbbeePoints"`
	TechnicalScore   decimal.NullDecimal `db:"technical_score" json:"technicalScore"`
	TotalScore       decimal.NullDecimal `db:"total_score" json:"totalScore"`
	Rank             int                 `db:"rank" json:"rank"`
	ComplianceResult string              `db:"compliance_result" json:"complianceResult"`
	CreatorUsername  string              `db:"creator_username" json:"creatorUsername" validate:"required"`
	SubmittedAt      *time.Time          `db:"submitted_at" json:"submittedAt,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `db:"updated_at" json:"-"`
}

type TenderScoringCriteria struct {
	ID               int             `db:"id" json:"id"`
	TenderID         int             `db:"tender_id" json:"tenderId"`
	CriteriaName     string          `db:"criteria_name" json:"criteriaName" validate:"required,max=100"`
	CriteriaCategory string          `db:"criteria_category" json:"criteriaCategory" validate:"required,oneof=Price BBBEE Technical Experience 'Local Content' Quality"`
	MaxScore         decimal.Decimal `db:"max_score" json:"maxScore"`
	Weight           decimal.Decimal `db:"weight" json:"weight"`
	SortOrder        int             `db:"sort_order" json:"sortOrder"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// Оценка эксперта по одному критерию
type EvaluationScore struct {
	ID                int             `db:"id" json:"id"`
	SubmissionID      int             `db:"submission_id" json:"submissionId"`
	CriteriaName      string          `db:"criteria_name" json:"criteriaName" validate:"required,max=100"`
	CriteriaCategory  string          `db:"criteria_category" json:"criteriaCategory"`
	MaxScore          decimal.Decimal `db:"max_score" json:"maxScore"`
	Score             decimal.Decimal `db:"score" json:"score"`
	Weight            decimal.Decimal `db:"weight" json:"weight"`
	Comments          string          `db:"comments" json:"comments" validate:"max=1000"`
	EvaluatorUsername string          `db:"evaluator_username" json:"evaluatorUsername"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"-"`
}

// Правило проверки соответствия. TenderID == nil означает глобальное правило.
type ComplianceRule struct {
	ID        int       `db:"id" json:"id"`
	TenderID  *int      `db:"tender_id" json:"tenderId,omitempty"`
	Name      string    `db:"name" json:"name" validate:"required,max=100"`
	CheckType string    `db:"check_type" json:"checkType" validate:"required,max=50"`
	Field     string    `db:"field" json:"field" validate:"required,max=100"`
	Operator  string    `db:"operator" json:"operator" validate:"required"`
	Value     string    `db:"value" json:"value" validate:"max=200"`
	Mandatory bool      `db:"mandatory" json:"mandatory"`
	Weight    int       `db:"weight" json:"weight" validate:"gte=0"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type ComplianceCheck struct {
	ID           int             `db:"id" json:"id"`
	VendorID     int             `db:"vendor_id" json:"vendorId"`
	TenderID     int             `db:"tender_id" json:"tenderId"`
	SubmissionID int             `db:"submission_id" json:"submissionId"`
	RuleID       *int            `db:"rule_id" json:"ruleId,omitempty"`
	CheckType    string          `db:"check_type" json:"checkType"`
	Result       string          `db:"result" json:"result"`
	Score        decimal.Decimal `db:"score" json:"score"`
	Reason       string          `db:"reason" json:"reason"`
	PerformedAt  time.Time       `db:"performed_at" json:"performedAt"`
}

// Подписание договора победителем
type AwardAcceptance struct {
	ID            int        `db:"id" json:"id"`
	SubmissionID  int        `db:"submission_id" json:"submissionId"`
	SigningStatus string     `db:"signing_status" json:"signingStatus"`
	SignatureData *string    `db:"signature_data" json:"signatureData,omitempty"`
	SignedBy      *string    `db:"signed_by" json:"signedBy,omitempty"`
	SignedAt      *time.Time `db:"signed_at" json:"signedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"-"`
}

// Сущность Пользователя (из БД, для связи)
type Employee struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Сущность Муниципалитета (арендатор)
type Municipality struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Province  string    `db:"province" json:"province"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
