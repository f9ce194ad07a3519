package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusFunded    Status = "funded"
	StatusDisbursed Status = "disbursed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Purpose string

const (
	PurposeEducation         Purpose = "education"
	PurposeBusiness          Purpose = "business"
	PurposeHomeImprovement   Purpose = "home_improvement"
	PurposeDebtConsolidation Purpose = "debt_consolidation"
	PurposeMedical           Purpose = "medical"
	PurposeOther             Purpose = "other"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

const maxRejectionReasonLen = 500

// Loan is the aggregate root. It exclusively owns its Fundings and
// Repayments; LenderRepayment rows reference it by id only.
type Loan struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID         string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	BorrowerID     string          `gorm:"size:32;index:idx_loans_borrower_active" json:"borrower_id"`
	Principal      decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	Currency       string          `gorm:"size:3" json:"currency"`
	DurationMonths int             `gorm:"column:duration_months" json:"duration_months"`
	Purpose        Purpose         `gorm:"type:enum('education','business','home_improvement','debt_consolidation','medical','other');default:'other'" json:"purpose"`
	Status         Status          `gorm:"type:enum('pending','approved','rejected','funded','disbursed','completed','cancelled');default:'pending'" json:"status"`
	RiskLevel      RiskLevel       `gorm:"size:10" json:"risk_level,omitempty"`
	AgreementLink  string          `gorm:"type:text" json:"agreement_link,omitempty"`

	RejectionReason string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	// Optimistic concurrency token; bumped on every successful save.
	Version uint64 `gorm:"not null;default:0" json:"-"`

	Fundings   []Funding   `gorm:"foreignKey:LoanID;references:ID" json:"-"`
	Repayments []Repayment `gorm:"foreignKey:LoanID;references:ID" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy string         `gorm:"size:32" json:"-"`

	events []Event `gorm:"-" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Funding is one lender's contribution. Immutable once created.
type Funding struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	FundingID string          `gorm:"size:32;uniqueIndex:ux_fundings_funding_id" json:"funding_id"`
	LoanID    uint64          `gorm:"column:loan_id;not null;index" json:"-"`
	LenderID  string          `gorm:"size:32;index" json:"lender_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Currency  string          `gorm:"size:3" json:"currency"`
	FundedAt  time.Time       `json:"funded_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"-"`
}

func (Funding) TableName() string { return "fundings" }

// Repayment is one scheduled installment. Created in a batch at
// disbursement; mutated only by MarkRepaymentPaid and the overdue sweep.
type Repayment struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID       string          `gorm:"size:32;uniqueIndex:ux_repayments_repayment_id" json:"repayment_id"`
	LoanID            uint64          `gorm:"column:loan_id;not null;index" json:"-"`
	Sequence          int             `gorm:"column:sequence" json:"sequence"`
	DueDate           time.Time       `gorm:"column:due_date" json:"due_date"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Currency          string          `gorm:"size:3" json:"currency"`
	IsPaid            bool            `gorm:"column:is_paid;default:false" json:"is_paid"`
	PaidAt            *time.Time      `gorm:"column:paid_at" json:"paid_at,omitempty"`
	OverdueNotifiedAt *time.Time      `gorm:"column:overdue_notified_at" json:"overdue_notified_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"-"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"-"`
}

func (Repayment) TableName() string { return "repayments" }

// LenderRepayment is a lender's proportional slice of a paid installment.
// Exactly one row per (repayment, lender); slices for a repayment sum to
// its amount exactly.
type LenderRepayment struct {
	ID          uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID      uint64          `gorm:"column:loan_id;not null;index" json:"-"`
	RepaymentID uint64          `gorm:"column:repayment_id;not null;uniqueIndex:ux_lender_repayments_pair" json:"-"`
	LenderID    string          `gorm:"size:32;uniqueIndex:ux_lender_repayments_pair" json:"lender_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LenderRepayment) TableName() string { return "lender_repayments" }
