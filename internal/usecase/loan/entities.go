package loan

import (
	"time"
)

type CreateLoanInput struct {
	BorrowerID     string  `json:"borrower_id"`
	Principal      float64 `json:"principal"`
	Currency       string  `json:"currency"`
	DurationMonths int     `json:"duration_months"`
	Purpose        string  `json:"purpose"`
}

type ApproveInput struct {
	LoanID        string `json:"loan_id"`
	RiskLevel     string `json:"risk_level"`
	AgreementLink string `json:"agreement_link"`
}

type RejectInput struct {
	LoanID string `json:"loan_id"`
	Reason string `json:"reason"`
}

type FundingDTO struct {
	FundingID string    `json:"funding_id"`
	LenderID  string    `json:"lender_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	FundedAt  time.Time `json:"funded_at"`
}

type RepaymentDTO struct {
	RepaymentID       string     `json:"repayment_id"`
	Sequence          int        `json:"sequence"`
	DueDate           time.Time  `json:"due_date"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	IsPaid            bool       `json:"is_paid"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	OverdueNotifiedAt *time.Time `json:"overdue_notified_at,omitempty"`
}

type LoanDTO struct {
	LoanID          string     `json:"loan_id"`
	BorrowerID      string     `json:"borrower_id"`
	Principal       float64    `json:"principal"`
	Currency        string     `json:"currency"`
	DurationMonths  int        `json:"duration_months"`
	Purpose         string     `json:"purpose"`
	Status          string     `json:"status"`
	RiskLevel       string     `json:"risk_level,omitempty"`
	AgreementLink   string     `json:"agreement_link,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	TotalFunded     float64    `json:"total_funded"`
	Remaining       float64    `json:"remaining"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	Fundings   []FundingDTO   `json:"fundings,omitempty"`
	Repayments []RepaymentDTO `json:"repayments,omitempty"`
}
