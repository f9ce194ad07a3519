package risk

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("risk snapshot not found")

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCFailed   KYCStatus = "failed"
)

// Snapshot is the borrower risk read model. An external risk-assessment
// collaborator upserts it; the lending core only reads it for display.
type Snapshot struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"-"`
	BorrowerID     string     `gorm:"size:32;uniqueIndex:ux_risk_snapshots_borrower" json:"borrower_id"`
	CreditScore    int        `gorm:"column:credit_score" json:"credit_score"`
	RiskTier       string     `gorm:"size:10" json:"risk_tier"`
	KYCStatus      KYCStatus  `gorm:"column:kyc_status;size:10;default:'pending'" json:"kyc_status"`
	Flags          string     `gorm:"type:text" json:"flags,omitempty"`
	LastVerifiedAt *time.Time `gorm:"column:last_verified_at" json:"last_verified_at,omitempty"`
	LastScoreAt    time.Time  `gorm:"column:last_score_at" json:"last_score_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Snapshot) TableName() string { return "borrower_risk_snapshots" }
