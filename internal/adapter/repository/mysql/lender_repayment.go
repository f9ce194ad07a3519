package mysql

import (
	"context"

	"gorm.io/gorm"

	loanDomain "peerlend-backend/internal/domain/loan"
)

type LenderRepaymentRepository struct{ db *gorm.DB }

func NewLenderRepaymentRepository(db *gorm.DB) *LenderRepaymentRepository {
	return &LenderRepaymentRepository{db: db}
}

func (r *LenderRepaymentRepository) CreateBatch(ctx context.Context, rows []loanDomain.LenderRepayment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *LenderRepaymentRepository) ListByRepaymentID(ctx context.Context, repaymentID uint64) ([]loanDomain.LenderRepayment, error) {
	var out []loanDomain.LenderRepayment
	err := r.db.WithContext(ctx).
		Where("repayment_id = ?", repaymentID).
		Order("lender_id ASC").
		Find(&out).Error
	return out, err
}
