package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	loanDomain "peerlend-backend/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.withChildren(r.db.WithContext(ctx)).
		Where("loan_id = ?", loanID).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *LoanRepository) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status = ?", borrowerID, loanDomain.StatusPending).
		Order("created_at DESC, id DESC").
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

// Save commits the aggregate with a compare-and-swap on Version. The
// parent row updates only when the stored version still matches the one
// the aggregate was loaded with; zero rows affected means another writer
// committed in between. New children (ID == 0) are inserted and existing
// repayments get their mutable columns written in the same call, so Save
// must run inside the surrounding transaction.
func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND version = ?", l.ID, l.Version).
		Updates(map[string]any{
			"status":           l.Status,
			"risk_level":       l.RiskLevel,
			"agreement_link":   l.AgreementLink,
			"rejection_reason": l.RejectionReason,
			"approved_at":      l.ApprovedAt,
			"rejected_at":      l.RejectedAt,
			"disbursed_at":     l.DisbursedAt,
			"cancelled_at":     l.CancelledAt,
			"completed_at":     l.CompletedAt,
			"version":          l.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrConcurrencyConflict
	}
	l.Version++

	for i := range l.Fundings {
		if l.Fundings[i].ID != 0 {
			continue
		}
		l.Fundings[i].LoanID = l.ID
		if err := r.db.WithContext(ctx).Create(&l.Fundings[i]).Error; err != nil {
			return err
		}
	}
	for i := range l.Repayments {
		rep := &l.Repayments[i]
		if rep.ID == 0 {
			rep.LoanID = l.ID
			if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
				return err
			}
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&loanDomain.Repayment{}).
			Where("id = ?", rep.ID).
			Updates(map[string]any{
				"is_paid":             rep.IsPaid,
				"paid_at":             rep.PaidAt,
				"overdue_notified_at": rep.OverdueNotifiedAt,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status loanDomain.Status) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	err := r.withChildren(r.db.WithContext(ctx)).
		Where("status = ?", status).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListWithOpenRepayments(ctx context.Context) ([]*loanDomain.Loan, error) {
	var out []*loanDomain.Loan
	err := r.withChildren(r.db.WithContext(ctx)).
		Where("status = ?", loanDomain.StatusDisbursed).
		Where("EXISTS (SELECT 1 FROM repayments rp WHERE rp.loan_id = loans.id AND rp.is_paid = ?)", false).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Fundings", func(db *gorm.DB) *gorm.DB {
			return db.Order("funded_at ASC, id ASC")
		}).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})
}
