package loanmock

import (
	"context"

	domain "peerlend-backend/internal/domain/loan"
)

// Repo is a function-backed mock that satisfies loan.Repository. Only
// the fields a test sets are exercised; the rest fall through to safe
// defaults.
type Repo struct {
	CreateFn                     func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	SaveFn                       func(ctx context.Context, l *domain.Loan) error
	ListByStatusFn               func(ctx context.Context, status domain.Status) ([]*domain.Loan, error)
	ListWithOpenRepaymentsFn     func(ctx context.Context) ([]*domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status)
	}
	return nil, nil
}

func (m *Repo) ListWithOpenRepayments(ctx context.Context) ([]*domain.Loan, error) {
	if m.ListWithOpenRepaymentsFn != nil {
		return m.ListWithOpenRepaymentsFn(ctx)
	}
	return nil, nil
}

// LenderRepaymentRepo mocks loan.LenderRepaymentRepository and records
// what was written.
type LenderRepaymentRepo struct {
	CreateBatchFn       func(ctx context.Context, rows []domain.LenderRepayment) error
	ListByRepaymentIDFn func(ctx context.Context, repaymentID uint64) ([]domain.LenderRepayment, error)

	Created []domain.LenderRepayment
}

func (m *LenderRepaymentRepo) CreateBatch(ctx context.Context, rows []domain.LenderRepayment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, rows)
	}
	m.Created = append(m.Created, rows...)
	return nil
}

func (m *LenderRepaymentRepo) ListByRepaymentID(ctx context.Context, repaymentID uint64) ([]domain.LenderRepayment, error) {
	if m.ListByRepaymentIDFn != nil {
		return m.ListByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, nil
}
