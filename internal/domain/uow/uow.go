package uow

import (
	"context"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/risk"
)

type Repos struct {
	Loans            loan.Repository
	LenderRepayments loan.LenderRepaymentRepository
	Risk             risk.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: load the loan aggregate first, then pass it in. The
	// load is a plain read; conflicts surface at Save via the version CAS.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
