package loan

import "context"

// Repository loads and saves the Loan aggregate. Reads return the loan
// with its Fundings and Repayments eagerly populated. Save commits with
// a compare-and-swap on Version and returns ErrConcurrencyConflict when
// another writer got there first.
type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	ListByStatus(ctx context.Context, status Status) ([]*Loan, error)
	// ListWithOpenRepayments returns disbursed loans that still carry at
	// least one unpaid installment; input to the overdue sweep.
	ListWithOpenRepayments(ctx context.Context) ([]*Loan, error)
}

// LenderRepaymentRepository persists allocation slices. CreateBatch is
// called inside the same transaction that marks the repayment paid.
type LenderRepaymentRepository interface {
	CreateBatch(ctx context.Context, rows []LenderRepayment) error
	ListByRepaymentID(ctx context.Context, repaymentID uint64) ([]LenderRepayment, error)
}
