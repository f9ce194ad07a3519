package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/money"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/testutil/loanmock"
	"peerlend-backend/internal/testutil/sinkmock"
	"peerlend-backend/internal/testutil/uowmock"
)

var (
	disbursedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	// two installments due (Feb 15, Mar 15), one still ahead (Apr 15)
	sweepAt = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
)

func openLoan(t *testing.T, loanID string) *domain.Loan {
	t.Helper()
	l := &domain.Loan{
		LoanID:         loanID,
		BorrowerID:     "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Principal:      decimal.NewFromInt(3000),
		Currency:       "GBP",
		DurationMonths: 3,
		Status:         domain.StatusApproved,
	}
	m, _ := money.NewFromFloat(3000, "GBP")
	if _, err := l.AddFunding("11111111111111111111111111111111", m, disbursedAt); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := l.Disburse(disbursedAt); err != nil {
		t.Fatalf("disburse: %v", err)
	}
	l.PullEvents()
	return l
}

func setup(loans ...*domain.Loan) (*Usecase, *loanmock.Repo, *sinkmock.Sink) {
	byID := map[string]*domain.Loan{}
	for _, l := range loans {
		byID[l.LoanID] = l
	}
	repo := &loanmock.Repo{
		ListWithOpenRepaymentsFn: func(ctx context.Context) ([]*domain.Loan, error) {
			out := make([]*domain.Loan, 0, len(loans))
			for _, l := range loans {
				out = append(out, l)
			}
			return out, nil
		},
		GetByLoanIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			if l, ok := byID[id]; ok {
				return l, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	sink := &sinkmock.Sink{}
	tx := &uowmock.UoW{Repos: uow.Repos{Loans: repo, LenderRepayments: &loanmock.LenderRepaymentRepo{}}}
	uc := NewUsecase(repo, tx, sink, zap.NewNop())
	return uc, repo, sink
}

func TestRun_MarksPastDueOnce(t *testing.T) {
	l := openLoan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	uc, _, sink := setup(l)

	res, err := uc.Run(context.Background(), sweepAt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scanned != 3 || res.NewlyOverdue != 2 || res.AlreadyNotified != 0 || res.PaidIgnored != 0 {
		t.Fatalf("result: %+v", res)
	}
	if sink.CountByType(domain.EventRepaymentOverdue) != 2 {
		t.Fatalf("events: %v", sink.Types())
	}
	for i, rep := range l.Repayments {
		due := rep.DueDate.Before(sweepAt)
		if due && rep.OverdueNotifiedAt == nil {
			t.Errorf("installment %d not stamped", i+1)
		}
		if !due && rep.OverdueNotifiedAt != nil {
			t.Errorf("future installment %d stamped", i+1)
		}
		if rep.IsPaid {
			t.Errorf("sweep must never touch is_paid")
		}
	}
}

func TestRun_SecondPassIsIdempotent(t *testing.T) {
	l := openLoan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	uc, _, sink := setup(l)

	if _, err := uc.Run(context.Background(), sweepAt); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := uc.Run(context.Background(), sweepAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.NewlyOverdue != 0 || res.AlreadyNotified != 2 {
		t.Fatalf("second pass result: %+v", res)
	}
	if sink.CountByType(domain.EventRepaymentOverdue) != 2 {
		t.Fatalf("overdue re-emitted: %v", sink.Types())
	}
	// the stamp keeps its original sweep time
	if got := l.Repayments[0].OverdueNotifiedAt; !got.Equal(sweepAt) {
		t.Fatalf("notified_at moved: %s", got)
	}
}

func TestRun_PaidRowsIgnored(t *testing.T) {
	l := openLoan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if _, _, err := l.MarkRepaymentPaid(l.Repayments[0].RepaymentID, disbursedAt.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("pay: %v", err)
	}
	l.PullEvents()
	uc, _, _ := setup(l)

	res, err := uc.Run(context.Background(), sweepAt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.NewlyOverdue != 1 || res.PaidIgnored != 1 {
		t.Fatalf("result: %+v", res)
	}
}

func TestRun_FailureOnOneLoanDoesNotBlockOthers(t *testing.T) {
	bad := openLoan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	good := openLoan(t, "cccccccccccccccccccccccccccccccc")
	uc, repo, sink := setup(bad, good)

	repo.SaveFn = func(ctx context.Context, l *domain.Loan) error {
		if l.LoanID == bad.LoanID {
			return domain.ErrConcurrencyConflict
		}
		return nil
	}

	res, err := uc.Run(context.Background(), sweepAt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.LoansSwept != 1 || res.NewlyOverdue != 2 {
		t.Fatalf("result: %+v", res)
	}
	if sink.CountByType(domain.EventRepaymentOverdue) != 2 {
		t.Fatalf("events: %v", sink.Types())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	l := openLoan(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	uc, _, _ := setup(l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.Run(ctx, sweepAt); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
