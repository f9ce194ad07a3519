package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/pkg/id"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	loanID := id.NewID32()
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan(loanID, id.NewID32(), domain.StatusPending)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		return r.LenderRepayments.CreateBatch(ctx, []domain.LenderRepayment{
			{LoanID: l.ID, RepaymentID: 1, LenderID: id.NewID32(), Amount: decimal.NewFromInt(100)},
		})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := loanRepo.GetByLoanID(ctx, loanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	rows, err := NewLenderRepaymentRepository(db).ListByRepaymentID(ctx, 1)
	if err != nil || len(rows) != 1 {
		t.Fatalf("lender repayments after commit: rows=%d err=%v", len(rows), err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	sentinel := errors.New("boom")

	loanID := id.NewID32()
	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, makeLoan(loanID, id.NewID32(), domain.StatusPending)); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	if _, err := loanRepo.GetByLoanID(ctx, loanID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected loan gone after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_LoadsAggregateAndSaves(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	seed := makeLoan(id.NewID32(), id.NewID32(), domain.StatusApproved)
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatal(err)
	}
	mustFund(t, seed, id.NewID32(), 9000)
	if err := loanRepo.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}

	err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if len(l.Fundings) != 1 {
			t.Fatalf("aggregate loaded without children: %+v", l)
		}
		if err := l.Disburse(time.Now()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}

	got, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusDisbursed || len(got.Repayments) != 4 {
		t.Fatalf("disbursement not committed: status=%s repayments=%d", got.Status, len(got.Repayments))
	}
}

func TestGormUoW_WithinLoanTx_NotFound(t *testing.T) {
	db := openTestDB(t)
	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(context.Background(), "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		func(r uow.Repos, l *domain.Loan) error {
			t.Fatal("fn must not run for a missing loan")
			return nil
		})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
