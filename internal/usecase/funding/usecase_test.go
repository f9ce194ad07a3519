package funding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/testutil/loanmock"
	"peerlend-backend/internal/testutil/sinkmock"
	"peerlend-backend/internal/testutil/uowmock"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

const (
	loanID   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	lenderID = "11111111111111111111111111111111"
	lender2  = "22222222222222222222222222222222"
)

func approvedLoan(principal int64) *domain.Loan {
	return &domain.Loan{
		LoanID:         loanID,
		BorrowerID:     "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Principal:      decimal.NewFromInt(principal),
		Currency:       "GBP",
		DurationMonths: 4,
		Status:         domain.StatusApproved,
	}
}

func setup(l *domain.Loan) (*Usecase, *loanmock.Repo, *sinkmock.Sink) {
	repo := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			if l == nil || id != l.LoanID {
				return nil, domain.ErrNotFound
			}
			return l, nil
		},
	}
	sink := &sinkmock.Sink{}
	tx := &uowmock.UoW{Repos: uow.Repos{Loans: repo, LenderRepayments: &loanmock.LenderRepaymentRepo{}}}
	uc := NewUsecase(tx, sink).WithClock(func() time.Time { return testNow })
	return uc, repo, sink
}

func TestAddFunding_Partial(t *testing.T) {
	l := approvedLoan(1000)
	uc, _, sink := setup(l)

	dto, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lenderID, Amount: 400})
	if err != nil {
		t.Fatalf("AddFunding: %v", err)
	}
	if dto.LoanStatus != string(domain.StatusApproved) {
		t.Fatalf("status = %s", dto.LoanStatus)
	}
	if dto.TotalFunded != 400 || dto.Remaining != 600 {
		t.Fatalf("ledger: %+v", dto)
	}
	if len(sink.Events) != 0 {
		t.Fatalf("no crossing yet, but events: %v", sink.Types())
	}
}

func TestAddFunding_ExactFillCrossesInSameCommit(t *testing.T) {
	l := approvedLoan(1000)
	uc, _, sink := setup(l)

	dto, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lenderID, Amount: 1000})
	if err != nil {
		t.Fatalf("AddFunding: %v", err)
	}
	if dto.LoanStatus != string(domain.StatusFunded) || dto.Remaining != 0 {
		t.Fatalf("dto: %+v", dto)
	}
	if sink.CountByType(domain.EventLoanFunded) != 1 {
		t.Fatalf("events: %v", sink.Types())
	}

	// funded loan: any further request exceeds remaining=0
	_, err = uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lender2, Amount: 1})
	if !errors.Is(err, domain.ErrFundingExceedsRemaining) {
		t.Fatalf("second funding: %v", err)
	}
}

func TestAddFunding_RetriesOnConflict(t *testing.T) {
	l := approvedLoan(1000)
	uc, repo, _ := setup(l)

	saves := 0
	repo.SaveFn = func(ctx context.Context, saved *domain.Loan) error {
		saves++
		if saves <= 2 {
			// drop the in-memory append like a real conflict would
			saved.Fundings = nil
			return domain.ErrConcurrencyConflict
		}
		return nil
	}

	dto, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lenderID, Amount: 250})
	if err != nil {
		t.Fatalf("AddFunding after retries: %v", err)
	}
	if saves != 3 {
		t.Fatalf("saves = %d, want 3", saves)
	}
	if dto.TotalFunded != 250 {
		t.Fatalf("dto: %+v", dto)
	}
}

func TestAddFunding_GivesUpAfterBoundedRetries(t *testing.T) {
	l := approvedLoan(1000)
	uc, repo, _ := setup(l)

	saves := 0
	repo.SaveFn = func(ctx context.Context, saved *domain.Loan) error {
		saves++
		saved.Fundings = nil
		return domain.ErrConcurrencyConflict
	}

	_, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lenderID, Amount: 250})
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("err = %v", err)
	}
	if saves != maxConflictRetries+1 {
		t.Fatalf("saves = %d, want %d", saves, maxConflictRetries+1)
	}
}

func TestAddFunding_BusinessErrorsDoNotRetry(t *testing.T) {
	l := approvedLoan(1000)
	uc, repo, _ := setup(l)

	reads := 0
	inner := repo.GetByLoanIDFn
	repo.GetByLoanIDFn = func(ctx context.Context, id string) (*domain.Loan, error) {
		reads++
		return inner(ctx, id)
	}

	_, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: lenderID, Amount: 1500})
	if !errors.Is(err, domain.ErrFundingExceedsRemaining) {
		t.Fatalf("err = %v", err)
	}
	if reads != 1 {
		t.Fatalf("reads = %d, want 1 (no retry on business rejection)", reads)
	}
}

func TestAddFunding_InvalidLenderID(t *testing.T) {
	uc, _, _ := setup(approvedLoan(1000))
	_, err := uc.AddFunding(context.Background(), AddFundingInput{LoanID: loanID, LenderID: "nope", Amount: 10})
	if !errors.Is(err, domain.ErrInvalidLenderID) {
		t.Fatalf("err = %v, want ErrInvalidLenderID", err)
	}
}
