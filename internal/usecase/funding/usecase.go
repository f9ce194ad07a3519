package funding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/money"
	"peerlend-backend/internal/domain/uow"
)

// maxConflictRetries bounds the re-read/reapply loop on version
// conflicts; two funders racing for the last slot resolve within one
// retry, anything past this is contention worth surfacing.
const maxConflictRetries = 3

type AddFundingInput struct {
	LoanID   string  `json:"loan_id"`
	LenderID string  `json:"lender_id"`
	Amount   float64 `json:"amount"`
}

type FundingDTO struct {
	FundingID   string    `json:"funding_id"`
	LoanID      string    `json:"loan_id"`
	LenderID    string    `json:"lender_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	FundedAt    time.Time `json:"funded_at"`
	LoanStatus  string    `json:"loan_status"`
	TotalFunded float64   `json:"total_funded"`
	Remaining   float64   `json:"remaining"`
}

type Usecase struct {
	uow  uow.UnitOfWork
	sink loan.EventSink
	now  func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, sink loan.EventSink) *Usecase {
	return &Usecase{uow: tx, sink: sink, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// AddFunding appends a lender contribution. The full-funding crossing is
// evaluated inside the same transaction as the append; the version CAS on
// Save turns the "two funders, one slot" race into a ConcurrencyConflict,
// which we resolve here by re-reading and reapplying a bounded number of
// times.
func (u *Usecase) AddFunding(ctx context.Context, in AddFundingInput) (*FundingDTO, error) {
	if len(in.LenderID) != 32 {
		return nil, fmt.Errorf("%w: must be 32 chars, got %d", loan.ErrInvalidLenderID, len(in.LenderID))
	}

	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		dto, events, err := u.tryAddFunding(ctx, in)
		if errors.Is(err, loan.ErrConcurrencyConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		u.publish(ctx, events)
		return dto, nil
	}
	return nil, lastErr
}

func (u *Usecase) tryAddFunding(ctx context.Context, in AddFundingInput) (*FundingDTO, []loan.Event, error) {
	var dto *FundingDTO
	var events []loan.Event

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		amount, err := money.NewFromFloat(in.Amount, l.Currency)
		if err != nil {
			return err
		}
		f, err := l.AddFunding(in.LenderID, amount, u.now())
		if err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		events = l.PullEvents()
		dto = &FundingDTO{
			FundingID:   f.FundingID,
			LoanID:      l.LoanID,
			LenderID:    f.LenderID,
			Amount:      f.Amount.InexactFloat64(),
			Currency:    f.Currency,
			FundedAt:    f.FundedAt,
			LoanStatus:  string(l.Status),
			TotalFunded: l.TotalFunded().InexactFloat64(),
			Remaining:   l.Remaining().InexactFloat64(),
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dto, events, nil
}

func (u *Usecase) publish(ctx context.Context, events []loan.Event) {
	if u.sink == nil || len(events) == 0 {
		return
	}
	if err := u.sink.Publish(ctx, events...); err != nil {
		log.Printf("funding usecase: publish %d event(s) failed: %v", len(events), err)
	}
}
