package repayment

import (
	"context"
	"errors"
	"log"
	"time"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	loanuc "peerlend-backend/internal/usecase/loan"
)

const maxConflictRetries = 3

type PayInput struct {
	LoanID      string `json:"loan_id"`
	RepaymentID string `json:"repayment_id"`
	// Optional; defaults to now. RFC3339 in the HTTP layer.
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type AllocationDTO struct {
	LenderID string  `json:"lender_id"`
	Amount   float64 `json:"amount"`
}

type PaymentDTO struct {
	LoanID      string          `json:"loan_id"`
	RepaymentID string          `json:"repayment_id"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	PaidAt      time.Time       `json:"paid_at"`
	LoanStatus  string          `json:"loan_status"`
	Allocations []AllocationDTO `json:"allocations"`
}

type Usecase struct {
	repo loan.Repository
	uow  uow.UnitOfWork
	sink loan.EventSink
	now  func() time.Time
}

func NewUsecase(repo loan.Repository, tx uow.UnitOfWork, sink loan.EventSink) *Usecase {
	return &Usecase{repo: repo, uow: tx, sink: sink, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// Pay marks an installment paid and writes the lender allocation rows in
// the same commit; either both land or neither does. Completion of the
// last installment flips the loan to completed as part of the same save.
func (u *Usecase) Pay(ctx context.Context, in PayInput) (*PaymentDTO, error) {
	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		dto, events, err := u.tryPay(ctx, in)
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

func (u *Usecase) tryPay(ctx context.Context, in PayInput) (*PaymentDTO, []loan.Event, error) {
	var dto *PaymentDTO
	var events []loan.Event

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		paidAt := u.now()
		if in.PaidAt != nil {
			paidAt = in.PaidAt.UTC()
		}
		rep, slices, err := l.MarkRepaymentPaid(in.RepaymentID, paidAt)
		if err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.LenderRepayments.CreateBatch(ctx, slices); err != nil {
			return err
		}
		events = l.PullEvents()
		dto = &PaymentDTO{
			LoanID:      l.LoanID,
			RepaymentID: rep.RepaymentID,
			Amount:      rep.Amount.InexactFloat64(),
			Currency:    rep.Currency,
			PaidAt:      *rep.PaidAt,
			LoanStatus:  string(l.Status),
		}
		for _, s := range slices {
			dto.Allocations = append(dto.Allocations, AllocationDTO{
				LenderID: s.LenderID,
				Amount:   s.Amount.InexactFloat64(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dto, events, nil
}

// Schedule returns the installment plan for a loan.
func (u *Usecase) Schedule(ctx context.Context, loanID string) ([]loanuc.RepaymentDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]loanuc.RepaymentDTO, 0, len(l.Repayments))
	for _, rep := range l.Repayments {
		out = append(out, loanuc.RepaymentDTO{
			RepaymentID:       rep.RepaymentID,
			Sequence:          rep.Sequence,
			DueDate:           rep.DueDate,
			Amount:            rep.Amount.InexactFloat64(),
			Currency:          rep.Currency,
			IsPaid:            rep.IsPaid,
			PaidAt:            rep.PaidAt,
			OverdueNotifiedAt: rep.OverdueNotifiedAt,
		})
	}
	return out, nil
}

// Allocations returns the lender slices written for a paid installment.
func (u *Usecase) Allocations(ctx context.Context, loanID, repaymentID string) ([]AllocationDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	var repID uint64
	for i := range l.Repayments {
		if l.Repayments[i].RepaymentID == repaymentID {
			repID = l.Repayments[i].ID
			break
		}
	}
	if repID == 0 {
		return nil, loan.ErrRepaymentNotFound
	}

	var out []AllocationDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rows, err := r.LenderRepayments.ListByRepaymentID(ctx, repID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			out = append(out, AllocationDTO{LenderID: row.LenderID, Amount: row.Amount.InexactFloat64()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) publish(ctx context.Context, events []loan.Event) {
	if u.sink == nil || len(events) == 0 {
		return
	}
	if err := u.sink.Publish(ctx, events...); err != nil {
		log.Printf("repayment usecase: publish %d event(s) failed: %v", len(events), err)
	}
}
