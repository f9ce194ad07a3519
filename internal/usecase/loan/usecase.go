package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/pkg/id"
)

var validPurposes = map[loan.Purpose]bool{
	loan.PurposeEducation:         true,
	loan.PurposeBusiness:          true,
	loan.PurposeHomeImprovement:   true,
	loan.PurposeDebtConsolidation: true,
	loan.PurposeMedical:           true,
	loan.PurposeOther:             true,
}

var validRiskLevels = map[loan.RiskLevel]bool{
	loan.RiskLow:    true,
	loan.RiskMedium: true,
	loan.RiskHigh:   true,
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

// WithClock overrides the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if len(in.BorrowerID) != 32 || in.Principal <= 0 || in.DurationMonths < 1 {
		return nil, errors.New("invalid input")
	}
	if len(in.Currency) != 3 {
		return nil, errors.New("invalid currency")
	}
	purpose := loan.Purpose(in.Purpose)
	if purpose == "" {
		purpose = loan.PurposeOther
	}
	if !validPurposes[purpose] {
		return nil, fmt.Errorf("invalid purpose %q", in.Purpose)
	}
	principal := decimal.NewFromFloat(in.Principal).Round(2)
	// Each installment must carry at least one minor unit, or the
	// schedule degenerates into zero-amount rows.
	if principal.LessThan(decimal.New(int64(in.DurationMonths), -2)) {
		return nil, fmt.Errorf("%w: principal %s cannot cover %d installments", loan.ErrInvalidAmount, principal.StringFixed(2), in.DurationMonths)
	}

	// Block if the borrower already has a pending loan.
	pending, err := u.repo.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("borrower %s already has a pending loan: %s", in.BorrowerID, pending.LoanID)
	case !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, loan.ErrNotFound):
		return nil, err
	}

	l := &loan.Loan{
		LoanID:         id.NewID32(),
		BorrowerID:     in.BorrowerID,
		Principal:      principal,
		Currency:       in.Currency,
		DurationMonths: in.DurationMonths,
		Purpose:        purpose,
		Status:         loan.StatusPending,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l, false), nil
}

var validStatuses = map[loan.Status]bool{
	loan.StatusPending:   true,
	loan.StatusApproved:  true,
	loan.StatusRejected:  true,
	loan.StatusFunded:    true,
	loan.StatusDisbursed: true,
	loan.StatusCompleted: true,
	loan.StatusCancelled: true,
}

// ListByStatus backs the marketplace browse view (approved loans open
// for funding) and the back-office queues.
func (u *Usecase) ListByStatus(ctx context.Context, status string) ([]*LoanDTO, error) {
	s := loan.Status(status)
	if !validStatuses[s] {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	loans, err := u.repo.ListByStatus(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]*LoanDTO, 0, len(loans))
	for _, l := range loans {
		out = append(out, toDTO(l, false))
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l, true), nil
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*LoanDTO, error) {
	level := loan.RiskLevel(in.RiskLevel)
	if !validRiskLevels[level] {
		return nil, fmt.Errorf("invalid risk level %q", in.RiskLevel)
	}
	return u.transition(ctx, in.LoanID, func(l *loan.Loan) error {
		return l.Approve(level, in.AgreementLink, u.now())
	})
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*LoanDTO, error) {
	return u.transition(ctx, in.LoanID, func(l *loan.Loan) error {
		return l.Reject(in.Reason, u.now())
	})
}

func (u *Usecase) Cancel(ctx context.Context, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, loanID, func(l *loan.Loan) error {
		return l.Cancel(u.now())
	})
}

// Disburse moves funded -> disbursed and persists the generated schedule
// in the same commit.
func (u *Usecase) Disburse(ctx context.Context, loanID string) (*LoanDTO, error) {
	return u.transition(ctx, loanID, func(l *loan.Loan) error {
		return l.Disburse(u.now())
	})
}

// transition loads the aggregate, applies fn, and saves; queued events go
// to the sink only after the commit succeeds.
func (u *Usecase) transition(ctx context.Context, loanID string, fn func(l *loan.Loan) error) (*LoanDTO, error) {
	var dto *LoanDTO
	var events []loan.Event

	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if err := fn(l); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		events = l.PullEvents()
		dto = toDTO(l, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, events)
	return dto, nil
}

func (u *Usecase) publish(ctx context.Context, events []loan.Event) {
	if u.sink == nil || len(events) == 0 {
		return
	}
	if err := u.sink.Publish(ctx, events...); err != nil {
		// The commit already happened; delivery is the sink's concern.
		log.Printf("loan usecase: publish %d event(s) failed: %v", len(events), err)
	}
}

func toDTO(l *loan.Loan, withChildren bool) *LoanDTO {
	dto := &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		Principal:       l.Principal.InexactFloat64(),
		Currency:        l.Currency,
		DurationMonths:  l.DurationMonths,
		Purpose:         string(l.Purpose),
		Status:          string(l.Status),
		RiskLevel:       string(l.RiskLevel),
		AgreementLink:   l.AgreementLink,
		RejectionReason: l.RejectionReason,
		TotalFunded:     l.TotalFunded().InexactFloat64(),
		Remaining:       l.Remaining().InexactFloat64(),
		ApprovedAt:      l.ApprovedAt,
		RejectedAt:      l.RejectedAt,
		DisbursedAt:     l.DisbursedAt,
		CancelledAt:     l.CancelledAt,
		CompletedAt:     l.CompletedAt,
		CreatedAt:       l.CreatedAt,
	}
	if !withChildren {
		return dto
	}
	for _, f := range l.Fundings {
		dto.Fundings = append(dto.Fundings, FundingDTO{
			FundingID: f.FundingID,
			LenderID:  f.LenderID,
			Amount:    f.Amount.InexactFloat64(),
			Currency:  f.Currency,
			FundedAt:  f.FundedAt,
		})
	}
	for _, rep := range l.Repayments {
		dto.Repayments = append(dto.Repayments, RepaymentDTO{
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
	return dto
}
