package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"peerlend-backend/internal/domain/money"
	"peerlend-backend/pkg/id"
)

// Approve: pending -> approved. Assigns the risk level decided by the
// external policy and pins the agreement document.
func (l *Loan) Approve(riskLevel RiskLevel, agreementLink string, now time.Time) error {
	if l.Status != StatusPending {
		return invalidTransition(l.Status, StatusApproved)
	}
	l.Status = StatusApproved
	l.RiskLevel = riskLevel
	l.AgreementLink = agreementLink
	at := now.UTC()
	l.ApprovedAt = &at
	l.record(EventLoanApproved, at, map[string]string{"risk_level": string(riskLevel)})
	return nil
}

// Reject: pending -> rejected (terminal).
func (l *Loan) Reject(reason string, now time.Time) error {
	if l.Status != StatusPending {
		return invalidTransition(l.Status, StatusRejected)
	}
	if len(reason) > maxRejectionReasonLen {
		return fmt.Errorf("rejection reason exceeds %d chars", maxRejectionReasonLen)
	}
	l.Status = StatusRejected
	l.RejectionReason = reason
	at := now.UTC()
	l.RejectedAt = &at
	l.record(EventLoanRejected, at, map[string]string{"reason": reason})
	return nil
}

// Cancel: terminal escape hatch, legal only pre-funding. A loan with any
// funding recorded must proceed (no refund mechanism exists).
func (l *Loan) Cancel(now time.Time) error {
	if l.Status != StatusPending && l.Status != StatusApproved {
		return invalidTransition(l.Status, StatusCancelled)
	}
	if len(l.Fundings) > 0 {
		return invalidTransition(l.Status, StatusCancelled)
	}
	l.Status = StatusCancelled
	at := now.UTC()
	l.CancelledAt = &at
	l.record(EventLoanCancelled, at, nil)
	return nil
}

// TotalFunded is the sum of all funding amounts recorded so far.
func (l *Loan) TotalFunded() decimal.Decimal {
	total := decimal.Zero
	for _, f := range l.Fundings {
		total = total.Add(f.Amount)
	}
	return total
}

// Remaining is principal minus total funded, clamped at zero for display.
// The append-time invariant keeps it from ever going negative.
func (l *Loan) Remaining() decimal.Decimal {
	rem := l.Principal.Sub(l.TotalFunded())
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

func (l *Loan) IsFullyFunded() bool {
	return l.TotalFunded().GreaterThanOrEqual(l.Principal)
}

// AddFunding appends a contribution and, when the total crosses the
// principal, flips approved -> funded in the same mutation. Amounts that
// would overshoot are rejected outright rather than clamped, so ledger
// rows always mean exactly what the lender intended.
func (l *Loan) AddFunding(lenderID string, amount money.Money, now time.Time) (*Funding, error) {
	if l.Status != StatusApproved && l.Status != StatusFunded {
		return nil, invalidTransition(l.Status, StatusFunded)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: funding must be positive, got %s", ErrInvalidAmount, amount)
	}
	if amount.Currency() != l.Currency {
		return nil, fmt.Errorf("%w: loan is %s, funding is %s", money.ErrCurrencyMismatch, l.Currency, amount.Currency())
	}
	remaining := l.Remaining()
	if amount.Amount().GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: remaining %s, requested %s", ErrFundingExceedsRemaining, remaining, amount.Amount())
	}

	at := now.UTC()
	f := Funding{
		FundingID: id.NewID32(),
		LoanID:    l.ID,
		LenderID:  lenderID,
		Amount:    amount.Amount(),
		Currency:  l.Currency,
		FundedAt:  at,
	}
	l.Fundings = append(l.Fundings, f)

	if l.Status == StatusApproved && l.IsFullyFunded() {
		l.Status = StatusFunded
		l.record(EventLoanFunded, at, map[string]string{"total_funded": l.TotalFunded().StringFixed(2)})
	}
	return &l.Fundings[len(l.Fundings)-1], nil
}

// Disburse: funded -> disbursed. Generates the repayment schedule as one
// all-or-nothing batch; double-disbursement trips ScheduleAlreadyExists.
func (l *Loan) Disburse(now time.Time) error {
	if l.Status != StatusFunded {
		return invalidTransition(l.Status, StatusDisbursed)
	}
	if len(l.Repayments) > 0 {
		return ErrScheduleAlreadyExists
	}
	// Every installment must carry at least one minor unit.
	if l.Principal.LessThan(decimal.New(int64(l.DurationMonths), -2)) {
		return fmt.Errorf("%w: principal %s cannot cover %d installments", ErrInvalidAmount, l.Principal.StringFixed(2), l.DurationMonths)
	}
	at := now.UTC()
	l.Repayments = buildSchedule(l.ID, l.Principal, l.Currency, l.DurationMonths, at)
	l.Status = StatusDisbursed
	l.DisbursedAt = &at
	l.record(EventLoanDisbursed, at, map[string]string{"installments": fmt.Sprint(len(l.Repayments))})
	return nil
}

// MarkRepaymentPaid marks one installment paid, allocates the amount to
// lenders by funding share, and auto-completes the loan once the last
// installment is settled. Caller persists the returned slices in the same
// commit as the aggregate.
func (l *Loan) MarkRepaymentPaid(repaymentID string, paidAt time.Time) (*Repayment, []LenderRepayment, error) {
	if l.Status != StatusDisbursed {
		return nil, nil, invalidTransition(l.Status, StatusCompleted)
	}
	idx := -1
	for i := range l.Repayments {
		if l.Repayments[i].RepaymentID == repaymentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, ErrRepaymentNotFound
	}
	rep := &l.Repayments[idx]
	if rep.IsPaid {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, repaymentID)
	}

	at := paidAt.UTC()
	rep.IsPaid = true
	rep.PaidAt = &at
	slices := allocate(l.ID, rep.ID, rep.Amount, l.Fundings)
	l.record(EventRepaymentPaid, at, map[string]string{
		"repayment_id": rep.RepaymentID,
		"amount":       rep.Amount.StringFixed(2),
	})

	if l.allPaid() {
		l.Status = StatusCompleted
		l.CompletedAt = &at
		l.record(EventLoanCompleted, at, nil)
	}
	return rep, slices, nil
}

func (l *Loan) allPaid() bool {
	for i := range l.Repayments {
		if !l.Repayments[i].IsPaid {
			return false
		}
	}
	return len(l.Repayments) > 0
}

// MarkOverdue stamps every unpaid, past-due, not-yet-notified installment
// exactly once. It never touches IsPaid or Loan.Status, so re-running is
// safe. Returns scanned/newly/already/paid counts for the sweep report.
func (l *Loan) MarkOverdue(asOf time.Time) (scanned, newly, already, paid int) {
	at := asOf.UTC()
	for i := range l.Repayments {
		rep := &l.Repayments[i]
		scanned++
		switch {
		case rep.IsPaid:
			paid++
		case !rep.DueDate.Before(at):
			// not due yet
		case rep.OverdueNotifiedAt != nil:
			already++
		default:
			rep.OverdueNotifiedAt = &at
			newly++
			l.record(EventRepaymentOverdue, at, map[string]string{
				"repayment_id": rep.RepaymentID,
				"due_date":     rep.DueDate.Format(time.RFC3339),
			})
		}
	}
	return scanned, newly, already, paid
}
