package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"peerlend-backend/pkg/id"
)

// buildSchedule splits the principal into months equal installments
// rounded down to minor units; the last installment absorbs the residual
// so the schedule sums back to the principal exactly. Truncating keeps
// the residual non-negative, so no installment can go below zero.
func buildSchedule(loanID uint64, principal decimal.Decimal, currency string, months int, disbursedAt time.Time) []Repayment {
	each := principal.Div(decimal.NewFromInt(int64(months))).Truncate(2)
	out := make([]Repayment, 0, months)
	for i := 1; i <= months; i++ {
		amount := each
		if i == months {
			amount = principal.Sub(each.Mul(decimal.NewFromInt(int64(months - 1))))
		}
		out = append(out, Repayment{
			RepaymentID: id.NewID32(),
			LoanID:      loanID,
			Sequence:    i,
			DueDate:     addMonthsClamped(disbursedAt, i),
			Amount:      amount,
			Currency:    currency,
		})
	}
	return out
}

// addMonthsClamped keeps the day-of-month, clamping to the last valid day
// of short months (Jan 31 + 1 month = Feb 28/29, not Mar 2/3 as with
// time.AddDate's normalization).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()
	target := time.Date(y, m+time.Month(months), 1, h, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, h, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
