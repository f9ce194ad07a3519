package loan

import (
	"sort"

	"github.com/shopspring/decimal"
)

var cent = decimal.New(1, -2)

// allocate splits a paid installment across lenders in proportion to
// their share of the loan's total funding, using the largest-remainder
// method so the slices sum to the paid amount exactly. Ties on the
// fractional remainder go to the lower lender id. Lenders whose slice
// ends up at zero get no row.
func allocate(loanID, repaymentID uint64, amount decimal.Decimal, fundings []Funding) []LenderRepayment {
	if len(fundings) == 0 || !amount.IsPositive() {
		return nil
	}

	// A lender may have funded more than once; their stake is the sum.
	stakes := make(map[string]decimal.Decimal, len(fundings))
	total := decimal.Zero
	for _, f := range fundings {
		stakes[f.LenderID] = stakes[f.LenderID].Add(f.Amount)
		total = total.Add(f.Amount)
	}

	lenders := make([]string, 0, len(stakes))
	for lender := range stakes {
		lenders = append(lenders, lender)
	}
	sort.Strings(lenders)

	type slice struct {
		lender string
		trunc  decimal.Decimal
		frac   decimal.Decimal
	}
	slices := make([]slice, 0, len(lenders))
	granted := decimal.Zero
	for _, lender := range lenders {
		raw := amount.Mul(stakes[lender]).Div(total)
		trunc := raw.Truncate(2)
		slices = append(slices, slice{lender: lender, trunc: trunc, frac: raw.Sub(trunc)})
		granted = granted.Add(trunc)
	}

	// Hand the residual cents to the largest fractional remainders.
	residualCents := amount.Sub(granted).Div(cent).IntPart()
	order := make([]int, len(slices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return slices[order[a]].frac.GreaterThan(slices[order[b]].frac)
	})
	for i := int64(0); i < residualCents && int(i) < len(order); i++ {
		s := &slices[order[i]]
		s.trunc = s.trunc.Add(cent)
	}

	out := make([]LenderRepayment, 0, len(slices))
	for _, s := range slices {
		if !s.trunc.IsPositive() {
			continue
		}
		out = append(out, LenderRepayment{
			LoanID:      loanID,
			RepaymentID: repaymentID,
			LenderID:    s.lender,
			Amount:      s.trunc,
		})
	}
	return out
}
