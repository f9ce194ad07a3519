package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeAmount   = errors.New("amount must not be negative")
)

// Money is an exact, currency-tagged amount. The zero value is unusable;
// construct via New/Zero. Every operation returns a fresh value.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewFromFloat rounds to 2 decimal places (currency minor units).
func NewFromFloat(amount float64, currency string) (Money, error) {
	return New(decimal.NewFromFloat(amount).Round(2), currency)
}

func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }

func (m Money) String() string { return m.amount.StringFixed(2) + " " + m.currency }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

// Sub fails if the result would go negative.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return New(m.amount.Sub(o.amount), m.currency)
}

// Mul scales by a decimal factor, rounded to 2 decimal places. A
// negative factor fails the non-negative invariant.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	return New(m.amount.Mul(factor).Round(2), m.currency)
}

// Div splits into n parts, rounded to 2 decimal places. Callers that
// need the parts to sum exactly assign the residual themselves.
func (m Money) Div(n int64) (Money, error) {
	if n <= 0 {
		return Money{}, fmt.Errorf("division by %d", n)
	}
	return New(m.amount.DivRound(decimal.NewFromInt(n), 2), m.currency)
}

func (m Money) Cmp(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	return m.amount.Cmp(o.amount), nil
}

func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}
