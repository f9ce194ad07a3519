package loan

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("loan not found")
	ErrRepaymentNotFound       = errors.New("repayment not found")
	ErrInvalidTransition       = errors.New("invalid loan state transition")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidLenderID         = errors.New("invalid lender id")
	ErrFundingExceedsRemaining = errors.New("funding exceeds remaining principal")
	ErrAlreadyPaid             = errors.New("repayment already paid")
	ErrScheduleAlreadyExists   = errors.New("repayment schedule already exists")
	ErrConcurrencyConflict     = errors.New("loan was modified concurrently")
)

// invalidTransition names the current state and the attempted one.
func invalidTransition(from Status, attempted Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, attempted)
}
