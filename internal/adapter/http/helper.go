package http

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/money"
	"peerlend-backend/internal/domain/risk"
)

// domainStatus maps typed domain failures to HTTP codes. Anything
// unrecognized is a 500; business rejections are all caller-recoverable.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, loan.ErrNotFound),
		errors.Is(err, loan.ErrRepaymentNotFound),
		errors.Is(err, risk.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, loan.ErrAlreadyPaid),
		errors.Is(err, loan.ErrScheduleAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, loan.ErrConcurrencyConflict):
		// retries already exhausted in the usecase
		return http.StatusConflict
	case errors.Is(err, loan.ErrFundingExceedsRemaining),
		errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, loan.ErrInvalidLenderID),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrNegativeAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ErrorResponse {
	if domainStatus(err) == http.StatusInternalServerError {
		return ErrorResponse{Error: "internal error"}
	}
	return ErrorResponse{Error: err.Error()}
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
