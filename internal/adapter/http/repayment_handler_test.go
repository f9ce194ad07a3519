package http

import (
	"context"
	"net/http"
	"testing"

	domain "peerlend-backend/internal/domain/loan"
	"peerlend-backend/internal/domain/uow"
	"peerlend-backend/internal/testutil/loanmock"
	"peerlend-backend/internal/testutil/sinkmock"
	"peerlend-backend/internal/testutil/uowmock"
	repaymentuc "peerlend-backend/internal/usecase/repayment"
)

func repaymentRoutes(l *domain.Loan) *RepaymentHandler {
	repo := &loanmock.Repo{
		GetByLoanIDFn: func(ctx context.Context, id string) (*domain.Loan, error) {
			if l == nil || id != l.LoanID {
				return nil, domain.ErrNotFound
			}
			return l, nil
		},
	}
	tx := &uowmock.UoW{Repos: uow.Repos{Loans: repo, LenderRepayments: &loanmock.LenderRepaymentRepo{}}}
	return NewRepaymentHandler(repaymentuc.NewUsecase(repo, tx, &sinkmock.Sink{}))
}

func TestGetSchedule(t *testing.T) {
	l := disbursedLoan(t)
	h := repaymentRoutes(l)
	e := newEcho()
	e.GET("/loans/:loan_id/schedule", h.GetSchedule)

	rec := doJSON(t, e, http.MethodGet, "/loans/"+testLoanID+"/schedule", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		LoanID     string                 `json:"loan_id"`
		Repayments []struct{ Amount float64 } `json:"repayments"`
	}
	decodeBody(t, rec, &body)
	if body.LoanID != testLoanID || len(body.Repayments) != 4 {
		t.Fatalf("body: %+v", body)
	}
	if body.Repayments[0].Amount != 2250 {
		t.Fatalf("installment amount: %v", body.Repayments[0].Amount)
	}
}

func TestPayRepayment_OK(t *testing.T) {
	l := disbursedLoan(t)
	h := repaymentRoutes(l)
	e := newEcho()
	e.POST("/loans/:loan_id/repayments/:repayment_id/pay", h.PayRepayment)

	repID := l.Repayments[0].RepaymentID
	rec := doJSON(t, e, http.MethodPost,
		"/loans/"+testLoanID+"/repayments/"+repID+"/pay", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var dto repaymentuc.PaymentDTO
	decodeBody(t, rec, &dto)
	if dto.RepaymentID != repID || dto.Amount != 2250 {
		t.Fatalf("dto: %+v", dto)
	}
	if len(dto.Allocations) != 1 || dto.Allocations[0].Amount != 2250 {
		t.Fatalf("allocations: %+v", dto.Allocations)
	}
}

func TestPayRepayment_TwiceIsConflict(t *testing.T) {
	l := disbursedLoan(t)
	h := repaymentRoutes(l)
	e := newEcho()
	e.POST("/loans/:loan_id/repayments/:repayment_id/pay", h.PayRepayment)

	repID := l.Repayments[0].RepaymentID
	path := "/loans/" + testLoanID + "/repayments/" + repID + "/pay"
	if rec := doJSON(t, e, http.MethodPost, path, `{}`); rec.Code != http.StatusOK {
		t.Fatalf("first pay: %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodPost, path, `{}`); rec.Code != http.StatusConflict {
		t.Fatalf("second pay: code = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestPayRepayment_BadPaidAt(t *testing.T) {
	h := repaymentRoutes(disbursedLoan(t))
	e := newEcho()
	e.POST("/loans/:loan_id/repayments/:repayment_id/pay", h.PayRepayment)

	rec := doJSON(t, e, http.MethodPost,
		"/loans/"+testLoanID+"/repayments/whatever/pay", `{"paid_at":"yesterday"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestGetAllocations_UnknownRepayment(t *testing.T) {
	h := repaymentRoutes(disbursedLoan(t))
	e := newEcho()
	e.GET("/loans/:loan_id/repayments/:repayment_id/allocations", h.GetAllocations)

	rec := doJSON(t, e, http.MethodGet,
		"/loans/"+testLoanID+"/repayments/ffffffffffffffffffffffffffffffff/allocations", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
}
