package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"peerlend-backend/internal/usecase/repayment"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type payRepaymentReq struct {
	// Optional; RFC3339. Defaults to server time.
	PaidAt string `json:"paid_at" validate:"omitempty"`
}

func (h *RepaymentHandler) PayRepayment(c echo.Context) error {
	var req payRepaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	in := repayment.PayInput{
		LoanID:      c.Param("loan_id"),
		RepaymentID: c.Param("repayment_id"),
	}
	if req.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "paid_at must be RFC3339"})
		}
		in.PaidAt = &t
	}
	dto, err := h.uc.Pay(c.Request().Context(), in)
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RepaymentHandler) GetSchedule(c echo.Context) error {
	reps, err := h.uc.Schedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": c.Param("loan_id"), "repayments": reps})
}

func (h *RepaymentHandler) GetAllocations(c echo.Context) error {
	rows, err := h.uc.Allocations(c.Request().Context(), c.Param("loan_id"), c.Param("repayment_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"loan_id":      c.Param("loan_id"),
		"repayment_id": c.Param("repayment_id"),
		"allocations":  rows,
	})
}
