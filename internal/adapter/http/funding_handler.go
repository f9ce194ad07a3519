package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"peerlend-backend/internal/usecase/funding"
)

type FundingHandler struct{ uc *funding.Usecase }

func NewFundingHandler(uc *funding.Usecase) *FundingHandler { return &FundingHandler{uc: uc} }

type addFundingReq struct {
	LenderID string  `json:"lender_id" validate:"required,hex32"`
	Amount   float64 `json:"amount"    validate:"required,gt=0,dec2"`
}

func (h *FundingHandler) AddFunding(c echo.Context) error {
	var req addFundingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.AddFunding(c.Request().Context(), funding.AddFundingInput{
		LoanID:   c.Param("loan_id"),
		LenderID: req.LenderID,
		Amount:   req.Amount,
	})
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusCreated, dto)
}
