package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"peerlend-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	BorrowerID     string  `json:"borrower_id"     validate:"required,hex32"`
	Principal      float64 `json:"principal"       validate:"required,gt=0,dec2"`
	Currency       string  `json:"currency"        validate:"required,currency3"`
	DurationMonths int     `json:"duration_months" validate:"required,gte=1,lte=360"`
	Purpose        string  `json:"purpose"         validate:"omitempty,oneof=education business home_improvement debt_consolidation medical other"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		BorrowerID:     req.BorrowerID,
		Principal:      req.Principal,
		Currency:       req.Currency,
		DurationMonths: req.DurationMonths,
		Purpose:        req.Purpose,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "approved" // marketplace default: loans open for funding
	}
	dtos, err := h.uc.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": status, "loans": dtos})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}

type approveLoanReq struct {
	RiskLevel     string `json:"risk_level"     validate:"required,oneof=low medium high"`
	AgreementLink string `json:"agreement_link" validate:"omitempty,url"`
}

func (h *LoanHandler) ApproveLoan(c echo.Context) error {
	var req approveLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Approve(c.Request().Context(), loan.ApproveInput{
		LoanID:        c.Param("loan_id"),
		RiskLevel:     req.RiskLevel,
		AgreementLink: req.AgreementLink,
	})
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectLoanReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *LoanHandler) RejectLoan(c echo.Context) error {
	var req rejectLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Reject(c.Request().Context(), loan.RejectInput{
		LoanID: c.Param("loan_id"),
		Reason: req.Reason,
	})
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) CancelLoan(c echo.Context) error {
	dto, err := h.uc.Cancel(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) DisburseLoan(c echo.Context) error {
	dto, err := h.uc.Disburse(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, dto)
}
