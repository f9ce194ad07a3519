package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"peerlend-backend/internal/domain/risk"
)

// RiskHandler exposes the borrower risk read model. Upsert is meant for
// the external risk-assessment collaborator, not the lending flows.
type RiskHandler struct{ repo risk.Repository }

func NewRiskHandler(repo risk.Repository) *RiskHandler { return &RiskHandler{repo: repo} }

func (h *RiskHandler) GetBorrowerRisk(c echo.Context) error {
	snap, err := h.repo.GetByBorrowerID(c.Request().Context(), c.Param("borrower_id"))
	if err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, snap)
}

type upsertRiskReq struct {
	CreditScore int    `json:"credit_score" validate:"required,gte=0,lte=1000"`
	RiskTier    string `json:"risk_tier"    validate:"required,oneof=low medium high"`
	KYCStatus   string `json:"kyc_status"   validate:"required,oneof=pending verified failed"`
	Flags       string `json:"flags"        validate:"omitempty,max=2000"`
}

func (h *RiskHandler) UpsertBorrowerRisk(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	if !reHex32.MatchString(borrowerID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid borrower_id"})
	}
	var req upsertRiskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	now := time.Now().UTC()
	snap := &risk.Snapshot{
		BorrowerID:  borrowerID,
		CreditScore: req.CreditScore,
		RiskTier:    req.RiskTier,
		KYCStatus:   risk.KYCStatus(req.KYCStatus),
		Flags:       req.Flags,
		LastScoreAt: now,
	}
	if snap.KYCStatus == risk.KYCVerified {
		snap.LastVerifiedAt = &now
	}
	if err := h.repo.Upsert(c.Request().Context(), snap); err != nil {
		return c.JSON(domainStatus(err), errorBody(err))
	}
	return c.JSON(http.StatusOK, snap)
}
