package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"peerlend-backend/internal/usecase/sweep"
)

// SweepHandler triggers the overdue sweep on demand; the cron worker in
// cmd/sweeper covers the scheduled case. The sweep is idempotent so an
// accidental double trigger is harmless.
type SweepHandler struct{ uc *sweep.Usecase }

func NewSweepHandler(uc *sweep.Usecase) *SweepHandler { return &SweepHandler{uc: uc} }

func (h *SweepHandler) RunOverdueSweep(c echo.Context) error {
	asOf := time.Now().UTC()
	if raw := c.QueryParam("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "as_of must be RFC3339"})
		}
		asOf = t.UTC()
	}
	res, err := h.uc.Run(c.Request().Context(), asOf)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "sweep failed"})
	}
	return c.JSON(http.StatusOK, res)
}
