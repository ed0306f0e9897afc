package intake

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ambulink/ambulink/internal/domain/patient"
	"github.com/ambulink/ambulink/internal/platform/audit"
	"github.com/ambulink/ambulink/internal/platform/auth"
)

type Handler struct {
	svc     *Service
	auditor *audit.Auditor
}

func NewHandler(svc *Service, auditor *audit.Auditor) *Handler {
	return &Handler{svc: svc, auditor: auditor}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/cases", h.CreateCase, auth.RequireRole(auth.RoleParamedic, auth.RoleAdmin))
	api.PUT("/cases/:caseID/vitals", h.UpdateVitals, auth.RequireRole(auth.RoleParamedic))
}

func (h *Handler) CreateCase(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	op := audit.Op{
		ActorID:      auth.UserIDFromContext(ctx),
		Action:       audit.ActionWrite,
		ResourceType: "patient",
		Origin:       c.RealIP(),
	}

	var out *Outcome
	err := h.auditor.Record(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = h.svc.Intake(ctx, &req)
		return err
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) UpdateVitals(c echo.Context) error {
	caseID := c.Param("caseID")

	var v patient.Vitals
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	op := audit.Op{
		ActorID:      auth.UserIDFromContext(ctx),
		Action:       audit.ActionWrite,
		ResourceType: "patient",
		ResourceID:   caseID,
		Origin:       c.RealIP(),
	}

	var updated *patient.Case
	err := h.auditor.Record(ctx, op, func(ctx context.Context) error {
		var err error
		updated, err = h.svc.UpdateVitals(ctx, caseID, v)
		return err
	})
	if errors.Is(err, patient.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
