package alert

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ambulink/ambulink/internal/platform/audit"
	"github.com/ambulink/ambulink/internal/platform/auth"
	"github.com/ambulink/ambulink/pkg/pagination"
)

type Handler struct {
	svc     *Service
	auditor *audit.Auditor
}

func NewHandler(svc *Service, auditor *audit.Auditor) *Handler {
	return &Handler{svc: svc, auditor: auditor}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/facilities/:id/alerts", h.ListUnacknowledged, auth.RequireRole(auth.RolePhysician, auth.RoleAdmin))
	api.POST("/alerts/:alertID/acknowledge", h.Acknowledge, auth.RequireRole(auth.RolePhysician, auth.RoleAdmin))
}

func (h *Handler) ListUnacknowledged(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListUnacknowledged(c.Request().Context(), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, c.Path()))
}

func (h *Handler) Acknowledge(c echo.Context) error {
	alertID := c.Param("alertID")
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)

	op := audit.Op{
		ActorID:      userID,
		Action:       audit.ActionWrite,
		ResourceType: "alert",
		ResourceID:   alertID,
		Origin:       c.RealIP(),
	}

	var result *Alert
	err := h.auditor.Record(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = h.svc.Acknowledge(ctx, alertID, userID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "alert not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
