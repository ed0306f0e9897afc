package hospital

import (
	"context"
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
	api.GET("/facilities", h.List, auth.RequireRole(auth.RoleParamedic, auth.RolePhysician, auth.RoleAdmin))
	api.GET("/facilities/:id", h.Get, auth.RequireRole(auth.RoleParamedic, auth.RolePhysician, auth.RoleAdmin))
	api.POST("/facilities", h.Create, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, c.Path()))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "facility not found")
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) Create(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	op := audit.Op{
		ActorID:      auth.UserIDFromContext(ctx),
		Action:       audit.ActionWrite,
		ResourceType: "hospital",
		Origin:       c.RealIP(),
	}
	err := h.auditor.Record(ctx, op, func(ctx context.Context) error {
		return h.svc.Create(ctx, &hosp)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, hosp)
}
