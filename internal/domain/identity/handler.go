package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ambulink/ambulink/internal/platform/audit"
	"github.com/ambulink/ambulink/internal/platform/auth"
)

type Handler struct {
	svc     *Service
	jwtCfg  auth.JWTConfig
	auditor *audit.Auditor
}

func NewHandler(svc *Service, jwtCfg auth.JWTConfig, auditor *audit.Auditor) *Handler {
	return &Handler{svc: svc, jwtCfg: jwtCfg, auditor: auditor}
}

// RegisterRoutes mounts the unauthenticated login endpoint.
func (h *Handler) RegisterRoutes(authGroup *echo.Group) {
	authGroup.POST("/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	op := audit.Op{
		ActorID:      req.Username,
		Action:       audit.ActionWrite,
		ResourceType: "auth",
		Origin:       c.RealIP(),
	}

	var user *User
	err := h.auditor.Record(ctx, op, func(ctx context.Context) error {
		var err error
		user, err = h.svc.Authenticate(ctx, req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			return fmt.Errorf("login rejected: %w", audit.ErrDenied)
		}
		return err
	})
	if errors.Is(err, audit.ErrDenied) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, err := auth.IssueToken(h.jwtCfg, user.ID.String(), user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}
