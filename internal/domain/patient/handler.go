package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ambulink/ambulink/internal/platform/audit"
	"github.com/ambulink/ambulink/internal/platform/auth"
	"github.com/ambulink/ambulink/pkg/pagination"
)

// recordPreviewLimit bounds the note body returned on reads; the full note
// stays at rest until an export path needs it.
const recordPreviewLimit = 500

type Handler struct {
	svc     *Service
	auditor *audit.Auditor
}

func NewHandler(svc *Service, auditor *audit.Auditor) *Handler {
	return &Handler{svc: svc, auditor: auditor}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cases", h.ListCases, auth.RequireRole(auth.RolePhysician, auth.RoleAdmin))
	api.GET("/cases/:caseID", h.GetCase, auth.RequireRole(auth.RoleParamedic, auth.RolePhysician, auth.RoleAdmin))
	api.GET("/cases/:caseID/record", h.GetRecord, auth.RequireRole(auth.RolePhysician, auth.RoleAdmin))
	api.POST("/cases/:caseID/record/finalize", h.FinalizeRecord, auth.RequireRole(auth.RolePhysician, auth.RoleAdmin))
}

func (h *Handler) op(c echo.Context, action audit.Action, resourceType, resourceID string) audit.Op {
	return audit.Op{
		ActorID:      auth.UserIDFromContext(c.Request().Context()),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Origin:       c.RealIP(),
	}
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCases(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg, c.Path()))
}

func (h *Handler) GetCase(c echo.Context) error {
	caseID := c.Param("caseID")

	var result *Case
	err := h.auditor.Record(c.Request().Context(), h.op(c, audit.ActionRead, "patient", caseID),
		func(ctx context.Context) error {
			var err error
			result, err = h.svc.GetCase(ctx, caseID)
			return err
		})
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// recordView is the read shape of a clinical record. Content is rendered as
// a bounded preview string.
type recordView struct {
	RecordID      string  `json:"record_id"`
	CaseID        string  `json:"case_id"`
	Content       string  `json:"content"`
	ContentError  bool    `json:"content_error,omitempty"`
	GeneratedByAI bool    `json:"generated_by_ai"`
	Confidence    float64 `json:"confidence"`
	IsFinalized   bool    `json:"is_finalized"`
	FinalizedBy   *string `json:"finalized_by,omitempty"`
}

func newRecordView(rec *Record) recordView {
	content, err := json.Marshal(rec.Content)
	preview := string(content)
	if err != nil {
		preview = ""
	}
	if runes := []rune(preview); len(runes) > recordPreviewLimit {
		preview = string(runes[:recordPreviewLimit])
	}
	return recordView{
		RecordID:      rec.RecordID,
		CaseID:        rec.CaseID,
		Content:       preview,
		ContentError:  rec.ContentError,
		GeneratedByAI: rec.GeneratedByAI,
		Confidence:    rec.Confidence,
		IsFinalized:   rec.IsFinalized,
		FinalizedBy:   rec.FinalizedBy,
	}
}

func (h *Handler) GetRecord(c echo.Context) error {
	caseID := c.Param("caseID")

	var rec *Record
	err := h.auditor.Record(c.Request().Context(), h.op(c, audit.ActionRead, "patient_record", caseID),
		func(ctx context.Context) error {
			var err error
			rec, err = h.svc.GetRecordByCase(ctx, caseID)
			return err
		})
	if errors.Is(err, ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, newRecordView(rec))
}

func (h *Handler) FinalizeRecord(c echo.Context) error {
	caseID := c.Param("caseID")
	userID := auth.UserIDFromContext(c.Request().Context())

	var rec *Record
	err := h.auditor.Record(c.Request().Context(), h.op(c, audit.ActionWrite, "patient_record", caseID),
		func(ctx context.Context) error {
			var err error
			rec, err = h.svc.FinalizeRecord(ctx, caseID, userID)
			return err
		})
	if errors.Is(err, ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, newRecordView(rec))
}
