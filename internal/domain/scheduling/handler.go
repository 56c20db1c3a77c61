package scheduling

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/auth"
	"github.com/carelog/carelog/internal/platform/respond"
	"github.com/carelog/carelog/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/appointments", h.create)
	g.GET("/appointments", h.list)
	g.GET("/appointments/:id", h.get)
	g.GET("/appointments/doctor/:doctorId/availability", h.availability)
	g.PATCH("/appointments/:id/cancel", h.cancel)
	g.PATCH("/appointments/:id/status", h.updateStatus)
}

func (h *Handler) create(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	appt, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	return respond.Created(c, "appointment booked", appt)
}

func (h *Handler) get(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("id must be a valid UUID")
	}
	appt, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return respond.OK(c, "appointment retrieved", appt)
}

func (h *Handler) availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return apperr.Validation("doctorId must be a valid UUID")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return apperr.Validation("date must be formatted as YYYY-MM-DD")
	}

	slots, err := h.svc.Availability(c.Request().Context(), doctorID, date)
	if err != nil {
		return err
	}
	return respond.OK(c, "availability retrieved", slots)
}

func (h *Handler) cancel(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("id must be a valid UUID")
	}
	var in CancelInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	appt, err := h.svc.Cancel(c.Request().Context(), actor, id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "appointment cancelled", appt)
}

func (h *Handler) updateStatus(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("id must be a valid UUID")
	}
	var in StatusInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	appt, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "appointment status updated", appt)
}

func (h *Handler) list(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pg := pagination.FromContext(c)

	var f Filter
	f.Status = c.QueryParam("status")
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperr.Validation("from must be formatted as YYYY-MM-DD")
		}
		f.From = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperr.Validation("to must be formatted as YYYY-MM-DD")
		}
		f.To = t.AddDate(0, 0, 1)
	}

	appts, total, err := h.svc.List(c.Request().Context(), actor, f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return respond.List(c, "appointments retrieved", appts, total, pg)
}
