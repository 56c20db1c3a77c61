package audit

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/auth"
	"github.com/carelog/carelog/internal/platform/authz"
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
	audit := g.Group("/audit", auth.RequireRole(authz.RoleAdmin))
	audit.GET("", h.list)
	audit.GET("/security-events", h.securityEvents)
	audit.GET("/failed-logins", h.failedLogins)
	audit.GET("/stats/overview", h.statsOverview)
}

func (h *Handler) list(c echo.Context) error {
	pg := pagination.FromContext(c)

	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return respond.List(c, "audit entries retrieved", items, total, pg)
}

func (h *Handler) securityEvents(c echo.Context) error {
	pg := pagination.FromContext(c)
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	items, total, err := h.svc.SecurityEvents(c.Request().Context(), from, to, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return respond.List(c, "security events retrieved", items, total, pg)
}

func (h *Handler) failedLogins(c echo.Context) error {
	pg := pagination.FromContext(c)
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	items, total, err := h.svc.FailedLogins(c.Request().Context(), from, to, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return respond.List(c, "failed login attempts retrieved", items, total, pg)
}

func (h *Handler) statsOverview(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.Validation("days must be an integer")
		}
		days = n
	}

	ov, err := h.svc.StatsOverview(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return respond.OK(c, "audit overview retrieved", ov)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter

	if raw := c.QueryParam("actorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation("actorId must be a valid UUID")
		}
		f.ActorID = &id
	}
	f.Action = c.QueryParam("action")
	f.Resource = c.QueryParam("resource")
	if raw := c.QueryParam("category"); raw != "" {
		f.Categories = []string{raw}
	}
	f.Severity = c.QueryParam("severity")
	if raw := c.QueryParam("success"); raw != "" {
		ok, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperr.Validation("success must be a boolean")
		}
		f.Success = &ok
	}

	from, to, err := dateRange(c)
	if err != nil {
		return f, err
	}
	f.From = from
	f.To = to
	return f, nil
}

// dateRange parses optional from/to query params as YYYY-MM-DD. The to
// bound is exclusive at the start of the following day.
func dateRange(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time

	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, apperr.Validation("from must be formatted as YYYY-MM-DD")
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, apperr.Validation("to must be formatted as YYYY-MM-DD")
		}
		to = t.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, apperr.Validation("to must not be before from")
	}
	return from, to, nil
}
