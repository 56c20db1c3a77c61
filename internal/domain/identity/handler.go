package identity

import (
	"net/http"

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

// RegisterPublic mounts the unauthenticated auth endpoints.
func (h *Handler) RegisterPublic(g *echo.Group) {
	g.POST("/auth/register", h.register)
	g.POST("/auth/login", h.login)
}

// RegisterProtected mounts endpoints that require a valid token.
func (h *Handler) RegisterProtected(g *echo.Group) {
	g.POST("/auth/logout", h.logout)
	g.POST("/auth/change-password", h.changePassword)
	g.GET("/users/me", h.me)
	g.PUT("/users/me", h.updateMe)
	g.GET("/users", h.list, auth.RequireRole(authz.RoleAdmin))
}

func (h *Handler) register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, "user registered", u)
}

func (h *Handler) login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		// Login failures surface as 401, not the usual denied mapping.
		return echo.NewHTTPError(http.StatusUnauthorized, apperr.MessageOf(err))
	}
	return respond.OK(c, "login successful", res)
}

// logout is stateless: the token simply expires. The endpoint exists so
// the audit trail records the logout action.
func (h *Handler) logout(c echo.Context) error {
	return respond.NoContent(c)
}

func (h *Handler) changePassword(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var in ChangePasswordInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.svc.ChangePassword(c.Request().Context(), actor.UserID, in); err != nil {
		return err
	}
	return respond.OK(c, "password changed", nil)
}

func (h *Handler) me(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := h.svc.Get(c.Request().Context(), actor, actor.UserID)
	if err != nil {
		return err
	}
	return respond.OK(c, "user retrieved", u)
}

func (h *Handler) updateMe(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var in UpdateProfileInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), actor, actor.UserID, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "profile updated", u)
}

func (h *Handler) list(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	users, total, err := h.svc.List(c.Request().Context(), actor, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return respond.List(c, "users retrieved", users, total, pg)
}
