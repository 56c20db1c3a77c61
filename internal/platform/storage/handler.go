package storage

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/auth"
	"github.com/carelog/carelog/internal/platform/authz"
	"github.com/carelog/carelog/internal/platform/respond"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/upload", h.upload, auth.RequireRole(authz.RoleDoctor))
}

func (h *Handler) upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required")
	}

	src, err := file.Open()
	if err != nil {
		return apperr.Internal("open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(c.Request().Context(), file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return apperr.Validation("file exceeds the maximum allowed size")
		case errors.Is(err, ErrInvalidContentType):
			return apperr.Validation("content type is not allowed")
		case errors.Is(err, ErrMissingFileName):
			return apperr.Validation("file name is required")
		default:
			return apperr.Internal("store file", err)
		}
	}
	return respond.Created(c, "file uploaded", info)
}
