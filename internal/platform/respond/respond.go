// Package respond renders the standard response envelope:
// {status, message, data?, pagination?, errors?}.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/pkg/pagination"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Status     string             `json:"status"`
	Message    string             `json:"message"`
	Data       interface{}        `json:"data,omitempty"`
	Pagination *pagination.Meta   `json:"pagination,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Status: "success", Message: message, Data: data})
}

// List writes a 200 success envelope with pagination metadata.
func List(c echo.Context, message string, data interface{}, total int, pg pagination.Params) error {
	meta := pagination.NewMeta(total, pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, Envelope{Status: "success", Message: message, Data: data, Pagination: &meta})
}

// NoContent writes a 204 with no body.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// ErrorHandler returns an echo HTTPErrorHandler that maps typed
// application errors (and echo's own HTTPErrors) to the envelope.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := apperr.StatusOf(err)
		message := apperr.MessageOf(err)
		fields := apperr.FieldsOf(err)

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		env := Envelope{Status: "error", Message: message, Errors: fields}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, env)
	}
}
