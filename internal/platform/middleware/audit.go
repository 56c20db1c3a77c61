package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/domain/audit"
	"github.com/carelog/carelog/internal/platform/auth"
)

// maxCapturedBody caps how much of a request body the audit trail will
// retain. Larger bodies are audited without request data.
const maxCapturedBody = 64 * 1024

// AuditRecorder persists a derived audit entry. The concrete recorder is
// audit.Service; tests provide their own.
type AuditRecorder interface {
	Record(d audit.Descriptor, actorID *uuid.UUID)
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(d audit.Descriptor, actorID *uuid.UUID)

func (f AuditRecorderFunc) Record(d audit.Descriptor, actorID *uuid.UUID) {
	f(d, actorID)
}

// Audit returns middleware that records every API request after its
// response is written. The handler always runs and the response is
// always sent; recording happens afterwards in a separate goroutine and
// cannot alter the request outcome.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			requestData := captureRequestBody(c)

			capture := &responseCapture{ResponseWriter: c.Response().Writer}
			c.Response().Writer = capture

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			d := audit.Descriptor{
				Method:      req.Method,
				Path:        path,
				StatusCode:  c.Response().Status,
				RequestData: requestData,
				IPAddress:   c.RealIP(),
				UserAgent:   req.UserAgent(),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				d.RequestID = rid
			}

			// Auth middleware runs inside next and rebinds the request,
			// so the actor must be read from the post-handler context.
			var actorID *uuid.UUID
			if actor, ok := auth.ActorFromContext(c.Request().Context()); ok {
				id := actor.UserID
				actorID = &id
				d.ActorRole = string(actor.Role)
			}

			d.Message, d.ItemCount = summarizeResponse(capture.body.Bytes())

			go recorder.Record(d, actorID)

			logger.Info().
				Str("request_id", d.RequestID).
				Str("method", d.Method).
				Str("path", d.Path).
				Int("status", d.StatusCode).
				Str("role", d.ActorRole).
				Msg("audited")

			return nil
		}
	}
}

func isAuditablePath(path string) bool {
	if strings.HasPrefix(path, "/api/v1/health") {
		return false
	}
	return strings.HasPrefix(path, "/api/v1/")
}

// captureRequestBody reads a JSON request body for the audit trail and
// restores it for the handler. Non-JSON and oversized bodies are skipped.
func captureRequestBody(c echo.Context) map[string]interface{} {
	req := c.Request()
	if req.Body == nil || req.Method == http.MethodGet || req.Method == http.MethodHead {
		return nil
	}
	if !strings.Contains(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxCapturedBody+1))
	if err != nil {
		return nil
	}
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))

	if len(raw) > maxCapturedBody {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}

// summarizeResponse pulls the envelope message and list item count out of
// a captured response body. Non-envelope bodies yield an empty summary.
func summarizeResponse(body []byte) (string, int) {
	if len(body) == 0 {
		return "", -1
	}
	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", -1
	}

	count := -1
	if len(env.Data) > 0 && env.Data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(env.Data, &items); err == nil {
			count = len(items)
		}
	}
	return env.Message, count
}

// responseCapture tees the response body so the audit trail can summarize
// it after the handler returns.
type responseCapture struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *responseCapture) Write(b []byte) (int, error) {
	if w.body.Len() < maxCapturedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseCapture) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseCapture) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
