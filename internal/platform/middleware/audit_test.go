package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/domain/audit"
	"github.com/carelog/carelog/internal/platform/auth"
	"github.com/carelog/carelog/internal/platform/authz"
)

// stubRecorder collects descriptors and signals when a record lands.
type stubRecorder struct {
	mu       sync.Mutex
	entries  []audit.Descriptor
	actorIDs []*uuid.UUID
	done     chan struct{}
	onRecord func()
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{done: make(chan struct{}, 8)}
}

func (s *stubRecorder) Record(d audit.Descriptor, actorID *uuid.UUID) {
	s.mu.Lock()
	s.entries = append(s.entries, d)
	s.actorIDs = append(s.actorIDs, actorID)
	if s.onRecord != nil {
		s.onRecord()
	}
	s.mu.Unlock()
	s.done <- struct{}{}
}

func (s *stubRecorder) wait(t *testing.T) audit.Descriptor {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

func (s *stubRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func runAudited(t *testing.T, recorder AuditRecorder, method, path, body, contentType string, actor *authz.Actor, handler echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	mw := Audit(zerolog.Nop(), recorder)
	return rec, mw(handler)(c)
}

func TestAuditCapturesRequestAndResponse(t *testing.T) {
	recorder := newStubRecorder()
	actor := authz.Actor{UserID: uuid.New(), Role: authz.RoleDoctor}

	var handlerBody string
	rec, err := runAudited(t, recorder, http.MethodPost, "/api/v1/patients",
		`{"first_name":"Ada","password":"hunter2"}`, echo.MIMEApplicationJSON, &actor,
		func(c echo.Context) error {
			raw, _ := io.ReadAll(c.Request().Body)
			handlerBody = string(raw)
			return c.JSON(http.StatusCreated, map[string]interface{}{
				"status":  "success",
				"message": "patient created",
				"data":    map[string]string{"id": "1"},
			})
		})
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	// The handler must see the full body even though it was captured.
	if !strings.Contains(handlerBody, "hunter2") {
		t.Errorf("handler body = %q, capture consumed the request", handlerBody)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	d := recorder.wait(t)
	if d.Method != http.MethodPost || d.Path != "/api/v1/patients" {
		t.Errorf("descriptor route = %s %s", d.Method, d.Path)
	}
	if d.StatusCode != http.StatusCreated {
		t.Errorf("descriptor status = %d, want 201", d.StatusCode)
	}
	if d.RequestData["first_name"] != "Ada" {
		t.Errorf("request data = %v, want captured body", d.RequestData)
	}
	if d.Message != "patient created" {
		t.Errorf("message = %q, want envelope message", d.Message)
	}
	if d.ActorRole != string(authz.RoleDoctor) {
		t.Errorf("actor role = %q, want doctor", d.ActorRole)
	}

	recorder.mu.Lock()
	actorID := recorder.actorIDs[len(recorder.actorIDs)-1]
	recorder.mu.Unlock()
	if actorID == nil || *actorID != actor.UserID {
		t.Errorf("actor id = %v, want %s", actorID, actor.UserID)
	}

	// Captured request data stays redactable downstream.
	entry := audit.FromDescriptor(d)
	if entry.RequestData["password"] != "[REDACTED]" {
		t.Errorf("derived request data = %v, want password redacted", entry.RequestData)
	}
}

func TestAuditCountsListResponses(t *testing.T) {
	recorder := newStubRecorder()
	_, err := runAudited(t, recorder, http.MethodGet, "/api/v1/doctors", "", "", nil,
		func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"status":  "success",
				"message": "doctors retrieved",
				"data":    []map[string]string{{"id": "1"}, {"id": "2"}, {"id": "3"}},
			})
		})
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	d := recorder.wait(t)
	if d.ItemCount != 3 {
		t.Errorf("item count = %d, want 3", d.ItemCount)
	}
}

func TestAuditResponseSentBeforeRecord(t *testing.T) {
	recorder := newStubRecorder()
	var bodyLenAtRecord int

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	recorder.onRecord = func() {
		bodyLenAtRecord = rec.Body.Len()
	}

	mw := Audit(zerolog.Nop(), recorder)
	err := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "success"})
	})(c)
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	recorder.wait(t)
	if bodyLenAtRecord == 0 {
		t.Error("record fired before the response body was written")
	}
}

func TestAuditRecordsHandlerErrors(t *testing.T) {
	recorder := newStubRecorder()
	rec, err := runAudited(t, recorder, http.MethodGet, "/api/v1/patients/missing", "", "", nil,
		func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		})
	if err != nil {
		t.Fatalf("middleware should swallow handler errors after writing them, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	d := recorder.wait(t)
	if d.StatusCode != http.StatusNotFound {
		t.Errorf("descriptor status = %d, want 404", d.StatusCode)
	}
}

func TestAuditSkipsHealthAndNonAPIPaths(t *testing.T) {
	recorder := newStubRecorder()
	for _, path := range []string{"/api/v1/health", "/uploads/abc.png", "/metrics"} {
		_, err := runAudited(t, recorder, http.MethodGet, path, "", "", nil,
			func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
		if err != nil {
			t.Fatalf("middleware returned error for %s: %v", path, err)
		}
	}
	// Give any stray goroutine a moment to misfire.
	time.Sleep(50 * time.Millisecond)
	if n := recorder.count(); n != 0 {
		t.Errorf("recorded %d entries for unauditable paths, want 0", n)
	}
}

func TestAuditIgnoresNonJSONBodies(t *testing.T) {
	recorder := newStubRecorder()
	var handlerBody string
	_, err := runAudited(t, recorder, http.MethodPost, "/api/v1/upload",
		"rawbytes", "application/octet-stream", nil,
		func(c echo.Context) error {
			raw, _ := io.ReadAll(c.Request().Body)
			handlerBody = string(raw)
			return c.NoContent(http.StatusCreated)
		})
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if handlerBody != "rawbytes" {
		t.Errorf("handler body = %q, want untouched", handlerBody)
	}

	d := recorder.wait(t)
	if d.RequestData != nil {
		t.Errorf("request data = %v, want nil for non-JSON body", d.RequestData)
	}
}

func TestAuditSlowRecorderDoesNotDelayResponse(t *testing.T) {
	recorder := newStubRecorder()
	release := make(chan struct{})
	recorder.onRecord = func() {
		<-release
	}

	rec, err := runAudited(t, recorder, http.MethodGet, "/api/v1/doctors", "", "", nil,
		func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "success"})
		})
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	// The middleware already returned; the recorder is still blocked.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	close(release)
	recorder.wait(t)
}
