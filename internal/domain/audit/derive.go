package audit

import (
	"fmt"
	"net/http"
	"strings"
)

// Descriptor is what the audit middleware hands the recorder after a
// request completes: everything needed to derive an Entry, and nothing
// transport-specific.
type Descriptor struct {
	Method      string
	Path        string
	StatusCode  int
	ActorRole   string
	RequestData map[string]interface{}
	Message     string // response envelope message, if any
	ItemCount   int    // number of items in a list response, -1 when not a list
	IPAddress   string
	UserAgent   string
	RequestID   string
}

// redactedMarker replaces sensitive field values in stored request data.
const redactedMarker = "[REDACTED]"

var sensitiveFields = []string{"password", "token", "secret", "key", "ssn", "creditcard"}

var resourceTable = map[string]string{
	"users":           "user",
	"patients":        "patient",
	"doctors":         "doctor",
	"appointments":    "appointment",
	"medical-records": "medical_record",
	"patient-doctors": "patient_doctor_relationship",
	"auth":            "authentication",
	"upload":          "file_upload",
	"audit":           "audit_log",
}

// DeriveAction maps a request to its audit action. Auth paths take
// precedence over the HTTP verb.
func DeriveAction(method, path string) string {
	switch {
	case strings.Contains(path, "/auth/login"):
		return ActionLoginAttempt
	case strings.Contains(path, "/auth/logout"):
		return ActionLogout
	case strings.Contains(path, "/auth/register"):
		return ActionUserRegistration
	case strings.Contains(path, "/auth/change-password"):
		return ActionPasswordChange
	}

	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	}
	return ActionUnknown
}

// DeriveResource maps the first path segment after the API prefix to a
// resource name.
func DeriveResource(path string) string {
	seg := firstSegment(path)
	if r, ok := resourceTable[seg]; ok {
		return r
	}
	return ResourceUnknown
}

// DeriveCategory files the request under an audit category.
func DeriveCategory(action, path, actorRole string) string {
	if strings.Contains(path, "/auth") {
		return CategoryAuthentication
	}
	switch action {
	case ActionRead:
		if actorRole == "patient" {
			return CategoryDataAccess
		}
		return CategorySystem
	case ActionCreate, ActionUpdate, ActionDelete:
		return CategoryDataModification
	}
	return CategorySystem
}

// DeriveSeverity grades the request. The status code is the response
// status; failed logins and password changes are always high.
func DeriveSeverity(action string, statusCode int) string {
	if action == ActionLoginAttempt && statusCode >= 400 {
		return SeverityHigh
	}
	if action == ActionPasswordChange || action == ActionDelete {
		return SeverityHigh
	}
	if statusCode >= 500 {
		return SeverityCritical
	}
	if statusCode >= 400 {
		return SeverityMedium
	}
	return SeverityLow
}

// Describe builds the human-readable summary line.
func Describe(role, action, path string, statusCode int) string {
	if role == "" {
		role = "anonymous"
	}
	outcome := "successful"
	if statusCode >= 400 {
		outcome = fmt.Sprintf("failed with status %d", statusCode)
	}
	return fmt.Sprintf("%s performed %s on %s (%s)", role, action, path, outcome)
}

// SanitizeRequestData returns a copy of data with sensitive fields
// replaced by a redaction marker. Nested maps and arrays are walked;
// the input is never mutated.
func SanitizeRequestData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSensitiveField(k) {
			out[k] = redactedMarker
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return SanitizeRequestData(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// ResponseSummary reduces a response to the only fields the audit trail
// keeps: status, message, and item count. Full payloads are never stored.
func ResponseSummary(statusCode int, message string, itemCount int) map[string]interface{} {
	summary := map[string]interface{}{
		"status": statusCode,
	}
	if message != "" {
		summary["message"] = message
	}
	if itemCount >= 0 {
		summary["itemCount"] = itemCount
	}
	return summary
}

// FromDescriptor derives a complete Entry from a request descriptor.
func FromDescriptor(d Descriptor) Entry {
	action := DeriveAction(d.Method, d.Path)
	return Entry{
		ActorRole:       d.ActorRole,
		Action:          action,
		Resource:        DeriveResource(d.Path),
		Method:          d.Method,
		Path:            d.Path,
		StatusCode:      d.StatusCode,
		Success:         d.StatusCode < 400,
		Severity:        DeriveSeverity(action, d.StatusCode),
		Category:        DeriveCategory(action, d.Path, d.ActorRole),
		Description:     Describe(d.ActorRole, action, d.Path, d.StatusCode),
		RequestData:     SanitizeRequestData(d.RequestData),
		ResponseSummary: ResponseSummary(d.StatusCode, d.Message, d.ItemCount),
		IPAddress:       d.IPAddress,
		UserAgent:       d.UserAgent,
		RequestID:       d.RequestID,
	}
}

func firstSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
