package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail.
const (
	ActionLoginAttempt     = "login_attempt"
	ActionLogout           = "logout"
	ActionUserRegistration = "user_registration"
	ActionPasswordChange   = "password_change"
	ActionRead             = "read"
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionUnknown          = "unknown"
)

// ResourceUnknown is recorded for paths outside the resource table.
const ResourceUnknown = "unknown"

// Categories an entry is filed under.
const (
	CategoryAuthentication   = "authentication"
	CategoryAuthorization    = "authorization"
	CategoryDataAccess       = "data_access"
	CategoryDataModification = "data_modification"
	CategorySecurity         = "security"
	CategorySystem           = "system"
)

// Severity levels.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Entry is one append-only audit fact about a completed request. Entries
// are never updated after creation; the actor reference is nullable so
// entries outlive deleted accounts.
type Entry struct {
	ID              uuid.UUID              `json:"id"`
	ActorID         *uuid.UUID             `json:"actor_id,omitempty"`
	ActorRole       string                 `json:"actor_role,omitempty"`
	Action          string                 `json:"action"`
	Resource        string                 `json:"resource"`
	ResourceID      *uuid.UUID             `json:"resource_id,omitempty"`
	Method          string                 `json:"method"`
	Path            string                 `json:"path"`
	StatusCode      int                    `json:"status_code"`
	Success         bool                   `json:"success"`
	Severity        string                 `json:"severity"`
	Category        string                 `json:"category"`
	Description     string                 `json:"description"`
	RequestData     map[string]interface{} `json:"request_data,omitempty"`
	ResponseSummary map[string]interface{} `json:"response_summary,omitempty"`
	IPAddress       string                 `json:"ip_address,omitempty"`
	UserAgent       string                 `json:"user_agent,omitempty"`
	RequestID       string                 `json:"request_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Filter narrows audit queries. Zero-value fields are ignored.
type Filter struct {
	ActorID    *uuid.UUID
	Action     string
	Resource   string
	Categories []string
	Severity   string
	Success    *bool
	From       time.Time
	To         time.Time
}

// Overview aggregates entries over a trailing window.
type Overview struct {
	Days       int              `json:"days"`
	Total      int              `json:"total"`
	ByCategory map[string]int   `json:"by_category"`
	BySeverity map[string]int   `json:"by_severity"`
	ByAction   map[string]int   `json:"by_action"`
	ByResource map[string]int   `json:"by_resource"`
	Daily      []DailyCount     `json:"daily"`
}

// DailyCount is one bucket of the overview time series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
