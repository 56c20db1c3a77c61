package relationship

import (
	"time"

	"github.com/google/uuid"
)

// Relationship statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusEnded    = "ended"
)

// Relationship types.
const (
	TypePrimary    = "primary"
	TypeSpecialist = "specialist"
	TypeConsultant = "consultant"
)

// Relationship links a patient to a doctor with semantic attributes. At
// most one relationship exists per (patient, doctor, type) tuple.
type Relationship struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	DoctorID         uuid.UUID  `json:"doctor_id"`
	RelationshipType string     `json:"relationship_type"`
	Status           string     `json:"status"`
	Priority         int        `json:"priority"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CreateInput struct {
	PatientID        uuid.UUID  `json:"patient_id"`
	DoctorID         uuid.UUID  `json:"doctor_id"`
	RelationshipType string     `json:"relationship_type"`
	Priority         int        `json:"priority"`
	StartDate        *time.Time `json:"start_date"`
	Notes            string     `json:"notes"`
}

type UpdateInput struct {
	Status   *string    `json:"status"`
	Priority *int       `json:"priority"`
	EndDate  *time.Time `json:"end_date"`
	Notes    *string    `json:"notes"`
}

// Filter narrows relationship listings.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}

func validType(t string) bool {
	switch t {
	case TypePrimary, TypeSpecialist, TypeConsultant:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusEnded:
		return true
	}
	return false
}
