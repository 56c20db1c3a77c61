package record

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses. Deleted is a soft state; rows are never removed.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

// Attachment is validated file metadata stored by value on a record.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
	URL  string `json:"url"`
}

// MedicalRecord is a clinical entry owned by a patient and authored by
// a doctor. The structured clinical fields are opaque maps; the backend
// stores them without interpreting their contents.
type MedicalRecord struct {
	ID             uuid.UUID              `json:"id"`
	PatientID      uuid.UUID              `json:"patient_id"`
	DoctorID       uuid.UUID              `json:"doctor_id"`
	AppointmentID  *uuid.UUID             `json:"appointment_id,omitempty"`
	CreatedBy      uuid.UUID              `json:"created_by"`
	Title          string                 `json:"title"`
	RecordType     string                 `json:"record_type,omitempty"`
	Diagnosis      string                 `json:"diagnosis,omitempty"`
	Treatment      string                 `json:"treatment,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Vitals         map[string]interface{} `json:"vitals,omitempty"`
	LabResults     map[string]interface{} `json:"lab_results,omitempty"`
	ImagingResults map[string]interface{} `json:"imaging_results,omitempty"`
	Attachments    []Attachment           `json:"attachments,omitempty"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type CreateInput struct {
	PatientID      uuid.UUID              `json:"patient_id"`
	DoctorID       uuid.UUID              `json:"doctor_id"`
	AppointmentID  *uuid.UUID             `json:"appointment_id"`
	Title          string                 `json:"title"`
	RecordType     string                 `json:"record_type"`
	Diagnosis      string                 `json:"diagnosis"`
	Treatment      string                 `json:"treatment"`
	Notes          string                 `json:"notes"`
	Vitals         map[string]interface{} `json:"vitals"`
	LabResults     map[string]interface{} `json:"lab_results"`
	ImagingResults map[string]interface{} `json:"imaging_results"`
	Attachments    []Attachment           `json:"attachments"`
}

type UpdateInput struct {
	Title          *string                `json:"title"`
	RecordType     *string                `json:"record_type"`
	Diagnosis      *string                `json:"diagnosis"`
	Treatment      *string                `json:"treatment"`
	Notes          *string                `json:"notes"`
	Vitals         map[string]interface{} `json:"vitals"`
	LabResults     map[string]interface{} `json:"lab_results"`
	ImagingResults map[string]interface{} `json:"imaging_results"`
	Attachments    []Attachment           `json:"attachments"`
	Status         *string                `json:"status"`
}

// Filter narrows record listings.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}
