package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses form a small lifecycle:
// scheduled -> confirmed -> {in_progress -> completed | cancelled | no_show}.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// Booking duration bounds, in minutes.
const (
	MinDuration = 15
	MaxDuration = 240
)

// minCancelLead is how far ahead of the start an appointment can still
// be cancelled.
const minCancelLead = 2 * time.Hour

// Appointment occupies the half-open interval [StartTime, EndTime) on
// one doctor's calendar.
type Appointment struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patient_id"`
	DoctorID           uuid.UUID `json:"doctor_id"`
	StartTime          time.Time `json:"start_time"`
	Duration           int       `json:"duration"`
	Status             string    `json:"status"`
	Type               string    `json:"type,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EndTime is StartTime plus the booked duration.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Booked reports whether the appointment still occupies its slot.
func (a *Appointment) Booked() bool {
	return a.Status == StatusScheduled || a.Status == StatusConfirmed
}

// Slot is one bookable chunk of a doctor's day.
type Slot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"`
}

type CreateInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

type StatusInput struct {
	Status string `json:"status"`
}

// Filter narrows appointment listings.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      time.Time
	To        time.Time
}

// validTransitions is the full status transition table.
var validTransitions = map[string][]string{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether status may move from one state to the
// next. Terminal states admit no transitions.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
