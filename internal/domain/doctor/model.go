package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is the professional profile linked 1:1 to a user account. The
// availability fields drive slot generation: AvailableDays holds
// lowercase weekday names and the hours are wall-clock "HH:MM" strings.
type Doctor struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"user_id"`
	Specialization       string    `json:"specialization"`
	LicenseNumber        string    `json:"license_number"`
	AvailableDays        []string  `json:"available_days"`
	AvailableHoursStart  string    `json:"available_hours_start"`
	AvailableHoursEnd    string    `json:"available_hours_end"`
	ConsultationDuration int       `json:"consultation_duration"`
	ConsultationFee      float64   `json:"consultation_fee,omitempty"`
	Bio                  string    `json:"bio,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type CreateInput struct {
	UserID               uuid.UUID `json:"user_id"`
	Specialization       string    `json:"specialization"`
	LicenseNumber        string    `json:"license_number"`
	AvailableDays        []string  `json:"available_days"`
	AvailableHoursStart  string    `json:"available_hours_start"`
	AvailableHoursEnd    string    `json:"available_hours_end"`
	ConsultationDuration int       `json:"consultation_duration"`
	ConsultationFee      float64   `json:"consultation_fee"`
	Bio                  string    `json:"bio"`
}

type UpdateInput struct {
	Specialization       *string  `json:"specialization"`
	AvailableDays        []string `json:"available_days"`
	AvailableHoursStart  *string  `json:"available_hours_start"`
	AvailableHoursEnd    *string  `json:"available_hours_end"`
	ConsultationDuration *int     `json:"consultation_duration"`
	ConsultationFee      *float64 `json:"consultation_fee"`
	Bio                  *string  `json:"bio"`
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}
