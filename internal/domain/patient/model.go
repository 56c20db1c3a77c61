package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the medical profile linked 1:1 to a user account.
type Patient struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	BloodType        string     `json:"blood_type,omitempty"`
	Address          string     `json:"address,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	Allergies        []string   `json:"allergies,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CreateInput struct {
	UserID           uuid.UUID  `json:"user_id"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           string     `json:"gender"`
	BloodType        string     `json:"blood_type"`
	Address          string     `json:"address"`
	EmergencyContact string     `json:"emergency_contact"`
	Allergies        []string   `json:"allergies"`
}

type UpdateInput struct {
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           *string    `json:"gender"`
	BloodType        *string    `json:"blood_type"`
	Address          *string    `json:"address"`
	EmergencyContact *string    `json:"emergency_contact"`
	Allergies        []string   `json:"allergies"`
}

var validBloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}
