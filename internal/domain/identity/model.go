package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/platform/authz"
)

// User is an account that can authenticate. Role decides which profile
// (patient or doctor) may hang off it; audit entries keep a nullable
// reference so they survive account deactivation.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProfileIDs are the patient/doctor profile ids linked to a user, when
// present. They ride inside the JWT so ownership checks need no lookup.
type ProfileIDs struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// LoginResult pairs the issued token with the authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
