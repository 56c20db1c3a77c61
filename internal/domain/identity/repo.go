package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)

	// ProfileIDs resolves the patient/doctor profile rows linked to a
	// user, for embedding in issued tokens.
	ProfileIDs(ctx context.Context, userID uuid.UUID) (ProfileIDs, error)
}
