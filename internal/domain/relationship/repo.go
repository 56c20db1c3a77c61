package relationship

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rel *Relationship) error
	GetByID(ctx context.Context, id uuid.UUID) (*Relationship, error)
	Update(ctx context.Context, rel *Relationship) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Relationship, int, error)
}
