package audit

import (
	"context"
	"time"
)

// Repository persists audit entries. Entries are insert-only.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
	Overview(ctx context.Context, since time.Time) (*Overview, error)
}
