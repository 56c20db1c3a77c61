package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/platform/apperr"
)

// recordTimeout bounds the best-effort audit write once the response has
// already been sent.
const recordTimeout = 5 * time.Second

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record derives an entry from the descriptor and appends it. The write
// is best-effort: failures are logged on the operational channel and
// never propagated, so the primary request outcome is unaffected. The
// caller invokes Record after the response is finalized, on a context
// detached from the request.
func (s *Service) Record(d Descriptor, actorID *uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := FromDescriptor(d)
	entry.ActorID = actorID

	if err := s.repo.Insert(ctx, &entry); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", d.RequestID).
			Str("path", d.Path).
			Msg("failed to write audit entry")
	}
}

// List returns entries matching the filter.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list audit entries", err)
	}
	return items, total, nil
}

// SecurityEvents returns entries in the security-relevant categories.
func (s *Service) SecurityEvents(ctx context.Context, from, to time.Time, limit, offset int) ([]*Entry, int, error) {
	f := Filter{
		Categories: []string{CategoryAuthentication, CategoryAuthorization, CategorySecurity},
		From:       from,
		To:         to,
	}
	return s.List(ctx, f, limit, offset)
}

// FailedLogins returns unsuccessful login attempts.
func (s *Service) FailedLogins(ctx context.Context, from, to time.Time, limit, offset int) ([]*Entry, int, error) {
	failed := false
	f := Filter{
		Action:  ActionLoginAttempt,
		Success: &failed,
		From:    from,
		To:      to,
	}
	return s.List(ctx, f, limit, offset)
}

// StatsOverview aggregates the trailing N days of audit activity.
func (s *Service) StatsOverview(ctx context.Context, days int) (*Overview, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		return nil, apperr.Validation("days must be at most 365")
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
	ov, err := s.repo.Overview(ctx, since)
	if err != nil {
		return nil, apperr.Internal("audit overview", err)
	}
	ov.Days = days
	return ov, nil
}
