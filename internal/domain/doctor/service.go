package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/authz"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create makes a doctor profile bound to the caller's own account.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*Doctor, error) {
	if in.UserID == uuid.Nil {
		in.UserID = actor.UserID
	}

	d := authz.CanAccess(actor, authz.ActionCreate, authz.ResourceDoctor, authz.OwnerRefs{UserID: &in.UserID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	if errs := validateCreate(in); len(errs) > 0 {
		return nil, apperr.Validation("invalid doctor data", errs...)
	}

	doc := &Doctor{
		UserID:               in.UserID,
		Specialization:       strings.TrimSpace(in.Specialization),
		LicenseNumber:        strings.TrimSpace(in.LicenseNumber),
		AvailableDays:        normalizeDays(in.AvailableDays),
		AvailableHoursStart:  in.AvailableHoursStart,
		AvailableHoursEnd:    in.AvailableHoursEnd,
		ConsultationDuration: in.ConsultationDuration,
		ConsultationFee:      in.ConsultationFee,
		Bio:                  in.Bio,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("create doctor", err)
	}
	return doc, nil
}

// Get returns a doctor profile. Profiles are directory information, so
// any authenticated user may read them; writes stay owner-gated.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, in UpdateInput) (*Doctor, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceDoctor,
		authz.OwnerRefs{DoctorID: &doc.ID, UserID: &doc.UserID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if in.Specialization != nil {
		doc.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.AvailableDays != nil {
		doc.AvailableDays = normalizeDays(in.AvailableDays)
	}
	if in.AvailableHoursStart != nil {
		doc.AvailableHoursStart = *in.AvailableHoursStart
	}
	if in.AvailableHoursEnd != nil {
		doc.AvailableHoursEnd = *in.AvailableHoursEnd
	}
	if in.ConsultationDuration != nil {
		doc.ConsultationDuration = *in.ConsultationDuration
	}
	if in.ConsultationFee != nil {
		doc.ConsultationFee = *in.ConsultationFee
	}
	if in.Bio != nil {
		doc.Bio = *in.Bio
	}

	if errs := validateAvailability(doc.AvailableDays, doc.AvailableHoursStart,
		doc.AvailableHoursEnd, doc.ConsultationDuration); len(errs) > 0 {
		return nil, apperr.Validation("invalid doctor data", errs...)
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List supports the doctor directory with an optional specialization
// filter.
func (s *Service) List(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, specialization, limit, offset)
}

func validateCreate(in CreateInput) []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(in.Specialization) == "" {
		errs = append(errs, apperr.FieldError{Field: "specialization", Message: "is required"})
	}
	if strings.TrimSpace(in.LicenseNumber) == "" {
		errs = append(errs, apperr.FieldError{Field: "license_number", Message: "is required"})
	}
	errs = append(errs, validateAvailability(in.AvailableDays, in.AvailableHoursStart,
		in.AvailableHoursEnd, in.ConsultationDuration)...)
	return errs
}

func validateAvailability(days []string, start, end string, duration int) []apperr.FieldError {
	var errs []apperr.FieldError
	for _, day := range days {
		if !validWeekdays[strings.ToLower(day)] {
			errs = append(errs, apperr.FieldError{Field: "available_days", Message: "contains an unknown weekday"})
			break
		}
	}
	startT, startErr := time.Parse("15:04", start)
	if startErr != nil {
		errs = append(errs, apperr.FieldError{Field: "available_hours_start", Message: "must be HH:MM"})
	}
	endT, endErr := time.Parse("15:04", end)
	if endErr != nil {
		errs = append(errs, apperr.FieldError{Field: "available_hours_end", Message: "must be HH:MM"})
	}
	if startErr == nil && endErr == nil && !startT.Before(endT) {
		errs = append(errs, apperr.FieldError{Field: "available_hours_end", Message: "must be after start"})
	}
	if duration < 15 || duration > 240 {
		errs = append(errs, apperr.FieldError{Field: "consultation_duration", Message: "must be between 15 and 240 minutes"})
	}
	return errs
}

func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, strings.ToLower(strings.TrimSpace(d)))
	}
	return out
}
