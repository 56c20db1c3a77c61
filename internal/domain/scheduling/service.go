package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelog/carelog/internal/domain/doctor"
	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/authz"
	"github.com/carelog/carelog/internal/platform/db"
)

// DoctorDirectory resolves doctor profiles for availability checks.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// TxRunner runs fn atomically. The production runner wraps a serializable
// database transaction; tests substitute a passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SerializableTx returns the production transaction runner. The overlap
// check and insert run in one serializable transaction so two concurrent
// bookings for the same slot cannot both commit; the exclusion
// constraint on the table backstops it.
func SerializableTx(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, pgx.Serializable, fn)
	}
}

// PassthroughTx runs fn directly, with no transaction. For tests.
func PassthroughTx() TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
}

type Service struct {
	repo    Repository
	doctors DoctorDirectory
	inTx    TxRunner
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory, inTx TxRunner) *Service {
	return &Service{repo: repo, doctors: doctors, inTx: inTx, now: time.Now}
}

// Create books an appointment. Validation failures and slot conflicts
// are distinct error kinds so callers can render distinct messages.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*Appointment, error) {
	d := authz.CanAccess(actor, authz.ActionCreate, authz.ResourceAppointment,
		authz.OwnerRefs{PatientID: &in.PatientID, DoctorID: &in.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	now := s.now()
	var errs []apperr.FieldError
	if in.PatientID == uuid.Nil {
		errs = append(errs, apperr.FieldError{Field: "patient_id", Message: "is required"})
	}
	if in.DoctorID == uuid.Nil {
		errs = append(errs, apperr.FieldError{Field: "doctor_id", Message: "is required"})
	}
	if !in.StartTime.After(now) {
		errs = append(errs, apperr.FieldError{Field: "start_time", Message: "must be in the future"})
	}
	if in.Duration < MinDuration || in.Duration > MaxDuration {
		errs = append(errs, apperr.FieldError{Field: "duration", Message: "must be between 15 and 240 minutes"})
	}
	if len(errs) > 0 {
		return nil, apperr.Validation("invalid appointment data", errs...)
	}

	if _, err := s.doctors.GetByID(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		StartTime: in.StartTime.UTC(),
		Duration:  in.Duration,
		Status:    StatusScheduled,
		Type:      in.Type,
		Reason:    in.Reason,
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListBookedByDoctor(ctx, in.DoctorID, appt.StartTime, appt.EndTime())
		if err != nil {
			return err
		}
		if HasConflict(appt.StartTime, appt.EndTime(), existing) {
			return apperr.Conflict("the requested time slot conflicts with an existing appointment")
		}
		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		if db.IsConstraintViolation(err, db.PgSerializationFail) {
			return nil, apperr.Conflict("the requested time slot is no longer available")
		}
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("create appointment", err)
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionRead, authz.ResourceAppointment,
		authz.OwnerRefs{PatientID: &appt.PatientID, DoctorID: &appt.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	return appt, nil
}

// Availability computes free slots for a doctor on a date, fresh on
// every call.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	booked, err := s.repo.ListBookedByDoctor(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(doc, dayStart, booked), nil
}

// Cancel applies the cancellation rule: booked status and more than two
// hours of lead time.
func (s *Service) Cancel(ctx context.Context, actor authz.Actor, id uuid.UUID, in CancelInput) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceAppointment,
		authz.OwnerRefs{PatientID: &appt.PatientID, DoctorID: &appt.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if !CanCancel(appt, s.now()) {
		return nil, apperr.Validation("appointment can no longer be cancelled")
	}

	appt.Status = StatusCancelled
	appt.CancellationReason = in.Reason
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// UpdateStatus moves an appointment along its lifecycle. Cancellation
// goes through Cancel so the lead-time rule always applies.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, in StatusInput) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceAppointment,
		authz.OwnerRefs{PatientID: &appt.PatientID, DoctorID: &appt.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if in.Status == StatusCancelled {
		return s.Cancel(ctx, actor, id, CancelInput{})
	}
	if !CanTransition(appt.Status, in.Status) {
		return nil, apperr.Validation("invalid status transition",
			apperr.FieldError{Field: "status", Message: "cannot move from " + appt.Status + " to " + in.Status})
	}

	appt.Status = in.Status
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// List scopes results to the caller the same way relationships do.
func (s *Service) List(ctx context.Context, actor authz.Actor, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch actor.Role {
	case authz.RoleAdmin:
	case authz.RolePatient:
		if actor.PatientID == nil {
			return nil, 0, apperr.Denied("no patient profile")
		}
		f.PatientID = actor.PatientID
	case authz.RoleDoctor:
		if actor.DoctorID == nil {
			return nil, 0, apperr.Denied("no doctor profile")
		}
		f.DoctorID = actor.DoctorID
	default:
		return nil, 0, apperr.Denied("")
	}
	return s.repo.List(ctx, f, limit, offset)
}
