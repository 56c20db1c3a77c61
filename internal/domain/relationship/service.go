package relationship

import (
	"context"
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

// Create establishes a patient-doctor relationship. Doctors may only
// create relationships naming their own profile; patients theirs.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*Relationship, error) {
	d := authz.CanAccess(actor, authz.ActionCreate, authz.ResourceRelationship,
		authz.OwnerRefs{PatientID: &in.PatientID, DoctorID: &in.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	var errs []apperr.FieldError
	if in.PatientID == uuid.Nil {
		errs = append(errs, apperr.FieldError{Field: "patient_id", Message: "is required"})
	}
	if in.DoctorID == uuid.Nil {
		errs = append(errs, apperr.FieldError{Field: "doctor_id", Message: "is required"})
	}
	if !validType(in.RelationshipType) {
		errs = append(errs, apperr.FieldError{Field: "relationship_type", Message: "must be primary, specialist or consultant"})
	}
	if len(errs) > 0 {
		return nil, apperr.Validation("invalid relationship data", errs...)
	}

	start := time.Now().UTC()
	if in.StartDate != nil {
		start = *in.StartDate
	}

	rel := &Relationship{
		PatientID:        in.PatientID,
		DoctorID:         in.DoctorID,
		RelationshipType: in.RelationshipType,
		Status:           StatusActive,
		Priority:         in.Priority,
		StartDate:        start,
		Notes:            in.Notes,
	}
	if err := s.repo.Create(ctx, rel); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("create relationship", err)
	}
	return rel, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*Relationship, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionRead, authz.ResourceRelationship,
		authz.OwnerRefs{PatientID: &rel.PatientID, DoctorID: &rel.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	return rel, nil
}

// Update changes status, priority, end date or notes. Ending a
// relationship sets the end date when none was given.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, in UpdateInput) (*Relationship, error) {
	rel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceRelationship,
		authz.OwnerRefs{PatientID: &rel.PatientID, DoctorID: &rel.DoctorID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, apperr.Validation("invalid relationship data",
				apperr.FieldError{Field: "status", Message: "must be active, inactive or ended"})
		}
		rel.Status = *in.Status
		if rel.Status == StatusEnded && rel.EndDate == nil && in.EndDate == nil {
			now := time.Now().UTC()
			rel.EndDate = &now
		}
	}
	if in.Priority != nil {
		rel.Priority = *in.Priority
	}
	if in.EndDate != nil {
		rel.EndDate = in.EndDate
	}
	if in.Notes != nil {
		rel.Notes = *in.Notes
	}

	if err := s.repo.Update(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// Delete removes a relationship row. Only admins may hard-delete;
// doctors and patients end relationships through status updates.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	d := authz.CanAccess(actor, authz.ActionDelete, authz.ResourceRelationship, authz.OwnerRefs{})
	if !d.Allowed {
		return apperr.Denied(d.Reason)
	}
	return s.repo.Delete(ctx, id)
}

// List scopes results to the caller: patients see their own
// relationships, doctors theirs, admins everything.
func (s *Service) List(ctx context.Context, actor authz.Actor, f Filter, limit, offset int) ([]*Relationship, int, error) {
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
