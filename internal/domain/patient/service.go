package patient

import (
	"context"
	"strings"

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

// Create makes a patient profile. Patients may only create a profile
// bound to their own account.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*Patient, error) {
	if in.UserID == uuid.Nil {
		in.UserID = actor.UserID
	}

	d := authz.CanAccess(actor, authz.ActionCreate, authz.ResourcePatient, authz.OwnerRefs{UserID: &in.UserID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	if errs := validate(in.Gender, in.BloodType); len(errs) > 0 {
		return nil, apperr.Validation("invalid patient data", errs...)
	}

	p := &Patient{
		UserID:           in.UserID,
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		BloodType:        in.BloodType,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		Allergies:        in.Allergies,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal("create patient", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionRead, authz.ResourcePatient,
		authz.OwnerRefs{PatientID: &p.ID, UserID: &p.UserID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourcePatient,
		authz.OwnerRefs{PatientID: &p.ID, UserID: &p.UserID})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.BloodType != nil {
		p.BloodType = *in.BloodType
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = *in.EmergencyContact
	}
	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}

	if errs := validate(p.Gender, p.BloodType); len(errs) > 0 {
		return nil, apperr.Validation("invalid patient data", errs...)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List is admin-only; the policy grants no role blanket read over
// patients.
func (s *Service) List(ctx context.Context, actor authz.Actor, limit, offset int) ([]*Patient, int, error) {
	if actor.Role != authz.RoleAdmin {
		return nil, 0, apperr.Denied("admin role required")
	}
	return s.repo.List(ctx, limit, offset)
}

func validate(gender, bloodType string) []apperr.FieldError {
	var errs []apperr.FieldError
	switch strings.ToLower(gender) {
	case "", "male", "female", "other":
	default:
		errs = append(errs, apperr.FieldError{Field: "gender", Message: "must be male, female or other"})
	}
	if bloodType != "" && !validBloodTypes[strings.ToUpper(bloodType)] {
		errs = append(errs, apperr.FieldError{Field: "blood_type", Message: "must be a valid ABO type"})
	}
	return errs
}
