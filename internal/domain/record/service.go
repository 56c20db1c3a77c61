package record

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

// Create authors a medical record. Only the doctor named on the record
// (or an admin) may create it; the authoring user id is stamped as
// created_by.
func (s *Service) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*MedicalRecord, error) {
	d := authz.CanAccess(actor, authz.ActionCreate, authz.ResourceMedicalRecord,
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
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "is required"})
	}
	if len(errs) > 0 {
		return nil, apperr.Validation("invalid medical record data", errs...)
	}

	rec := &MedicalRecord{
		PatientID:      in.PatientID,
		DoctorID:       in.DoctorID,
		AppointmentID:  in.AppointmentID,
		CreatedBy:      actor.UserID,
		Title:          strings.TrimSpace(in.Title),
		RecordType:     in.RecordType,
		Diagnosis:      in.Diagnosis,
		Treatment:      in.Treatment,
		Notes:          in.Notes,
		Vitals:         in.Vitals,
		LabResults:     in.LabResults,
		ImagingResults: in.ImagingResults,
		Attachments:    in.Attachments,
		Status:         StatusActive,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperr.Internal("create medical record", err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusDeleted && actor.Role != authz.RoleAdmin {
		return nil, apperr.NotFound("medical record not found")
	}

	d := authz.CanAccess(actor, authz.ActionRead, authz.ResourceMedicalRecord,
		authz.OwnerRefs{PatientID: &rec.PatientID, DoctorID: &rec.DoctorID, CreatedBy: &rec.CreatedBy})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}
	return rec, nil
}

// Update mutates a record. The policy admits the owning doctor and the
// record's author; patients never write medical records. Status moves
// between active and archived here; deletion has its own path.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, in UpdateInput) (*MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusDeleted {
		return nil, apperr.NotFound("medical record not found")
	}

	d := authz.CanAccess(actor, authz.ActionUpdate, authz.ResourceMedicalRecord,
		authz.OwnerRefs{PatientID: &rec.PatientID, DoctorID: &rec.DoctorID, CreatedBy: &rec.CreatedBy})
	if !d.Allowed {
		return nil, apperr.Denied(d.Reason)
	}

	if in.Title != nil {
		rec.Title = strings.TrimSpace(*in.Title)
	}
	if in.RecordType != nil {
		rec.RecordType = *in.RecordType
	}
	if in.Diagnosis != nil {
		rec.Diagnosis = *in.Diagnosis
	}
	if in.Treatment != nil {
		rec.Treatment = *in.Treatment
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	if in.Vitals != nil {
		rec.Vitals = in.Vitals
	}
	if in.LabResults != nil {
		rec.LabResults = in.LabResults
	}
	if in.ImagingResults != nil {
		rec.ImagingResults = in.ImagingResults
	}
	if in.Attachments != nil {
		rec.Attachments = in.Attachments
	}
	if in.Status != nil {
		switch *in.Status {
		case StatusActive, StatusArchived:
			rec.Status = *in.Status
		default:
			return nil, apperr.Validation("invalid medical record data",
				apperr.FieldError{Field: "status", Message: "must be active or archived"})
		}
	}
	if rec.Title == "" {
		return nil, apperr.Validation("invalid medical record data",
			apperr.FieldError{Field: "title", Message: "is required"})
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete soft-deletes a record. Admin only; the row is kept.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	d := authz.CanAccess(actor, authz.ActionDelete, authz.ResourceMedicalRecord, authz.OwnerRefs{})
	if !d.Allowed {
		return apperr.Denied(d.Reason)
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	rec.Status = StatusDeleted
	return s.repo.Update(ctx, rec)
}

// List scopes results to the caller.
func (s *Service) List(ctx context.Context, actor authz.Actor, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
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
	if f.Status == StatusDeleted && actor.Role != authz.RoleAdmin {
		return nil, 0, apperr.Denied("only admins may list deleted records")
	}
	return s.repo.List(ctx, f, limit, offset)
}
