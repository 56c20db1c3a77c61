package record

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/authz"
)

type mockRepo struct {
	byID map[uuid.UUID]*MedicalRecord
}

func newMockRepo() *mockRepo { return &mockRepo{byID: map[uuid.UUID]*MedicalRecord{}} }

func (m *mockRepo) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	m.byID[rec.ID] = rec
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return nil, apperr.NotFound("medical record not found")
}

func (m *mockRepo) Update(ctx context.Context, rec *MedicalRecord) error {
	m.byID[rec.ID] = rec
	return nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
	var out []*MedicalRecord
	for _, rec := range m.byID {
		out = append(out, rec)
	}
	return out, len(out), nil
}

func doctorActor(doctorID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: authz.RoleDoctor, DoctorID: &doctorID}
}

func TestDoctorAuthorsRecordForOwnPatients(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	docID := uuid.New()
	actor := doctorActor(docID)

	rec, err := svc.Create(ctx, actor, CreateInput{
		PatientID: uuid.New(),
		DoctorID:  docID,
		Title:     "Annual checkup",
		Vitals:    map[string]interface{}{"bp": "120/80"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.CreatedBy != actor.UserID {
		t.Error("created_by not stamped with the authoring user")
	}
	if rec.Status != StatusActive {
		t.Errorf("status = %s, want active", rec.Status)
	}

	// A record naming a different doctor is denied.
	_, err = svc.Create(ctx, actor, CreateInput{
		PatientID: uuid.New(), DoctorID: uuid.New(), Title: "X",
	})
	if apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("foreign doctor kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestPatientNeverWritesRecords(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	docID := uuid.New()
	patID := uuid.New()

	rec, err := svc.Create(ctx, doctorActor(docID), CreateInput{
		PatientID: patID, DoctorID: docID, Title: "Visit",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	patient := authz.Actor{UserID: uuid.New(), Role: authz.RolePatient, PatientID: &patID}

	if _, err := svc.Get(ctx, patient, rec.ID); err != nil {
		t.Errorf("patient read of own record failed: %v", err)
	}

	title := "Edited"
	if _, err := svc.Update(ctx, patient, rec.ID, UpdateInput{Title: &title}); apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("patient update kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestAuthorMayUpdateOthersPatientRecord(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	docID := uuid.New()
	author := doctorActor(docID)

	rec, err := svc.Create(ctx, author, CreateInput{
		PatientID: uuid.New(), DoctorID: docID, Title: "Consult",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Author keeps update rights even when acting without a matching
	// doctor id in refs.
	authorLater := authz.Actor{UserID: author.UserID, Role: authz.RoleDoctor}
	title := "Consult (amended)"
	if _, err := svc.Update(ctx, authorLater, rec.ID, UpdateInput{Title: &title}); err != nil {
		t.Errorf("author update failed: %v", err)
	}

	otherDoc := doctorActor(uuid.New())
	if _, err := svc.Update(ctx, otherDoc, rec.ID, UpdateInput{Title: &title}); apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("other doctor update kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestSoftDelete(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	docID := uuid.New()
	patID := uuid.New()

	rec, err := svc.Create(ctx, doctorActor(docID), CreateInput{
		PatientID: patID, DoctorID: docID, Title: "Visit",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, doctorActor(docID), rec.ID); apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("doctor delete kind = %v, want denied", apperr.KindOf(err))
	}

	admin := authz.Actor{UserID: uuid.New(), Role: authz.RoleAdmin}
	if err := svc.Delete(ctx, admin, rec.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	// Row survives as deleted, hidden from non-admins.
	if repo.byID[rec.ID].Status != StatusDeleted {
		t.Error("record not marked deleted")
	}
	patient := authz.Actor{UserID: uuid.New(), Role: authz.RolePatient, PatientID: &patID}
	if _, err := svc.Get(ctx, patient, rec.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("deleted record read kind = %v, want not found", apperr.KindOf(err))
	}
	if _, err := svc.Get(ctx, admin, rec.ID); err != nil {
		t.Errorf("admin read of deleted record failed: %v", err)
	}
}

func TestArchiveRestore(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	docID := uuid.New()
	actor := doctorActor(docID)

	rec, err := svc.Create(ctx, actor, CreateInput{
		PatientID: uuid.New(), DoctorID: docID, Title: "Old visit",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	archived := StatusArchived
	rec, err = svc.Update(ctx, actor, rec.ID, UpdateInput{Status: &archived})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if rec.Status != StatusArchived {
		t.Errorf("status = %s, want archived", rec.Status)
	}

	deleted := StatusDeleted
	if _, err := svc.Update(ctx, actor, rec.ID, UpdateInput{Status: &deleted}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("update-to-deleted kind = %v, want validation", apperr.KindOf(err))
	}
}
