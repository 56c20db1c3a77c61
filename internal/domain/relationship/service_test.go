package relationship

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/authz"
)

type mockRepo struct {
	byID map[uuid.UUID]*Relationship
	lastFilter Filter
}

func newMockRepo() *mockRepo { return &mockRepo{byID: map[uuid.UUID]*Relationship{}} }

func (m *mockRepo) Create(ctx context.Context, rel *Relationship) error {
	for _, existing := range m.byID {
		if existing.PatientID == rel.PatientID && existing.DoctorID == rel.DoctorID &&
			existing.RelationshipType == rel.RelationshipType {
			return apperr.Conflict("relationship of this type already exists for this patient and doctor")
		}
	}
	rel.ID = uuid.New()
	m.byID[rel.ID] = rel
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Relationship, error) {
	if rel, ok := m.byID[id]; ok {
		return rel, nil
	}
	return nil, apperr.NotFound("relationship not found")
}

func (m *mockRepo) Update(ctx context.Context, rel *Relationship) error {
	m.byID[rel.ID] = rel
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("relationship not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*Relationship, int, error) {
	m.lastFilter = f
	var out []*Relationship
	for _, rel := range m.byID {
		out = append(out, rel)
	}
	return out, len(out), nil
}

func doctorActor(doctorID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: authz.RoleDoctor, DoctorID: &doctorID}
}

func patientActor(patientID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: authz.RolePatient, PatientID: &patientID}
}

func TestDoctorCreatesOwnRelationshipOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	docID := uuid.New()
	actor := doctorActor(docID)

	rel, err := svc.Create(ctx, actor, CreateInput{
		PatientID:        uuid.New(),
		DoctorID:         docID,
		RelationshipType: TypePrimary,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rel.Status != StatusActive {
		t.Errorf("status = %s, want active", rel.Status)
	}

	_, err = svc.Create(ctx, actor, CreateInput{
		PatientID:        uuid.New(),
		DoctorID:         uuid.New(),
		RelationshipType: TypePrimary,
	})
	if apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("foreign doctor id kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestDuplicateTupleConflicts(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	docID := uuid.New()
	patID := uuid.New()
	actor := doctorActor(docID)

	in := CreateInput{PatientID: patID, DoctorID: docID, RelationshipType: TypeSpecialist}
	if _, err := svc.Create(ctx, actor, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, actor, in)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("duplicate kind = %v, want conflict", apperr.KindOf(err))
	}

	// A different type for the same pair is fine.
	in.RelationshipType = TypeConsultant
	if _, err := svc.Create(ctx, actor, in); err != nil {
		t.Errorf("different type create: %v", err)
	}
}

func TestEndingSetsEndDate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	docID := uuid.New()
	actor := doctorActor(docID)

	rel, err := svc.Create(ctx, actor, CreateInput{
		PatientID: uuid.New(), DoctorID: docID, RelationshipType: TypePrimary,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ended := StatusEnded
	rel, err = svc.Update(ctx, actor, rel.ID, UpdateInput{Status: &ended})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rel.EndDate == nil {
		t.Error("ending a relationship should stamp its end date")
	}
}

func TestListScopedToCaller(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	patID := uuid.New()
	if _, _, err := svc.List(ctx, patientActor(patID), Filter{}, 20, 0); err != nil {
		t.Fatalf("patient list: %v", err)
	}
	if repo.lastFilter.PatientID == nil || *repo.lastFilter.PatientID != patID {
		t.Error("patient list not scoped to own profile")
	}

	docID := uuid.New()
	if _, _, err := svc.List(ctx, doctorActor(docID), Filter{}, 20, 0); err != nil {
		t.Fatalf("doctor list: %v", err)
	}
	if repo.lastFilter.DoctorID == nil || *repo.lastFilter.DoctorID != docID {
		t.Error("doctor list not scoped to own profile")
	}
}

func TestDeleteAdminOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	docID := uuid.New()

	rel, err := svc.Create(ctx, doctorActor(docID), CreateInput{
		PatientID: uuid.New(), DoctorID: docID, RelationshipType: TypePrimary,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, doctorActor(docID), rel.ID); apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("doctor delete kind = %v, want denied", apperr.KindOf(err))
	}
	if err := svc.Delete(ctx, authz.Actor{Role: authz.RoleAdmin}, rel.ID); err != nil {
		t.Errorf("admin delete failed: %v", err)
	}
}
