package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/domain/doctor"
	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/authz"
)

type mockRepo struct {
	byID map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo { return &mockRepo{byID: map[uuid.UUID]*Appointment{}} }

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.byID[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if a, ok := m.byID[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("appointment not found")
}

func (m *mockRepo) Update(ctx context.Context, a *Appointment) error {
	m.byID[a.ID] = a
	return nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListBookedByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.byID {
		if a.DoctorID != doctorID || !a.Booked() {
			continue
		}
		if Overlaps(a.StartTime, a.EndTime(), from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockDoctors struct {
	byID map[uuid.UUID]*doctor.Doctor
}

func (m *mockDoctors) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, apperr.NotFound("doctor not found")
}

func fixedClock(t *testing.T, value string) func() time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return func() time.Time { return parsed }
}

func newTestService(t *testing.T) (*Service, *mockRepo, *doctor.Doctor) {
	t.Helper()
	repo := newMockRepo()
	doc := testDoctor()
	doctors := &mockDoctors{byID: map[uuid.UUID]*doctor.Doctor{doc.ID: doc}}
	svc := NewService(repo, doctors, PassthroughTx())
	svc.now = fixedClock(t, "2026-09-07T08:00:00Z")
	return svc, repo, doc
}

func patientActor(patientID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: authz.RolePatient, PatientID: &patientID}
}

func TestCreateBooksAppointment(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()

	appt, err := svc.Create(ctx, patientActor(patID), CreateInput{
		PatientID: patID,
		DoctorID:  doc.ID,
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		Duration:  30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", appt.Status)
	}
}

func TestCreateConflict(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	patA := uuid.New()
	if _, err := svc.Create(ctx, patientActor(patA), CreateInput{
		PatientID: patA, DoctorID: doc.ID, StartTime: start, Duration: 30,
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	patB := uuid.New()
	_, err := svc.Create(ctx, patientActor(patB), CreateInput{
		PatientID: patB, DoctorID: doc.ID, StartTime: start.Add(15 * time.Minute), Duration: 30,
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("overlapping booking kind = %v, want conflict", apperr.KindOf(err))
	}

	// Touching intervals do not conflict.
	if _, err := svc.Create(ctx, patientActor(patB), CreateInput{
		PatientID: patB, DoctorID: doc.ID, StartTime: start.Add(30 * time.Minute), Duration: 30,
	}); err != nil {
		t.Errorf("adjacent booking failed: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()
	actor := patientActor(patID)

	// Past start.
	_, err := svc.Create(ctx, actor, CreateInput{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 7, 0, 0, 0, time.UTC), Duration: 30,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("past start kind = %v, want validation", apperr.KindOf(err))
	}

	// Duration out of range.
	for _, dur := range []int{10, 241, 0, -30} {
		_, err := svc.Create(ctx, actor, CreateInput{
			PatientID: patID, DoctorID: doc.ID,
			StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), Duration: dur,
		})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("duration %d kind = %v, want validation", dur, apperr.KindOf(err))
		}
	}
}

func TestCreateDeniedForForeignPatient(t *testing.T) {
	svc, _, doc := newTestService(t)
	actor := patientActor(uuid.New())

	otherPatient := uuid.New()
	_, err := svc.Create(context.Background(), actor, CreateInput{
		PatientID: otherPatient, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), Duration: 30,
	})
	if apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestGetOwnershipCheck(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()
	owner := patientActor(patID)

	appt, err := svc.Create(ctx, owner, CreateInput{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), Duration: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, owner, appt.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.Get(ctx, patientActor(uuid.New()), appt.ID); apperr.KindOf(err) != apperr.KindDenied {
		t.Errorf("stranger read kind = %v, want denied", apperr.KindOf(err))
	}
}

func TestAvailabilityReflectsBookings(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	before, err := svc.Availability(ctx, doc.ID, monday)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(before) != 16 {
		t.Fatalf("got %d slots before booking, want 16", len(before))
	}

	if _, err := svc.Create(ctx, patientActor(patID), CreateInput{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: monday.Add(9 * time.Hour), Duration: 30,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	after, err := svc.Availability(ctx, doc.ID, monday)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(after) != 15 {
		t.Errorf("got %d slots after booking, want 15", len(after))
	}
}

func TestCancelLeadTime(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()
	owner := patientActor(patID)

	appt, err := svc.Create(ctx, owner, CreateInput{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC), Duration: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 4h lead: allowed.
	cancelled, err := svc.Cancel(ctx, owner, appt.ID, CancelInput{Reason: "conflict"})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancellationReason != "conflict" {
		t.Errorf("unexpected cancel result: %+v", cancelled)
	}

	// Under 2h lead: rejected.
	late := &Appointment{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Duration:  30, Status: StatusScheduled,
	}
	if err := repo.Create(ctx, late); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, owner, late.ID, CancelInput{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("late cancel kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()
	patID := uuid.New()
	owner := patientActor(patID)

	appt, err := svc.Create(ctx, owner, CreateInput{
		PatientID: patID, DoctorID: doc.ID,
		StartTime: time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC), Duration: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	docActor := authz.Actor{UserID: uuid.New(), Role: authz.RoleDoctor, DoctorID: &doc.ID}
	appt, err = svc.UpdateStatus(ctx, docActor, appt.ID, StatusInput{Status: StatusConfirmed})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", appt.Status)
	}

	if _, err := svc.UpdateStatus(ctx, docActor, appt.ID, StatusInput{Status: StatusCompleted}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("confirmed->completed kind = %v, want validation", apperr.KindOf(err))
	}
}
