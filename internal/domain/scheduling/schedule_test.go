package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/domain/doctor"
)

func mkTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(0), at(30), at(0), at(30), true},
		{"partial overlap", at(0), at(30), at(15), at(45), true},
		{"containment", at(0), at(60), at(15), at(30), true},
		{"touching end to start", at(0), at(30), at(30), at(60), false},
		{"touching start to end", at(30), at(60), at(0), at(30), false},
		{"disjoint", at(0), at(30), at(45), at(60), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// Symmetry.
			if got := Overlaps(tc.s2, tc.e2, tc.s1, tc.e1); got != tc.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasConflictIgnoresNonBooked(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	for _, status := range []string{StatusCancelled, StatusCompleted, StatusNoShow} {
		existing := []*Appointment{{StartTime: start, Duration: 30, Status: status}}
		if HasConflict(start, end, existing) {
			t.Errorf("status %s should not block the slot", status)
		}
	}
	existing := []*Appointment{{StartTime: start, Duration: 30, Status: StatusConfirmed}}
	if !HasConflict(start, end, existing) {
		t.Error("confirmed appointment should block the slot")
	}
}

func testDoctor() *doctor.Doctor {
	return &doctor.Doctor{
		ID:                   uuid.New(),
		AvailableDays:        []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		AvailableHoursStart:  "09:00",
		AvailableHoursEnd:    "17:00",
		ConsultationDuration: 30,
	}
}

func TestAvailableSlotsFullDay(t *testing.T) {
	// 2026-09-07 is a Monday.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	slots := AvailableSlots(testDoctor(), monday, nil)
	if len(slots) != 16 {
		t.Fatalf("got %d slots, want 16 for a 09:00-17:00 window at 30min", len(slots))
	}
	if !slots[0].Start.Equal(monday.Add(9 * time.Hour)) {
		t.Errorf("first slot starts at %v, want 09:00", slots[0].Start)
	}
	last := slots[len(slots)-1]
	if !last.End.Equal(monday.Add(17 * time.Hour)) {
		t.Errorf("last slot ends at %v, want 17:00", last.End)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].End) {
			t.Fatalf("slots %d and %d are not consecutive", i-1, i)
		}
	}
}

func TestAvailableSlotsSkipsBooked(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	booked := []*Appointment{{
		StartTime: monday.Add(10 * time.Hour),
		Duration:  30,
		Status:    StatusScheduled,
	}}

	slots := AvailableSlots(testDoctor(), monday, booked)
	if len(slots) != 15 {
		t.Fatalf("got %d slots, want 15 with one booked", len(slots))
	}
	for _, s := range slots {
		if s.Start.Equal(monday.Add(10 * time.Hour)) {
			t.Error("booked slot still offered")
		}
	}
}

func TestAvailableSlotsOffDay(t *testing.T) {
	// 2026-09-06 is a Sunday.
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	if slots := AvailableSlots(testDoctor(), sunday, nil); len(slots) != 0 {
		t.Errorf("got %d slots on an off day, want 0", len(slots))
	}
}

func TestAvailableSlotsDeterministic(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	doc := testDoctor()
	booked := []*Appointment{{StartTime: monday.Add(11 * time.Hour), Duration: 30, Status: StatusConfirmed}}

	first := AvailableSlots(doc, monday, booked)
	second := AvailableSlots(doc, monday, booked)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Fatalf("slot %d differs between identical calls", i)
		}
	}
}

func TestAvailableSlotsPartialChunkDropped(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	doc := testDoctor()
	// 09:00-10:45 at 30 minutes: the 10:30-11:00 chunk does not fit.
	doc.AvailableHoursEnd = "10:45"

	slots := AvailableSlots(doc, monday, nil)
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
}

func TestCanCancel(t *testing.T) {
	now := mkTime(t, "2026-09-07T12:00:00Z")

	cases := []struct {
		name   string
		start  time.Time
		status string
		want   bool
	}{
		{"scheduled 3h out", now.Add(3 * time.Hour), StatusScheduled, true},
		{"confirmed 3h out", now.Add(3 * time.Hour), StatusConfirmed, true},
		{"scheduled 1h out", now.Add(time.Hour), StatusScheduled, false},
		{"exactly 2h out", now.Add(2 * time.Hour), StatusScheduled, false},
		{"already cancelled", now.Add(3 * time.Hour), StatusCancelled, false},
		{"completed", now.Add(3 * time.Hour), StatusCompleted, false},
		{"in the past", now.Add(-time.Hour), StatusScheduled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Appointment{StartTime: tc.start, Duration: 30, Status: tc.status}
			if got := CanCancel(a, now); got != tc.want {
				t.Errorf("CanCancel = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusScheduled, StatusConfirmed},
		{StatusConfirmed, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusConfirmed, StatusNoShow},
		{StatusScheduled, StatusCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{StatusScheduled, StatusCompleted},
		{StatusCompleted, StatusScheduled},
		{StatusCancelled, StatusConfirmed},
		{StatusInProgress, StatusCancelled},
		{StatusNoShow, StatusScheduled},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}
