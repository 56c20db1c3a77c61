package scheduling

import (
	"strings"
	"time"

	"github.com/carelog/carelog/internal/domain/doctor"
)

// Overlaps is the half-open interval test: [s1,e1) and [s2,e2) overlap
// iff s1 < e2 and s2 < e1. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict reports whether the proposed interval collides with any
// appointment still occupying its slot.
func HasConflict(start, end time.Time, existing []*Appointment) bool {
	for _, a := range existing {
		if !a.Booked() {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime()) {
			return true
		}
	}
	return false
}

// AvailableSlots partitions the doctor's configured window on the given
// date into consultation-duration chunks, emitting only chunks free of
// booked appointments. The result is recomputed fresh on every call and
// is empty when the weekday is outside the doctor's available days or
// the availability fields don't parse.
func AvailableSlots(doc *doctor.Doctor, date time.Time, booked []*Appointment) []Slot {
	if doc.ConsultationDuration <= 0 {
		return nil
	}
	if !worksOn(doc, date.Weekday()) {
		return nil
	}

	windowStart, ok := atClock(date, doc.AvailableHoursStart)
	if !ok {
		return nil
	}
	windowEnd, ok := atClock(date, doc.AvailableHoursEnd)
	if !ok || !windowStart.Before(windowEnd) {
		return nil
	}

	step := time.Duration(doc.ConsultationDuration) * time.Minute
	slots := []Slot{}
	for start := windowStart; !start.Add(step).After(windowEnd); start = start.Add(step) {
		end := start.Add(step)
		if HasConflict(start, end, booked) {
			continue
		}
		slots = append(slots, Slot{Start: start, End: end, Duration: doc.ConsultationDuration})
	}
	return slots
}

// CanCancel reports whether the appointment may still be cancelled: it
// must be occupying its slot and start more than two hours from now.
func CanCancel(a *Appointment, now time.Time) bool {
	if !a.Booked() {
		return false
	}
	return a.StartTime.Sub(now) > minCancelLead
}

func worksOn(doc *doctor.Doctor, day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range doc.AvailableDays {
		if strings.ToLower(d) == name {
			return true
		}
	}
	return false
}

// atClock combines a date with an "HH:MM" wall-clock time in the date's
// location.
func atClock(date time.Time, clock string) (time.Time, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), true
}
