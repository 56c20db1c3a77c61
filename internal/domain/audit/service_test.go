package audit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	inserted []*Entry
	insertErr error
	lastFilter Filter
}

func (m *mockRepo) Insert(ctx context.Context, e *Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, e)
	return nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	m.lastFilter = f
	return nil, 0, nil
}

func (m *mockRepo) Overview(ctx context.Context, since time.Time) (*Overview, error) {
	return &Overview{}, nil
}

func TestRecordPersistsDerivedEntry(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())

	svc.Record(Descriptor{
		Method:     http.MethodPost,
		Path:       "/api/v1/appointments",
		StatusCode: http.StatusCreated,
		ActorRole:  "patient",
	}, nil)

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(repo.inserted))
	}
	e := repo.inserted[0]
	if e.Action != ActionCreate || e.Resource != "appointment" || !e.Success {
		t.Errorf("unexpected entry: action=%s resource=%s success=%v", e.Action, e.Resource, e.Success)
	}
}

func TestRecordSwallowsRepositoryErrors(t *testing.T) {
	repo := &mockRepo{insertErr: errors.New("db down")}
	svc := NewService(repo, zerolog.Nop())

	// Must not panic and must not retry.
	svc.Record(Descriptor{Method: http.MethodGet, Path: "/api/v1/patients", StatusCode: 200}, nil)

	if len(repo.inserted) != 0 {
		t.Error("entry should not have been stored")
	}
}

func TestFailedLoginsFilter(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())

	if _, _, err := svc.FailedLogins(context.Background(), time.Time{}, time.Time{}, 20, 0); err != nil {
		t.Fatalf("FailedLogins: %v", err)
	}

	f := repo.lastFilter
	if f.Action != ActionLoginAttempt {
		t.Errorf("action filter = %s, want %s", f.Action, ActionLoginAttempt)
	}
	if f.Success == nil || *f.Success {
		t.Error("success filter should select failures")
	}
}

func TestSecurityEventsFilter(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())

	if _, _, err := svc.SecurityEvents(context.Background(), time.Time{}, time.Time{}, 20, 0); err != nil {
		t.Fatalf("SecurityEvents: %v", err)
	}

	want := map[string]bool{CategoryAuthentication: true, CategoryAuthorization: true, CategorySecurity: true}
	if len(repo.lastFilter.Categories) != len(want) {
		t.Fatalf("categories = %v", repo.lastFilter.Categories)
	}
	for _, c := range repo.lastFilter.Categories {
		if !want[c] {
			t.Errorf("unexpected category %s", c)
		}
	}
}

func TestStatsOverviewValidatesDays(t *testing.T) {
	svc := NewService(&mockRepo{}, zerolog.Nop())
	if _, err := svc.StatsOverview(context.Background(), 400); err == nil {
		t.Error("expected validation error for days > 365")
	}
	ov, err := svc.StatsOverview(context.Background(), 0)
	if err != nil {
		t.Fatalf("StatsOverview: %v", err)
	}
	if ov.Days != 7 {
		t.Errorf("default days = %d, want 7", ov.Days)
	}
}
