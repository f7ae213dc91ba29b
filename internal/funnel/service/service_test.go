package service

import (
	"context"
	"testing"
	"time"

	"funil_backend/internal/funnel/domain"
	"funil_backend/internal/funnel/repository"
	"funil_backend/internal/funnel/transport"
	leadsdomain "funil_backend/internal/leads/domain"
	"funil_backend/platform/apperr"
	"funil_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSnapshots struct {
	acts    []domain.ActivityRecord
	leads   []domain.LeadRecord
	units   []uuid.UUID
	sources []uuid.UUID

	lastFilter repository.SnapshotFilter
}

func (f *fakeSnapshots) Activities(_ context.Context, filter repository.SnapshotFilter) ([]domain.ActivityRecord, error) {
	f.lastFilter = filter
	out := make([]domain.ActivityRecord, 0)
	for _, a := range f.acts {
		if containsID(filter.UnitIDs, a.UnitID) && containsID(filter.SourceIDs, a.SourceID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) Leads(_ context.Context, filter repository.SnapshotFilter) ([]domain.LeadRecord, error) {
	out := make([]domain.LeadRecord, 0)
	for _, l := range f.leads {
		if containsID(filter.UnitIDs, l.UnitID) && containsID(filter.SourceIDs, l.SourceID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) UnitIDs(context.Context) ([]uuid.UUID, error)   { return f.units, nil }
func (f *fakeSnapshots) SourceIDs(context.Context) ([]uuid.UUID, error) { return f.sources, nil }

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type countingCache struct {
	store map[string][]byte
	gets  int
	sets  int
	hits  int
}

func (c *countingCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	if _, ok := c.store[key]; !ok {
		return false, nil
	}
	c.hits++
	return true, nil
}

func (c *countingCache) Set(_ context.Context, key string, _ interface{}) error {
	c.sets++
	c.store[key] = []byte("x")
	return nil
}

func day(d, hour int) time.Time {
	return time.Date(2026, 8, d, hour, 0, 0, 0, time.Local)
}

func baseQuery() transport.Query {
	return transport.Query{
		From:    day(1, 0),
		To:      day(31, 0),
		Units:   domain.SelectAll(),
		Sources: domain.SelectAll(),
		GroupBy: transport.GroupByDay,
	}
}

func newFixture() *fakeSnapshots {
	unitA, unitB := uuid.New(), uuid.New()
	srcA, srcB := uuid.New(), uuid.New()
	userA, userB := uuid.New(), uuid.New()

	return &fakeSnapshots{
		units:   []uuid.UUID{unitA, unitB},
		sources: []uuid.UUID{srcA, srcB},
		acts: []domain.ActivityRecord{
			{Type: leadsdomain.ActivityContactAttempt, CreatedAt: day(5, 10), UserID: userA, UserName: "Ana", UnitID: unitA, SourceID: srcA, RegistrationName: "site"},
			{Type: leadsdomain.ActivityEffectiveContact, CreatedAt: day(5, 11), UserID: userA, UserName: "Ana", UnitID: unitA, SourceID: srcA, RegistrationName: "site"},
			{Type: leadsdomain.ActivityContactAttempt, CreatedAt: day(6, 10), UserID: userB, UserName: "Bruno", UnitID: unitB, SourceID: srcB, RegistrationName: "indicacao"},
		},
		leads: []domain.LeadRecord{
			{CreatedAt: day(5, 9), UnitID: unitA, SourceID: srcA, RegistrationName: "site"},
			{CreatedAt: day(6, 9), UnitID: unitB, SourceID: srcB, RegistrationName: "indicacao"},
		},
	}
}

func TestAggregateAllEqualsExplicitUnion(t *testing.T) {
	repo := newFixture()
	svc := New(repo, nil, logger.New("test"))

	all, err := svc.Aggregate(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("Aggregate(all): %v", err)
	}

	q := baseQuery()
	q.Units = domain.SelectIDs(repo.units)
	q.Sources = domain.SelectIDs(repo.sources)
	union, err := svc.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate(union): %v", err)
	}

	if all.Totals != union.Totals {
		t.Fatalf("all-sentinel totals %+v differ from explicit union %+v", all.Totals, union.Totals)
	}
}

func TestAggregateEmptySubsetReturnsEmptyReport(t *testing.T) {
	repo := newFixture()
	svc := New(repo, nil, logger.New("test"))

	q := baseQuery()
	q.Units = domain.SelectIDs([]uuid.UUID{uuid.New()}) // unknown unit
	report, err := svc.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.Buckets) != 0 || report.Totals != (domain.Counts{}) {
		t.Fatalf("unknown-unit subset must yield an empty report, got %+v", report.Totals)
	}
}

func TestAggregateUserGrouping(t *testing.T) {
	repo := newFixture()
	// A user present only via lead assignment with no activity must be
	// excluded from the output.
	idle := uuid.New()
	repo.leads = append(repo.leads, domain.LeadRecord{
		CreatedAt: day(7, 9), UnitID: repo.units[0], SourceID: repo.sources[0],
		AssignedUserID: &idle, AssignedUserName: "Zeca",
	})
	svc := New(repo, nil, logger.New("test"))

	q := baseQuery()
	q.GroupBy = transport.GroupByUser
	report, err := svc.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("got %d user rows, want 2 (zero-activity user excluded)", len(report.Rows))
	}
	if report.Rows[0].Group.Label != "Ana" || report.Rows[1].Group.Label != "Bruno" {
		t.Fatalf("user rows must be sorted by display name, got %q, %q",
			report.Rows[0].Group.Label, report.Rows[1].Group.Label)
	}
	if report.Rows[0].Counts.ContactAttempts != 2 {
		t.Errorf("Ana attempts = %d, want 2", report.Rows[0].Counts.ContactAttempts)
	}
}

func TestAggregateRegistrationGrouping(t *testing.T) {
	repo := newFixture()
	svc := New(repo, nil, logger.New("test"))

	q := baseQuery()
	q.GroupBy = transport.GroupByRegistration
	q.SortBy = "contactAttempts"
	q.SortDesc = true
	report, err := svc.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if report.TotalRows != 2 || len(report.Registrations) != 2 {
		t.Fatalf("got %d registration rows, want 2", len(report.Registrations))
	}
	first := report.Registrations[0]
	if first.Registration != "site" {
		t.Fatalf("descending attempts sort must put site first, got %q", first.Registration)
	}
	if len(first.Sources) != 1 || first.Sources[0].Counts.ContactAttempts != 2 {
		t.Errorf("site source subtotal = %+v, want 2 attempts under one source", first.Sources)
	}
}

func TestAggregateRegistrationPaginationPastEnd(t *testing.T) {
	repo := newFixture()
	svc := New(repo, nil, logger.New("test"))

	q := baseQuery()
	q.GroupBy = transport.GroupByRegistration
	q.Page = 2
	report, err := svc.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.Registrations) != 0 {
		t.Fatalf("page past the end must be empty, got %d rows", len(report.Registrations))
	}
	if report.TotalRows != 2 {
		t.Errorf("totalRows = %d, want 2", report.TotalRows)
	}
}

func TestAggregateUsesCache(t *testing.T) {
	repo := newFixture()
	c := &countingCache{store: make(map[string][]byte)}
	svc := New(repo, c, logger.New("test"))

	if _, err := svc.Aggregate(context.Background(), baseQuery()); err != nil {
		t.Fatalf("first Aggregate: %v", err)
	}
	if _, err := svc.Aggregate(context.Background(), baseQuery()); err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}

	if c.sets != 1 {
		t.Errorf("sets = %d, want 1", c.sets)
	}
	if c.hits != 1 {
		t.Errorf("hits = %d, want 1 (identical query must share a key)", c.hits)
	}
}

func TestAggregateRejectsInvalidQuery(t *testing.T) {
	svc := New(newFixture(), nil, logger.New("test"))

	q := baseQuery()
	q.To = q.From.AddDate(0, 0, -1)
	if _, err := svc.Aggregate(context.Background(), q); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("inverted range: expected Validation, got %v", err)
	}

	q = baseQuery()
	q.GroupBy = "team"
	if _, err := svc.Aggregate(context.Background(), q); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown dimension: expected Validation, got %v", err)
	}
}
