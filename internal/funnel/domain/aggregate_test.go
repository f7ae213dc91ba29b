package domain

import (
	"testing"
	"time"

	leadsdomain "funil_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var groupAll Grouper = func(*LeadRecord, *ActivityRecord) (GroupKey, bool) {
	return GroupKey{ID: "total", Label: "total"}, true
}

func at(day int, hour int) time.Time {
	return time.Date(2026, 8, day, hour, 0, 0, 0, time.Local)
}

func actOn(day, hour int, t leadsdomain.ActivityType) ActivityRecord {
	return ActivityRecord{Type: t, CreatedAt: at(day, hour)}
}

func TestRatesZeroGuarded(t *testing.T) {
	var empty Counts
	rates := empty.Rates()
	if rates.CE != 0 || rates.AG != 0 || rates.AT != 0 || rates.MA != 0 {
		t.Fatalf("empty counts must yield zero rates, got %+v", rates)
	}
}

func TestRatesComputedFromCounts(t *testing.T) {
	c := Counts{ContactAttempts: 10, EffectiveContacts: 5, ScheduledVisits: 2, AwaitingVisits: 2, CompletedVisits: 1, Enrollments: 1}
	rates := c.Rates()
	if rates.CE != 50 {
		t.Errorf("ce = %v, want 50", rates.CE)
	}
	if rates.AG != 40 {
		t.Errorf("ag = %v, want 40", rates.AG)
	}
	if rates.AT != 50 {
		t.Errorf("at = %v, want 50", rates.AT)
	}
	if rates.MA != 100 {
		t.Errorf("ma = %v, want 100", rates.MA)
	}
}

func TestStageMembership(t *testing.T) {
	tests := []struct {
		actType leadsdomain.ActivityType
		want    Counts
	}{
		{leadsdomain.ActivityContactAttempt, Counts{ContactAttempts: 1}},
		{leadsdomain.ActivityEffectiveContact, Counts{ContactAttempts: 1, EffectiveContacts: 1}},
		{leadsdomain.ActivityScheduling, Counts{ContactAttempts: 1, EffectiveContacts: 1, ScheduledVisits: 1}},
		{leadsdomain.ActivityAttendance, Counts{CompletedVisits: 1}},
		{leadsdomain.ActivityEnrollment, Counts{Enrollments: 1}},
	}

	for _, tc := range tests {
		var c Counts
		c.recordActivity(tc.actType)
		if c != tc.want {
			t.Errorf("%s: counts = %+v, want %+v", tc.actType, c, tc.want)
		}
	}
}

func TestAggregateBucketsByWallClockDay(t *testing.T) {
	acts := []ActivityRecord{
		actOn(10, 1, leadsdomain.ActivityContactAttempt),
		actOn(10, 23, leadsdomain.ActivityContactAttempt),
		actOn(11, 12, leadsdomain.ActivityContactAttempt),
	}

	buckets := Aggregate(at(10, 0), at(11, 0), time.Local, nil, acts, groupAll)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if buckets[0].Day != "2026-08-10" || buckets[0].Counts.ContactAttempts != 2 {
		t.Errorf("day one = %+v, want 2 attempts on 2026-08-10", buckets[0])
	}
	if buckets[1].Day != "2026-08-11" || buckets[1].Counts.ContactAttempts != 1 {
		t.Errorf("day two = %+v", buckets[1])
	}
}

func TestAggregateAwaitingVisitsUsesScheduledDateAxis(t *testing.T) {
	visit := at(15, 10)
	acts := []ActivityRecord{
		{Type: leadsdomain.ActivityScheduling, CreatedAt: at(10, 9), ScheduledDate: &visit},
	}

	buckets := Aggregate(at(10, 0), at(15, 0), time.Local, nil, acts, groupAll)
	byDay := map[string]Counts{}
	for _, b := range buckets {
		byDay[b.Day] = b.Counts
	}

	created := byDay["2026-08-10"]
	if created.ScheduledVisits != 1 || created.AwaitingVisits != 0 {
		t.Errorf("creation day = %+v, want the scheduled visit only", created)
	}
	visitDay := byDay["2026-08-15"]
	if visitDay.AwaitingVisits != 1 || visitDay.ScheduledVisits != 0 {
		t.Errorf("visit day = %+v, want the awaiting visit only", visitDay)
	}
}

func TestAggregateRangeIsInclusive(t *testing.T) {
	acts := []ActivityRecord{
		actOn(9, 12, leadsdomain.ActivityContactAttempt),
		actOn(10, 12, leadsdomain.ActivityContactAttempt),
		actOn(12, 12, leadsdomain.ActivityContactAttempt),
		actOn(13, 12, leadsdomain.ActivityContactAttempt),
	}

	buckets := Aggregate(at(10, 0), at(12, 0), time.Local, nil, acts, groupAll)
	total := Merge(buckets)
	if total.ContactAttempts != 2 {
		t.Fatalf("attempts in [10,12] = %d, want 2", total.ContactAttempts)
	}
}

func TestAggregateNewClientsFromLeads(t *testing.T) {
	leads := []LeadRecord{
		{CreatedAt: at(10, 8)},
		{CreatedAt: at(10, 9)},
		{CreatedAt: at(20, 9)}, // outside the range
	}

	buckets := Aggregate(at(10, 0), at(11, 0), time.Local, leads, nil, groupAll)
	if total := Merge(buckets); total.NewClients != 2 {
		t.Fatalf("newClients = %d, want 2", total.NewClients)
	}
}

func TestMergeRecomputesRatesFromSums(t *testing.T) {
	// Day one: 1/2 effective. Day two: 9/10. The averaged rates would be
	// 70%; the correct merged rate is 10/12.
	a := Counts{ContactAttempts: 2, EffectiveContacts: 1}
	b := Counts{ContactAttempts: 10, EffectiveContacts: 9}

	var total Counts
	total.Add(a)
	total.Add(b)
	got := total.Rates().CE
	want := float64(10) / 12 * 100
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("merged ce = %v, want %v", got, want)
	}
}

func TestAggregateGrouperExcludes(t *testing.T) {
	userA := uuid.New()
	acts := []ActivityRecord{
		{Type: leadsdomain.ActivityContactAttempt, CreatedAt: at(10, 9), UserID: userA, UserName: "Ana"},
		{Type: leadsdomain.ActivityContactAttempt, CreatedAt: at(10, 9), UserID: uuid.New(), UserName: "Bruno"},
	}

	onlyA := Grouper(func(lead *LeadRecord, act *ActivityRecord) (GroupKey, bool) {
		if act == nil || act.UserID != userA {
			return GroupKey{}, false
		}
		return GroupKey{ID: act.UserID.String(), Label: act.UserName}, true
	})

	buckets := Aggregate(at(10, 0), at(10, 0), time.Local, nil, acts, onlyA)
	if len(buckets) != 1 || buckets[0].Group.Label != "Ana" {
		t.Fatalf("buckets = %+v, want only Ana", buckets)
	}
}

func TestSelectionResolve(t *testing.T) {
	known := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	if got := SelectAll().Resolve(known); len(got) != len(known) {
		t.Fatalf("all must expand to the known set, got %d ids", len(got))
	}

	stale := uuid.New()
	got := SelectIDs([]uuid.UUID{known[1], stale}).Resolve(known)
	if len(got) != 1 || got[0] != known[1] {
		t.Fatalf("subset must intersect with known ids, got %v", got)
	}
}
