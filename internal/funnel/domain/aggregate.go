package domain

import (
	"sort"
	"time"

	leadsdomain "funil_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadRecord is the lead snapshot the aggregator reads.
type LeadRecord struct {
	CreatedAt        time.Time
	UnitID           uuid.UUID
	SourceID         uuid.UUID
	RegistrationName string
	AssignedUserID   *uuid.UUID
	AssignedUserName string
}

// ActivityRecord is the activity snapshot the aggregator reads, joined
// with its lead's grouping dimensions.
type ActivityRecord struct {
	Type             leadsdomain.ActivityType
	CreatedAt        time.Time
	ScheduledDate    *time.Time
	UserID           uuid.UUID
	UserName         string
	UnitID           uuid.UUID
	SourceID         uuid.UUID
	RegistrationName string
}

// GroupKey identifies one grouping dimension value inside a bucket.
type GroupKey struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Grouper extracts the group key for a record. Exactly one of lead or
// act is non-nil per call. Returning false excludes the record.
type Grouper func(lead *LeadRecord, act *ActivityRecord) (GroupKey, bool)

// Bucket is one (day, group) cell of the funnel report.
type Bucket struct {
	Day    string   `json:"day"`
	Group  GroupKey `json:"group"`
	Counts Counts   `json:"counts"`
	Rates  Rates    `json:"rates"`
}

// DayKey buckets a timestamp by its wall-clock day in the given location.
// Two timestamps on the same local day always share a key.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

type bucketKey struct {
	day   string
	group GroupKey
}

// Aggregate produces the day-bucketed, grouped funnel counts for the
// inclusive [from, to] day range. Most counts bucket on the record's
// creation day; awaitingVisits buckets a scheduling activity on its
// scheduledDate day instead.
func Aggregate(from, to time.Time, loc *time.Location, leads []LeadRecord, acts []ActivityRecord, group Grouper) []Bucket {
	fromDay := DayKey(from, loc)
	toDay := DayKey(to, loc)
	inRange := func(day string) bool {
		return day >= fromDay && day <= toDay
	}

	cells := make(map[bucketKey]*Counts)
	cell := func(day string, key GroupKey) *Counts {
		k := bucketKey{day: day, group: key}
		c, ok := cells[k]
		if !ok {
			c = &Counts{}
			cells[k] = c
		}
		return c
	}

	for i := range leads {
		lead := &leads[i]
		day := DayKey(lead.CreatedAt, loc)
		if !inRange(day) {
			continue
		}
		key, ok := group(lead, nil)
		if !ok {
			continue
		}
		cell(day, key).NewClients++
	}

	for i := range acts {
		act := &acts[i]
		key, ok := group(nil, act)
		if !ok {
			continue
		}

		if day := DayKey(act.CreatedAt, loc); inRange(day) {
			cell(day, key).recordActivity(act.Type)
		}

		if act.Type == leadsdomain.ActivityScheduling && act.ScheduledDate != nil {
			if day := DayKey(*act.ScheduledDate, loc); inRange(day) {
				cell(day, key).AwaitingVisits++
			}
		}
	}

	buckets := make([]Bucket, 0, len(cells))
	for k, counts := range cells {
		buckets = append(buckets, Bucket{Day: k.day, Group: k.group, Counts: *counts, Rates: counts.Rates()})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Day != buckets[j].Day {
			return buckets[i].Day < buckets[j].Day
		}
		if buckets[i].Group.Label != buckets[j].Group.Label {
			return buckets[i].Group.Label < buckets[j].Group.Label
		}
		return buckets[i].Group.ID < buckets[j].Group.ID
	})
	return buckets
}

// Merge sums buckets across days (and optionally groups) into totals,
// recomputing the rates from the summed counts.
func Merge(buckets []Bucket) Counts {
	var total Counts
	for _, b := range buckets {
		total.Add(b.Counts)
	}
	return total
}
