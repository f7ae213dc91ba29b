// Package domain implements the funnel aggregation core: day-bucketed,
// dimension-grouped KPI counts with recomputed conversion rates.
package domain

import (
	leadsdomain "funil_backend/internal/leads/domain"
)

// Counts are the raw funnel numerators and denominators for one bucket.
// Rates are always derived from these, never stored.
type Counts struct {
	NewClients        int `json:"newClients"`
	ContactAttempts   int `json:"contactAttempts"`
	EffectiveContacts int `json:"effectiveContacts"`
	ScheduledVisits   int `json:"scheduledVisits"`
	AwaitingVisits    int `json:"awaitingVisits"`
	CompletedVisits   int `json:"completedVisits"`
	Enrollments       int `json:"enrollments"`
}

// Add merges another bucket's counts into this one. Summing counts and
// recomputing rates afterwards is the only correct way to aggregate
// across days or groups; averaging per-day rates is not.
func (c *Counts) Add(other Counts) {
	c.NewClients += other.NewClients
	c.ContactAttempts += other.ContactAttempts
	c.EffectiveContacts += other.EffectiveContacts
	c.ScheduledVisits += other.ScheduledVisits
	c.AwaitingVisits += other.AwaitingVisits
	c.CompletedVisits += other.CompletedVisits
	c.Enrollments += other.Enrollments
}

// Rates are the funnel conversion percentages.
type Rates struct {
	CE float64 `json:"ce"` // effective contacts / contact attempts
	AG float64 `json:"ag"` // scheduled visits / effective contacts
	AT float64 `json:"at"` // completed visits / awaiting visits
	MA float64 `json:"ma"` // enrollments / completed visits
}

// Rates computes the conversion percentages, guarding every division
// against a zero denominator.
func (c Counts) Rates() Rates {
	return Rates{
		CE: pct(c.EffectiveContacts, c.ContactAttempts),
		AG: pct(c.ScheduledVisits, c.EffectiveContacts),
		AT: pct(c.CompletedVisits, c.AwaitingVisits),
		MA: pct(c.Enrollments, c.CompletedVisits),
	}
}

func pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// Stage membership: each activity type contributes to a fixed set of
// counters. Scheduling counts as an attempt, an effective contact and a
// scheduled visit at once.
func (c *Counts) recordActivity(t leadsdomain.ActivityType) {
	switch t {
	case leadsdomain.ActivityContactAttempt:
		c.ContactAttempts++
	case leadsdomain.ActivityEffectiveContact:
		c.ContactAttempts++
		c.EffectiveContacts++
	case leadsdomain.ActivityScheduling:
		c.ContactAttempts++
		c.EffectiveContacts++
		c.ScheduledVisits++
	case leadsdomain.ActivityAttendance:
		c.CompletedVisits++
	case leadsdomain.ActivityEnrollment:
		c.Enrollments++
	}
}
