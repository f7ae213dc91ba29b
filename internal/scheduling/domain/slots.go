// Package domain implements the slot availability calculator as pure
// functions over business hours and an existing booking conflict set.
package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VisitDuration is how long a booked visit occupies a resource. Slots are
// 30-minute granular but a visit always blocks a full hour.
const VisitDuration = time.Hour

// Hours is one weekday-class window of the business-hours grid.
type Hours struct {
	Start    string // "08:00"
	End      string // "19:00"
	Interval time.Duration
}

// WeekHours selects the window per weekday class. Sunday is closed.
type WeekHours struct {
	Weekday  Hours
	Saturday Hours
}

// Professor is a bookable professor with an explicit priority ordering.
// Lower priority value wins when several professors are free.
type Professor struct {
	ID       uuid.UUID
	Name     string
	Priority int
}

// PairSlot is a free professor+room combination for one start time.
type PairSlot struct {
	Start         time.Time
	ProfessorID   uuid.UUID
	ProfessorName string
}

// AvailableSlots returns the free slot start times for a resource on the
// given date, in ascending order. A booking occupies itself and every
// following slot inside its one-hour visit.
func AvailableSlots(date time.Time, week WeekHours, bookings []time.Time) []time.Time {
	grid := slotGrid(date, week)
	free := make([]time.Time, 0, len(grid))
	for _, slot := range grid {
		if !blocked(slot, bookings) {
			free = append(free, slot)
		}
	}
	return free
}

// AvailablePairSlots returns slots free on the room and on at least one
// professor. For each slot the lowest-priority free professor is chosen.
func AvailablePairSlots(date time.Time, week WeekHours, professors []Professor, professorBookings map[uuid.UUID][]time.Time, roomBookings []time.Time) []PairSlot {
	ordered := make([]Professor, len(professors))
	copy(ordered, professors)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Name < ordered[j].Name
	})

	pairs := make([]PairSlot, 0)
	for _, slot := range AvailableSlots(date, week, roomBookings) {
		for _, prof := range ordered {
			if blocked(slot, professorBookings[prof.ID]) {
				continue
			}
			pairs = append(pairs, PairSlot{Start: slot, ProfessorID: prof.ID, ProfessorName: prof.Name})
			break
		}
	}
	return pairs
}

// slotGrid generates the candidate start times for a date from its
// weekday-class window. Sundays have no window.
func slotGrid(date time.Time, week WeekHours) []time.Time {
	var hours Hours
	switch date.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		hours = week.Saturday
	default:
		hours = week.Weekday
	}

	start, ok := atClock(date, hours.Start)
	if !ok {
		return nil
	}
	end, ok := atClock(date, hours.End)
	if !ok {
		return nil
	}
	interval := hours.Interval
	if interval <= 0 {
		return nil
	}

	grid := make([]time.Time, 0, int(end.Sub(start)/interval))
	for slot := start; slot.Before(end); slot = slot.Add(interval) {
		grid = append(grid, slot)
	}
	return grid
}

// blocked reports whether a candidate falls inside any booking's visit,
// the half-open interval [start, start+VisitDuration).
func blocked(slot time.Time, bookings []time.Time) bool {
	for _, booked := range bookings {
		if !slot.Before(booked) && slot.Before(booked.Add(VisitDuration)) {
			return true
		}
	}
	return false
}

// atClock combines the date with a "HH:MM" clock string in the date's
// location.
func atClock(date time.Time, clock string) (time.Time, bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), true
}
