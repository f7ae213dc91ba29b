// Package service resolves the booking conflict set and applies the slot
// calculator.
package service

import (
	"context"
	"time"

	"funil_backend/internal/scheduling/domain"
	"funil_backend/internal/scheduling/transport"
	"funil_backend/platform/config"

	"github.com/google/uuid"
)

// Bookings is the persistence collaborator; implemented by the scheduling
// repository, faked in tests.
type Bookings interface {
	UnitBookings(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]time.Time, error)
	RoomBookings(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]time.Time, error)
	ProfessorBookings(ctx context.Context, from, to time.Time) (map[uuid.UUID][]time.Time, error)
	ListProfessors(ctx context.Context) ([]domain.Professor, error)
}

type Service struct {
	repo Bookings
	week domain.WeekHours
}

func New(repo Bookings, hours config.BusinessHours) *Service {
	return &Service{repo: repo, week: toWeekHours(hours)}
}

// UnitSlots returns the free visit slots for a unit on a date.
func (s *Service) UnitSlots(ctx context.Context, unitID uuid.UUID, date time.Time) (*transport.SlotsResponse, error) {
	from, to := dayRange(date)
	bookings, err := s.repo.UnitBookings(ctx, unitID, from, to)
	if err != nil {
		return nil, err
	}

	free := domain.AvailableSlots(date, s.week, bookings)
	resp := &transport.SlotsResponse{Date: date.Format("2006-01-02"), Slots: make([]string, 0, len(free))}
	for _, slot := range free {
		resp.Slots = append(resp.Slots, slot.Format("15:04"))
	}
	return resp, nil
}

// PairSlots returns the free professor+room pairs for an inaugural class
// in the given room on a date.
func (s *Service) PairSlots(ctx context.Context, roomID uuid.UUID, date time.Time) (*transport.PairSlotsResponse, error) {
	from, to := dayRange(date)

	roomBookings, err := s.repo.RoomBookings(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	professorBookings, err := s.repo.ProfessorBookings(ctx, from, to)
	if err != nil {
		return nil, err
	}
	professors, err := s.repo.ListProfessors(ctx)
	if err != nil {
		return nil, err
	}

	pairs := domain.AvailablePairSlots(date, s.week, professors, professorBookings, roomBookings)
	resp := &transport.PairSlotsResponse{Date: date.Format("2006-01-02"), Slots: make([]transport.PairSlot, 0, len(pairs))}
	for _, pair := range pairs {
		resp.Slots = append(resp.Slots, transport.PairSlot{
			Time:          pair.Start.Format("15:04"),
			ProfessorID:   pair.ProfessorID,
			ProfessorName: pair.ProfessorName,
		})
	}
	return resp, nil
}

func dayRange(date time.Time) (time.Time, time.Time) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return from, from.AddDate(0, 0, 1)
}

func toWeekHours(hours config.BusinessHours) domain.WeekHours {
	return domain.WeekHours{
		Weekday: domain.Hours{
			Start:    hours.Weekday.Start,
			End:      hours.Weekday.End,
			Interval: time.Duration(hours.Weekday.IntervalMinutes) * time.Minute,
		},
		Saturday: domain.Hours{
			Start:    hours.Saturday.Start,
			End:      hours.Saturday.End,
			Interval: time.Duration(hours.Saturday.IntervalMinutes) * time.Minute,
		},
	}
}
