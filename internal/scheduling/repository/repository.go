// Package repository reads the booking conflict set for slot availability.
// Bookings are not a table of their own: they are derived from leads whose
// scheduledDate is set.
package repository

import (
	"context"
	"fmt"
	"time"

	"funil_backend/internal/scheduling/domain"
	"funil_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func storeErr(op string, err error) error {
	return apperr.Unavailable("scheduling store unreachable", fmt.Errorf("%s: %w", op, err))
}

// UnitBookings returns the booked start times for a unit inside [from, to).
func (r *Repository) UnitBookings(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	query := `SELECT scheduled_date FROM leads
		WHERE scheduled_unit_id = $1 AND scheduled_date >= $2 AND scheduled_date < $3
		ORDER BY scheduled_date`
	return r.bookingTimes(ctx, "unit bookings", query, unitID, from, to)
}

// RoomBookings returns the booked start times for a room inside [from, to).
func (r *Repository) RoomBookings(ctx context.Context, roomID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	query := `SELECT scheduled_date FROM leads
		WHERE scheduled_room_id = $1 AND scheduled_date >= $2 AND scheduled_date < $3
		ORDER BY scheduled_date`
	return r.bookingTimes(ctx, "room bookings", query, roomID, from, to)
}

func (r *Repository) bookingTimes(ctx context.Context, op, query string, args ...interface{}) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, storeErr(op, err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return times, nil
}

// ProfessorBookings returns booked start times per professor inside [from, to).
func (r *Repository) ProfessorBookings(ctx context.Context, from, to time.Time) (map[uuid.UUID][]time.Time, error) {
	query := `SELECT scheduled_professor_id, scheduled_date FROM leads
		WHERE scheduled_professor_id IS NOT NULL AND scheduled_date >= $1 AND scheduled_date < $2
		ORDER BY scheduled_date`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, storeErr("professor bookings", err)
	}
	defer rows.Close()

	byProfessor := make(map[uuid.UUID][]time.Time)
	for rows.Next() {
		var profID uuid.UUID
		var t time.Time
		if err := rows.Scan(&profID, &t); err != nil {
			return nil, storeErr("professor bookings", err)
		}
		byProfessor[profID] = append(byProfessor[profID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("professor bookings", err)
	}
	return byProfessor, nil
}

// ListProfessors returns the active professors in priority order.
func (r *Repository) ListProfessors(ctx context.Context) ([]domain.Professor, error) {
	query := `SELECT id, name, priority FROM professors WHERE active = true ORDER BY priority, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list professors", err)
	}
	defer rows.Close()

	profs := make([]domain.Professor, 0)
	for rows.Next() {
		var p domain.Professor
		if err := rows.Scan(&p.ID, &p.Name, &p.Priority); err != nil {
			return nil, storeErr("list professors", err)
		}
		profs = append(profs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list professors", err)
	}
	return profs, nil
}
