// Package repository provides data access for leads, activities and loss reasons.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funil_backend/internal/leads/domain"
	"funil_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is the persisted funnel record for a prospective client.
// Rows are never hard-deleted: perdido is terminal but the history stays.
type Lead struct {
	ID                    uuid.UUID
	Name                  string
	Phone                 string
	Email                 *string
	UnitID                uuid.UUID
	SourceID              uuid.UUID
	RegistrationName      string
	Status                domain.Status
	ScheduledDate         *time.Time
	ScheduledUnitID       *uuid.UUID
	ScheduledProfessorID  *uuid.UUID
	ScheduledRoomID       *uuid.UUID
	NextContactDate       *time.Time
	ValorizationConfirmed bool
	AssignedUserID        *uuid.UUID
	CreatedAt             time.Time
}

// Repository provides lead data access backed by postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, phone, email, unit_id, source_id, registration_name, status,
	scheduled_date, scheduled_unit_id, scheduled_professor_id, scheduled_room_id,
	next_contact_date, valorization_confirmed, assigned_user_id, created_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.UnitID,
		&lead.SourceID,
		&lead.RegistrationName,
		&lead.Status,
		&lead.ScheduledDate,
		&lead.ScheduledUnitID,
		&lead.ScheduledProfessorID,
		&lead.ScheduledRoomID,
		&lead.NextContactDate,
		&lead.ValorizationConfirmed,
		&lead.AssignedUserID,
		&lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead in the novo-cadastro stage.
func (r *Repository) Create(ctx context.Context, lead Lead) (*Lead, error) {
	query := `
		INSERT INTO leads
			(id, name, phone, email, unit_id, source_id, registration_name, status, valorization_confirmed)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + leadColumns

	saved, err := scanLead(r.pool.QueryRow(ctx, query,
		lead.ID,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.UnitID,
		lead.SourceID,
		lead.RegistrationName,
		lead.Status,
		lead.ValorizationConfirmed,
	))
	if err != nil {
		return nil, storeErr("create lead", err)
	}
	return saved, nil
}

// GetByID returns a lead or apperr.NotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, storeErr("get lead", err)
	}
	return lead, nil
}

// ListBoard returns leads for the kanban board, optionally filtered by unit,
// ordered by funnel position then recency.
func (r *Repository) ListBoard(ctx context.Context, unitID *uuid.UUID) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []interface{}{}
	if unitID != nil {
		query += ` WHERE unit_id = $1`
		args = append(args, *unitID)
	}
	query += ` ORDER BY status, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list board", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		items = append(items, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate board", err)
	}

	return items, nil
}

// storeErr wraps non-domain query failures as a transient store error.
// Callers may retry read paths with backoff; the engine itself never retries.
func storeErr(op string, err error) error {
	return apperr.Unavailable("lead store unreachable", fmt.Errorf("%s: %w", op, err))
}
