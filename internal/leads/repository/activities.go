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
)

// Activity is one immutable interaction recorded against a lead.
// Only the active flag ever changes after insert (soft delete).
type Activity struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	UserID         uuid.UUID
	Type           domain.ActivityType
	ContactChannel *domain.ContactChannel
	Result         *domain.AttendanceResult
	Notes          *string
	ScheduledDate  *time.Time
	ResourceUnitID *uuid.UUID
	ProfessorID    *uuid.UUID
	RoomID         *uuid.UUID
	Active         bool
	CreatedAt      time.Time
}

// LossReason explains why an attendance ended perdido. One attendance may
// carry several; TotalReasonsInEvent is the denominator for "why lost"
// breakdowns.
type LossReason struct {
	ID                  uuid.UUID
	ActivityID          uuid.UUID
	Reason              string
	PreviousStatus      domain.Status
	TotalReasonsInEvent int
	CreatedAt           time.Time
}

const activityColumns = `id, lead_id, user_id, type, contact_channel, result, notes,
	scheduled_date, resource_unit_id, professor_id, room_id, active, created_at`

func scanActivity(row pgx.Row) (*Activity, error) {
	var act Activity
	err := row.Scan(
		&act.ID,
		&act.LeadID,
		&act.UserID,
		&act.Type,
		&act.ContactChannel,
		&act.Result,
		&act.Notes,
		&act.ScheduledDate,
		&act.ResourceUnitID,
		&act.ProfessorID,
		&act.RoomID,
		&act.Active,
		&act.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// GetLastActivity returns the most recent active activity for a lead, or
// nil when the log is empty. Used by the duplicate-submission guard.
func (r *Repository) GetLastActivity(ctx context.Context, leadID uuid.UUID) (*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE lead_id = $1 AND active ORDER BY created_at DESC LIMIT 1`

	act, err := scanActivity(r.pool.QueryRow(ctx, query, leadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get last activity", err)
	}
	return act, nil
}

// CommitActivityParams carries everything that must commit atomically:
// the activity row, the fully derived lead snapshot, and any loss reasons.
type CommitActivityParams struct {
	Lead        Lead
	Activity    Activity
	LossReasons []LossReason
	// ExpectedStatus is the status the service derived the snapshot from.
	// The row is re-read under lock; a mismatch aborts with Conflict.
	ExpectedStatus domain.Status
	// CheckSlotConflict re-validates booking availability inside the
	// transaction for Scheduling activities.
	CheckSlotConflict bool
}

// CommitActivity applies an activity submission atomically: the activity,
// the derived lead update and any loss reasons commit together or not at all.
func (r *Repository) CommitActivity(ctx context.Context, params CommitActivityParams) (*Activity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin commit activity", err)
	}
	defer tx.Rollback(ctx)

	var currentStatus domain.Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM leads WHERE id = $1 FOR UPDATE`,
		params.Lead.ID,
	).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, storeErr("lock lead", err)
	}
	if currentStatus != params.ExpectedStatus {
		return nil, apperr.Conflict("lead changed since it was read")
	}

	if params.CheckSlotConflict {
		if err := r.checkSlotFree(ctx, tx, params.Lead, params.Activity); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE leads SET
			status = $2,
			scheduled_date = $3,
			scheduled_unit_id = $4,
			scheduled_professor_id = $5,
			scheduled_room_id = $6,
			next_contact_date = $7,
			valorization_confirmed = $8
		WHERE id = $1`,
		params.Lead.ID,
		params.Lead.Status,
		params.Lead.ScheduledDate,
		params.Lead.ScheduledUnitID,
		params.Lead.ScheduledProfessorID,
		params.Lead.ScheduledRoomID,
		params.Lead.NextContactDate,
		params.Lead.ValorizationConfirmed,
	)
	if err != nil {
		return nil, storeErr("update lead", err)
	}

	saved, err := scanActivity(tx.QueryRow(ctx, `
		INSERT INTO activities
			(id, lead_id, user_id, type, contact_channel, result, notes,
			 scheduled_date, resource_unit_id, professor_id, room_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		RETURNING `+activityColumns,
		params.Activity.ID,
		params.Activity.LeadID,
		params.Activity.UserID,
		params.Activity.Type,
		params.Activity.ContactChannel,
		params.Activity.Result,
		params.Activity.Notes,
		params.Activity.ScheduledDate,
		params.Activity.ResourceUnitID,
		params.Activity.ProfessorID,
		params.Activity.RoomID,
	))
	if err != nil {
		return nil, storeErr("insert activity", err)
	}

	for _, reason := range params.LossReasons {
		_, err = tx.Exec(ctx, `
			INSERT INTO loss_reasons
				(id, activity_id, reason, previous_status, total_reasons_in_event)
			VALUES ($1, $2, $3, $4, $5)`,
			reason.ID,
			saved.ID,
			reason.Reason,
			reason.PreviousStatus,
			reason.TotalReasonsInEvent,
		)
		if err != nil {
			return nil, storeErr("insert loss reason", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit activity", err)
	}
	return saved, nil
}

// checkSlotFree re-checks, under the transaction, that no other lead holds
// a booking within the fixed one-hour visit window on any target resource.
func (r *Repository) checkSlotFree(ctx context.Context, tx pgx.Tx, lead Lead, act Activity) error {
	if act.ScheduledDate == nil {
		return nil
	}

	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads
		WHERE id <> $1
			AND scheduled_date IS NOT NULL
			AND scheduled_date > $2::timestamptz - interval '60 minutes'
			AND scheduled_date < $2::timestamptz + interval '60 minutes'
			AND (
				($3::uuid IS NOT NULL AND scheduled_unit_id = $3)
				OR ($4::uuid IS NOT NULL AND scheduled_professor_id = $4)
				OR ($5::uuid IS NOT NULL AND scheduled_room_id = $5)
			)`,
		lead.ID,
		*act.ScheduledDate,
		act.ResourceUnitID,
		act.ProfessorID,
		act.RoomID,
	).Scan(&count)
	if err != nil {
		return storeErr("check slot conflict", err)
	}
	if count > 0 {
		return apperr.Conflict("timeslot already booked")
	}
	return nil
}

// Deactivate soft-deletes an activity. The row stays for audit history
// and is excluded from all reads and aggregates.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (*Activity, error) {
	act, err := scanActivity(r.pool.QueryRow(ctx, `
		UPDATE activities SET active = false WHERE id = $1
		RETURNING `+activityColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("activity not found")
	}
	if err != nil {
		return nil, storeErr("deactivate activity", err)
	}
	return act, nil
}

// ListByLead returns the active activity log for a lead, oldest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE lead_id = $1 AND active ORDER BY created_at ASC`, leadID)
	if err != nil {
		return nil, storeErr("list activities", err)
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		items = append(items, *act)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate activities", err)
	}
	return items, nil
}
